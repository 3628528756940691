package adapter

import (
	"context"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/nao1215/urldiff/internal/model"
)

// FastHTTP adapts the request-URI parser of github.com/valyala/fasthttp.
//
// fasthttp reports "http" when no scheme was given and "/" when the path is
// empty; both defaults are filtered with the lexical split, the scheme
// being kept as an inferred value. Hosts come back lower-cased and
// percent-decoded, so the host is marked decoded.
type FastHTTP struct{}

// NewFastHTTP returns the adapter.
func NewFastHTTP() *FastHTTP {
	return &FastHTTP{}
}

// Name implements Adapter.
func (a *FastHTTP) Name() string {
	return "fasthttp"
}

// Parse implements Adapter.
func (a *FastHTTP) Parse(_ context.Context, input []byte) model.Outcome {
	u := fasthttp.AcquireURI()
	defer fasthttp.ReleaseURI(u)

	if err := u.Parse(nil, input); err != nil {
		return model.Rejected(err.Error())
	}

	lex := Split(input)
	var b model.Builder

	scheme := string(u.Scheme())
	if lex.HasScheme && lex.HasAuthority && strings.EqualFold(lex.Scheme, scheme) {
		b.Scheme(lex.Scheme)
	} else if scheme != "" {
		b.InferredScheme(scheme)
	}

	user, password := string(u.Username()), string(u.Password())
	if user != "" || password != "" || lex.HasUserinfo {
		b.Userinfo()
		if user != "" {
			b.User(user)
		}
		if password != "" || strings.Contains(lex.Userinfo, ":") {
			b.Password(password)
		}
	}

	hostport := string(u.Host())
	if hostport != "" || (lex.HasScheme && lex.HasAuthority) {
		host, port, _ := splitHostPort(hostport)
		text, kind := model.ClassifyHost(host)
		b.Host(text, kind).Decoded(model.FieldHost)
		b.PortText(port)
	}

	if path := string(u.PathOriginal()); path != "" && !(path == "/" && lex.Path == "") {
		b.Path(path)
	}
	if q := u.QueryString(); len(q) > 0 || lex.HasQuery {
		b.Query(string(q))
	}
	if h := u.Hash(); len(h) > 0 || lex.HasFragment {
		b.Fragment(string(h))
	}

	return build(&b)
}
