package adapter

import (
	"context"
	"net/url"
	"strings"

	"github.com/go-faster/errors"

	"github.com/nao1215/urldiff/internal/model"
)

// NetURL adapts the standard library's net/url parser.
//
// net/url exposes the host, userinfo, path and fragment only after
// percent-decoding them, so those fields are marked decoded. The raw query
// and an opaque path are reported verbatim. The scheme is lower-cased by
// net/url; the original casing is recovered from the input.
type NetURL struct {
	requestURI bool
}

// NewNetURL returns an adapter for url.Parse.
func NewNetURL() *NetURL {
	return &NetURL{}
}

// NewNetURLRequest returns an adapter for url.ParseRequestURI, the stricter
// entry point net/http uses for request targets.
func NewNetURLRequest() *NetURL {
	return &NetURL{requestURI: true}
}

// Name implements Adapter.
func (a *NetURL) Name() string {
	if a.requestURI {
		return "net/url-request"
	}
	return "net/url"
}

// Parse implements Adapter.
func (a *NetURL) Parse(_ context.Context, input []byte) model.Outcome {
	s := string(input)

	var (
		u   *url.URL
		err error
	)
	if a.requestURI {
		u, err = url.ParseRequestURI(s)
	} else {
		u, err = url.Parse(s)
	}
	if err != nil {
		return model.Rejected(err.Error())
	}

	lex := Split(input)
	var b model.Builder

	if u.Scheme != "" {
		scheme := u.Scheme
		if strings.EqualFold(lex.Scheme, scheme) {
			scheme = lex.Scheme
		}
		b.Scheme(scheme)
	}

	if u.User != nil {
		b.Userinfo()
		if name := u.User.Username(); name != "" {
			b.User(name)
		}
		if password, ok := u.User.Password(); ok {
			b.Password(password)
		}
		b.Decoded(model.FieldUser, model.FieldPassword)
	}

	if a.parsedAuthority(u, lex) {
		host, kind := model.ClassifyHost(u.Hostname())
		if strings.HasPrefix(u.Host, "[") {
			kind = model.HostIPv6
		}
		b.Host(host, kind).Decoded(model.FieldHost)
		b.PortText(u.Port())
	}

	switch {
	case u.Opaque != "":
		b.Path(u.Opaque)
	case u.Path != "":
		b.Path(u.Path).Decoded(model.FieldPath)
	}

	if u.ForceQuery || u.RawQuery != "" {
		b.Query(u.RawQuery)
	}
	if lex.HasFragment {
		b.Fragment(u.Fragment).Decoded(model.FieldFragment)
	}

	return build(&b)
}

// parsedAuthority reports whether net/url treated a "//" prefix as an
// authority, which it does after a scheme, and without one only in
// url.Parse when the path does not start with "///".
func (a *NetURL) parsedAuthority(u *url.URL, lex Components) bool {
	if u.Host != "" || u.User != nil {
		return true
	}
	if !lex.HasAuthority {
		return false
	}
	if u.Scheme != "" {
		return true
	}
	tripleSlash := lex.Authority == "" && strings.HasPrefix(lex.Path, "/")
	return !a.requestURI && !tripleSlash
}

// build finishes an adapter's model. A library that accepted a port the
// canonical model cannot represent yields Fatal(unrepresentable), which
// still counts as an acceptance against parsers that refused the input.
func build(b *model.Builder) model.Outcome {
	u, err := b.Build()
	if err != nil {
		return buildFailure("canonical model: ", err)
	}
	return model.Success(u)
}

func buildFailure(prefix string, err error) model.Outcome {
	if errors.Is(err, model.ErrPortRange) {
		return model.Fatal(model.FatalUnrepresentable, prefix+err.Error())
	}
	return model.Fatal(model.FatalProtocol, prefix+err.Error())
}
