package adapter

import (
	"context"
	"strings"

	"github.com/fredbi/uri"

	"github.com/nao1215/urldiff/internal/model"
)

// FredbiURI adapts github.com/fredbi/uri, a strict RFC 3986 validator.
//
// The library keeps every component verbatim. It exposes the query only as
// parsed url.Values, so the raw query is taken from the input using the
// library's own split rule (first '?' before the first '#'), which is the
// same rule Split applies.
type FredbiURI struct{}

// NewFredbiURI returns the adapter. URI references without a scheme are
// accepted, matching what the other adapters accept.
func NewFredbiURI() *FredbiURI {
	return &FredbiURI{}
}

// Name implements Adapter.
func (a *FredbiURI) Name() string {
	return "fredbi/uri"
}

// Parse implements Adapter.
func (a *FredbiURI) Parse(_ context.Context, input []byte) model.Outcome {
	u, err := uri.ParseReference(string(input))
	if err != nil {
		return model.Rejected(err.Error())
	}

	lex := Split(input)
	auth := u.Authority()
	var b model.Builder

	if scheme := u.Scheme(); scheme != "" {
		b.Scheme(scheme)
	}

	if strings.HasPrefix(auth.String(), "//") {
		if userinfo := auth.UserInfo(); userinfo != "" {
			b.SplitUserinfo(userinfo)
		}
		kind := model.HostName
		if strings.Contains(auth.String(), "["+auth.Host()+"]") {
			kind = model.HostIPv6
		} else if model.IsIPv4Literal(auth.Host()) {
			kind = model.HostIPv4
		}
		b.Host(auth.Host(), kind)
		b.PortText(auth.Port())
	}

	if path := auth.Path(); path != "" {
		b.Path(path)
	}
	if lex.HasQuery {
		b.Query(lex.Query)
	}
	if lex.HasFragment {
		b.Fragment(u.Fragment())
	}

	return build(&b)
}
