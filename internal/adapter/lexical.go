package adapter

import (
	"strings"
)

// Components holds the RFC 3986 Appendix B split of an input. It is a purely
// lexical split on the delimiters ":/?#@[]" with no validation, used by
// adapters to learn what the source text actually contained when a library
// fills in defaults or collapses absent components into empty strings.
type Components struct {
	Scheme    string
	HasScheme bool

	Authority    string
	HasAuthority bool

	// Userinfo is everything before the last '@' of the authority.
	Userinfo    string
	HasUserinfo bool

	// Host keeps the brackets of an IP literal.
	Host string

	// Port is the text after the host's ':' delimiter, possibly empty.
	Port    string
	HasPort bool

	Path string

	Query    string
	HasQuery bool

	Fragment    string
	HasFragment bool
}

// LiteralPort reports whether the input contained a non-empty port token.
func (c Components) LiteralPort() bool {
	return c.HasPort && c.Port != ""
}

// Split divides input into its components following the regular
// expression of RFC 3986 Appendix B:
//
//	^(([^:/?#]+):)?(//([^/?#]*))?([^?#]*)(\?([^#]*))?(#(.*))?
func Split(input []byte) Components {
	var c Components
	s := string(input)

	if i := strings.IndexByte(s, '#'); i >= 0 {
		c.Fragment, c.HasFragment = s[i+1:], true
		s = s[:i]
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		c.Query, c.HasQuery = s[i+1:], true
		s = s[:i]
	}
	if i := strings.IndexAny(s, ":/"); i > 0 && s[i] == ':' {
		c.Scheme, c.HasScheme = s[:i], true
		s = s[i+1:]
	}
	if strings.HasPrefix(s, "//") {
		s = s[2:]
		end := strings.IndexByte(s, '/')
		if end < 0 {
			end = len(s)
		}
		c.Authority, c.HasAuthority = s[:end], true
		s = s[end:]
		c.splitAuthority()
	}
	c.Path = s

	return c
}

func (c *Components) splitAuthority() {
	hostport := c.Authority
	if i := strings.LastIndexByte(hostport, '@'); i >= 0 {
		c.Userinfo, c.HasUserinfo = hostport[:i], true
		hostport = hostport[i+1:]
	}

	if strings.HasPrefix(hostport, "[") {
		if end := strings.IndexByte(hostport, ']'); end >= 0 {
			c.Host = hostport[:end+1]
			if rest := hostport[end+1:]; strings.HasPrefix(rest, ":") {
				c.Port, c.HasPort = rest[1:], true
			}
			return
		}
	}
	if i := strings.LastIndexByte(hostport, ':'); i >= 0 {
		c.Host = hostport[:i]
		c.Port, c.HasPort = hostport[i+1:], true
		return
	}
	c.Host = hostport
}

// splitHostPort separates a "host[:port]" string as most libraries report
// it, keeping brackets on IP literals.
func splitHostPort(hostport string) (host, port string, hasPort bool) {
	if strings.HasPrefix(hostport, "[") {
		if end := strings.IndexByte(hostport, ']'); end >= 0 {
			rest := hostport[end+1:]
			if strings.HasPrefix(rest, ":") {
				return hostport[:end+1], rest[1:], true
			}
			return hostport[:end+1], "", false
		}
	}
	if i := strings.LastIndexByte(hostport, ':'); i >= 0 {
		return hostport[:i], hostport[i+1:], true
	}
	return hostport, "", false
}
