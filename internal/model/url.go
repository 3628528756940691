package model

import (
	"strconv"
	"strings"
)

// HostKind is the interpretation a parser gave to the host text.
type HostKind uint8

const (
	// HostNone means the URL has no host component.
	HostNone HostKind = iota
	// HostName is a registered name such as "example.com".
	HostName
	// HostIPv4 is a dotted IPv4 literal.
	HostIPv4
	// HostIPv6 is a bracketed IP literal (IPv6 or IPvFuture), stored without brackets.
	HostIPv6
)

// String returns the record spelling of the host kind.
func (k HostKind) String() string {
	switch k {
	case HostNone:
		return "none"
	case HostName:
		return "name"
	case HostIPv4:
		return "ipv4"
	case HostIPv6:
		return "ipv6"
	default:
		return "unknown"
	}
}

// ParseHostKind is the inverse of HostKind.String.
func ParseHostKind(s string) (HostKind, bool) {
	switch s {
	case "none":
		return HostNone, true
	case "name":
		return HostName, true
	case "ipv4":
		return HostIPv4, true
	case "ipv6":
		return HostIPv6, true
	default:
		return HostNone, false
	}
}

// URL is the canonical, library-independent parse result for one input.
//
// Every text value is kept verbatim as the source text contained it unless
// the field is listed in Decoded. A URL is only obtainable through Builder,
// so the presence invariants always hold, and it has no mutating methods.
type URL struct {
	presence Presence
	decoded  Presence

	scheme   string
	user     string
	password string
	host     string
	hostKind HostKind
	port     uint16
	path     string
	query    string
	fragment string

	inferredScheme    string
	hasInferredScheme bool
	inferredPort      uint16
	hasInferredPort   bool
}

// Presence returns the set of components the source text contained.
func (u URL) Presence() Presence { return u.presence }

// Decoded returns the fields the parser only exposed percent-decoded.
func (u URL) Decoded() Presence { return u.decoded }

// Has reports whether field f was present in the source text.
func (u URL) Has(f Field) bool { return u.presence.Has(f) }

// Scheme returns the scheme with its original casing.
func (u URL) Scheme() (string, bool) { return u.scheme, u.Has(FieldScheme) }

// User returns the user subcomponent of userinfo.
func (u URL) User() (string, bool) { return u.user, u.Has(FieldUser) }

// Password returns the password subcomponent of userinfo.
func (u URL) Password() (string, bool) { return u.password, u.Has(FieldPassword) }

// Userinfo returns the combined userinfo text, "user[:password]".
func (u URL) Userinfo() (string, bool) {
	if !u.Has(FieldUserinfo) {
		return "", false
	}
	if u.Has(FieldPassword) {
		return u.user + ":" + u.password, true
	}
	return u.user, true
}

// Host returns the host text and its interpretation.
// IPv6 literals are returned without brackets.
func (u URL) Host() (string, HostKind) { return u.host, u.hostKind }

// HostKind returns the interpretation of the host, HostNone when absent.
func (u URL) HostKind() HostKind { return u.hostKind }

// Port returns the literal port.
func (u URL) Port() (uint16, bool) { return u.port, u.Has(FieldPort) }

// Path returns the path text.
func (u URL) Path() (string, bool) { return u.path, u.Has(FieldPath) }

// Query returns the query text without the leading '?'.
func (u URL) Query() (string, bool) { return u.query, u.Has(FieldQuery) }

// Fragment returns the fragment text without the leading '#'.
func (u URL) Fragment() (string, bool) { return u.fragment, u.Has(FieldFragment) }

// InferredScheme returns a scheme the parser assumed without it being in the text.
func (u URL) InferredScheme() (string, bool) { return u.inferredScheme, u.hasInferredScheme }

// InferredPort returns a default port the parser assumed without a port token in the text.
func (u URL) InferredPort() (uint16, bool) { return u.inferredPort, u.hasInferredPort }

// Value returns the text of field f, with the port rendered in decimal.
// The second result is false when f is absent.
func (u URL) Value(f Field) (string, bool) {
	switch f {
	case FieldScheme:
		return u.Scheme()
	case FieldUserinfo:
		return u.Userinfo()
	case FieldUser:
		return u.User()
	case FieldPassword:
		return u.Password()
	case FieldHost:
		return u.host, u.Has(FieldHost)
	case FieldPort:
		if !u.Has(FieldPort) {
			return "", false
		}
		return strconv.FormatUint(uint64(u.port), 10), true
	case FieldPath:
		return u.Path()
	case FieldQuery:
		return u.Query()
	case FieldFragment:
		return u.Fragment()
	default:
		return "", false
	}
}

// Equal reports whether u and v are identical, including presence,
// decoded marks, original scheme casing and inferred values.
func (u URL) Equal(v URL) bool {
	return u == v
}

// Edit returns a Builder seeded with u, for adapters that post-process a
// parse. u itself is not affected.
func (u URL) Edit() *Builder {
	return &Builder{u: u}
}

// Builder assembles a URL. Setters record presence; Build checks the
// cross-field invariants. The zero Builder is ready to use.
type Builder struct {
	u   URL
	err error
}

// Scheme sets the scheme.
func (b *Builder) Scheme(s string) *Builder {
	b.u.scheme = s
	b.u.presence = b.u.presence.With(FieldScheme)
	return b
}

// Userinfo marks userinfo as present without setting user or password.
// It is implied by User and Password.
func (b *Builder) Userinfo() *Builder {
	b.u.presence = b.u.presence.With(FieldUserinfo)
	return b
}

// User sets the user subcomponent.
func (b *Builder) User(s string) *Builder {
	b.u.user = s
	b.u.presence = b.u.presence.With(FieldUser).With(FieldUserinfo)
	return b
}

// Password sets the password subcomponent.
func (b *Builder) Password(s string) *Builder {
	b.u.password = s
	b.u.presence = b.u.presence.With(FieldPassword).With(FieldUserinfo)
	return b
}

// SplitUserinfo records a raw userinfo string, splitting it at the first ':'.
// An empty user before the ':' is recorded as an absent user.
func (b *Builder) SplitUserinfo(s string) *Builder {
	b.Userinfo()
	user, password, hasPassword := strings.Cut(s, ":")
	if user != "" {
		b.User(user)
	}
	if hasPassword {
		b.Password(password)
	}
	return b
}

// Host sets the host text and its interpretation. kind must not be HostNone.
func (b *Builder) Host(s string, kind HostKind) *Builder {
	if kind == HostNone {
		b.fail(ErrHostKindNone)
		return b
	}
	b.u.host = s
	b.u.hostKind = kind
	b.u.presence = b.u.presence.With(FieldHost)
	return b
}

// Port sets the literal port.
func (b *Builder) Port(p uint16) *Builder {
	b.u.port = p
	b.u.presence = b.u.presence.With(FieldPort)
	return b
}

// PortText parses a literal decimal port token. An empty token is ignored,
// since "host:" carries no port; values above 65535 fail the build.
func (b *Builder) PortText(s string) *Builder {
	if s == "" {
		return b
	}
	p, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		b.fail(ErrPortRange)
		return b
	}
	return b.Port(uint16(p))
}

// Path sets the path.
func (b *Builder) Path(s string) *Builder {
	b.u.path = s
	b.u.presence = b.u.presence.With(FieldPath)
	return b
}

// Query sets the query.
func (b *Builder) Query(s string) *Builder {
	b.u.query = s
	b.u.presence = b.u.presence.With(FieldQuery)
	return b
}

// Fragment sets the fragment.
func (b *Builder) Fragment(s string) *Builder {
	b.u.fragment = s
	b.u.presence = b.u.presence.With(FieldFragment)
	return b
}

// Drop clears field f and its value. Dropping userinfo drops user and
// password; dropping host resets the host kind.
func (b *Builder) Drop(f Field) *Builder {
	switch f {
	case FieldScheme:
		b.u.scheme = ""
	case FieldUserinfo:
		b.u.user, b.u.password = "", ""
		b.u.presence = b.u.presence.Without(FieldUser).Without(FieldPassword)
	case FieldUser:
		b.u.user = ""
	case FieldPassword:
		b.u.password = ""
	case FieldHost:
		b.u.host, b.u.hostKind = "", HostNone
	case FieldPort:
		b.u.port = 0
	case FieldPath:
		b.u.path = ""
	case FieldQuery:
		b.u.query = ""
	case FieldFragment:
		b.u.fragment = ""
	}
	b.u.presence = b.u.presence.Without(f)
	return b
}

// Decoded marks fields whose values the parser returned percent-decoded.
func (b *Builder) Decoded(fields ...Field) *Builder {
	for _, f := range fields {
		b.u.decoded = b.u.decoded.With(f)
	}
	return b
}

// InferredScheme records a scheme the parser assumed by default.
func (b *Builder) InferredScheme(s string) *Builder {
	b.u.inferredScheme = s
	b.u.hasInferredScheme = true
	return b
}

// InferredPort records a default port the parser assumed.
func (b *Builder) InferredPort(p uint16) *Builder {
	b.u.inferredPort = p
	b.u.hasInferredPort = true
	return b
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build validates the accumulated fields and returns the URL.
func (b *Builder) Build() (URL, error) {
	if b.err != nil {
		return URL{}, b.err
	}
	u := b.u
	p := u.presence
	if (p.Has(FieldUser) || p.Has(FieldPassword)) && !p.Has(FieldUserinfo) {
		return URL{}, ErrUserinfoImplied
	}
	if p.Has(FieldHost) != (u.hostKind != HostNone) {
		return URL{}, ErrHostKindNone
	}
	// Decoding is tracked on the component fields; userinfo follows its parts.
	if u.decoded.Has(FieldUser) || u.decoded.Has(FieldPassword) {
		u.decoded = u.decoded.With(FieldUserinfo)
	}
	u.decoded &= p
	return u, nil
}

// MustBuild is Build for statically known inputs; it panics on error.
func (b *Builder) MustBuild() URL {
	u, err := b.Build()
	if err != nil {
		panic(err)
	}
	return u
}

// MarshalText implements encoding.TextMarshaler.
func (k HostKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
