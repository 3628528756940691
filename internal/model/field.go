package model

import (
	"strings"
)

// Field identifies one component of a canonical URL.
// The declaration order is the canonical field order used by every encoding
// and by the comparator's field lists.
type Field uint8

const (
	// FieldScheme is the scheme component ("http" in "http://a/").
	FieldScheme Field = iota
	// FieldUserinfo is the whole userinfo subcomponent before '@'.
	FieldUserinfo
	// FieldUser is the part of userinfo before the first ':'.
	FieldUser
	// FieldPassword is the part of userinfo after the first ':'.
	FieldPassword
	// FieldHost is the host subcomponent of the authority.
	FieldHost
	// FieldPort is the literal port token of the authority.
	FieldPort
	// FieldPath is the path component.
	FieldPath
	// FieldQuery is the query component without the leading '?'.
	FieldQuery
	// FieldFragment is the fragment component without the leading '#'.
	FieldFragment

	fieldCount
)

// NumFields is the number of canonical fields.
const NumFields = int(fieldCount)

// Fields lists every field in canonical order.
var Fields = []Field{
	FieldScheme,
	FieldUserinfo,
	FieldUser,
	FieldPassword,
	FieldHost,
	FieldPort,
	FieldPath,
	FieldQuery,
	FieldFragment,
}

var fieldNames = [fieldCount]string{
	FieldScheme:   "scheme",
	FieldUserinfo: "userinfo",
	FieldUser:     "user",
	FieldPassword: "password",
	FieldHost:     "host",
	FieldPort:     "port",
	FieldPath:     "path",
	FieldQuery:    "query",
	FieldFragment: "fragment",
}

// String returns the lower-case key used for the field in records and reports.
func (f Field) String() string {
	if f >= fieldCount {
		return "unknown"
	}
	return fieldNames[f]
}

// ParseField returns the field named by s.
func ParseField(s string) (Field, bool) {
	for f, name := range fieldNames {
		if name == s {
			return Field(f), true
		}
	}
	return 0, false
}

// Presence is a bitset over Field recording which components the source
// text explicitly contained, independent of whether their value is empty.
type Presence uint16

// Of returns a Presence with the given fields set.
func Of(fields ...Field) Presence {
	var p Presence
	for _, f := range fields {
		p = p.With(f)
	}
	return p
}

// Has reports whether f is set.
func (p Presence) Has(f Field) bool {
	return p&(1<<f) != 0
}

// With returns p with f set.
func (p Presence) With(f Field) Presence {
	return p | 1<<f
}

// Without returns p with f cleared.
func (p Presence) Without(f Field) Presence {
	return p &^ (1 << f)
}

// Fields returns the set fields in canonical order.
func (p Presence) Fields() []Field {
	var out []Field
	for _, f := range Fields {
		if p.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// String renders the set as a comma-separated field list, e.g. "host,path".
func (p Presence) String() string {
	fields := p.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.String()
	}
	return strings.Join(names, ",")
}

// ParsePresence parses the output of Presence.String.
func ParsePresence(s string) (Presence, bool) {
	var p Presence
	if s == "" {
		return p, true
	}
	for _, name := range strings.Split(s, ",") {
		f, ok := ParseField(name)
		if !ok {
			return 0, false
		}
		p = p.With(f)
	}
	return p, true
}

// MarshalText implements encoding.TextMarshaler.
func (f Field) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}
