package adapter

import (
	"sort"

	"github.com/go-faster/errors"
)

// builtins maps the names of the in-process adapters to their constructors.
var builtins = map[string]func() Adapter{
	"net/url":         func() Adapter { return NewNetURL() },
	"net/url-request": func() Adapter { return NewNetURLRequest() },
	"fredbi/uri":      func() Adapter { return NewFredbiURI() },
	"fasthttp":        func() Adapter { return NewFastHTTP() },
}

// BuiltinNames returns the names of the in-process adapters, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a new in-process adapter by name.
func Builtin(name string) (Adapter, error) {
	ctor, ok := builtins[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownAdapter, "%q", name)
	}
	return ctor(), nil
}

// Set is an ordered collection of adapters with unique names. The order is
// the evidence order of a run; it never affects the verdict.
type Set struct {
	adapters []Adapter
	names    map[string]bool
}

// NewSet returns a Set of the given adapters.
func NewSet(adapters ...Adapter) (*Set, error) {
	s := &Set{names: make(map[string]bool)}
	for _, a := range adapters {
		if err := s.Add(a); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends a to the set.
func (s *Set) Add(a Adapter) error {
	if s.names == nil {
		s.names = make(map[string]bool)
	}
	if s.names[a.Name()] {
		return errors.Wrapf(ErrDuplicateAdapter, "%q", a.Name())
	}
	s.names[a.Name()] = true
	s.adapters = append(s.adapters, a)
	return nil
}

// Adapters returns the adapters in registration order.
func (s *Set) Adapters() []Adapter {
	return append([]Adapter(nil), s.adapters...)
}

// Names returns the adapter names in registration order.
func (s *Set) Names() []string {
	names := make([]string, len(s.adapters))
	for i, a := range s.adapters {
		names[i] = a.Name()
	}
	return names
}

// Len returns the number of adapters.
func (s *Set) Len() int {
	return len(s.adapters)
}
