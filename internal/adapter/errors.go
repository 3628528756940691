package adapter

import "github.com/go-faster/errors"

var (
	// ErrUnknownAdapter is returned when a name does not match any adapter.
	ErrUnknownAdapter = errors.New("unknown adapter")

	// ErrDuplicateAdapter is returned when two adapters share a name.
	ErrDuplicateAdapter = errors.New("duplicate adapter name")

	// ErrNoExecutable is returned for an exec target without an executable.
	ErrNoExecutable = errors.New("exec target has no executable")

	// ErrUnknownFormat is returned for an unsupported target output format.
	ErrUnknownFormat = errors.New("unknown target output format")
)
