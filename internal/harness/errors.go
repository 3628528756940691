package harness

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrInputTooLarge is returned when an input exceeds the maximum length
	// and truncation is disabled. It is a property of the input, not a
	// harness failure.
	ErrInputTooLarge = errors.New("input exceeds maximum length")

	// ErrNoAdapters is returned by New for an empty adapter set.
	ErrNoAdapters = errors.New("no adapters configured")
)

// HarnessInternalError reports a broken invariant inside the harness, such
// as an outcome that does not survive its own encoding. It is the only
// error that aborts a run; adapter failures never produce it.
type HarnessInternalError struct {
	Adapter string
	Err     error
}

// Error implements the error interface.
func (e *HarnessInternalError) Error() string {
	if e.Adapter == "" {
		return fmt.Sprintf("harness internal error: %v", e.Err)
	}
	return fmt.Sprintf("harness internal error (%s): %v", e.Adapter, e.Err)
}

// Unwrap returns the underlying error.
func (e *HarnessInternalError) Unwrap() error {
	return e.Err
}

// IsInternal reports whether err is or wraps a HarnessInternalError.
func IsInternal(err error) bool {
	var internal *HarnessInternalError
	return errors.As(err, &internal)
}
