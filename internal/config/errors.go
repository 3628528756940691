package config

import (
	"errors"
	"fmt"
)

// Configuration validation errors returned by Config.Validate and
// TargetConfig.Validate. Callers match them with errors.Is.
var (
	// ErrInvalidTimeout is returned when the adapter timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxInputLength is returned when the maximum input length is not positive.
	ErrInvalidMaxInputLength = errors.New("invalid max input length: must be positive")

	// ErrInvalidConcurrency is returned when the batch concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidEncoding is returned for an encoding other than plain or structured.
	ErrInvalidEncoding = errors.New("invalid encoding: must be plain or structured")

	// ErrInvalidNormalization is returned for an unknown normalization mode.
	ErrInvalidNormalization = errors.New("invalid normalization: must be percent-decode or raw")

	// ErrInvalidIsolation is returned for an unknown isolation mode.
	ErrInvalidIsolation = errors.New("invalid isolation: must be none or process")

	// ErrNoAdapters is returned when no adapter or target is enabled.
	ErrNoAdapters = errors.New("no adapters enabled: enable a built-in adapter or configure a target")

	// ErrDuplicateAdapter is returned when two adapters or targets share a name.
	ErrDuplicateAdapter = errors.New("duplicate adapter name")

	// ErrInvalidTarget is returned for a target without a name or executable.
	ErrInvalidTarget = errors.New("invalid target: name and executable are required")
)

func invalidValue(err error, value string) error {
	return fmt.Errorf("%w: %q", err, value)
}
