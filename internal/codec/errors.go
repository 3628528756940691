package codec

import (
	"github.com/go-faster/errors"
)

var (
	// ErrUnknownKey is returned for a Structured record key that is not part
	// of the record schema.
	ErrUnknownKey = errors.New("unknown key")

	// ErrDuplicateKey is returned when a Structured record repeats a key.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrMissingOutcome is returned for a record without an outcome.
	ErrMissingOutcome = errors.New("missing outcome")

	// ErrUserinfoMismatch is returned when the userinfo value does not equal
	// the user and password values joined by ':'.
	ErrUserinfoMismatch = errors.New("userinfo does not match user and password")

	// ErrTrailingData is returned when bytes follow the record.
	ErrTrailingData = errors.New("trailing data after record")

	// ErrEmptyPlain is returned for Plain input without any known label.
	ErrEmptyPlain = errors.New("no plain record fields")

	// ErrUnknownEncoding is returned by ParseEncoding.
	ErrUnknownEncoding = errors.New("unknown encoding")
)

// DecodeError reports which record key could not be decoded.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return "decode " + e.Key + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
