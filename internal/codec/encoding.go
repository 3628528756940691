package codec

import (
	"strings"

	"github.com/go-faster/errors"

	"github.com/nao1215/urldiff/internal/model"
)

// Encoding selects the record format.
type Encoding int

const (
	// Plain is the human-readable line format.
	Plain Encoding = iota
	// Structured is the single-line base64 JSON record.
	Structured
)

// String returns the flag spelling of the encoding.
func (e Encoding) String() string {
	switch e {
	case Plain:
		return "plain"
	case Structured:
		return "structured"
	default:
		return "unknown"
	}
}

// ParseEncoding parses "plain" or "structured" (case-insensitive).
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(s) {
	case "plain":
		return Plain, nil
	case "structured", "json":
		return Structured, nil
	default:
		return Plain, errors.Wrapf(ErrUnknownEncoding, "%q", s)
	}
}

// Encode renders r in the given encoding. Plain output does not include
// the adapter name; callers label it.
func Encode(enc Encoding, r model.Result) []byte {
	if enc == Structured {
		return EncodeStructured(r)
	}
	return EncodePlain(r.Outcome)
}
