package compare

import (
	"strings"

	"github.com/go-faster/errors"
)

// Normalization selects how verbatim and decoded field values are reconciled
// before comparison.
type Normalization int

const (
	// NormalizePercentDecode applies PercentDecode once to every field an
	// adapter reported verbatim. Fields reported decoded pass through.
	NormalizePercentDecode Normalization = iota

	// NormalizeRaw compares values exactly as reported. Adapters that can
	// only report decoded values are non-conformant in this mode.
	NormalizeRaw
)

// ErrUnknownNormalization is returned by ParseNormalization.
var ErrUnknownNormalization = errors.New("unknown normalization")

// String returns the mode's configuration keyword.
func (n Normalization) String() string {
	switch n {
	case NormalizePercentDecode:
		return "percent-decode"
	case NormalizeRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// ParseNormalization returns the mode named by s. The empty string selects
// the default, percent-decode.
func ParseNormalization(s string) (Normalization, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "percent-decode", "decode":
		return NormalizePercentDecode, nil
	case "raw":
		return NormalizeRaw, nil
	default:
		return 0, errors.Wrapf(ErrUnknownNormalization, "%q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (n Normalization) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *Normalization) UnmarshalText(text []byte) error {
	v, err := ParseNormalization(string(text))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

// PercentDecode replaces every "%XX" triplet with the byte it encodes.
// A '%' not followed by two hex digits is kept verbatim, and '+' is not
// treated as a space. The result may contain invalid UTF-8.
func PercentDecode(s string) string {
	i := strings.IndexByte(s, '%')
	if i < 0 {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))
	sb.WriteString(s[:i])
	for ; i < len(s); i++ {
		c := s[i]
		if c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			sb.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func isHex(c byte) bool {
	switch {
	case '0' <= c && c <= '9':
		return true
	case 'a' <= c && c <= 'f':
		return true
	case 'A' <= c && c <= 'F':
		return true
	}
	return false
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
