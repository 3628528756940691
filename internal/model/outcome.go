package model

// OutcomeKind discriminates the three shapes of a ParseOutcome.
type OutcomeKind uint8

const (
	// OutcomeSuccess means the parser accepted the input and produced a URL.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeRejected means the parser refused the input as invalid.
	OutcomeRejected
	// OutcomeFatal means the adapter could not obtain an answer from the parser.
	OutcomeFatal
)

// String returns the record spelling of the kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ParseOutcomeKind is the inverse of OutcomeKind.String.
func ParseOutcomeKind(s string) (OutcomeKind, bool) {
	for _, k := range []OutcomeKind{OutcomeSuccess, OutcomeRejected, OutcomeFatal} {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// FatalKind says why an adapter failed to produce an answer.
type FatalKind uint8

const (
	// FatalInvoke covers failures to call the parser at all.
	FatalInvoke FatalKind = iota
	// FatalPanic is a panic recovered from inside the parser.
	FatalPanic
	// FatalTimeout is an elapsed per-adapter deadline.
	FatalTimeout
	// FatalCancelled is a run cancelled while the adapter was working.
	FatalCancelled
	// FatalIsolation is a worker process that crashed or misbehaved.
	FatalIsolation
	// FatalProtocol is output that violates the adapter contract, such as
	// unparsable target output or decoded fields in raw mode.
	FatalProtocol
	// FatalUnrepresentable is an accepted parse whose answer the canonical
	// model cannot hold, such as a port above 65535. The comparator counts
	// it as an acceptance when classifying.
	FatalUnrepresentable
)

var fatalKindNames = map[FatalKind]string{
	FatalInvoke:          "invoke",
	FatalPanic:           "panic",
	FatalTimeout:         "timeout",
	FatalCancelled:       "cancelled",
	FatalIsolation:       "isolation",
	FatalProtocol:        "protocol",
	FatalUnrepresentable: "unrepresentable",
}

// String returns the record spelling of the fatal kind.
func (k FatalKind) String() string {
	if name, ok := fatalKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseFatalKind is the inverse of FatalKind.String.
func ParseFatalKind(s string) (FatalKind, bool) {
	for k, name := range fatalKindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Outcome is the ParseOutcome of one adapter for one input: a Success
// carrying a URL, a Rejected refusal, or a Fatal adapter failure.
type Outcome struct {
	kind   OutcomeKind
	url    URL
	reason string
	fatal  FatalKind
}

// Success wraps an accepted parse.
func Success(u URL) Outcome {
	return Outcome{kind: OutcomeSuccess, url: u}
}

// Rejected records the parser's refusal of the input.
func Rejected(reason string) Outcome {
	return Outcome{kind: OutcomeRejected, reason: reason}
}

// Fatal records an adapter-level failure.
func Fatal(kind FatalKind, reason string) Outcome {
	return Outcome{kind: OutcomeFatal, fatal: kind, reason: reason}
}

// Kind returns the outcome's shape.
func (o Outcome) Kind() OutcomeKind { return o.kind }

// URL returns the parsed URL of a Success.
func (o Outcome) URL() (URL, bool) { return o.url, o.kind == OutcomeSuccess }

// Reason returns the refusal or failure message. It is empty for Success.
func (o Outcome) Reason() string { return o.reason }

// FatalKind returns the failure class of a Fatal outcome.
func (o Outcome) FatalKind() FatalKind { return o.fatal }

// IsSuccess reports whether the parser accepted the input.
func (o Outcome) IsSuccess() bool { return o.kind == OutcomeSuccess }

// IsRejected reports whether the parser refused the input.
func (o Outcome) IsRejected() bool { return o.kind == OutcomeRejected }

// IsFatal reports whether the adapter failed.
func (o Outcome) IsFatal() bool { return o.kind == OutcomeFatal }

// IsTimeout reports whether the outcome is a Fatal caused by a deadline.
func (o Outcome) IsTimeout() bool { return o.kind == OutcomeFatal && o.fatal == FatalTimeout }

// Equal reports whether two outcomes are identical.
func (o Outcome) Equal(p Outcome) bool { return o == p }

// String summarises the outcome for logs.
func (o Outcome) String() string {
	switch o.kind {
	case OutcomeFatal:
		return "fatal(" + o.fatal.String() + "): " + o.reason
	case OutcomeRejected:
		return "rejected: " + o.reason
	default:
		return o.kind.String()
	}
}

// Result pairs an outcome with the adapter that produced it.
type Result struct {
	Adapter string
	Outcome Outcome
}

// MarshalText implements encoding.TextMarshaler.
func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// MarshalText implements encoding.TextMarshaler.
func (k FatalKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
