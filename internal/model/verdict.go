package model

import (
	"strings"
)

// Status is the top-level result of comparing one input.
type Status int

const (
	// StatusAgree means every adapter that produced an answer agreed.
	StatusAgree Status = iota
	// StatusDiverge means at least two adapters disagreed or some failed.
	StatusDiverge
	// StatusHarnessError means no adapter produced an answer.
	StatusHarnessError
)

// String returns the verdict keyword.
func (s Status) String() string {
	switch s {
	case StatusAgree:
		return "agree"
	case StatusDiverge:
		return "diverge"
	case StatusHarnessError:
		return "harness-error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AdapterValue is one adapter's reading of one field.
type AdapterValue struct {
	Adapter  string   `json:"adapter"`
	Present  bool     `json:"present"`
	Value    string   `json:"value,omitempty"`
	HostKind HostKind `json:"host_kind,omitempty"`
}

// FieldValues holds every successful adapter's reading of a divergent field.
type FieldValues struct {
	Field  Field          `json:"field"`
	Values []AdapterValue `json:"values"`
}

// Fault records an adapter whose outcome was Fatal.
type Fault struct {
	Adapter string    `json:"adapter"`
	Kind    FatalKind `json:"kind"`
	Reason  string    `json:"reason"`
}

// Verdict is the comparator's characterisation of one input.
// All adapter lists are sorted by name, and Fields is in canonical field
// order, so a verdict does not depend on adapter invocation order.
type Verdict struct {
	Status   Status   `json:"status"`
	Category Category `json:"category"`

	// Fields lists the differing fields. It is empty for classification
	// and fault divergences.
	Fields []Field `json:"fields"`

	// Values gives each successful adapter's reading of each differing field.
	Values []FieldValues `json:"values,omitempty"`

	// Groups partitions the successful adapters into classes that agree.
	Groups [][]string `json:"groups,omitempty"`

	// Accepted and Rejected name the adapters on each side of the
	// Success/Rejected axis.
	Accepted []string `json:"accepted,omitempty"`
	Rejected []string `json:"rejected,omitempty"`

	// Faults lists adapters whose outcome was Fatal.
	Faults []Fault `json:"faults,omitempty"`
}

// Agree reports whether the verdict is agree.
func (v Verdict) Agree() bool {
	return v.Status == StatusAgree
}

// Diverge reports whether the verdict is a divergence.
func (v Verdict) Diverge() bool {
	return v.Status == StatusDiverge
}

// Signature identifies the verdict's shape: status, category and fields.
// Two inputs with the same signature exhibit the same kind of disagreement.
func (v Verdict) Signature() string {
	if v.Status != StatusDiverge {
		return v.Status.String()
	}
	return v.String()
}

// String renders the verdict as "agree", "harness-error" or
// "diverge(<category>, [<fields>])".
func (v Verdict) String() string {
	if v.Status != StatusDiverge {
		return v.Status.String()
	}
	names := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		names[i] = f.String()
	}
	return "diverge(" + v.Category.String() + ", [" + strings.Join(names, ", ") + "])"
}
