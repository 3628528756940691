package model

// Severity represents how much a divergence matters to a consumer that
// mixes the disagreeing parsers in one request path.
type Severity int

const (
	// SeverityInfo indicates no disagreement worth triaging.
	SeverityInfo Severity = iota

	// SeverityLow indicates one parser failed while the others agreed.
	// Crashes and hangs still matter for availability, but they do not
	// give an attacker two readings of the same string.
	SeverityLow

	// SeverityMedium indicates the parsers saw the same components with
	// different text, for example a differently normalised path.
	SeverityMedium

	// SeverityHigh indicates the parsers disagree on which components exist.
	SeverityHigh

	// SeverityCritical indicates the parsers disagree on validity or on what
	// kind of host the input names. These are the splits behind SSRF filter
	// bypasses and cache poisoning.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Category classifies a divergence. Larger values are more severe, so the
// comparator can keep the maximum seen across adapter pairs.
type Category int

const (
	// CategoryNone is the category of an agreeing verdict.
	CategoryNone Category = iota
	// CategoryFault is a run where some adapters failed and the rest agreed.
	CategoryFault
	// CategoryValue is the same components with different text.
	CategoryValue
	// CategoryStructural is a presence mismatch.
	CategoryStructural
	// CategoryHostInterpretation is the same host presence read as different
	// host kinds, e.g. registered name against IPv4 literal.
	CategoryHostInterpretation
	// CategoryClassification is a split between accepting and rejecting parsers.
	CategoryClassification
)

// CategoryInfo contains metadata about a divergence category.
type CategoryInfo struct {
	Name           string
	Severity       Severity
	Impact         string
	Recommendation string
}

var categoryInfoMapping = map[Category]CategoryInfo{
	CategoryNone: {
		Name:     "none",
		Severity: SeverityInfo,
	},
	CategoryFault: {
		Name:           "fault divergence",
		Severity:       SeverityLow,
		Impact:         "At least one parser crashed, hung or could not be invoked on this input while the others agreed.",
		Recommendation: "Reproduce against the failing parser alone; a crash on attacker input is a denial-of-service vector.",
	},
	CategoryValue: {
		Name:           "value divergence",
		Severity:       SeverityMedium,
		Impact:         "Parsers agree on the URL's shape but extract different text for a component.",
		Recommendation: "Check whether the differing component feeds an allow-list, cache key or routing decision.",
	},
	CategoryStructural: {
		Name:           "structural divergence",
		Severity:       SeverityHigh,
		Impact:         "One parser found a component the others did not, so the parsers split the string at different delimiters.",
		Recommendation: "Avoid mixing these parsers on the same untrusted string; re-serialise with one parser before handing it to another.",
	},
	CategoryHostInterpretation: {
		Name:           "host-interpretation divergence",
		Severity:       SeverityCritical,
		Impact:         "Parsers read the host as different kinds of address; a host filter and an HTTP client may reach different machines.",
		Recommendation: "Resolve and validate the host with the same parser that performs the request.",
	},
	CategoryClassification: {
		Name:           "classification divergence",
		Severity:       SeverityCritical,
		Impact:         "Some parsers accept the input as a URL while others reject it, so validity itself is disputed.",
		Recommendation: "Validate with the strictest parser in the request path and reject what any layer rejects.",
	},
}

// Info returns the metadata of the category.
func (c Category) Info() CategoryInfo {
	if info, ok := categoryInfoMapping[c]; ok {
		return info
	}
	return CategoryInfo{Name: "unknown", Severity: SeverityInfo}
}

// String returns the category's report name, e.g. "value divergence".
func (c Category) String() string {
	return c.Info().Name
}

// Severity returns the risk level of the category.
func (c Category) Severity() Severity {
	return c.Info().Severity
}

// SecurityCritical reports whether the category is flagged security-critical.
func (c Category) SecurityCritical() bool {
	return c == CategoryHostInterpretation
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ParseCategory is the inverse of Category.String.
func ParseCategory(s string) (Category, bool) {
	for c, info := range categoryInfoMapping {
		if info.Name == s {
			return c, true
		}
	}
	return CategoryNone, false
}

// Categories lists the divergence categories from most to least severe.
func Categories() []Category {
	return []Category{
		CategoryClassification,
		CategoryHostInterpretation,
		CategoryStructural,
		CategoryValue,
		CategoryFault,
	}
}
