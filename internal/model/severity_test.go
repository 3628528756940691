package model

import "testing"

// TestSeverityString tests the String method of Severity.
func TestSeverityString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		severity Severity
		expected string
	}{
		{SeverityInfo, "INFO"},
		{SeverityLow, "LOW"},
		{SeverityMedium, "MEDIUM"},
		{SeverityHigh, "HIGH"},
		{SeverityCritical, "CRITICAL"},
		{Severity(999), "UNKNOWN"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if tc.severity.String() != tc.expected {
				t.Errorf("got %q, expected %q", tc.severity.String(), tc.expected)
			}
		})
	}
}

// TestCategoryOrdering verifies that categories are ordered by severity,
// which the comparator relies on when keeping the worst category seen.
func TestCategoryOrdering(t *testing.T) {
	t.Parallel()

	ordered := Categories()
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1] <= ordered[i] {
			t.Errorf("expected %s to outrank %s", ordered[i-1], ordered[i])
		}
		if ordered[i-1].Severity() < ordered[i].Severity() {
			t.Errorf("expected severity of %s >= severity of %s", ordered[i-1], ordered[i])
		}
	}

	if ordered[0] != CategoryClassification {
		t.Errorf("expected classification divergence to be the most severe, got %s", ordered[0])
	}
}

// TestCategoryInfo tests category metadata and parsing.
func TestCategoryInfo(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		category Category
		name     string
		severity Severity
		critical bool
	}{
		{CategoryFault, "fault divergence", SeverityLow, false},
		{CategoryValue, "value divergence", SeverityMedium, false},
		{CategoryStructural, "structural divergence", SeverityHigh, false},
		{CategoryHostInterpretation, "host-interpretation divergence", SeverityCritical, true},
		{CategoryClassification, "classification divergence", SeverityCritical, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := tc.category.String(); got != tc.name {
				t.Errorf("expected name %q, got %q", tc.name, got)
			}
			if got := tc.category.Severity(); got != tc.severity {
				t.Errorf("expected severity %s, got %s", tc.severity, got)
			}
			if got := tc.category.SecurityCritical(); got != tc.critical {
				t.Errorf("expected security critical %v, got %v", tc.critical, got)
			}
			if tc.category.Info().Impact == "" {
				t.Error("expected a non-empty impact description")
			}

			parsed, ok := ParseCategory(tc.name)
			if !ok || parsed != tc.category {
				t.Errorf("ParseCategory(%q) = %v, %v", tc.name, parsed, ok)
			}
		})
	}

	t.Run("unknown category", func(t *testing.T) {
		t.Parallel()
		if got := Category(42).String(); got != "unknown" {
			t.Errorf("expected unknown, got %q", got)
		}
		if _, ok := ParseCategory("nonsense"); ok {
			t.Error("expected ParseCategory to fail for unknown name")
		}
	})
}
