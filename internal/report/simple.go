package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/urldiff/internal/model"
)

// SimpleWriter outputs human-readable text reports for the terminal.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose adds each adapter's Structured record to entries.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeEntries(&sb, report)
	w.writeOverlap(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteEntry outputs one entry: the quoted input, its verdict and the
// evidence behind it.
func (w *SimpleWriter) WriteEntry(entry *Entry) (int, error) {
	var sb strings.Builder
	w.writeEntry(&sb, entry, "")
	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *Report) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          URLDIFF REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Run:        %s\n", report.Title)
	fmt.Fprintf(sb, "Generated:  %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	if len(report.Adapters) > 0 {
		fmt.Fprintf(sb, "Adapters:   %s\n", strings.Join(report.Adapters, ", "))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *Report) {
	s := report.Summary
	w.writeSection(sb, "SUMMARY")

	fmt.Fprintf(sb, "  Inputs:          %d\n", s.Total)
	fmt.Fprintf(sb, "  Agree:           %d\n", s.Agree)
	fmt.Fprintf(sb, "  Diverge:         %d\n", s.Diverge)
	fmt.Fprintf(sb, "  Harness errors:  %d\n", s.HarnessErrors)
	if s.Skipped > 0 || w.showEmpty {
		fmt.Fprintf(sb, "  Skipped:         %d\n", s.Skipped)
	}
	sb.WriteString("\n")

	for _, c := range model.Categories() {
		n := s.ByCategory[c]
		if n == 0 && !w.showEmpty {
			continue
		}
		fmt.Fprintf(sb, "  [%-3s] %-32s %d\n", severityIndicator(c.Severity()), categoryLabel(c), n)
	}
	if len(s.ByCategory) > 0 || w.showEmpty {
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writeEntries(sb *strings.Builder, report *Report) {
	if len(report.Entries) == 0 && !w.showEmpty {
		return
	}
	w.writeSection(sb, "DIVERGENCES")

	if len(report.Entries) == 0 {
		sb.WriteString("  No divergences\n\n")
		return
	}
	for i := range report.Entries {
		w.writeEntry(sb, &report.Entries[i], "  ")
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writeEntry(sb *strings.Builder, e *Entry, indent string) {
	if e.Error != "" {
		fmt.Fprintf(sb, "%s%q  error: %s\n", indent, e.Input, e.Error)
		w.writeOrigin(sb, e, indent+"    ")
		return
	}

	fmt.Fprintf(sb, "%s[%s] %q  %s\n", indent, severityIndicator(e.Severity), e.Input, e.Verdict)
	in := indent + "    "
	w.writeOrigin(sb, e, in)
	if e.Truncated {
		fmt.Fprintf(sb, "%sinput truncated\n", in)
	}

	v := e.Verdict
	if v.Category == model.CategoryClassification {
		fmt.Fprintf(sb, "%saccepted: %s\n", in, strings.Join(v.Accepted, ", "))
		fmt.Fprintf(sb, "%srejected: %s\n", in, strings.Join(v.Rejected, ", "))
	}
	for _, fv := range v.Values {
		fmt.Fprintf(sb, "%s%s:\n", in, fv.Field)
		for _, av := range fv.Values {
			fmt.Fprintf(sb, "%s    %-14s %s\n", in, av.Adapter, adapterValue(av))
		}
	}
	if e.Impact != nil {
		scope := "same site"
		if e.Impact.CrossSite {
			scope = "CROSS-SITE"
		}
		fmt.Fprintf(sb, "%simpact: %s\n", in, scope)
		for _, h := range e.Impact.Hosts {
			if h.Present && h.Site != "" {
				fmt.Fprintf(sb, "%s    %s -> %s\n", in, strings.Join(h.Adapters, ", "), h.Site)
			}
		}
	}
	for _, f := range v.Faults {
		fmt.Fprintf(sb, "%sfault: %s %s", in, f.Adapter, f.Kind)
		if f.Reason != "" {
			fmt.Fprintf(sb, ": %s", truncateString(f.Reason, 120))
		}
		sb.WriteString("\n")
	}
	if w.verbose {
		for _, rec := range e.Records {
			fmt.Fprintf(sb, "%srecord: %s\n", in, rec)
		}
	}
}

func (w *SimpleWriter) writeOrigin(sb *strings.Builder, e *Entry, indent string) {
	origin := "id " + shortID(e.ID)
	if e.Label != "" {
		origin += ", " + e.Label
	}
	if e.Hits > 1 {
		origin += fmt.Sprintf(", seen %d times", e.Hits)
	}
	fmt.Fprintf(sb, "%s(%s)\n", indent, origin)
}

func (w *SimpleWriter) writeOverlap(sb *strings.Builder, report *Report) {
	if report.Overlap == nil {
		return
	}
	w.writeSection(sb, "ADAPTER OVERLAP")

	if len(report.Overlap.Pairs) == 0 {
		sb.WriteString("  No disagreements\n\n")
		return
	}
	for _, p := range report.Overlap.Pairs {
		fmt.Fprintf(sb, "  %-14s x %-14s %d\n", p.A, p.B, p.Count)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by urldiff\n")
	sb.WriteString("https://github.com/nao1215/urldiff\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// adapterValue renders one adapter's reading of a field.
func adapterValue(av model.AdapterValue) string {
	if !av.Present {
		return "(absent)"
	}
	s := fmt.Sprintf("%q", av.Value)
	if av.HostKind != model.HostNone {
		s += " (" + av.HostKind.String() + ")"
	}
	return s
}

// severityIndicator returns a visual indicator for the severity level.
func severityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}
