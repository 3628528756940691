package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/urldiff/internal/model"
)

// MarkdownWriter outputs reports in Markdown format, for issue trackers
// and bug reports against the disagreeing parsers.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeEntries(md, report)
	w.writeOverlap(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteEntry outputs one entry as a Markdown section.
func (w *MarkdownWriter) WriteEntry(entry *Entry) (int, error) {
	md := markdown.NewMarkdown(w.output)
	w.writeEntry(md, entry)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *Report) {
	md.H1("urldiff Report")
	md.PlainText("")

	rows := [][]string{
		{"Run", "`" + report.Title + "`"},
		{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
	}
	if len(report.Adapters) > 0 {
		rows = append(rows, []string{"Adapters", strings.Join(report.Adapters, ", ")})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *Report) {
	s := report.Summary
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Verdict", "Count"},
		Rows: [][]string{
			{"✅ Agree", strconv.Itoa(s.Agree)},
			{"❗ Diverge", strconv.Itoa(s.Diverge)},
			{"⚠️ Harness error", strconv.Itoa(s.HarnessErrors)},
			{"⏭️ Skipped", strconv.Itoa(s.Skipped)},
			{"**Total**", "**" + strconv.Itoa(s.Total) + "**"},
		},
	})
	md.PlainText("")

	if s.Diverge > 0 {
		w.writeCategoryTable(md, s)
		w.writePieChart(md, s)
	}
	w.writeAlert(md, s)
}

func (w *MarkdownWriter) writeCategoryTable(md *markdown.Markdown, s Summary) {
	rows := make([][]string, 0, len(model.Categories()))
	for _, c := range model.Categories() {
		if n := s.ByCategory[c]; n > 0 {
			rows = append(rows, []string{categoryLabel(c), severityBadge(c.Severity()), strconv.Itoa(n)})
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Category", "Severity", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the category distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Divergence Categories"),
		piechart.WithShowData(true),
	)
	for _, c := range model.Categories() {
		if n := s.ByCategory[c]; n > 0 {
			chart.LabelAndIntValue(categoryLabel(c), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching the worst category found.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s Summary) {
	critical := s.CountSeverity(model.SeverityCritical)
	high := s.CountSeverity(model.SeverityHigh)
	switch {
	case critical > 0:
		md.Cautionf(
			"%d input(s) split the parsers on validity or host kind. These are candidates for SSRF filter bypasses.",
			critical,
		)
	case high > 0:
		md.Warningf("%d input(s) split the parsers on which components exist.", high)
	case s.Diverge > 0:
		md.Importantf("%d input(s) produced differing component values or parser faults.", s.Diverge)
	case s.HarnessErrors > 0:
		md.Note("No divergences, but some inputs failed in every adapter.")
	default:
		md.Tip("All adapters agreed on every input.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeEntries(md *markdown.Markdown, report *Report) {
	md.H2("Divergences")
	md.PlainText("")

	if len(report.Entries) == 0 {
		md.PlainText("No divergences detected.")
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"ID", "Input", "Verdict", "Fields", "Source"},
		Rows:   entryRows(report.Entries),
	})
	md.PlainText("")

	for i := range report.Entries {
		w.writeEntry(md, &report.Entries[i])
	}
}

func entryRows(entries []Entry) [][]string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		verdict := e.Verdict.Status.String()
		if e.Error != "" {
			verdict = "error"
		} else if e.Verdict.Diverge() {
			verdict = categoryLabel(e.Verdict.Category)
		}
		source := e.Label
		if source == "" {
			source = "-"
		}
		rows[i] = []string{
			"`" + shortID(e.ID) + "`",
			code(truncateString(e.Input, 60)),
			verdict,
			fieldNames(e.Verdict.Fields),
			cell(source),
		}
	}
	return rows
}

func (w *MarkdownWriter) writeEntry(md *markdown.Markdown, e *Entry) {
	md.H3f("%s `%s`", severityBadge(e.Severity), shortID(e.ID))
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightText, strconv.Quote(e.Input))
	md.PlainText("")

	if e.Error != "" {
		md.Warning(e.Error)
		md.PlainText("")
		return
	}

	md.PlainTextf("**Verdict:** `%s`", e.Verdict)
	md.PlainText("")

	v := e.Verdict
	if v.Category == model.CategoryClassification {
		md.BulletList(
			"Accepted: "+strings.Join(v.Accepted, ", "),
			"Rejected: "+strings.Join(v.Rejected, ", "),
		)
		md.PlainText("")
	}

	if len(v.Values) > 0 {
		rows := make([][]string, 0)
		for _, fv := range v.Values {
			for _, av := range fv.Values {
				rows = append(rows, []string{fv.Field.String(), av.Adapter, cell(adapterValue(av))})
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Field", "Adapter", "Value"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if e.Impact != nil && e.Impact.CrossSite {
		sites := make([]string, 0, len(e.Impact.Hosts))
		for _, h := range e.Impact.Hosts {
			if h.Present && h.Site != "" {
				sites = append(sites, fmt.Sprintf("%s: `%s`", strings.Join(h.Adapters, ", "), h.Site))
			}
		}
		md.Caution("The adapters would contact different sites.")
		md.PlainText("")
		if len(sites) > 0 {
			md.BulletList(sites...)
			md.PlainText("")
		}
	}

	if len(v.Faults) > 0 {
		faults := make([]string, len(v.Faults))
		for i, f := range v.Faults {
			faults[i] = fmt.Sprintf("%s: %s %s", f.Adapter, f.Kind, truncateString(f.Reason, 80))
		}
		md.BulletList(faults...)
		md.PlainText("")
	}

	if info := v.Category.Info(); info.Impact != "" {
		md.Details("Impact and recommendation", info.Impact+"\n\n"+info.Recommendation)
	}
	if len(e.Records) > 0 {
		records := make([]string, len(e.Records))
		for i, r := range e.Records {
			records[i] = string(r)
		}
		md.Details("Records", "```json\n"+strings.Join(records, "\n")+"\n```")
	}
	md.PlainText("")
}

// writeOverlap writes the adapter-pair disagreement matrix.
func (w *MarkdownWriter) writeOverlap(md *markdown.Markdown, report *Report) {
	o := report.Overlap
	if o == nil {
		return
	}
	md.H2("Adapter Overlap")
	md.PlainText("")

	if len(o.Pairs) == 0 {
		md.PlainText("No adapter pair disagrees.")
		md.PlainText("")
		return
	}

	header := append([]string{""}, o.Adapters...)
	rows := make([][]string, len(o.Adapters))
	for i, a := range o.Adapters {
		row := make([]string, 0, len(header))
		row = append(row, "**"+a+"**")
		for _, b := range o.Adapters {
			if a == b {
				row = append(row, "-")
				continue
			}
			row = append(row, strconv.Itoa(o.Count(a, b)))
		}
		rows[i] = row
	}
	md.Table(markdown.TableSet{Header: header, Rows: rows})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [urldiff](https://github.com/nao1215/urldiff)*")
}

// severityBadge returns an emoji-prefixed severity name.
func severityBadge(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return "🔴 Critical"
	case model.SeverityHigh:
		return "🟠 High"
	case model.SeverityMedium:
		return "🟡 Medium"
	case model.SeverityLow:
		return "🔵 Low"
	default:
		return "⚪ Info"
	}
}

// cell escapes text for a table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

// code renders s as inline code inside a table cell.
func code(s string) string {
	if s == "" {
		return "`\"\"`"
	}
	return "`" + cell(strings.ReplaceAll(s, "`", "'")) + "`"
}
