// Package report renders comparison results for people and tools.
//
// A Report is built from a batch run (FromBatch) or from stored findings
// (FromFindings). Writers render it in three formats:
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter and FullJSONWriter: JSON for tool integration
//   - MarkdownWriter: Markdown with a mermaid category chart, for bug reports
//
// Writers also render single entries, which the check command prints after
// each input. ComputeImpact adds what a host divergence means in terms of
// sites reached, using the public suffix list.
package report
