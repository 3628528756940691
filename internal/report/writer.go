package report

import (
	"io"
	"strings"

	"github.com/go-faster/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/urldiff/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs a whole report. It returns the number of bytes written.
	Write(report *Report) (int, error)

	// WriteEntry outputs a single entry, as printed by the check command
	// after each input.
	WriteEntry(entry *Entry) (int, error)
}

// Report formats.
const (
	FormatSimple   = "simple"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// ErrUnknownFormat is returned by New for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown report format")

// New returns the Writer for format. version is embedded in JSON output.
func New(format string, output io.Writer, version string, verbose bool) (Writer, error) {
	switch strings.ToLower(format) {
	case "", FormatSimple:
		return NewSimpleWriter(output, WithVerbose(verbose)), nil
	case FormatJSON:
		return NewFullJSONWriter(output, version, WithPrettyPrint()), nil
	case FormatMarkdown, "md":
		return NewMarkdownWriter(output), nil
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
}

// MultiWriter writes to multiple Writers, e.g. the terminal and a file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to every Writer and stops on the first error.
func (m *MultiWriter) Write(report *Report) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteEntry outputs the entry to every Writer and stops on the first error.
func (m *MultiWriter) WriteEntry(entry *Entry) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteEntry(entry)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// categoryLabel returns the title-cased category name for headings,
// e.g. "Host-Interpretation Divergence".
func categoryLabel(c model.Category) string {
	return cases.Title(language.English).String(c.String())
}

// fieldNames renders fields as "host, port", or "-" when there are none.
func fieldNames(fields []model.Field) string {
	if len(fields) == 0 {
		return "-"
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.String()
	}
	return strings.Join(names, ", ")
}

// shortID returns the first 12 characters of a finding ID.
func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
