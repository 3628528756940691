package report

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/nao1215/urldiff/internal/codec"
	"github.com/nao1215/urldiff/internal/database"
	"github.com/nao1215/urldiff/internal/harness"
	"github.com/nao1215/urldiff/internal/model"
)

// Report is the renderable result of a batch run or a findings query.
type Report struct {
	// Title names the run, e.g. the corpus path.
	Title string `json:"title"`

	// GeneratedAt is when the report was built.
	GeneratedAt time.Time `json:"generated_at"`

	// Adapters lists the adapters that took part, sorted.
	Adapters []string `json:"adapters,omitempty"`

	Summary Summary `json:"summary"`

	// Entries lists the non-agreeing inputs, most severe first.
	Entries []Entry `json:"entries"`

	// Overlap is the adapter-pair disagreement matrix, when requested.
	Overlap *database.Overlap `json:"overlap,omitempty"`
}

// Summary counts verdicts by status and divergences by category.
type Summary struct {
	Total         int                    `json:"total"`
	Agree         int                    `json:"agree"`
	Diverge       int                    `json:"diverge"`
	HarnessErrors int                    `json:"harness_errors"`
	Skipped       int                    `json:"skipped"`
	ByCategory    map[model.Category]int `json:"by_category,omitempty"`
}

// CountSeverity returns the number of divergences whose category has severity s.
func (s Summary) CountSeverity(sev model.Severity) int {
	n := 0
	for c, count := range s.ByCategory {
		if c.Severity() == sev {
			n += count
		}
	}
	return n
}

// Entry is one reported input.
type Entry struct {
	// ID is the finding ID of the input.
	ID string `json:"id"`

	// Label says where the input came from, e.g. "corpus/seeds.txt:12".
	Label string `json:"label,omitempty"`

	// Input is the compared input. Invalid UTF-8 is replaced in JSON output;
	// ID identifies the exact bytes.
	Input string `json:"input"`

	Truncated bool          `json:"truncated,omitempty"`
	Verdict   model.Verdict `json:"verdict"`

	// Severity is the severity of the verdict's category.
	Severity model.Severity `json:"severity"`

	// Impact describes how the adapters' host readings differ. It is nil
	// when the host is not among the divergent fields.
	Impact *Impact `json:"impact,omitempty"`

	// Hits is how many times a stored finding was seen.
	Hits int `json:"hits,omitempty"`

	// Records holds each adapter's Structured record.
	Records []json.RawMessage `json:"records,omitempty"`

	// Error is set for inputs that could not be run.
	Error string `json:"error,omitempty"`
}

// NewEntry builds the entry of one run.
func NewEntry(label string, run *harness.Run) Entry {
	records := make([]json.RawMessage, len(run.Results))
	for i, r := range run.Results {
		records[i] = codec.EncodeStructured(r)
	}
	return Entry{
		ID:        database.ID(run.Input),
		Label:     label,
		Input:     string(run.Input),
		Truncated: run.Truncated,
		Verdict:   run.Verdict,
		Severity:  severityOf(run.Verdict),
		Impact:    ComputeImpact(run.Verdict),
		Records:   records,
	}
}

// FromBatch builds a report of a batch run. Agreeing inputs are counted
// but not listed.
func FromBatch(title string, adapters []string, results []harness.BatchResult) *Report {
	hs := harness.Summarize(results)
	r := &Report{
		Title:       title,
		GeneratedAt: time.Now(),
		Adapters:    sortedCopy(adapters),
		Summary: Summary{
			Total:         hs.Total,
			Agree:         hs.Agree,
			Diverge:       hs.Diverge,
			HarnessErrors: hs.HarnessErrors,
			Skipped:       hs.Skipped,
			ByCategory:    make(map[model.Category]int),
		},
		Entries: []Entry{},
	}

	for _, res := range results {
		switch {
		case res.Run == nil && res.Err != nil:
			r.Entries = append(r.Entries, Entry{
				ID:    database.ID(res.Item.Input),
				Label: res.Item.Label,
				Input: string(res.Item.Input),
				Error: res.Err.Error(),
			})
		case res.Run == nil, res.Run.Verdict.Agree():
		default:
			if res.Run.Verdict.Diverge() {
				r.Summary.ByCategory[res.Run.Verdict.Category]++
			}
			r.Entries = append(r.Entries, NewEntry(res.Item.Label, res.Run))
		}
	}
	sortEntries(r.Entries)
	return r
}

// FromFindings builds a report of stored findings. overlap may be nil.
func FromFindings(title string, findings []*database.Finding, overlap *database.Overlap) *Report {
	r := &Report{
		Title:       title,
		GeneratedAt: time.Now(),
		Summary: Summary{
			Total:      len(findings),
			Diverge:    len(findings),
			ByCategory: make(map[model.Category]int),
		},
		Entries: make([]Entry, 0, len(findings)),
		Overlap: overlap,
	}

	adapters := make(map[string]bool)
	for _, f := range findings {
		v := model.Verdict{
			Status:   model.StatusDiverge,
			Category: f.Category,
			Fields:   f.Fields,
			Groups:   f.Groups,
			Accepted: f.Accepted,
			Rejected: f.Rejected,
			Faults:   f.Faults,
		}
		for _, a := range f.Adapters() {
			adapters[a] = true
		}
		r.Summary.ByCategory[f.Category]++
		r.Entries = append(r.Entries, Entry{
			ID:       f.ID,
			Input:    string(f.Input),
			Verdict:  v,
			Severity: f.Category.Severity(),
			Hits:     f.Hits,
			Records:  f.Records,
		})
	}
	for a := range adapters {
		r.Adapters = append(r.Adapters, a)
	}
	sort.Strings(r.Adapters)
	sortEntries(r.Entries)
	return r
}

func severityOf(v model.Verdict) model.Severity {
	if v.Status == model.StatusHarnessError {
		return model.SeverityLow
	}
	return v.Category.Severity()
}

// sortEntries orders entries by category, most severe first, then by label
// and ID. Errors sort last.
func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ei, ej := entries[i], entries[j]
		if (ei.Error == "") != (ej.Error == "") {
			return ei.Error == ""
		}
		if ei.Verdict.Category != ej.Verdict.Category {
			return ei.Verdict.Category > ej.Verdict.Category
		}
		if ei.Label != ej.Label {
			return ei.Label < ej.Label
		}
		return ei.ID < ej.ID
	})
}

func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}
