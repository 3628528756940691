package compare

import (
	"sort"
	"strconv"
	"strings"

	"github.com/nao1215/urldiff/internal/model"
)

// Option configures Compare.
type Option func(*options)

type options struct {
	inferred      bool
	normalization Normalization
}

// WithInferred makes inferred schemes and ports count as present values.
// By default they are ignored, since a library default is not something
// the input said.
func WithInferred() Option {
	return func(o *options) {
		o.inferred = true
	}
}

// WithNormalization selects the normalization mode. The default is
// NormalizePercentDecode.
func WithNormalization(n Normalization) Option {
	return func(o *options) {
		o.normalization = n
	}
}

// view is one successful parse reduced to what the comparator looks at.
type view struct {
	adapter string
	present model.Presence
	kind    model.HostKind
	raw     [model.NumFields]string
	key     [model.NumFields]string
}

// Compare classifies the outcomes of one input.
func Compare(results []model.Result, opts ...Option) model.Verdict {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	sorted := append([]model.Result(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Adapter < sorted[j].Adapter
	})

	var (
		v     model.Verdict
		views []view
	)
	for _, r := range sorted {
		switch r.Outcome.Kind() {
		case model.OutcomeSuccess:
			u, _ := r.Outcome.URL()
			v.Accepted = append(v.Accepted, r.Adapter)
			views = append(views, newView(r.Adapter, u, o))
		case model.OutcomeRejected:
			v.Rejected = append(v.Rejected, r.Adapter)
		case model.OutcomeFatal:
			if r.Outcome.FatalKind() == model.FatalUnrepresentable {
				v.Accepted = append(v.Accepted, r.Adapter)
			}
			v.Faults = append(v.Faults, model.Fault{
				Adapter: r.Adapter,
				Kind:    r.Outcome.FatalKind(),
				Reason:  r.Outcome.Reason(),
			})
		}
	}
	v.Groups = groups(views)

	switch {
	case len(views) == 0 && len(v.Rejected) == 0:
		if len(v.Faults) > 0 {
			v.Status = model.StatusHarnessError
		}
		return v
	case len(v.Accepted) > 0 && len(v.Rejected) > 0:
		v.Status = model.StatusDiverge
		v.Category = model.CategoryClassification
		v.Fields = []model.Field{}
		return v
	}

	category, differing := pairwise(views)
	if category != model.CategoryNone {
		v.Status = model.StatusDiverge
		v.Category = category
		v.Fields = differing.Fields()
		v.Values = evidence(views, v.Fields)
		return v
	}

	v.Fields = []model.Field{}
	if len(v.Faults) > 0 {
		v.Status = model.StatusDiverge
		v.Category = model.CategoryFault
		return v
	}
	v.Status = model.StatusAgree
	return v
}

func newView(adapter string, u model.URL, o options) view {
	w := view{adapter: adapter, present: u.Presence(), kind: u.HostKind()}
	decoded := u.Decoded()

	for _, f := range model.Fields {
		value, ok := u.Value(f)
		if !ok {
			continue
		}
		w.raw[f] = value
		w.key[f] = comparisonKey(f, value, decoded.Has(f), u.HostKind(), o.normalization)
	}

	if !o.inferred {
		return w
	}
	if scheme, ok := u.InferredScheme(); ok && !w.present.Has(model.FieldScheme) {
		w.present = w.present.With(model.FieldScheme)
		w.raw[model.FieldScheme] = scheme
		w.key[model.FieldScheme] = strings.ToLower(scheme)
	}
	if port, ok := u.InferredPort(); ok && !w.present.Has(model.FieldPort) {
		text := strconv.FormatUint(uint64(port), 10)
		w.present = w.present.With(model.FieldPort)
		w.raw[model.FieldPort] = text
		w.key[model.FieldPort] = text
	}
	return w
}

// comparisonKey returns the text two adapters must share for a field to agree.
func comparisonKey(f model.Field, value string, decoded bool, kind model.HostKind, n Normalization) string {
	if f == model.FieldPort {
		return value
	}
	if n == NormalizePercentDecode && !decoded {
		value = PercentDecode(value)
	}
	switch f {
	case model.FieldScheme:
		return strings.ToLower(value)
	case model.FieldHost:
		if kind == model.HostName || kind == model.HostIPv6 {
			return strings.ToLower(value)
		}
	}
	return value
}

// pairwise compares every pair of views and returns the most severe
// category seen with the union of differing fields.
func pairwise(views []view) (model.Category, model.Presence) {
	var (
		category  model.Category
		differing model.Presence
	)
	for i := range views {
		for j := i + 1; j < len(views); j++ {
			c, d := diff(views[i], views[j])
			category = max(category, c)
			differing |= d
		}
	}
	return category, differing
}

func diff(a, b view) (model.Category, model.Presence) {
	var (
		category  model.Category
		differing model.Presence
	)
	for _, f := range model.Fields {
		inA, inB := a.present.Has(f), b.present.Has(f)
		switch {
		case inA != inB:
			category = max(category, model.CategoryStructural)
			differing = differing.With(f)
		case !inA:
		case f == model.FieldHost && a.kind != b.kind:
			category = max(category, model.CategoryHostInterpretation)
			differing = differing.With(f)
		case a.key[f] != b.key[f]:
			category = max(category, model.CategoryValue)
			differing = differing.With(f)
		}
	}
	return category, differing
}

func same(a, b view) bool {
	c, _ := diff(a, b)
	return c == model.CategoryNone
}

// groups partitions views into agreement classes. Views arrive sorted by
// adapter, so each class and the class list come out sorted too.
func groups(views []view) [][]string {
	if len(views) == 0 {
		return nil
	}
	var (
		out  [][]string
		reps []view
	)
	for _, w := range views {
		placed := false
		for i, rep := range reps {
			if same(rep, w) {
				out[i] = append(out[i], w.adapter)
				placed = true
				break
			}
		}
		if !placed {
			reps = append(reps, w)
			out = append(out, []string{w.adapter})
		}
	}
	return out
}

func evidence(views []view, fields []model.Field) []model.FieldValues {
	out := make([]model.FieldValues, 0, len(fields))
	for _, f := range fields {
		fv := model.FieldValues{Field: f, Values: make([]model.AdapterValue, 0, len(views))}
		for _, w := range views {
			av := model.AdapterValue{Adapter: w.adapter, Present: w.present.Has(f)}
			if av.Present {
				av.Value = w.raw[f]
				if f == model.FieldHost {
					av.HostKind = w.kind
				}
			}
			fv.Values = append(fv.Values, av)
		}
		out = append(out, fv)
	}
	return out
}
