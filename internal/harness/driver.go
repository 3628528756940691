package harness

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/urldiff/internal/adapter"
	"github.com/nao1215/urldiff/internal/codec"
	"github.com/nao1215/urldiff/internal/compare"
	"github.com/nao1215/urldiff/internal/model"
)

const (
	// DefaultTimeout is the per-adapter deadline.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxInputLength is the largest input accepted without truncation.
	DefaultMaxInputLength = 64 * 1024
)

// Run is the result of one comparison cycle.
type Run struct {
	// Input is the input the adapters saw, after truncation.
	Input []byte

	// Truncated reports whether Input was cut to the maximum length.
	Truncated bool

	// Results holds one outcome per adapter in registration order.
	Results []model.Result

	// Records holds the encoded form of each result, parallel to Results.
	Records [][]byte

	// Verdict is the comparator's verdict on Results.
	Verdict model.Verdict

	// Elapsed is the wall-clock time of the cycle.
	Elapsed time.Duration
}

// Driver runs comparison cycles against a fixed adapter set.
// A Driver holds no per-run state and is safe for concurrent use.
type Driver struct {
	adapters       []adapter.Adapter
	timeout        time.Duration
	maxInputLength int
	truncate       bool
	parallel       bool
	encoding       codec.Encoding
	normalization  compare.Normalization
	inferred       bool
	logger         *slog.Logger

	// abandoned holds the names of in-process adapters already reported
	// for leaving a goroutine behind after a timeout.
	abandoned sync.Map
}

// Option configures a Driver.
type Option func(*Driver)

// WithTimeout sets the per-adapter deadline. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(dr *Driver) {
		if d > 0 {
			dr.timeout = d
		}
	}
}

// WithMaxInputLength sets the maximum input length in bytes.
// Non-positive values are ignored.
func WithMaxInputLength(n int) Option {
	return func(dr *Driver) {
		if n > 0 {
			dr.maxInputLength = n
		}
	}
}

// WithTruncate makes oversized inputs run truncated instead of failing
// with ErrInputTooLarge.
func WithTruncate(truncate bool) Option {
	return func(dr *Driver) {
		dr.truncate = truncate
	}
}

// WithParallel invokes the adapters of a run concurrently.
func WithParallel(parallel bool) Option {
	return func(dr *Driver) {
		dr.parallel = parallel
	}
}

// WithEncoding sets the encoding of Run.Records. The default is Structured.
func WithEncoding(enc codec.Encoding) Option {
	return func(dr *Driver) {
		dr.encoding = enc
	}
}

// WithNormalization sets the comparator's normalization mode.
func WithNormalization(n compare.Normalization) Option {
	return func(dr *Driver) {
		dr.normalization = n
	}
}

// WithInferred makes the comparator count inferred schemes and ports.
func WithInferred(inferred bool) Option {
	return func(dr *Driver) {
		dr.inferred = inferred
	}
}

// WithLogger sets a custom logger for the driver.
func WithLogger(logger *slog.Logger) Option {
	return func(dr *Driver) {
		dr.logger = logger
	}
}

// New returns a Driver for the adapters of set.
func New(set *adapter.Set, opts ...Option) (*Driver, error) {
	if set == nil || set.Len() == 0 {
		return nil, ErrNoAdapters
	}
	d := &Driver{
		adapters:       set.Adapters(),
		timeout:        DefaultTimeout,
		maxInputLength: DefaultMaxInputLength,
		encoding:       codec.Structured,
		normalization:  compare.NormalizePercentDecode,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d, nil
}

// Names returns the adapter names in registration order.
func (d *Driver) Names() []string {
	names := make([]string, len(d.adapters))
	for i, a := range d.adapters {
		names[i] = a.Name()
	}
	return names
}

// Encoding returns the encoding used for Run.Records.
func (d *Driver) Encoding() codec.Encoding {
	return d.encoding
}

// Run performs one comparison cycle on input.
//
// The errors are ErrInputTooLarge, for an oversized input when truncation
// is off, *HarnessInternalError, and the context error when ctx ends while
// the adapters run. A cancelled run is discarded rather than compared, so
// the cancelled outcomes never reach a verdict. Every other adapter failure
// is recorded in the Run.
func (d *Driver) Run(ctx context.Context, input []byte) (*Run, error) {
	start := time.Now()

	run := &Run{Input: input}
	if len(input) > d.maxInputLength {
		if !d.truncate {
			return nil, errors.Wrapf(ErrInputTooLarge, "%d > %d bytes", len(input), d.maxInputLength)
		}
		run.Input = input[:d.maxInputLength]
		run.Truncated = true
		d.logger.Debug("input truncated",
			"length", len(input),
			"max", d.maxInputLength,
		)
	}

	run.Results = d.invoke(ctx, run.Input)
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "run cancelled")
	}

	run.Records = make([][]byte, len(run.Results))
	for i, r := range run.Results {
		if err := checkRoundTrip(r); err != nil {
			return nil, err
		}
		run.Records[i] = codec.Encode(d.encoding, r)
	}

	opts := []compare.Option{compare.WithNormalization(d.normalization)}
	if d.inferred {
		opts = append(opts, compare.WithInferred())
	}
	run.Verdict = compare.Compare(run.Results, opts...)
	run.Elapsed = time.Since(start)

	d.logger.Debug("run complete",
		"verdict", run.Verdict.String(),
		"adapters", len(run.Results),
		"elapsed", run.Elapsed,
	)
	return run, nil
}

// invoke runs every adapter on input and returns the results in
// registration order.
func (d *Driver) invoke(ctx context.Context, input []byte) []model.Result {
	results := make([]model.Result, len(d.adapters))
	call := func(i int) {
		a := d.adapters[i]
		o := d.conform(adapter.Guard(ctx, a, input, d.timeout))
		if o.IsFatal() {
			d.logger.Warn("adapter failed",
				"adapter", a.Name(),
				"kind", o.FatalKind().String(),
				"reason", o.Reason(),
			)
		}
		if o.IsTimeout() {
			d.warnAbandoned(a)
		}
		results[i] = model.Result{Adapter: a.Name(), Outcome: o}
	}

	if !d.parallel {
		for i := range d.adapters {
			call(i)
		}
		return results
	}

	var g errgroup.Group
	for i := range d.adapters {
		g.Go(func() error {
			call(i)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // calls never fail
	return results
}

// warnAbandoned reports, once per adapter, that a timed-out in-process
// library keeps running on its own goroutine. Exec adapters kill their
// process on timeout and are not reported.
func (d *Driver) warnAbandoned(a adapter.Adapter) {
	if _, ok := a.(*adapter.Exec); ok {
		return
	}
	if _, seen := d.abandoned.LoadOrStore(a.Name(), struct{}{}); seen {
		return
	}
	d.logger.Warn("timed-out adapter is still running in the background; use --isolation process for libraries that hang",
		"adapter", a.Name(),
		"timeout", d.timeout,
	)
}

// conform applies the normalization mode's conformance rule: in raw mode
// an adapter that could only report decoded values cannot be compared.
func (d *Driver) conform(o model.Outcome) model.Outcome {
	if d.normalization != compare.NormalizeRaw {
		return o
	}
	u, ok := o.URL()
	if !ok || u.Decoded() == 0 {
		return o
	}
	return model.Fatal(model.FatalProtocol, "decoded fields in raw mode: "+u.Decoded().String())
}

// checkRoundTrip verifies that r survives the Structured encoding. A
// failure means the codec and the model disagree, which is a harness bug.
func checkRoundTrip(r model.Result) error {
	got, err := codec.DecodeStructured(codec.EncodeStructured(r))
	if err != nil {
		return &HarnessInternalError{Adapter: r.Adapter, Err: errors.Wrap(err, "structured round-trip")}
	}
	if got.Adapter != r.Adapter || !got.Outcome.Equal(r.Outcome) {
		return &HarnessInternalError{
			Adapter: r.Adapter,
			Err:     errors.Errorf("structured round-trip changed %s into %s", r.Outcome, got.Outcome),
		}
	}
	return nil
}
