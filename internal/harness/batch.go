package harness

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of inputs a BatchProcessor runs at once.
const DefaultConcurrency = 10

// Item is one input of a batch with a label for reporting, typically the
// file and line it came from.
type Item struct {
	Label string
	Input []byte
}

// BatchResult is the outcome of one batch item. Exactly one of Run and
// Err is set.
type BatchResult struct {
	Item Item
	Run  *Run
	Err  error
}

// BatchProcessor runs a Driver over many inputs with bounded concurrency.
// Per-input errors such as ErrInputTooLarge are collected in the results;
// a HarnessInternalError stops the whole batch.
type BatchProcessor struct {
	driver      *Driver
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent runs.
// Default is DefaultConcurrency if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor around driver.
func NewBatchProcessor(driver *Driver, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		driver:      driver,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch runs every item and returns the results in item order.
// The error is non-nil when the batch was cancelled or a run hit a
// HarnessInternalError; results gathered until then are still returned.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, items []Item) ([]BatchResult, error) {
	results := make([]BatchResult, len(items))
	var mu sync.Mutex

	err := bp.ProcessBatchWithCallback(ctx, items, func(r BatchResult, index int) {
		mu.Lock()
		results[index] = r
		mu.Unlock()
	})
	return results, err
}

// ProcessBatchWithCallback runs every item and calls callback as each one
// completes. The callback runs on the worker goroutine, so it must be safe
// for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	items []Item,
	callback func(result BatchResult, index int),
) error {
	bp.logger.Info("starting batch",
		"total_inputs", len(items),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, item := range items {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			run, err := bp.driver.Run(ctx, item.Input)
			if IsInternal(err) {
				bp.logger.Error("harness internal error",
					"input", item.Label,
					"error", err,
				)
				return errors.Wrapf(err, "input %s", item.Label)
			}
			if err != nil && ctx.Err() != nil {
				bp.logger.Debug("input abandoned",
					"input", item.Label,
					"error", err,
				)
				return ctx.Err()
			}
			if err != nil {
				bp.logger.Warn("input skipped",
					"input", item.Label,
					"error", err,
				)
			} else if run.Verdict.Diverge() {
				bp.logger.Info("divergence",
					"input", item.Label,
					"verdict", run.Verdict.String(),
				)
			}

			callback(BatchResult{Item: item, Run: run, Err: err}, i)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch complete",
		"total_inputs", len(items),
		"elapsed", time.Since(startTime),
	)
	return err
}

// Summary counts the verdicts of a batch.
type Summary struct {
	Total         int
	Agree         int
	Diverge       int
	HarnessErrors int
	Skipped       int
}

// Summarize tallies results. Items that never ran, because the batch
// stopped early, count as skipped.
func Summarize(results []BatchResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Run == nil:
			s.Skipped++
		case r.Run.Verdict.Agree():
			s.Agree++
		case r.Run.Verdict.Diverge():
			s.Diverge++
		default:
			s.HarnessErrors++
		}
	}
	return s
}
