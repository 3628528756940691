package harness

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nao1215/urldiff/internal/adapter"
	"github.com/nao1215/urldiff/internal/model"
)

func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	d := newDriver(t, []adapter.Adapter{adapter.NewNetURL()})

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(d)
		require.Equal(t, DefaultConcurrency, bp.concurrency)
		require.NotNil(t, bp.logger)
	})

	t.Run("applies WithConcurrency option", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(d, WithConcurrency(3))
		require.Equal(t, 3, bp.concurrency)
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(d, WithConcurrency(0))
		require.Equal(t, DefaultConcurrency, bp.concurrency)
	})
}

func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("collects per-input errors and keeps going", func(t *testing.T) {
		t.Parallel()

		strict := adapter.Func{AdapterName: "strict", ParseFunc: func(_ context.Context, in []byte) model.Outcome {
			if strings.Contains(string(in), " ") {
				return model.Rejected("space")
			}
			return adapter.NewNetURL().Parse(context.Background(), in)
		}}
		d := newDriver(t, []adapter.Adapter{adapter.NewNetURL(), strict}, WithMaxInputLength(32))
		items := []Item{
			{Label: "ok", Input: []byte("http://a.com/")},
			{Label: "split", Input: []byte("http://a.com/a b")},
			{Label: "huge", Input: []byte("http://a.com/" + strings.Repeat("x", 64))},
		}

		results, err := NewBatchProcessor(d, WithBatchLogger(quietLogger())).ProcessBatch(context.Background(), items)
		require.NoError(t, err)
		require.Len(t, results, 3)

		require.True(t, results[0].Run.Verdict.Agree())
		require.Equal(t, model.CategoryClassification, results[1].Run.Verdict.Category)
		require.ErrorIs(t, results[2].Err, ErrInputTooLarge)
		require.Nil(t, results[2].Run)

		require.Equal(t, Summary{Total: 3, Agree: 1, Diverge: 1, Skipped: 1}, Summarize(results))
	})

	t.Run("internal error stops the batch", func(t *testing.T) {
		t.Parallel()

		broken := adapter.Func{AdapterName: "broken", ParseFunc: func(context.Context, []byte) model.Outcome {
			return model.Fatal(model.FatalKind(99), "unencodable")
		}}
		d := newDriver(t, []adapter.Adapter{broken})
		_, err := NewBatchProcessor(d, WithBatchLogger(quietLogger()), WithConcurrency(1)).
			ProcessBatch(context.Background(), []Item{{Label: "a", Input: []byte("a")}, {Label: "b", Input: []byte("b")}})
		require.Error(t, err)
		require.True(t, IsInternal(err))
	})

	t.Run("runs cut short by an internal error are dropped", func(t *testing.T) {
		t.Parallel()

		waiter := adapter.Func{AdapterName: "waiter", ParseFunc: func(ctx context.Context, in []byte) model.Outcome {
			if string(in) == "hold" {
				<-ctx.Done()
			}
			return model.Rejected("no")
		}}
		broken := adapter.Func{AdapterName: "broken", ParseFunc: func(_ context.Context, in []byte) model.Outcome {
			if string(in) == "boom" {
				time.Sleep(50 * time.Millisecond)
				return model.Fatal(model.FatalKind(99), "unencodable")
			}
			return model.Rejected("no")
		}}
		d := newDriver(t, []adapter.Adapter{waiter, broken})
		items := []Item{
			{Label: "hold", Input: []byte("hold")},
			{Label: "boom", Input: []byte("boom")},
		}

		var (
			mu   sync.Mutex
			seen []string
		)
		err := NewBatchProcessor(d, WithBatchLogger(quietLogger()), WithConcurrency(2)).ProcessBatchWithCallback(
			context.Background(), items, func(r BatchResult, _ int) {
				mu.Lock()
				defer mu.Unlock()
				seen = append(seen, r.Item.Label)
			})
		require.Error(t, err)
		require.True(t, IsInternal(err))
		require.Empty(t, seen)

		results, err := NewBatchProcessor(d, WithBatchLogger(quietLogger()), WithConcurrency(2)).
			ProcessBatch(context.Background(), items)
		require.True(t, IsInternal(err))
		require.Nil(t, results[0].Run)
		require.Equal(t, 0, Summarize(results).Diverge)
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var current, peak atomic.Int32
		slow := adapter.Func{AdapterName: "slow", ParseFunc: func(context.Context, []byte) model.Outcome {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			defer current.Add(-1)
			return model.Rejected("no")
		}}
		d := newDriver(t, []adapter.Adapter{slow})

		items := make([]Item, 20)
		for i := range items {
			items[i] = Item{Label: "i", Input: []byte("x")}
		}
		_, err := NewBatchProcessor(d, WithBatchLogger(quietLogger()), WithConcurrency(2)).ProcessBatch(context.Background(), items)
		require.NoError(t, err)
		require.LessOrEqual(t, peak.Load(), int32(2))
	})
}

func TestBatchProcessorCallback(t *testing.T) {
	t.Parallel()

	d := newDriver(t, []adapter.Adapter{adapter.NewNetURL(), adapter.NewFredbiURI()})
	items := []Item{
		{Label: "0", Input: []byte("http://a/")},
		{Label: "1", Input: []byte("http://b/")},
		{Label: "2", Input: []byte("http://c/")},
	}

	var (
		mu   sync.Mutex
		seen = make(map[int]string)
	)
	err := NewBatchProcessor(d, WithBatchLogger(quietLogger())).ProcessBatchWithCallback(context.Background(), items,
		func(r BatchResult, index int) {
			mu.Lock()
			defer mu.Unlock()
			seen[index] = r.Item.Label
		})
	require.NoError(t, err)
	require.Equal(t, map[int]string{0: "0", 1: "1", 2: "2"}, seen)
}

func TestBatchProcessorCancelled(t *testing.T) {
	t.Parallel()

	d := newDriver(t, []adapter.Adapter{adapter.NewNetURL()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := NewBatchProcessor(d, WithBatchLogger(quietLogger())).
		ProcessBatch(ctx, []Item{{Label: "a", Input: []byte("http://a/")}})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, Summarize(results).Skipped)
}
