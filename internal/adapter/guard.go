package adapter

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"

	"github.com/nao1215/urldiff/internal/model"
)

// Guard invokes a on a private copy of input, under timeout when it is
// positive. A panic inside the adapter becomes Fatal(panic), an elapsed
// deadline Fatal(timeout) and a cancelled ctx Fatal(cancelled).
//
// Guard returns as soon as the deadline passes. A library stuck in a loop
// keeps its goroutine until it returns; use Process for libraries that are
// known to hang.
func Guard(ctx context.Context, a Adapter, input []byte, timeout time.Duration) model.Outcome {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return contextOutcome(err)
	}

	buf := bytes.Clone(input)
	done := make(chan model.Outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- model.Fatal(model.FatalPanic, panicReason(r))
			}
		}()
		done <- a.Parse(ctx, buf)
	}()

	select {
	case o := <-done:
		return o
	case <-ctx.Done():
		// Prefer an answer that raced with the deadline.
		select {
		case o := <-done:
			return o
		default:
			return contextOutcome(ctx.Err())
		}
	}
}

func contextOutcome(err error) model.Outcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.Fatal(model.FatalTimeout, "deadline exceeded")
	}
	return model.Fatal(model.FatalCancelled, err.Error())
}

func panicReason(r any) string {
	return fmt.Sprintf("panic: %v", r)
}
