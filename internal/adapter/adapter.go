package adapter

import (
	"context"

	"github.com/nao1215/urldiff/internal/model"
)

// Adapter wraps exactly one URL parsing library.
type Adapter interface {
	// Name returns the adapter's unique name, e.g. "net/url".
	Name() string

	// Parse interprets input with the wrapped library.
	//
	// Implementations must not modify input or keep references to it after
	// returning, must release any library resources before returning, and
	// should stop early when ctx is done.
	Parse(ctx context.Context, input []byte) model.Outcome
}

// Func adapts a function to the Adapter interface.
type Func struct {
	AdapterName string
	ParseFunc   func(ctx context.Context, input []byte) model.Outcome
}

// Name implements Adapter.
func (f Func) Name() string { return f.AdapterName }

// Parse implements Adapter.
func (f Func) Parse(ctx context.Context, input []byte) model.Outcome {
	return f.ParseFunc(ctx, input)
}
