//go:build gofuzz

// Package fuzz is the go-fuzz entry point. Build it with
//
//	go-fuzz-build -tags gofuzz github.com/nao1215/urldiff/fuzz
//
// Divergent inputs are reported as interesting so the corpus grows toward
// parser disagreements; a broken harness invariant crashes the fuzzer.
package fuzz

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/nao1215/urldiff/internal/adapter"
	"github.com/nao1215/urldiff/internal/harness"
)

var driver = newDriver()

func newDriver() *harness.Driver {
	adapters := make([]adapter.Adapter, 0, len(adapter.BuiltinNames()))
	for _, name := range adapter.BuiltinNames() {
		a, err := adapter.Builtin(name)
		if err != nil {
			panic(err)
		}
		adapters = append(adapters, a)
	}
	set, err := adapter.NewSet(adapters...)
	if err != nil {
		panic(err)
	}
	d, err := harness.New(set,
		harness.WithTimeout(time.Second),
		harness.WithTruncate(true),
		harness.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		panic(err)
	}
	return d
}

// Fuzz runs one comparison cycle.
func Fuzz(data []byte) int {
	run, err := driver.Run(context.Background(), data)
	if err != nil {
		panic(err)
	}
	if run.Verdict.Diverge() {
		return 1
	}
	return 0
}
