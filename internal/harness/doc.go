// Package harness runs one differential comparison cycle per input.
//
// A Driver bounds the input, invokes every adapter of a set under a
// deadline, checks that each outcome survives the Structured encoding, and
// hands the outcomes to the comparator. Adapter failures are data: a panic,
// hang or unusable answer becomes a Fatal outcome inside the run. Only a
// HarnessInternalError, which means the harness itself is broken, aborts a
// run.
//
// BatchProcessor fans a Driver out over a corpus with bounded concurrency,
// and Minimize shrinks a divergent input while it keeps its verdict.
package harness
