package harness

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
)

// DeletionLengths are the run lengths Minimize tries to delete, longest
// first. Four bytes covers the longest UTF-8 sequence.
var DeletionLengths = []int{4, 3, 2, 1}

// Minimization is the result of Minimize.
type Minimization struct {
	// Input is the smallest input found.
	Input []byte

	// Run is the driver's run on Input.
	Run *Run

	// Attempts counts the candidate inputs that were run.
	Attempts int
}

// Minimize shrinks input by deleting runs of DeletionLengths bytes for as
// long as the verdict signature stays the same, until no single deletion
// keeps it. Only a divergent input is worth minimizing, but any input is
// accepted.
func Minimize(ctx context.Context, d *Driver, input []byte) (*Minimization, error) {
	run, err := d.Run(ctx, input)
	if err != nil {
		return nil, err
	}
	target := run.Verdict.Signature()
	m := &Minimization{Input: run.Input, Run: run, Attempts: 1}

	for changed := true; changed; {
		changed = false
		for _, n := range DeletionLengths {
			for i := 0; i+n <= len(m.Input); {
				if err := ctx.Err(); err != nil {
					return m, errors.Wrap(err, "minimize")
				}

				candidate := slices.Concat(m.Input[:i], m.Input[i+n:])
				r, err := d.Run(ctx, candidate)
				m.Attempts++
				if err != nil {
					if IsInternal(err) {
						return m, err
					}
					i++
					continue
				}
				if r.Verdict.Signature() != target {
					i++
					continue
				}
				m.Input, m.Run = candidate, r
				changed = true
			}
		}
	}

	d.logger.Debug("minimized",
		"from", len(input),
		"to", len(m.Input),
		"attempts", m.Attempts,
	)
	return m, nil
}
