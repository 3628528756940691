// Package model defines the canonical data structures shared by every urldiff
// component.
//
// This package contains the following main types:
//   - URL: the canonical parse result, built through Builder
//   - Presence: the per-field bitset separating absent from empty components
//   - Outcome: Success, Rejected or Fatal result of one adapter on one input
//   - Verdict: the comparator's agree/diverge characterisation of one input
//   - Category and Severity: how much a divergence matters
//
// Models are separated into their own package because adapters, the codec,
// the comparator and the reports all need them.
package model
