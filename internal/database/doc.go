// Package database stores divergence findings in SQLite.
//
// A finding is one divergent input together with the verdict and the
// Structured record of every adapter. Findings are keyed by the SHA3-256
// digest of the input, so re-running a corpus updates existing rows
// instead of duplicating them, and the hit count records how often an
// input came up.
//
// The database is a single file (modernc.org/sqlite, no cgo) under the
// XDG data directory by default. Besides listing and lookup by ID prefix,
// FindingsDB.Overlap builds the adapter-pair disagreement matrix used by
// the findings report.
package database
