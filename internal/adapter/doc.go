// Package adapter wraps URL parsing libraries behind a uniform contract.
//
// Every adapter turns a raw input into a model.Outcome:
//   - Success with a canonical URL whose presence bits follow the input text,
//     not the library's defaults
//   - Rejected when the library refuses the input
//   - Fatal when the library could not be asked at all
//
// Library defaults such as an implied scheme, port or root path are filtered
// with the lexical facts from Split, and may be kept as inferred values.
// Fields a library only exposes percent-decoded are marked with
// model.Builder.Decoded.
//
// Guard runs an adapter under a deadline and converts panics to Fatal.
// Process runs an adapter in a child process so that a memory-safety crash in
// a cgo-backed or external parser takes down only that child.
package adapter
