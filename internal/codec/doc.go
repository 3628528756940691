// Package codec renders parse outcomes as byte strings for output, logging
// and evidence capture, and reads them back.
//
// Two encodings are supported:
//   - Plain: one labelled line per component, "(nil)" for absent ones, values
//     Go-quoted so that embedded newlines and control bytes stay on one line.
//   - Structured: a single-line JSON object whose component values are all
//     base64 of the raw bytes. Absent components are omitted entirely.
//
// Both encoders are deterministic. The Structured form is lossless:
// DecodeStructured(EncodeStructured(r)) reproduces r exactly, presence bits
// included.
package codec
