// Package corpus loads the inputs fed to the harness.
//
// Inputs come from three kinds of source:
//
//   - Fuzzing corpora, where each file is one raw input byte-for-byte.
//   - Line-delimited lists, one URL per line (the default for stdin).
//   - HTML documents, where every URL-valued attribute becomes an input.
//
// HTML values are taken as written after entity decoding. They are never
// resolved against the page, since the point is to see how each parser
// treats the raw reference.
//
// # Usage
//
//	loader := corpus.NewLoader(corpus.WithMode(corpus.ModeLines))
//	items, err := loader.Load("urls.txt", "testdata/")
package corpus
