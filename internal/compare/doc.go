// Package compare classifies the outcomes of several URL parsers for one
// input as agreeing or diverging.
//
// Compare is a pure function of its input set: it never consults the order
// in which adapters ran, and every list in the resulting model.Verdict is
// sorted by adapter name.
package compare
