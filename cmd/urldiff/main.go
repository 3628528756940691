// Package main provides the entry point for the urldiff CLI.
//
// urldiff is a differential tester for URL parsers. It feeds the same input
// to several parser libraries and reports where their readings of the URL
// disagree.
//
// Usage:
//
//	urldiff check 'http://a.example@b.example/'
//	urldiff batch corpus/
//
// See --help for all available options.
package main

// main is the entry point for urldiff.
func main() {
	Execute()
}
