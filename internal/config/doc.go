// Package config provides the run settings of urldiff: defaults, the
// .urldiff.yaml configuration file with its external parser targets, and
// the XDG directories used for the findings database and scratch output.
package config
