// Package main provides the entry point for the urldiff CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit statuses.
const (
	exitError   = 1
	exitDiverge = 2
)

// errDiverged is returned by check when an input diverged and
// --fail-on-diverge is set. Execute maps it to exit status 2.
var errDiverged = errors.New("divergence detected")

// NewRootCmd creates the root command for urldiff.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "urldiff",
		Short: "Differential tester for URL parsers",
		Long: `urldiff feeds the same input to several URL parsers and compares how each
one splits it into scheme, userinfo, host, port, path, query and fragment.

A disagreement is classified by what the parsers disagree on, from a parse
accepted by some and rejected by others, to a host read as a name by one
library and as an IP literal by another, down to percent-encoding details.
Divergent inputs are stored so that recurring disagreements can be tracked.

External parsers in any language can be compared alongside the built-in
adapters by declaring them as targets in .urldiff.yaml.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs to stderr as JSON lines")
	cmd.PersistentFlags().String("config", "",
		"Configuration file path (default: .urldiff.yaml in current or home directory)")

	// Add subcommands
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewBatchCmd())
	cmd.AddCommand(NewMinimizeCmd())
	cmd.AddCommand(NewFindingsCmd())
	cmd.AddCommand(NewAdaptersCmd())
	cmd.AddCommand(NewWorkerCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	os.Exit(run(os.Args[1:]))
}

// run executes the root command with args and returns the exit status.
func run(args []string) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)

	err := cmd.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errDiverged):
		return exitDiverge
	default:
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}
}
