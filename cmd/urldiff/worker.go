package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nao1215/urldiff/internal/adapter"
	"github.com/nao1215/urldiff/internal/codec"
	"github.com/nao1215/urldiff/internal/model"
)

// NewWorkerCmd creates the hidden worker command used for process isolation.
//
// The worker reads one input from stdin, runs a single built-in adapter on
// it and prints one Structured record. A panic is recorded like in-process
// runs; anything that kills the process is seen by the parent as an
// isolation failure.
func NewWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "worker",
		Short:  "Run one built-in adapter on stdin (used by --isolation process)",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE:   runWorkerCmd,
	}

	cmd.Flags().String("adapter", "", "Built-in adapter to run")
	_ = cmd.MarkFlagRequired("adapter") //nolint:errcheck // flag is defined above

	return cmd
}

// runWorkerCmd executes the worker command.
func runWorkerCmd(cmd *cobra.Command, _ []string) error {
	name, err := cmd.Flags().GetString("adapter")
	if err != nil {
		return err
	}
	a, err := adapter.Builtin(name)
	if err != nil {
		return err
	}

	input, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	// The parent kills the process at its deadline, so no timeout here.
	o := adapter.Guard(cmd.Context(), a, input, 0)
	rec := codec.EncodeStructured(model.Result{Adapter: name, Outcome: o})

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", rec)
	return err
}
