package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/urldiff/internal/adapter"
	"github.com/nao1215/urldiff/internal/config"
)

// NewAdaptersCmd creates the adapters command.
func NewAdaptersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adapters",
		Short: "List the available adapters and configured targets",
		Long: `Adapters lists the built-in parser adapters, marking those enabled by the
configuration, followed by the external targets declared in .urldiff.yaml.`,
		Args: cobra.NoArgs,
		RunE: runAdaptersCmd,
	}
}

// runAdaptersCmd executes the adapters command.
func runAdaptersCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(getConfigFlag(cmd))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Built-in adapters:")
	for _, name := range adapter.BuiltinNames() {
		mark := " "
		if slices.Contains(cfg.Adapters, name) {
			mark = "*"
		}
		fmt.Fprintf(out, "  [%s] %s\n", mark, name)
	}

	if len(cfg.Targets) == 0 {
		fmt.Fprintln(out, "\nNo targets configured.")
		return nil
	}

	fmt.Fprintln(out, "\nTargets:")
	for _, t := range cfg.Targets {
		format := t.Format
		if format == "" {
			format = config.EncodingPlain
		}
		fmt.Fprintf(out, "  %-16s %s", t.Name, strings.Join(append([]string{t.Executable}, t.Args...), " "))
		fmt.Fprintf(out, "  (%s", format)
		if t.Charset != "" {
			fmt.Fprintf(out, ", %s", t.Charset)
		}
		if t.FilterDefaultPort {
			fmt.Fprint(out, ", filter default port")
		}
		if t.ExitIsolation {
			fmt.Fprint(out, ", exit isolation")
		}
		fmt.Fprintln(out, ")")
	}
	return nil
}
