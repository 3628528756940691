package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nao1215/urldiff/internal/codec"
	"github.com/nao1215/urldiff/internal/config"
	"github.com/nao1215/urldiff/internal/corpus"
	"github.com/nao1215/urldiff/internal/database"
	"github.com/nao1215/urldiff/internal/harness"
	"github.com/nao1215/urldiff/internal/report"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [input...]",
		Short: "Compare how the parsers read each input",
		Long: `Check runs every enabled adapter on each input and prints their records
followed by the verdict.

Inputs are taken from the arguments, from --file (one per line), or from
standard input when neither is given. Records are printed in the plain
format on a terminal and in the structured format otherwise.

Exit status is 0 when the run completes, 1 on error, and 2 when
--fail-on-diverge is set and any input diverged.

Examples:
  # Compare a single input
  urldiff check 'http://a.example@b.example/'

  # Check a list of URLs and store the divergent ones
  urldiff check --save -f urls.txt

  # Use in CI: fail when any parser disagrees
  urldiff check --fail-on-diverge -f regressions.txt

  # Emit one JSON object per input
  cat urls.txt | urldiff check --json`,
		Args: cobra.ArbitraryArgs,
		RunE: runCheckCmd,
	}

	addRunFlags(cmd)
	cmd.Flags().StringP("file", "f", "",
		"Read inputs from a file, one per line (\"-\" for stdin)")
	cmd.Flags().StringP("encoding", "e", config.DefaultEncoding,
		"Record encoding: plain or structured (plain when stdout is a terminal)")
	cmd.Flags().BoolP("json", "j", false,
		"Print one JSON object per input instead of records")
	cmd.Flags().Bool("save", false,
		"Store divergent inputs in the findings database")
	cmd.Flags().Bool("fail-on-diverge", false,
		"Exit with status 2 when any input diverges")

	return cmd
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	cfg.SaveToDB, err = cmd.Flags().GetBool("save")
	if err != nil {
		return err
	}
	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !cmd.Flags().Changed("encoding") && cfg.Encoding == config.DefaultEncoding && isTerminal(out) {
		cfg.Encoding = config.EncodingPlain
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	items, err := checkInputs(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	driver, err := buildDriver(cfg, logger)
	if err != nil {
		return err
	}

	var db *database.FindingsDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	var writer report.Writer = report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	if cfg.JSONReport {
		writer = report.NewJSONWriter(out)
	}

	diverged := false
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		run, err := driver.Run(ctx, item.Input)
		if err != nil {
			if harness.IsInternal(err) || ctx.Err() != nil {
				return err
			}
			entry := report.Entry{
				ID:    database.ID(item.Input),
				Label: item.Label,
				Input: string(item.Input),
				Error: err.Error(),
			}
			if _, err := writer.WriteEntry(&entry); err != nil {
				return err
			}
			continue
		}

		if !cfg.JSONReport {
			if err := writeRecords(out, driver.Encoding(), run); err != nil {
				return err
			}
		}
		entry := report.NewEntry(item.Label, run)
		if _, err := writer.WriteEntry(&entry); err != nil {
			return err
		}

		if !run.Verdict.Diverge() {
			continue
		}
		diverged = true
		if db != nil {
			id, err := db.Save(ctx, run.Input, run.Verdict, run.Results)
			if err != nil {
				return fmt.Errorf("failed to save finding: %w", err)
			}
			logger.Info("finding saved", "id", id, "verdict", run.Verdict.String())
		}
	}

	if diverged && cfg.FailOnDiverge {
		return errDiverged
	}
	return nil
}

// checkInputs collects the inputs of a check: the arguments, then the
// lines of --file. Standard input is read when neither is given.
func checkInputs(cmd *cobra.Command, args []string) ([]harness.Item, error) {
	file, err := cmd.Flags().GetString("file")
	if err != nil {
		return nil, err
	}

	items := make([]harness.Item, 0, len(args))
	for i, arg := range args {
		items = append(items, harness.Item{Label: "arg:" + strconv.Itoa(i+1), Input: []byte(arg)})
	}

	if file == "" && len(args) > 0 {
		return items, nil
	}
	if file == "" {
		file = corpus.StdinPath
	}

	loader := corpus.NewLoader(
		corpus.WithMode(corpus.ModeLines),
		corpus.WithDedupe(false),
		corpus.WithStdin(cmd.InOrStdin()),
	)
	loaded, err := loader.Load(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read inputs: %w", err)
	}
	return append(items, loaded...), nil
}

// writeRecords prints each adapter's record. Plain records span several
// lines and get a header naming the adapter; Structured records carry
// the name and take one line each.
func writeRecords(w io.Writer, enc codec.Encoding, run *harness.Run) error {
	for i, rec := range run.Records {
		if enc == codec.Plain {
			if _, err := fmt.Fprintf(w, "[%s]\n", run.Results[i].Adapter); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s\n", bytes.TrimRight(rec, "\n")); err != nil {
			return err
		}
	}
	return nil
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
