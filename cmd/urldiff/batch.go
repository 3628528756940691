package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/urldiff/internal/config"
	"github.com/nao1215/urldiff/internal/corpus"
	"github.com/nao1215/urldiff/internal/database"
	"github.com/nao1215/urldiff/internal/harness"
	"github.com/nao1215/urldiff/internal/report"
)

// errConflictingModes is returned when both --lines and --html are given.
var errConflictingModes = errors.New("--lines and --html cannot be used together")

// NewBatchCmd creates the batch command.
func NewBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch PATH...",
		Short: "Run a corpus of inputs through the parsers",
		Long: `Batch compares every input of a corpus and writes a report of the
divergent ones. Divergences are stored in the findings database unless
--no-save is given.

Each PATH is a file, a directory walked recursively, or "-" for standard
input. By default every file is one input, as in a fuzzing corpus, and
.html files contribute the URLs found in their attributes. Use --lines for
URL lists with one input per line.

When --output names a file and the format is json or markdown, the simple
report is also printed to standard output.

Examples:
  # Run a go-fuzz corpus directory
  urldiff batch workdir/corpus

  # Run a URL list with 32 inputs in flight
  urldiff batch --lines -c 32 urls.txt

  # Harvest URLs from saved pages and write a Markdown report
  urldiff batch --html --format markdown -o report.md pages/`,
		Args: cobra.MinimumNArgs(1),
		RunE: runBatchCmd,
	}

	addRunFlags(cmd)
	cmd.Flags().IntP("concurrency", "c", config.DefaultConcurrency,
		"Number of inputs compared concurrently")
	cmd.Flags().Bool("lines", false,
		"Treat every file as a list with one input per line")
	cmd.Flags().Bool("html", false,
		"Treat every file as HTML and compare the URLs in its attributes")
	cmd.Flags().String("format", report.FormatSimple,
		"Report format: simple, json or markdown")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-save", false,
		"Do not store divergences in the findings database")
	cmd.Flags().Bool("fail-on-diverge", false,
		"Exit with status 2 when any input diverges")

	return cmd
}

// runBatchCmd executes the batch command.
func runBatchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return err
	}
	cfg.SaveToDB = !noSave

	mode, err := corpusMode(cmd)
	if err != nil {
		return err
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	loader := corpus.NewLoader(
		corpus.WithMode(mode),
		corpus.WithStdin(cmd.InOrStdin()),
	)
	items, err := loader.Load(args...)
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
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

	output, closeOutput, err := openOutput(cfg.ReportFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOutput() //nolint:errcheck // report errors surface from Write

	writer, err := report.New(format, output, getVersion(), cfg.Verbose)
	if err != nil {
		return err
	}
	if cfg.ReportFile != "" && !strings.EqualFold(format, report.FormatSimple) {
		writer = report.NewMultiWriter(writer,
			report.NewSimpleWriter(cmd.OutOrStdout(), report.WithVerbose(cfg.Verbose)))
	}

	progress := cmd.ErrOrStderr()
	fmt.Fprintf(progress, "Comparing %d inputs with %s (concurrency: %d)...\n",
		len(items), strings.Join(driver.Names(), ", "), cfg.Concurrency)
	startTime := time.Now()

	results := make([]harness.BatchResult, len(items))
	for i, item := range items {
		results[i].Item = item
	}

	bp := harness.NewBatchProcessor(driver,
		harness.WithConcurrency(cfg.Concurrency),
		harness.WithBatchLogger(logger),
	)

	var mu sync.Mutex
	done := 0
	batchErr := bp.ProcessBatchWithCallback(ctx, items, func(r harness.BatchResult, index int) {
		mu.Lock()
		defer mu.Unlock()

		results[index] = r
		done++
		if r.Run == nil || !r.Run.Verdict.Diverge() {
			return
		}
		fmt.Fprintf(progress, "[%d/%d] %s: %s\n", done, len(items), r.Item.Label, r.Run.Verdict)

		if db == nil {
			return
		}
		if _, err := db.Save(ctx, r.Run.Input, r.Run.Verdict, r.Run.Results); err != nil {
			logger.Error("failed to save finding", "input", r.Item.Label, "error", err)
		}
	})

	fmt.Fprintf(progress, "Batch completed in %s\n", time.Since(startTime).Round(time.Millisecond))
	if db != nil {
		counts, err := db.CountByCategory(ctx)
		if err != nil {
			logger.Warn("failed to count findings", "error", err)
		} else {
			total := 0
			for _, n := range counts {
				total += n
			}
			fmt.Fprintf(progress, "Findings database: %d divergent inputs stored (%s)\n", total, db.Path())
		}
	}
	fmt.Fprintln(progress)

	rep := report.FromBatch(strings.Join(args, ", "), driver.Names(), results)
	if _, err := writer.Write(rep); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if batchErr != nil {
		return batchErr
	}
	if rep.Summary.Diverge > 0 && cfg.FailOnDiverge {
		return errDiverged
	}
	return nil
}

// corpusMode returns the loader mode selected by --lines and --html.
func corpusMode(cmd *cobra.Command) (corpus.Mode, error) {
	lines, err := cmd.Flags().GetBool("lines")
	if err != nil {
		return corpus.ModeAuto, err
	}
	html, err := cmd.Flags().GetBool("html")
	if err != nil {
		return corpus.ModeAuto, err
	}

	switch {
	case lines && html:
		return corpus.ModeAuto, errConflictingModes
	case lines:
		return corpus.ModeLines, nil
	case html:
		return corpus.ModeHTML, nil
	default:
		return corpus.ModeAuto, nil
	}
}
