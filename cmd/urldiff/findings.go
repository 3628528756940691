package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/urldiff/internal/config"
	"github.com/nao1215/urldiff/internal/database"
	"github.com/nao1215/urldiff/internal/model"
	"github.com/nao1215/urldiff/internal/report"
)

// NewFindingsCmd creates the findings command.
// This command queries the divergences stored by check --save and batch.
func NewFindingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "findings [id-prefix]",
		Short: "List stored divergences",
		Long: `Findings lists the divergent inputs stored in the findings database, most
recently seen first. A finding is identified by the SHA3-256 digest of its
input; pass an ID prefix to show a single finding with its records.

The --overlap flag adds the adapter-pair matrix: for each pair of adapters,
the number of findings on which they disagree.

Examples:
  # List all findings
  urldiff findings

  # List host-interpretation divergences only
  urldiff findings --category host-interpretation

  # Show one finding
  urldiff findings 3fa9c1

  # Markdown report with the overlap matrix
  urldiff findings --markdown --overlap -o findings.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: runFindingsCmd,
	}

	cmd.Flags().String("category", "",
		"Only list findings of this category (e.g. value, structural, host-interpretation)")
	cmd.Flags().IntP("limit", "n", 0,
		"Maximum number of findings to list (0 for all)")
	cmd.Flags().Bool("overlap", false,
		"Include the adapter-pair disagreement matrix")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output in Markdown format (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write output to specified file path (creates directories if needed)")

	return cmd
}

// runFindingsCmd executes the findings command.
func runFindingsCmd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(getConfigFlag(cmd))
	if err != nil {
		return err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return config.ErrConflictingReportFormats
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}

	filter, err := findingsFilter(cmd)
	if err != nil {
		return err
	}
	overlap, err := cmd.Flags().GetBool("overlap")
	if err != nil {
		return err
	}

	// Querying must not create an empty database.
	db, err := database.Open(cfg.DBDir, database.Options{})
	if err != nil {
		return fmt.Errorf("failed to open database (run 'urldiff check --save' or 'urldiff batch' first): %w", err)
	}
	defer db.Close()

	output, closeOutput, err := openOutput(cfg.ReportFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOutput() //nolint:errcheck // write errors are returned below

	writer := findingsWriter(cfg, output)
	ctx := cmd.Context()

	if len(args) == 1 {
		return showFinding(ctx, db, writer, args[0])
	}
	return listFindings(ctx, db, writer, filter, overlap)
}

// findingsFilter builds the list filter from --category and --limit.
func findingsFilter(cmd *cobra.Command) (database.Filter, error) {
	var filter database.Filter

	name, err := cmd.Flags().GetString("category")
	if err != nil {
		return filter, err
	}
	if name != "" {
		c, ok := parseCategory(name)
		if !ok {
			return filter, fmt.Errorf("unknown category %q", name)
		}
		filter.Category = c
	}

	filter.Limit, err = cmd.Flags().GetInt("limit")
	return filter, err
}

// parseCategory accepts a category's report name with or without the
// " divergence" suffix, e.g. "host-interpretation".
func parseCategory(name string) (model.Category, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if c, ok := model.ParseCategory(name); ok && c != model.CategoryNone {
		return c, true
	}
	c, ok := model.ParseCategory(name + " divergence")
	return c, ok
}

// findingsWriter returns the writer for the selected output format.
func findingsWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}

// listFindings writes a report of the findings matching filter.
func listFindings(ctx context.Context, db *database.FindingsDB, writer report.Writer, filter database.Filter, withOverlap bool) error {
	findings, err := db.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list findings: %w", err)
	}

	var overlap *database.Overlap
	if withOverlap {
		overlap, err = db.Overlap(ctx)
		if err != nil {
			return fmt.Errorf("failed to compute overlap: %w", err)
		}
	}

	rep := report.FromFindings(db.Path(), findings, overlap)
	_, err = writer.Write(rep)
	return err
}

// showFinding writes the single finding whose ID starts with prefix.
func showFinding(ctx context.Context, db *database.FindingsDB, writer report.Writer, prefix string) error {
	f, err := db.Get(ctx, prefix)
	if err != nil {
		return fmt.Errorf("failed to get finding: %w", err)
	}
	if f == nil {
		return fmt.Errorf("no finding matches %q", prefix)
	}

	rep := report.FromFindings(db.Path(), []*database.Finding{f}, nil)
	_, err = writer.WriteEntry(&rep.Entries[0])
	return err
}
