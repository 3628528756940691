package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/urldiff/internal/database"
)

// writeCorpus creates a corpus directory with one input per file.
func writeCorpus(t *testing.T, inputs ...string) string {
	t.Helper()

	dir := t.TempDir()
	for i, input := range inputs {
		path := filepath.Join(dir, "input"+string(rune('a'+i)))
		if err := os.WriteFile(path, []byte(input), 0600); err != nil {
			t.Fatalf("failed to write corpus file: %v", err)
		}
	}
	return dir
}

// TestNewBatchCmd tests the batch command creation.
func TestNewBatchCmd(t *testing.T) {
	t.Parallel()

	cmd := NewBatchCmd()

	if cmd.Use != "batch PATH..." {
		t.Errorf("expected use 'batch PATH...', got %q", cmd.Use)
	}
	flag := cmd.Flags().Lookup("concurrency")
	if flag == nil {
		t.Fatal("expected concurrency flag")
	}
	if flag.Shorthand != "c" {
		t.Errorf("expected shorthand 'c', got %q", flag.Shorthand)
	}
	for _, name := range []string{"lines", "html", "format", "output", "no-save", "fail-on-diverge"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
}

// TestRunBatchCmd tests the batch command execution.
func TestRunBatchCmd(t *testing.T) {
	t.Parallel()

	t.Run("writes simple report", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		dir := writeCorpus(t, agreeingInput, divergentInput)

		out, err := execute(t, "", "batch", "--config", env.configPath, dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"URLDIFF REPORT", "Inputs:          2", "Agree:           1", "Diverge:         1", `"foo"`} {
			if !strings.Contains(out, want) {
				t.Errorf("expected report to contain %q, got %q", want, out)
			}
		}
		if _, err := os.Stat(filepath.Join(env.dbDir, database.FileName)); err != nil {
			t.Errorf("expected findings database to be created: %v", err)
		}
	})

	t.Run("reads lines from stdin", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		out, err := execute(t, agreeingInput+"\n"+divergentInput+"\n", "batch", "--config", env.configPath, "--no-save", "-")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Inputs:          2") {
			t.Errorf("expected 2 inputs, got %q", out)
		}
	})

	t.Run("writes json report to file", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		dir := writeCorpus(t, agreeingInput, divergentInput)
		reportPath := filepath.Join(t.TempDir(), "out", "report.json")

		out, err := execute(t, "", "batch", "--config", env.configPath, "--no-save", "--format", "json", "-o", reportPath, dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "URLDIFF REPORT") {
			t.Errorf("expected simple report on stdout, got %q", out)
		}

		content, err := os.ReadFile(reportPath)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		var rep struct {
			Version string `json:"version"`
			Report  struct {
				Summary struct {
					Total   int `json:"total"`
					Diverge int `json:"diverge"`
				} `json:"summary"`
			} `json:"report"`
		}
		if err := json.Unmarshal(content, &rep); err != nil {
			t.Fatalf("report is not JSON: %v", err)
		}
		if rep.Version == "" {
			t.Error("expected version in report")
		}
		if rep.Report.Summary.Total != 2 || rep.Report.Summary.Diverge != 1 {
			t.Errorf("expected 2 inputs with 1 divergence, got %+v", rep.Report.Summary)
		}
	})

	t.Run("no-save leaves no database", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		dir := writeCorpus(t, divergentInput)

		if _, err := execute(t, "", "batch", "--config", env.configPath, "--no-save", dir); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(env.dbDir); !os.IsNotExist(err) {
			t.Errorf("expected no database directory, got %v", err)
		}
	})

	t.Run("fail-on-diverge returns errDiverged", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		dir := writeCorpus(t, divergentInput)

		_, err := execute(t, "", "batch", "--config", env.configPath, "--no-save", "--fail-on-diverge", dir)
		if !errors.Is(err, errDiverged) {
			t.Errorf("expected errDiverged, got %v", err)
		}
	})

	t.Run("lines and html conflict", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		dir := writeCorpus(t, agreeingInput)

		_, err := execute(t, "", "batch", "--config", env.configPath, "--lines", "--html", dir)
		if !errors.Is(err, errConflictingModes) {
			t.Errorf("expected errConflictingModes, got %v", err)
		}
	})

	t.Run("unknown format is an error", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		dir := writeCorpus(t, agreeingInput)

		if _, err := execute(t, "", "batch", "--config", env.configPath, "--no-save", "--format", "xml", dir); err == nil {
			t.Error("expected error for unknown format")
		}
	})

	t.Run("requires a path", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		if _, err := execute(t, "", "batch", "--config", env.configPath); err == nil {
			t.Error("expected error without arguments")
		}
	})
}
