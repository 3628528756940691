package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// divergentInput is accepted by url.Parse and rejected by
// url.ParseRequestURI, so the test configuration always splits on it.
const divergentInput = "foo"

// agreeingInput is read identically by both test adapters.
const agreeingInput = "http://a.example/"

// testEnv is an isolated configuration with its own findings database.
type testEnv struct {
	configPath string
	dbDir      string
}

// newTestEnv writes a configuration that compares net/url with
// net/url-request and stores findings in a temporary directory.
func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	dir := t.TempDir()
	env := testEnv{
		configPath: filepath.Join(dir, "urldiff.yaml"),
		dbDir:      filepath.Join(dir, "db"),
	}
	content := "adapters:\n  - net/url\n  - net/url-request\ndb_dir: " + env.dbDir + "\n"
	if err := os.WriteFile(env.configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return env
}

// execute runs the root command with args and stdin and returns stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}
