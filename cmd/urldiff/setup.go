package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nao1215/urldiff/internal/adapter"
	"github.com/nao1215/urldiff/internal/codec"
	"github.com/nao1215/urldiff/internal/compare"
	"github.com/nao1215/urldiff/internal/config"
	"github.com/nao1215/urldiff/internal/harness"
	securelog "github.com/nao1215/urldiff/internal/log"
)

// addRunFlags registers the flags shared by every command that runs the
// adapters. Their defaults are the built-in defaults; a flag only overrides
// the configuration file when it is set on the command line.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Deadline for each adapter call")
	cmd.Flags().IntP("max-length", "m", config.DefaultMaxInputLength,
		"Maximum input length in bytes")
	cmd.Flags().Bool("truncate", false,
		"Truncate oversized inputs instead of skipping them")
	cmd.Flags().StringSliceP("adapters", "a", config.DefaultAdapters,
		"Built-in adapters to compare (see 'urldiff adapters')")
	cmd.Flags().String("normalize", config.DefaultNormalization,
		"Normalization before comparison: percent-decode or raw")
	cmd.Flags().String("isolation", config.DefaultIsolation,
		"Isolation for built-in adapters: none or process")
	cmd.Flags().Bool("parallel", false,
		"Invoke the adapters of one input concurrently")
	cmd.Flags().Bool("inferred", false,
		"Compare library-inferred schemes and ports as if they were present")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getLogJSONFlag retrieves the log-json flag from the command or its parent.
func getLogJSONFlag(cmd *cobra.Command) bool {
	logJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		logJSON, err = cmd.Root().PersistentFlags().GetBool("log-json")
		if err != nil {
			return false
		}
	}
	return logJSON
}

// getConfigFlag retrieves the config file path from the command or its parent.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return ""
		}
	}
	return path
}

// buildConfig creates a Config from defaults, the configuration file and
// the flags set on the command line, in that order of precedence.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(getConfigFlag(cmd))
	if err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.LogJSON = getLogJSONFlag(cmd)

	if err := applyFlags(cmd.Flags(), cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// applyFlags copies every changed flag into cfg. Flags a command does not
// define are never changed, so each command may register a subset.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	var err error

	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("max-length") {
		if cfg.MaxInputLength, err = flags.GetInt("max-length"); err != nil {
			return err
		}
	}
	if flags.Changed("truncate") {
		if cfg.Truncate, err = flags.GetBool("truncate"); err != nil {
			return err
		}
	}
	if flags.Changed("adapters") {
		if cfg.Adapters, err = flags.GetStringSlice("adapters"); err != nil {
			return err
		}
	}
	if flags.Changed("normalize") {
		if cfg.Normalization, err = flags.GetString("normalize"); err != nil {
			return err
		}
	}
	if flags.Changed("isolation") {
		if cfg.Isolation, err = flags.GetString("isolation"); err != nil {
			return err
		}
	}
	if flags.Changed("parallel") {
		if cfg.Parallel, err = flags.GetBool("parallel"); err != nil {
			return err
		}
	}
	if flags.Changed("inferred") {
		if cfg.Inferred, err = flags.GetBool("inferred"); err != nil {
			return err
		}
	}
	if flags.Changed("encoding") {
		if cfg.Encoding, err = flags.GetString("encoding"); err != nil {
			return err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return err
		}
	}
	if flags.Changed("fail-on-diverge") {
		if cfg.FailOnDiverge, err = flags.GetBool("fail-on-diverge"); err != nil {
			return err
		}
	}
	if flags.Changed("output") {
		if cfg.ReportFile, err = flags.GetString("output"); err != nil {
			return err
		}
	}
	return nil
}

// setupLogger creates a structured logger based on verbosity and format.
// Inputs may carry credentials in their userinfo, so the handler redacts them.
func setupLogger(cfg *config.Config) *slog.Logger {
	if cfg.LogJSON {
		return securelog.NewSecureJSONLogger(os.Stderr, cfg.Verbose)
	}
	return securelog.NewSecureLogger(os.Stderr, cfg.Verbose)
}

// signalContext returns a context cancelled on interrupt or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// buildAdapters creates the adapter set described by cfg: the enabled
// built-in adapters, in-process or behind worker processes, followed by
// the external targets.
func buildAdapters(cfg *config.Config) (*adapter.Set, error) {
	set, err := adapter.NewSet()
	if err != nil {
		return nil, err
	}

	var self string
	if cfg.Isolation == config.IsolationProcess {
		self, err = os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to locate urldiff executable for worker processes: %w", err)
		}
	}

	for _, name := range cfg.Adapters {
		a, err := adapter.Builtin(name)
		if err != nil {
			return nil, err
		}
		if self != "" {
			if a, err = adapter.NewProcess(self, name); err != nil {
				return nil, err
			}
		}
		if err := set.Add(a); err != nil {
			return nil, err
		}
	}

	for _, t := range cfg.Targets {
		format := codec.Plain
		if t.Format != "" {
			if format, err = codec.ParseEncoding(t.Format); err != nil {
				return nil, fmt.Errorf("target %q: %w", t.Name, err)
			}
		}
		e, err := adapter.NewExec(adapter.ExecSpec{
			Name:              t.Name,
			Executable:        t.Executable,
			Args:              t.Args,
			Env:               t.EnvList(),
			Format:            format,
			Charset:           t.Charset,
			FilterDefaultPort: t.FilterDefaultPort,
			ExitIsolation:     t.ExitIsolation,
		})
		if err != nil {
			return nil, err
		}
		if err := set.Add(e); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// buildDriver creates the harness driver for cfg.
func buildDriver(cfg *config.Config, logger *slog.Logger) (*harness.Driver, error) {
	set, err := buildAdapters(cfg)
	if err != nil {
		return nil, err
	}
	enc, err := codec.ParseEncoding(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	norm, err := compare.ParseNormalization(cfg.Normalization)
	if err != nil {
		return nil, err
	}

	logger.Debug("adapters ready",
		"adapters", set.Names(),
		"isolation", cfg.Isolation,
		"normalization", norm.String(),
	)

	return harness.New(set,
		harness.WithTimeout(cfg.Timeout),
		harness.WithMaxInputLength(cfg.MaxInputLength),
		harness.WithTruncate(cfg.Truncate),
		harness.WithParallel(cfg.Parallel),
		harness.WithEncoding(enc),
		harness.WithNormalization(norm),
		harness.WithInferred(cfg.Inferred),
		harness.WithLogger(logger),
	)
}

// openOutput returns the report destination: the file at path, created
// with owner-only permissions, or fallback when path is empty.
func openOutput(path string, fallback io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return fallback, func() error { return nil }, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Findings may embed credentials from the inputs' userinfo.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-provided output path
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}
