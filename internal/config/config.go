package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultTimeout is the deadline for one adapter call.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxInputLength bounds an input before any adapter sees it.
	DefaultMaxInputLength = 64 * 1024

	// DefaultConcurrency is the number of inputs a batch run compares at once.
	DefaultConcurrency = 10

	// DefaultEncoding is the record encoding used for findings and JSON output.
	DefaultEncoding = EncodingStructured

	// DefaultNormalization is the comparator's normalization mode.
	DefaultNormalization = NormalizationPercentDecode

	// DefaultIsolation runs built-in adapters in-process.
	DefaultIsolation = IsolationNone

	// AppName is the application name used for XDG directory paths.
	AppName = "urldiff"
)

// Record encodings.
const (
	EncodingPlain      = "plain"
	EncodingStructured = "structured"
)

// Normalization modes.
const (
	NormalizationPercentDecode = "percent-decode"
	NormalizationRaw           = "raw"
)

// Isolation modes for built-in adapters.
const (
	// IsolationNone calls each adapter in the harness process under a
	// goroutine deadline.
	IsolationNone = "none"

	// IsolationProcess runs each adapter call in a "urldiff worker" child
	// process, so a crash or hang never reaches the harness.
	IsolationProcess = "process"
)

// DefaultAdapters lists the built-in adapters enabled when neither the
// configuration file nor the command line names any.
var DefaultAdapters = []string{"net/url", "fredbi/uri", "fasthttp"}

// Config holds all run settings for urldiff.
// It is populated from defaults, then the configuration file, then CLI flags,
// and passed down explicitly rather than kept in global state.
type Config struct {
	// MaxInputLength is the largest input, in bytes, compared as-is.
	MaxInputLength int

	// Truncate cuts oversized inputs to MaxInputLength instead of skipping them.
	Truncate bool

	// Timeout is the deadline for each adapter call.
	Timeout time.Duration

	// Parallel invokes the adapters of one run concurrently.
	Parallel bool

	// Concurrency is the number of inputs compared at once in batch runs.
	Concurrency int

	// Encoding is the record encoding, EncodingPlain or EncodingStructured.
	Encoding string

	// Normalization is NormalizationPercentDecode or NormalizationRaw.
	Normalization string

	// Inferred makes library-inferred schemes and ports count in comparisons.
	Inferred bool

	// Isolation is IsolationNone or IsolationProcess.
	Isolation string

	// Adapters names the enabled built-in adapters.
	Adapters []string

	// Targets are external parser harnesses compared alongside the adapters.
	Targets []TargetConfig

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// LogJSON switches the log output from text to JSON lines.
	LogJSON bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// DBDir is the directory holding the findings database.
	// Defaults to the XDG data directory (~/.local/share/urldiff on Linux).
	DBDir string

	// SaveToDB stores divergent runs in the findings database.
	SaveToDB bool

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When empty, the report goes to stdout.
	ReportFile string

	// FailOnDiverge makes the CLI exit with status 2 when any input diverges.
	FailOnDiverge bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		MaxInputLength: DefaultMaxInputLength,
		Timeout:        DefaultTimeout,
		Concurrency:    DefaultConcurrency,
		Encoding:       DefaultEncoding,
		Normalization:  DefaultNormalization,
		Isolation:      DefaultIsolation,
		Adapters:       append([]string(nil), DefaultAdapters...),
		DBDir:          XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for urldiff.
// On Linux: ~/.local/share/urldiff
// On macOS: ~/Library/Application Support/urldiff
// On Windows: %LOCALAPPDATA%\urldiff
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for urldiff.
// On Linux: ~/.config/urldiff
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for urldiff.
// Minimized reproducers are written here by default.
// On Linux: ~/.cache/urldiff
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error, wrapped with
// detail where a value is involved.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxInputLength <= 0 {
		return ErrInvalidMaxInputLength
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	switch c.Encoding {
	case EncodingPlain, EncodingStructured:
	default:
		return invalidValue(ErrInvalidEncoding, c.Encoding)
	}
	switch c.Normalization {
	case NormalizationPercentDecode, NormalizationRaw:
	default:
		return invalidValue(ErrInvalidNormalization, c.Normalization)
	}
	switch c.Isolation {
	case IsolationNone, IsolationProcess:
	default:
		return invalidValue(ErrInvalidIsolation, c.Isolation)
	}

	if len(c.Adapters)+len(c.Targets) == 0 {
		return ErrNoAdapters
	}

	names := make(map[string]bool, len(c.Adapters)+len(c.Targets))
	for _, name := range c.Adapters {
		if names[name] {
			return invalidValue(ErrDuplicateAdapter, name)
		}
		names[name] = true
	}
	for _, t := range c.Targets {
		if err := t.Validate(); err != nil {
			return err
		}
		if names[t.Name] {
			return invalidValue(ErrDuplicateAdapter, t.Name)
		}
		names[t.Name] = true
	}
	return nil
}
