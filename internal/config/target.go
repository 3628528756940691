package config

import (
	"fmt"
	"sort"
	"time"
)

// TargetConfig describes an external parser harness: an executable that
// reads one input on stdin and prints a Plain or Structured record.
type TargetConfig struct {
	// Name identifies the target in verdicts. It must not collide with a
	// built-in adapter name.
	Name string `yaml:"name"`

	// Executable is the path of the program to run.
	Executable string `yaml:"executable"`

	// Args are the command-line arguments the program needs.
	Args []string `yaml:"args,omitempty"`

	// Env holds extra environment variables for the program.
	Env map[string]string `yaml:"env,omitempty"`

	// Format is the record format the program prints: plain or structured.
	// Empty means plain.
	Format string `yaml:"format,omitempty"`

	// Charset is the IANA name of the program's output encoding.
	// Empty means UTF-8.
	Charset string `yaml:"charset,omitempty"`

	// FilterDefaultPort demotes a printed port to an inferred one when the
	// input had no port token, for libraries that always report a port.
	FilterDefaultPort bool `yaml:"filter_default_port,omitempty"`

	// ExitIsolation treats any non-zero exit status as a crash of the
	// target rather than a rejection of the input.
	ExitIsolation bool `yaml:"exit_isolation,omitempty"`
}

// Validate checks the target's required fields and format.
func (t TargetConfig) Validate() error {
	if t.Name == "" || t.Executable == "" {
		return fmt.Errorf("%w (name %q, executable %q)", ErrInvalidTarget, t.Name, t.Executable)
	}
	switch t.Format {
	case "", EncodingPlain, EncodingStructured:
	default:
		return fmt.Errorf("target %q: %w", t.Name, invalidValue(ErrInvalidEncoding, t.Format))
	}
	return nil
}

// EnvList returns Env as sorted "KEY=value" entries.
func (t TargetConfig) EnvList() []string {
	env := make([]string, 0, len(t.Env))
	for k, v := range t.Env {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}

// File represents the structure of the .urldiff.yaml configuration file.
// Scalar settings are pointers so that only the keys present in the file
// override the defaults.
type File struct {
	// Adapters names the enabled built-in adapters.
	Adapters []string `yaml:"adapters,omitempty"`

	// Targets lists external parser harnesses.
	Targets []TargetConfig `yaml:"targets,omitempty"`

	Timeout        *time.Duration `yaml:"timeout,omitempty"`
	MaxInputLength *int           `yaml:"max_input_length,omitempty"`
	Truncate       *bool          `yaml:"truncate,omitempty"`
	Parallel       *bool          `yaml:"parallel,omitempty"`
	Concurrency    *int           `yaml:"concurrency,omitempty"`
	Encoding       *string        `yaml:"encoding,omitempty"`
	Normalization  *string        `yaml:"normalization,omitempty"`
	Inferred       *bool          `yaml:"inferred,omitempty"`
	Isolation      *string        `yaml:"isolation,omitempty"`
	DBDir          *string        `yaml:"db_dir,omitempty"`
}

// Apply copies every setting present in the file into cfg.
func (f *File) Apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Adapters != nil {
		cfg.Adapters = append([]string(nil), f.Adapters...)
	}
	if len(f.Targets) > 0 {
		cfg.Targets = append([]TargetConfig(nil), f.Targets...)
	}
	if f.Timeout != nil {
		cfg.Timeout = *f.Timeout
	}
	if f.MaxInputLength != nil {
		cfg.MaxInputLength = *f.MaxInputLength
	}
	if f.Truncate != nil {
		cfg.Truncate = *f.Truncate
	}
	if f.Parallel != nil {
		cfg.Parallel = *f.Parallel
	}
	if f.Concurrency != nil {
		cfg.Concurrency = *f.Concurrency
	}
	if f.Encoding != nil {
		cfg.Encoding = *f.Encoding
	}
	if f.Normalization != nil {
		cfg.Normalization = *f.Normalization
	}
	if f.Inferred != nil {
		cfg.Inferred = *f.Inferred
	}
	if f.Isolation != nil {
		cfg.Isolation = *f.Isolation
	}
	if f.DBDir != nil {
		cfg.DBDir = *f.DBDir
	}
}
