package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Timeout is 10 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 10*time.Second {
			t.Errorf("expected Timeout to be 10s, got %v", cfg.Timeout)
		}
	})

	t.Run("default MaxInputLength is 64 KiB", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxInputLength != 65536 {
			t.Errorf("expected MaxInputLength to be 65536, got %d", cfg.MaxInputLength)
		}
	})

	t.Run("default Concurrency is 10", func(t *testing.T) {
		t.Parallel()
		if cfg.Concurrency != 10 {
			t.Errorf("expected Concurrency to be 10, got %d", cfg.Concurrency)
		}
	})

	t.Run("default modes", func(t *testing.T) {
		t.Parallel()
		if cfg.Encoding != EncodingStructured {
			t.Errorf("expected structured encoding, got %q", cfg.Encoding)
		}
		if cfg.Normalization != NormalizationPercentDecode {
			t.Errorf("expected percent-decode normalization, got %q", cfg.Normalization)
		}
		if cfg.Isolation != IsolationNone {
			t.Errorf("expected no isolation, got %q", cfg.Isolation)
		}
		if cfg.Truncate || cfg.Parallel || cfg.Inferred {
			t.Error("expected Truncate, Parallel and Inferred to be off")
		}
	})

	t.Run("default adapters are a copy", func(t *testing.T) {
		t.Parallel()
		if !reflect.DeepEqual(cfg.Adapters, DefaultAdapters) {
			t.Errorf("expected %v, got %v", DefaultAdapters, cfg.Adapters)
		}
		other := NewConfig()
		other.Adapters[0] = "changed"
		if DefaultAdapters[0] == "changed" {
			t.Error("NewConfig must not alias DefaultAdapters")
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{
			name:   "defaults are valid",
			modify: func(*Config) {},
		},
		{
			name:   "zero timeout returns ErrInvalidTimeout",
			modify: func(c *Config) { c.Timeout = 0 },
			want:   ErrInvalidTimeout,
		},
		{
			name:   "negative max input length returns ErrInvalidMaxInputLength",
			modify: func(c *Config) { c.MaxInputLength = -1 },
			want:   ErrInvalidMaxInputLength,
		},
		{
			name:   "zero concurrency returns ErrInvalidConcurrency",
			modify: func(c *Config) { c.Concurrency = 0 },
			want:   ErrInvalidConcurrency,
		},
		{
			name: "json and markdown together conflict",
			modify: func(c *Config) {
				c.JSONReport = true
				c.MarkdownReport = true
			},
			want: ErrConflictingReportFormats,
		},
		{
			name:   "unknown encoding",
			modify: func(c *Config) { c.Encoding = "xml" },
			want:   ErrInvalidEncoding,
		},
		{
			name:   "unknown normalization",
			modify: func(c *Config) { c.Normalization = "nfc" },
			want:   ErrInvalidNormalization,
		},
		{
			name:   "unknown isolation",
			modify: func(c *Config) { c.Isolation = "container" },
			want:   ErrInvalidIsolation,
		},
		{
			name:   "no adapters and no targets",
			modify: func(c *Config) { c.Adapters = nil },
			want:   ErrNoAdapters,
		},
		{
			name: "targets alone are enough",
			modify: func(c *Config) {
				c.Adapters = nil
				c.Targets = []TargetConfig{{Name: "curl", Executable: "/usr/bin/curl_target"}}
			},
		},
		{
			name:   "duplicate adapter",
			modify: func(c *Config) { c.Adapters = []string{"net/url", "net/url"} },
			want:   ErrDuplicateAdapter,
		},
		{
			name: "target named like an adapter",
			modify: func(c *Config) {
				c.Targets = []TargetConfig{{Name: "net/url", Executable: "/bin/x"}}
			},
			want: ErrDuplicateAdapter,
		},
		{
			name: "target without executable",
			modify: func(c *Config) {
				c.Targets = []TargetConfig{{Name: "curl"}}
			},
			want: ErrInvalidTarget,
		},
		{
			name: "target with unknown format",
			modify: func(c *Config) {
				c.Targets = []TargetConfig{{Name: "curl", Executable: "/bin/x", Format: "yaml"}}
			},
			want: ErrInvalidEncoding,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tc.modify(cfg)
			err := cfg.Validate()
			if tc.want == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

// TestTargetConfigEnvList tests that environment entries are sorted.
func TestTargetConfigEnvList(t *testing.T) {
	t.Parallel()

	target := TargetConfig{Env: map[string]string{"LC_ALL": "C", "ASAN_OPTIONS": "detect_leaks=0"}}
	want := []string{"ASAN_OPTIONS=detect_leaks=0", "LC_ALL=C"}
	if got := target.EnvList(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

// TestLoadConfigFile tests loading and applying .urldiff.yaml.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.urldiff.yaml")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads and applies valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `adapters:
  - net/url
  - fasthttp
timeout: 2s
parallel: true
normalization: raw
targets:
  - name: curl
    executable: ./targets/curl/curl_target
    args: ["--plain"]
    env:
      LC_ALL: C
    format: plain
    charset: ISO-8859-1
    filter_default_port: true
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		file, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := NewConfig()
		file.Apply(cfg)

		if !reflect.DeepEqual(cfg.Adapters, []string{"net/url", "fasthttp"}) {
			t.Errorf("unexpected adapters %v", cfg.Adapters)
		}
		if cfg.Timeout != 2*time.Second {
			t.Errorf("expected timeout 2s, got %v", cfg.Timeout)
		}
		if !cfg.Parallel {
			t.Error("expected parallel to be enabled")
		}
		if cfg.Normalization != NormalizationRaw {
			t.Errorf("expected raw normalization, got %q", cfg.Normalization)
		}
		if cfg.Concurrency != DefaultConcurrency {
			t.Errorf("absent key must keep default concurrency, got %d", cfg.Concurrency)
		}
		if len(cfg.Targets) != 1 {
			t.Fatalf("expected 1 target, got %d", len(cfg.Targets))
		}
		target := cfg.Targets[0]
		if target.Name != "curl" || target.Charset != "ISO-8859-1" || !target.FilterDefaultPort {
			t.Errorf("unexpected target %+v", target)
		}
		if target.Env["LC_ALL"] != "C" {
			t.Errorf("expected LC_ALL env, got %v", target.Env)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(configPath, []byte("timout: 5s\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for misspelt key")
		}
	})

	t.Run("empty file keeps defaults", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(configPath, nil, 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		file, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cfg := NewConfig()
		file.Apply(cfg)
		if !reflect.DeepEqual(cfg, NewConfig()) {
			t.Errorf("expected defaults, got %+v", cfg)
		}
	})
}

// TestLoad tests the defaults-then-file resolution.
func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("explicit missing path is an error", func(t *testing.T) {
		t.Parallel()

		_, err := Load("/nonexistent/path/config.yaml")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("explicit path is applied", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("concurrency: 3\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := Load(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Concurrency != 3 {
			t.Errorf("expected concurrency 3, got %d", cfg.Concurrency)
		}
		if cfg.ConfigFilePath != configPath {
			t.Errorf("expected config path %q, got %q", configPath, cfg.ConfigFilePath)
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("adapters: []"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
		"cache":  XDGCacheDir(),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if filepath.Base(dir) != AppName {
				t.Errorf("expected %s dir to end in %q, got %q", name, AppName, dir)
			}
		})
	}
}
