package config

// Notes:
// - Files are written to t.TempDir; Load always starts from DefaultConfig so
//   partial files only override what they name

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-md2site/internal/yamlutil"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
	if cfg.Highlight.Style != "github" || cfg.SVG.Precision != 3 || cfg.Images.MaxWidth != 0 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Math.Fallback != MathFallbackDrop || cfg.Build.Workers != 1 || cfg.Server.Port != 8000 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

// ---------------------------------------------------------------------------
// TestValidate
// ---------------------------------------------------------------------------

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"style case-insensitive", func(c *Config) { c.Highlight.Style = "Monokai" }, nil},
		{"unknown style", func(c *Config) { c.Highlight.Style = "nope" }, ErrInvalidValue},
		{"style too long", func(c *Config) { c.Highlight.Style = strings.Repeat("a", MaxStyleLength+1) }, ErrFieldTooLong},
		{"precision zero", func(c *Config) { c.SVG.Precision = 0 }, ErrInvalidValue},
		{"precision too high", func(c *Config) { c.SVG.Precision = 13 }, ErrInvalidValue},
		{"negative width", func(c *Config) { c.Images.MaxWidth = -1 }, ErrInvalidValue},
		{"width limit", func(c *Config) { c.Images.MaxWidth = MaxImageWidth }, nil},
		{"source fallback", func(c *Config) { c.Math.Fallback = MathFallbackSource }, nil},
		{"unknown fallback", func(c *Config) { c.Math.Fallback = "keep" }, ErrInvalidValue},
		{"date preset", func(c *Config) { c.Date.Format = "YYYY-MM-DD" }, nil},
		{"empty date format", func(c *Config) { c.Date.Format = "" }, ErrInvalidValue},
		{"auto workers", func(c *Config) { c.Build.Workers = 0 }, nil},
		{"negative workers", func(c *Config) { c.Build.Workers = -2 }, ErrInvalidValue},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, ErrInvalidValue},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, ErrInvalidValue},
		{"unknown level", func(c *Config) { c.Log.Level = "loud" }, ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_StyleHint(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Highlight.Style = "nope"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "hint: available:") || !strings.Contains(err.Error(), "github") {
		t.Errorf("Validate() error = %v, want the available styles", err)
	}
}

func TestEffectiveWorkers(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Build.Workers = 4
	if got := cfg.EffectiveWorkers(); got != 4 {
		t.Errorf("EffectiveWorkers() = %d, want 4", got)
	}
	cfg.Build.Workers = 0
	if got := cfg.EffectiveWorkers(); got < 1 {
		t.Errorf("EffectiveWorkers() = %d, want at least 1", got)
	}
}

// ---------------------------------------------------------------------------
// TestLoad
// ---------------------------------------------------------------------------

func TestLoad(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
highlight:
  style: monokai
svg:
  precision: 5
math:
  fallback: source
  macros:
    RR: \mathbb{R}
build:
  workers: 4
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Highlight.Style != "monokai" || cfg.SVG.Precision != 5 || cfg.Build.Workers != 4 {
		t.Errorf("fields not loaded: %+v", cfg)
	}
	if cfg.Math.Fallback != MathFallbackSource || cfg.Math.Macros["RR"] != `\mathbb{R}` {
		t.Errorf("math not loaded: %+v", cfg.Math)
	}
	if cfg.Server.Port != 8000 || cfg.Date.Format == "" {
		t.Errorf("defaults not kept: %+v", cfg)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"", writeConfig(t, "\n  \n")} {
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%q) error = %v", path, err)
		}
		if cfg.Highlight.Style != "github" {
			t.Errorf("Load(%q) did not return the defaults", path)
		}
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"missing file", filepath.Join(t.TempDir(), "missing.yaml"), ErrConfigNotFound},
		{"unknown key", writeConfig(t, "theme: dark\n"), ErrConfigParse},
		{"bad type", writeConfig(t, "svg:\n  precision: high\n"), ErrConfigParse},
		{"invalid value", writeConfig(t, "server:\n  port: 0\n"), ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Load(tt.path); !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestLocate
// ---------------------------------------------------------------------------

func TestLocate(t *testing.T) {
	t.Parallel()

	withFile := filepath.Dir(writeConfig(t, "log:\n  level: debug\n"))
	empty := t.TempDir()

	tests := []struct {
		name     string
		inDir    string
		explicit string
		want     string
		wantErr  error
	}{
		{"site.yaml in input", withFile, "", filepath.Join(withFile, FileName), nil},
		{"no file", empty, "", "", nil},
		{"explicit wins", empty, filepath.Join(withFile, FileName), filepath.Join(withFile, FileName), nil},
		{"explicit missing", withFile, filepath.Join(empty, "x.yaml"), "", ErrConfigNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Locate(tt.inDir, tt.explicit)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Locate() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Locate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDump_RoundTrips(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Images.MaxWidth = 1200
	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	var back Config
	if err := yamlutil.UnmarshalStrict(data, &back); err != nil {
		t.Fatalf("dumped YAML does not load: %v\n%s", err, data)
	}
	if back.Images.MaxWidth != 1200 || back.Highlight.Style != "github" {
		t.Errorf("round trip lost fields: %+v", back)
	}
}
