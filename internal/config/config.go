// Package config loads the site configuration from site.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2/styles"

	"github.com/alnah/go-md2site/internal/dateutil"
	"github.com/alnah/go-md2site/internal/fileutil"
	"github.com/alnah/go-md2site/internal/hints"
	"github.com/alnah/go-md2site/internal/logging"
	"github.com/alnah/go-md2site/internal/yamlutil"
)

// FileName is the configuration file looked up in the input directory.
const FileName = "site.yaml"

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrInvalidValue   = errors.New("invalid config value")
	ErrFieldTooLong   = errors.New("field exceeds maximum length")
)

// Limits on configuration values.
const (
	MaxStyleLength = 50
	MinPrecision   = 1
	MaxPrecision   = 12
	MaxImageWidth  = 16384
	MaxWorkers     = 256
)

// Math fallbacks accepted by math.fallback.
const (
	MathFallbackDrop   = "drop"
	MathFallbackSource = "source"
)

// Config holds the site build configuration.
type Config struct {
	Highlight HighlightConfig `yaml:"highlight"`
	SVG       SVGConfig       `yaml:"svg"`
	Images    ImagesConfig    `yaml:"images"`
	Math      MathConfig      `yaml:"math"`
	Date      DateConfig      `yaml:"date"`
	Build     BuildConfig     `yaml:"build"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// HighlightConfig defines code highlighting options.
type HighlightConfig struct {
	Style string `yaml:"style"` // chroma style name
}

// SVGConfig defines SVG minification options.
type SVGConfig struct {
	Precision int `yaml:"precision"` // significant digits, integer digits always kept
}

// ImagesConfig defines raster image options.
type ImagesConfig struct {
	MaxWidth int `yaml:"maxWidth"` // pixels, 0 keeps the original size
}

// MathConfig defines math rendering options.
type MathConfig struct {
	Fallback string            `yaml:"fallback"` // "drop" or "source"
	Macros   map[string]string `yaml:"macros"`
}

// DateConfig defines how templates format post dates.
type DateConfig struct {
	Format string `yaml:"format"` // dateutil tokens or preset name
}

// BuildConfig defines site build options.
type BuildConfig struct {
	Workers int `yaml:"workers"` // 0 = one per CPU
}

// ServerConfig defines development server options.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LogConfig defines logging options.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Highlight: HighlightConfig{Style: "github"},
		SVG:       SVGConfig{Precision: 3},
		Math:      MathConfig{Fallback: MathFallbackDrop},
		Date:      DateConfig{Format: dateutil.DefaultDateFormat},
		Build:     BuildConfig{Workers: 1},
		Server:    ServerConfig{Port: 8000},
		Log:       LogConfig{Level: "info"},
	}
}

// Validate checks every field. Called by Load, but available for callers
// that build or override a Config themselves.
func (c *Config) Validate() error {
	if err := validateFieldLength("highlight.style", c.Highlight.Style, MaxStyleLength); err != nil {
		return err
	}
	if _, ok := styles.Registry[strings.ToLower(c.Highlight.Style)]; !ok {
		names := styles.Names()
		sort.Strings(names)
		return fmt.Errorf("%w: highlight.style: unknown style %q%s", ErrInvalidValue, c.Highlight.Style, hints.ForStyleNotFound(names))
	}
	if c.SVG.Precision < MinPrecision || c.SVG.Precision > MaxPrecision {
		return fmt.Errorf("%w: svg.precision: must be between %d and %d, got %d", ErrInvalidValue, MinPrecision, MaxPrecision, c.SVG.Precision)
	}
	if c.Images.MaxWidth < 0 || c.Images.MaxWidth > MaxImageWidth {
		return fmt.Errorf("%w: images.maxWidth: must be between 0 and %d, got %d", ErrInvalidValue, MaxImageWidth, c.Images.MaxWidth)
	}
	switch c.Math.Fallback {
	case MathFallbackDrop, MathFallbackSource:
	default:
		return fmt.Errorf("%w: math.fallback: invalid value %q (must be drop or source)", ErrInvalidValue, c.Math.Fallback)
	}
	if _, err := dateutil.ParseDateFormat(c.Date.Format); err != nil {
		return fmt.Errorf("%w: date.format: %v", ErrInvalidValue, err)
	}
	if c.Build.Workers < 0 || c.Build.Workers > MaxWorkers {
		return fmt.Errorf("%w: build.workers: must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Build.Workers)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port: must be between 1 and 65535, got %d", ErrInvalidValue, c.Server.Port)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalidValue, err)
	}
	return nil
}

// EffectiveWorkers resolves build.workers, where 0 means one per CPU.
func (c *Config) EffectiveWorkers() int {
	if c.Build.Workers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Build.Workers
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// Locate returns the configuration file to load: explicit when set, which
// must exist, else <inDir>/site.yaml when present, else "" for the defaults.
func Locate(inDir, explicit string) (string, error) {
	if explicit != "" {
		if !fileutil.FileExists(explicit) {
			return "", fmt.Errorf("%w: %s%s", ErrConfigNotFound, explicit, hints.ForConfigNotFound(explicit))
		}
		return explicit, nil
	}
	path := filepath.Join(inDir, FileName)
	if fileutil.FileExists(path) {
		return path, nil
	}
	return "", nil
}

// Load reads the configuration at path over the defaults. An empty path or
// an empty file yields the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if len(strings.TrimSpace(string(data))) > 0 {
		if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Dump renders cfg as YAML, in the format Load accepts.
func Dump(cfg *Config) ([]byte, error) {
	return yamlutil.Marshal(cfg)
}
