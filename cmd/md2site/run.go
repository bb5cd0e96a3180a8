package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/alnah/go-md2site/internal/config"
	"github.com/alnah/go-md2site/internal/hints"
	"github.com/alnah/go-md2site/internal/logging"
	"github.com/alnah/go-md2site/internal/pipeline"
	"github.com/alnah/go-md2site/internal/server"
	"github.com/alnah/go-md2site/internal/site"
)

// Sentinel errors for the command line.
var (
	ErrUsage        = errors.New("invalid usage")
	ErrCreateOutput = errors.New("cannot create output directory")
)

// serveHost is the interface the development server binds.
const serveHost = "localhost"

// run builds the site described by args and serves it when asked.
func run(ctx context.Context, args []string, deps *Dependencies) error {
	f, positional, err := parseFlags(args, deps.Stderr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	switch {
	case f.help:
		printUsage(deps.Stdout)
		return nil
	case f.version:
		fmt.Fprintf(deps.Stdout, "md2site %s\n", Version)
		return nil
	}

	if f.printConfig {
		if len(positional) > 2 {
			return fmt.Errorf("%w: expected at most <input-dir> <output-dir>, got %d arguments", ErrUsage, len(positional))
		}
		inDir := "."
		if len(positional) > 0 {
			inDir = positional[0]
		}
		cfg, err := loadConfig(inDir, f)
		if err != nil {
			return err
		}
		data, err := config.Dump(cfg)
		if err != nil {
			return err
		}
		_, err = deps.Stdout.Write(data)
		return err
	}

	if len(positional) != 2 {
		return fmt.Errorf("%w: expected <input-dir> <output-dir>, got %d arguments", ErrUsage, len(positional))
	}
	inDir, outDir := positional[0], positional[1]

	cfg, err := loadConfig(inDir, f)
	if err != nil {
		return err
	}

	log, err := logging.New(deps.Stderr, logging.Options{
		Level:   cfg.Log.Level,
		Verbose: f.verbose,
		Quiet:   f.quiet,
		JSON:    f.jsonLog,
		NoColor: f.noColor,
	})
	if err != nil {
		return err
	}

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		log.Debug().Msgf(format, args...)
	}))

	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("%w: %v%s", ErrCreateOutput, err, hints.ForOutputDirectory())
	}

	if err := build(ctx, inDir, outDir, cfg, log); err != nil {
		return err
	}

	if !f.serve {
		return nil
	}
	addr := net.JoinHostPort(serveHost, strconv.Itoa(cfg.Server.Port))
	return server.New(outDir, log).ListenAndServe(ctx, addr)
}

// loadConfig loads the configuration for inDir and applies explicit flags.
func loadConfig(inDir string, f *cliFlags) (*config.Config, error) {
	path, err := config.Locate(inDir, f.config)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if f.set["workers"] {
		cfg.Build.Workers = f.workers
	}
	if f.set["style"] {
		cfg.Highlight.Style = f.style
	}
	if f.set["port"] {
		cfg.Server.Port = f.port
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// build runs one site build with cfg.
func build(ctx context.Context, inDir, outDir string, cfg *config.Config, log zerolog.Logger) error {
	workers := cfg.EffectiveWorkers()
	log.Debug().Int("workers", workers).Str("input", inDir).Str("output", outDir).Msg("building site")

	b, err := site.New(site.Options{
		InDir:      inDir,
		OutDir:     outDir,
		Workers:    workers,
		DateFormat: cfg.Date.Format,
		Pipeline: []pipeline.Option{
			pipeline.WithStyle(cfg.Highlight.Style),
			pipeline.WithSVGPrecision(cfg.SVG.Precision),
			pipeline.WithMaxImageWidth(cfg.Images.MaxWidth),
			pipeline.WithMathFallback(pipeline.MathFallback(cfg.Math.Fallback)),
			pipeline.WithMathMacros(cfg.Math.Macros),
		},
	}, log)
	if err != nil {
		return fmt.Errorf("%w%s", err, hints.ForInputDirectory())
	}

	res, err := b.Build(ctx)
	if err != nil {
		return err
	}
	log.Info().
		Int("posts", len(res.Posts)).
		Int("skipped", res.Skipped).
		Int("tags", len(res.Tags)).
		Int("assets", res.Assets).
		Msg("site built")
	return nil
}
