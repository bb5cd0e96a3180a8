package main

import (
	"errors"
	"os"

	"github.com/alnah/go-md2site/internal/config"
	"github.com/alnah/go-md2site/internal/logging"
	"github.com/alnah/go-md2site/internal/site"
)

// Exit codes for the md2site CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Site built (or served until interrupted)
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // Missing input, unwritable output, permission denied
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, logging.ErrInvalidLevel) ||
		errors.Is(err, site.ErrTemplate) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrCreateOutput) ||
		errors.Is(err, site.ErrInputDir) ||
		errors.Is(err, site.ErrReadPosts) ||
		errors.Is(err, site.ErrWrite) {
		return ExitIO
	}

	return ExitGeneral
}
