package main

// Notes:
// - exitCodeFor: every sentinel the command can surface, bare and wrapped,
//   to verify the errors.Is chain.
// - Exit code constants stay below 126 so shells never read them as signals.

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/alnah/go-md2site/internal/config"
	"github.com/alnah/go-md2site/internal/logging"
	"github.com/alnah/go-md2site/internal/site"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Error to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitSuccess},

		// Usage/config/validation errors (exit 2)
		{"usage", ErrUsage, ExitUsage},
		{"config not found", config.ErrConfigNotFound, ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"invalid value", config.ErrInvalidValue, ExitUsage},
		{"field too long", config.ErrFieldTooLong, ExitUsage},
		{"invalid level", logging.ErrInvalidLevel, ExitUsage},
		{"template", site.ErrTemplate, ExitUsage},
		{"wrapped config parse", fmt.Errorf("loading: %w", config.ErrConfigParse), ExitUsage},

		// I/O errors (exit 3)
		{"file not exist", os.ErrNotExist, ExitIO},
		{"permission denied", os.ErrPermission, ExitIO},
		{"create output", ErrCreateOutput, ExitIO},
		{"input dir", site.ErrInputDir, ExitIO},
		{"read posts", site.ErrReadPosts, ExitIO},
		{"write", site.ErrWrite, ExitIO},
		{"wrapped write", fmt.Errorf("build: %w", site.ErrWrite), ExitIO},

		// Everything else (exit 1)
		{"unknown", errors.New("boom"), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestExitCodeConstants - Unix conventions
// ---------------------------------------------------------------------------

func TestExitCodeConstants(t *testing.T) {
	t.Parallel()

	if ExitSuccess != 0 || ExitGeneral != 1 || ExitUsage != 2 {
		t.Errorf("conventional codes changed: success=%d general=%d usage=%d", ExitSuccess, ExitGeneral, ExitUsage)
	}
	for _, code := range []int{ExitSuccess, ExitGeneral, ExitUsage, ExitIO} {
		if code >= 126 {
			t.Errorf("exit code %d collides with shell reserved codes", code)
		}
	}
}
