package main

// Notes:
// - parseFlags: defaults, short forms, explicit-flag tracking and rejection
//   of unknown flags. Usage text content is checked in main_test.go.

import (
	"bytes"
	"testing"
)

// ---------------------------------------------------------------------------
// TestParseFlags - Flag values and positional arguments
// ---------------------------------------------------------------------------

func TestParseFlags(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		f, pos, err := parseFlags([]string{"in", "out"}, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pos) != 2 || pos[0] != "in" || pos[1] != "out" {
			t.Errorf("positional = %v, want [in out]", pos)
		}
		if f.serve || f.quiet || f.verbose || f.workers != 0 || f.config != "" {
			t.Errorf("unexpected non-default flags: %+v", f)
		}
		if len(f.set) != 0 {
			t.Errorf("set = %v, want empty", f.set)
		}
	})

	t.Run("short forms", func(t *testing.T) {
		t.Parallel()
		f, pos, err := parseFlags([]string{"-c", "my.yaml", "-w", "4", "-s", "-q", "in", "out"}, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.config != "my.yaml" || f.workers != 4 || !f.serve || !f.quiet {
			t.Errorf("flags = %+v", f)
		}
		if len(pos) != 2 {
			t.Errorf("positional = %v", pos)
		}
	})

	t.Run("explicit flags are tracked", func(t *testing.T) {
		t.Parallel()
		f, _, err := parseFlags([]string{"--workers=0", "--style", "monokai"}, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !f.set["workers"] || !f.set["style"] {
			t.Errorf("set = %v, want workers and style", f.set)
		}
		if f.set["port"] {
			t.Error("port reported as set")
		}
	})

	t.Run("flags after positionals", func(t *testing.T) {
		t.Parallel()
		f, pos, err := parseFlags([]string{"in", "out", "--port", "9000"}, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.port != 9000 || len(pos) != 2 {
			t.Errorf("port = %d, positional = %v", f.port, pos)
		}
	})

	t.Run("unknown flag", func(t *testing.T) {
		t.Parallel()
		var stderr bytes.Buffer
		if _, _, err := parseFlags([]string{"--bogus"}, &stderr); err == nil {
			t.Fatal("expected error for unknown flag")
		}
	})
}
