package yamlutil_test

// Notes:
// - Marshal error branch is not tested: goccy/go-yaml only fails on channels and
//   functions, which no caller passes.

import (
	"errors"
	"strings"
	"testing"

	"github.com/alnah/go-md2site/internal/yamlutil"
)

type frontMatter struct {
	Title string   `yaml:"title"`
	Tags  []string `yaml:"tags"`
}

// ---------------------------------------------------------------------------
// TestUnmarshal - Lenient decoding used for front matter
// ---------------------------------------------------------------------------

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		data      []byte
		dest      any
		wantErr   error
		wantTitle string
		wantTags  int
	}{
		{
			name:      "title and tags",
			data:      []byte("title: Hello\ntags: [a, b]"),
			dest:      &frontMatter{},
			wantTitle: "Hello",
			wantTags:  2,
		},
		{
			name:      "unknown keys are ignored",
			data:      []byte("title: Hello\nlayout: wide"),
			dest:      &frontMatter{},
			wantTitle: "Hello",
		},
		{
			name:    "empty data",
			data:    []byte{},
			dest:    &frontMatter{},
			wantErr: yamlutil.ErrNilData,
		},
		{
			name:    "nil destination",
			data:    []byte("title: x"),
			dest:    nil,
			wantErr: yamlutil.ErrNilDestination,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := yamlutil.Unmarshal(tt.data, tt.dest)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			fm := tt.dest.(*frontMatter)
			if fm.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", fm.Title, tt.wantTitle)
			}
			if len(fm.Tags) != tt.wantTags {
				t.Errorf("len(Tags) = %d, want %d", len(fm.Tags), tt.wantTags)
			}
		})
	}
}

func TestUnmarshal_TooLarge(t *testing.T) {
	t.Parallel()

	data := []byte("title: " + strings.Repeat("x", yamlutil.MaxInputSize))
	err := yamlutil.Unmarshal(data, &frontMatter{})
	if !errors.Is(err, yamlutil.ErrInputTooLarge) {
		t.Fatalf("error = %v, want ErrInputTooLarge", err)
	}
}

// ---------------------------------------------------------------------------
// TestUnmarshalStrict - Config decoding rejects unknown fields
// ---------------------------------------------------------------------------

func TestUnmarshalStrict(t *testing.T) {
	t.Parallel()

	var fm frontMatter
	if err := yamlutil.UnmarshalStrict([]byte("title: ok"), &fm); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := yamlutil.UnmarshalStrict([]byte("title: ok\nbogus: 1"), &frontMatter{})
	if err == nil || !strings.Contains(err.Error(), "yamlutil:") {
		t.Fatalf("error = %v, want yamlutil-prefixed error", err)
	}
}

// ---------------------------------------------------------------------------
// TestMarshal - Encodes effective configuration
// ---------------------------------------------------------------------------

func TestMarshal(t *testing.T) {
	t.Parallel()

	out, err := yamlutil.Marshal(&frontMatter{Title: "T", Tags: []string{"x"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, "title: T") {
		t.Errorf("output missing title, got: %s", s)
	}
	if !strings.Contains(s, "- x") {
		t.Errorf("output missing tag item, got: %s", s)
	}
}
