package post

// Notes:
// - Posts are built from t.TempDir fixtures through the real pipeline; math
//   is absent from the fixtures so no MathML engine output is asserted
// - Log assertions match JSON lines by level and message

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-md2site/internal/assetstore"
	"github.com/alnah/go-md2site/internal/pipeline"
)

func newTestBuilder(t *testing.T) (*Builder, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	log := zerolog.New(&logs)
	return NewBuilder(pipeline.New(), assetstore.New(log), log), &logs
}

func logged(logs *bytes.Buffer, level, msg string) bool {
	for _, line := range strings.Split(logs.String(), "\n") {
		if strings.Contains(line, `"level":"`+level+`"`) && strings.Contains(line, msg) {
			return true
		}
	}
	return false
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ---------------------------------------------------------------------------
// TestSource - Identifiers
// ---------------------------------------------------------------------------

func TestSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  Source
		want Source
	}{
		{
			name: "single file",
			src:  FileSource(filepath.Join("posts", "hello-world.md")),
			want: Source{ID: "hello-world", Path: filepath.Join("posts", "hello-world.md")},
		},
		{
			name: "directory",
			src:  DirSource(filepath.Join("posts", "trip")),
			want: Source{ID: "trip", Path: filepath.Join("posts", "trip", "index.md"), Dir: filepath.Join("posts", "trip")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.src != tt.want {
				t.Errorf("got %+v, want %+v", tt.src, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestBuild - Metadata and Defaults
// ---------------------------------------------------------------------------

func TestBuild_WithMetadata(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "hello.md")
	writeFile(t, path, "+++\ntitle = \"Hello\"\ndate = 2024-03-07T14:05:00+01:00\ntags = [\"go\", \"web\"]\n+++\n\n# Heading\n\nBody.\n")

	b, logs := newTestBuilder(t)
	p, err := b.Build(FileSource(path))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if p.ID != "hello" || p.Meta.Title != "Hello" {
		t.Errorf("ID, Title = %q, %q", p.ID, p.Meta.Title)
	}
	want := time.Date(2024, 3, 7, 13, 5, 0, 0, time.UTC)
	if !p.Meta.Date.Equal(want) || p.Age != want.Unix() {
		t.Errorf("Date, Age = %v, %d, want %v", p.Meta.Date, p.Age, want)
	}
	if _, offset := p.Meta.Date.Zone(); offset != 3600 {
		t.Errorf("date offset = %d, want 3600", offset)
	}
	if !p.Meta.HasTag("go") || !p.Meta.HasTag("web") {
		t.Errorf("Tags = %v", p.Meta.Tags)
	}
	html := string(p.Source)
	if strings.Contains(html, "+++") || !strings.Contains(html, "<p>Body.</p>") {
		t.Errorf("Source = %q", html)
	}
	if logged(logs, "warn", "") {
		t.Errorf("unexpected warning: %s", logs.String())
	}
}

func TestBuild_Defaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		markdown  string
		wantTitle string
		wantWarns []string
	}{
		{
			name:      "no metadata block",
			markdown:  "Just text.\n",
			wantTitle: "notes",
			wantWarns: []string{"no metadata block", "no title", "no date"},
		},
		{
			name:      "title only",
			markdown:  "---\ntitle: Notes on Go\n---\nText.\n",
			wantTitle: "Notes on Go",
			wantWarns: []string{"no date"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "notes.md")
			before := time.Now().Add(-time.Minute)
			writeFile(t, path, tt.markdown)

			b, logs := newTestBuilder(t)
			p, err := b.Build(FileSource(path))
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if p.Meta.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", p.Meta.Title, tt.wantTitle)
			}
			if p.Meta.Date.Before(before) || p.Meta.Date.After(time.Now().Add(time.Minute)) {
				t.Errorf("Date = %v, want the file creation time", p.Meta.Date)
			}
			if p.Meta.Tags == nil {
				t.Error("Tags should default to an empty list")
			}
			for _, msg := range tt.wantWarns {
				if !logged(logs, "warn", msg) {
					t.Errorf("missing warning %q: %s", msg, logs.String())
				}
			}
		})
	}
}

func TestBuild_ExplicitEmptyTitle(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "untitled.md")
	writeFile(t, path, "+++\ntitle = \"\"\ndate = 2024-01-02T00:00:00Z\n+++\nText.\n")

	b, logs := newTestBuilder(t)
	p, err := b.Build(FileSource(path))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if p.Meta.Title != "" {
		t.Errorf("Title = %q, want the explicit empty title", p.Meta.Title)
	}
	if logged(logs, "warn", "no title") {
		t.Errorf("explicit empty title treated as missing: %s", logs.String())
	}
}

func TestDefaults_DateWithoutSourceIsEpoch(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	d := &defaults{
		src: FileSource(filepath.Join(t.TempDir(), "gone.md")),
		log: zerolog.New(&logs),
	}

	for i := 0; i < 2; i++ {
		if got := d.Date(); !got.Equal(time.Unix(0, 0)) {
			t.Fatalf("Date() = %v, want the unix epoch", got)
		}
	}
	if !logged(&logs, "error", "cannot stat post source") {
		t.Errorf("stat failure not logged: %s", logs.String())
	}
}

func TestBuild_UnreadableSource(t *testing.T) {
	t.Parallel()

	b, _ := newTestBuilder(t)
	_, err := b.Build(FileSource(filepath.Join(t.TempDir(), "missing.md")))
	if !errors.Is(err, ErrRead) {
		t.Errorf("Build() error = %v, want ErrRead", err)
	}
}

// ---------------------------------------------------------------------------
// TestBuild - Directory-backed Posts
// ---------------------------------------------------------------------------

func TestBuild_DirectoryResolvesImages(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "trip")
	writeFile(t, filepath.Join(dir, "index.md"), "+++\ntitle = \"Trip\"\ndate = 2024-01-01\n+++\n![Map](map.svg)\n")
	writeFile(t, filepath.Join(dir, "map.svg"), `<svg viewBox="0 0 10 10"><path d="M0 0L10 10"/></svg>`)

	b, logs := newTestBuilder(t)
	p, err := b.Build(DirSource(dir))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	html := string(p.Source)
	for _, want := range []string{"<figure><svg", "<title>Map</title>", "<figcaption>Map</figcaption>"} {
		if !strings.Contains(html, want) {
			t.Errorf("Source missing %q: %s", want, html)
		}
	}
	if logged(logs, "error", "") {
		t.Errorf("unexpected error log: %s", logs.String())
	}
}

func TestBuild_SingleFileRejectsRelativeImages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "solo.md"), "+++\ntitle = \"Solo\"\ndate = 2024-01-01\n+++\n![Map](map.svg)\n")
	writeFile(t, filepath.Join(dir, "map.svg"), `<svg/>`)

	b, logs := newTestBuilder(t)
	p, err := b.Build(FileSource(filepath.Join(dir, "solo.md")))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !strings.Contains(string(p.Source), `<img src="map.svg"`) {
		t.Errorf("image not passed through: %s", p.Source)
	}
	if !logged(logs, "error", "relative image in a single-file post") {
		t.Errorf("missing error log: %s", logs.String())
	}
}
