package assets

// Notes:
// - Embedded templates are checked for presence and for the data fields the
//   site builder provides; rendering is tested in the site package
// - Filesystem tests use t.TempDir; the symlink test is skipped where
//   symlinks cannot be created

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".html"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ---------------------------------------------------------------------------
// TestValidateTemplateName
// ---------------------------------------------------------------------------

func TestValidateTemplateName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "index", false},
		{"with dash", "tag-list", false},
		{"empty", "", true},
		{"slash", "a/b", true},
		{"backslash", `a\b`, true},
		{"traversal", "..", true},
		{"extension", "post.html", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateTemplateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateTemplateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidTemplateName) {
				t.Errorf("error = %v, want ErrInvalidTemplateName", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestEmbeddedLoader
// ---------------------------------------------------------------------------

func TestEmbeddedLoader(t *testing.T) {
	t.Parallel()

	wantFields := map[string][]string{
		IndexTemplate: {"{{- range .Posts}}", "formatDate"},
		PostTemplate:  {".Post.Source", ".Post.Meta.Title"},
		TagTemplate:   {".Tag", "hasTag"},
	}

	loader := NewEmbeddedLoader()
	for _, name := range PageTemplates {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			content, err := loader.LoadTemplate(name)
			if err != nil {
				t.Fatalf("LoadTemplate(%q) error = %v", name, err)
			}
			for _, want := range wantFields[name] {
				if !strings.Contains(content, want) {
					t.Errorf("template %q missing %q", name, want)
				}
			}
		})
	}
}

func TestEmbeddedLoader_Errors(t *testing.T) {
	t.Parallel()

	loader := NewEmbeddedLoader()
	if _, err := loader.LoadTemplate("missing"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("LoadTemplate(missing) error = %v, want ErrTemplateNotFound", err)
	}
	if _, err := loader.LoadTemplate("../index"); !errors.Is(err, ErrInvalidTemplateName) {
		t.Errorf("LoadTemplate(../index) error = %v, want ErrInvalidTemplateName", err)
	}
}

// ---------------------------------------------------------------------------
// TestFilesystemLoader
// ---------------------------------------------------------------------------

func TestNewFilesystemLoader_Errors(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing"), file} {
		if _, err := NewFilesystemLoader(path); !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("NewFilesystemLoader(%q) error = %v, want ErrInvalidBasePath", path, err)
		}
	}
}

func TestFilesystemLoader_LoadTemplate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTemplate(t, dir, "post", "custom {{.Post.ID}}")

	loader, err := NewFilesystemLoader(dir)
	if err != nil {
		t.Fatalf("NewFilesystemLoader() error = %v", err)
	}
	got, err := loader.LoadTemplate("post")
	if err != nil || got != "custom {{.Post.ID}}" {
		t.Errorf("LoadTemplate(post) = %q, %v", got, err)
	}
	if _, err := loader.LoadTemplate("index"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("LoadTemplate(index) error = %v, want ErrTemplateNotFound", err)
	}
}

func TestFilesystemLoader_SymlinkEscape(t *testing.T) {
	t.Parallel()

	outside := t.TempDir()
	writeTemplate(t, outside, "secret", "secret")
	dir := t.TempDir()
	if err := os.Symlink(filepath.Join(outside, "secret.html"), filepath.Join(dir, "index.html")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	loader, err := NewFilesystemLoader(dir)
	if err != nil {
		t.Fatalf("NewFilesystemLoader() error = %v", err)
	}
	if _, err := loader.LoadTemplate("index"); !errors.Is(err, ErrPathTraversal) {
		t.Errorf("LoadTemplate() error = %v, want ErrPathTraversal", err)
	}
}

// ---------------------------------------------------------------------------
// TestResolver - Custom First, Embedded Fallback
// ---------------------------------------------------------------------------

func TestResolver(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTemplate(t, dir, "post", "custom post")

	tests := []struct {
		name       string
		dir        string
		template   string
		wantCustom bool
		wantLoader bool
	}{
		{"no directory", "", "post", false, false},
		{"missing directory", filepath.Join(dir, "nope"), "post", false, false},
		{"override", dir, "post", true, true},
		{"fallback", dir, "index", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, err := NewResolver(tt.dir)
			if err != nil {
				t.Fatalf("NewResolver() error = %v", err)
			}
			if r.HasCustomLoader() != tt.wantLoader {
				t.Errorf("HasCustomLoader() = %v, want %v", r.HasCustomLoader(), tt.wantLoader)
			}
			content, custom, err := r.Resolve(tt.template)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if custom != tt.wantCustom {
				t.Errorf("custom = %v, want %v", custom, tt.wantCustom)
			}
			if tt.wantCustom != (content == "custom post") {
				t.Errorf("content = %q", content)
			}
		})
	}
}

func TestResolver_InvalidNameDoesNotFallBack(t *testing.T) {
	t.Parallel()

	r, err := NewResolver(t.TempDir())
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	if _, err := r.LoadTemplate("a/b"); !errors.Is(err, ErrInvalidTemplateName) {
		t.Errorf("LoadTemplate() error = %v, want ErrInvalidTemplateName", err)
	}
}
