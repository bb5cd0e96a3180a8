package pipeline

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// testDefaults supplies fixed fallback metadata.
type testDefaults struct {
	id string
}

func (d testDefaults) Title() string { return d.id }

func (d testDefaults) Date() time.Time { return time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC) }

// memStore is an in-memory AssetStore.
type memStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{files: map[string][]byte{}}
}

func (s *memStore) Put(data []byte, ext string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := fmt.Sprintf("assets/%x.%s", len(s.files), ext)
	for p, d := range s.files {
		if bytes.Equal(d, data) {
			return p, nil
		}
	}
	s.files[path] = append([]byte(nil), data...)
	return path, nil
}

// logBuffer captures JSON log lines.
type logBuffer struct {
	bytes.Buffer
}

func (b *logBuffer) has(level, msg string) bool {
	for _, line := range strings.Split(b.String(), "\n") {
		if strings.Contains(line, `"level":"`+level+`"`) && strings.Contains(line, msg) {
			return true
		}
	}
	return false
}

func newTestContext(t *testing.T, dir string) (*Context, *logBuffer) {
	t.Helper()
	logs := &logBuffer{}
	return &Context{
		Dir:      dir,
		Assets:   newMemStore(),
		Defaults: testDefaults{id: "post"},
		Log:      zerolog.New(logs),
	}, logs
}

// fakeMath renders math as [tex] and fails on "bad".
type fakeMath struct{}

func (fakeMath) Render(tex string, display bool) (string, error) {
	if tex == "bad" {
		return "", ErrMathRender
	}
	if display {
		return "[[" + tex + "]]", nil
	}
	return "[" + tex + "]", nil
}

func convert(t *testing.T, ctx *Context, markdown string, opts ...Option) string {
	t.Helper()
	opts = append([]Option{WithMathRenderer(fakeMath{})}, opts...)
	out, err := New(opts...).Convert(ctx, markdown)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	return out
}
