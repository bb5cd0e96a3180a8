// Package assetstore holds the build-wide content-addressed asset map.
//
// Assets are keyed by the 64-bit xxhash of their bytes. The first write for a
// given hash fixes the stored payload and extension; later writes of the same
// content are no-ops that return the same path. The store is shared by every
// document of a build and is safe for concurrent use.
package assetstore

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/alnah/go-md2site/internal/fileutil"
)

// Dir is the output subdirectory assets are flushed into.
const Dir = "assets"

// ErrEmptyAsset indicates an attempt to store zero bytes.
var ErrEmptyAsset = errors.New("asset is empty")

type entry struct {
	data []byte
	ext  string
}

// Store is a deduplicating byte-blob store keyed by content hash.
type Store struct {
	mu      sync.Mutex
	entries map[uint64]entry
	log     zerolog.Logger
}

// New creates an empty store.
func New(log zerolog.Logger) *Store {
	return &Store{
		entries: make(map[uint64]entry),
		log:     log,
	}
}

// Put stores data under extension ext and returns its relative output path,
// "assets/<16 hex digits>.<ext>". If the same content was stored before, the
// path of the first write is returned and data is not kept.
func (s *Store) Put(data []byte, ext string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyAsset
	}
	if err := fileutil.ValidateExtension(ext); err != nil {
		return "", fmt.Errorf("asset extension %q: %w", ext, err)
	}

	hash := xxhash.Sum64(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[hash]; ok {
		return assetPath(hash, existing.ext), nil
	}
	// Copy so callers may reuse their buffer.
	s.entries[hash] = entry{data: append([]byte(nil), data...), ext: ext}
	return assetPath(hash, ext), nil
}

// Len returns the number of distinct assets held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Paths returns the relative paths of all stored assets in sorted order.
func (s *Store) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, 0, len(s.entries))
	for hash, e := range s.entries {
		paths = append(paths, assetPath(hash, e.ext))
	}
	sort.Strings(paths)
	return paths
}

// Flush writes every asset below outDir. Write failures are joined so a single
// bad file does not hide the others.
func (s *Store) Flush(outDir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hashes := make([]uint64, 0, len(s.entries))
	for hash := range s.entries {
		hashes = append(hashes, hash)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })

	var errs []error
	for _, hash := range hashes {
		e := s.entries[hash]
		rel := assetPath(hash, e.ext)
		s.log.Info().Str("asset", rel).Msg("writing asset")
		if err := fileutil.WriteFile(filepath.Join(outDir, filepath.FromSlash(rel)), e.data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func assetPath(hash uint64, ext string) string {
	return fmt.Sprintf("%s/%016x.%s", Dir, hash, ext)
}
