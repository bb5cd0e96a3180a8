package site

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alnah/go-md2site/internal/fileutil"
	"github.com/alnah/go-md2site/internal/post"
)

// Discover lists the posts in dir: every <name>.md file and every <name>
// directory holding an index.md, in name order. Other entries are logged
// and ignored.
func Discover(dir string, log zerolog.Logger) ([]post.Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadPosts, err)
	}

	var sources []post.Source
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		switch {
		case e.IsDir():
			if !fileutil.FileExists(filepath.Join(path, post.IndexFile)) {
				log.Error().Str("path", path).Msg("post directory has no " + post.IndexFile)
				continue
			}
			sources = append(sources, post.DirSource(path))
		case e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ".md"):
			sources = append(sources, post.FileSource(path))
		default:
			log.Error().Str("path", path).Msg("unknown post type")
		}
	}
	return sources, nil
}
