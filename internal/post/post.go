// Package post builds a single post: it reads the markdown source, runs the
// content pipeline and completes the metadata with defaults.
package post

import (
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-md2site/internal/meta"
	"github.com/alnah/go-md2site/internal/pipeline"
)

// IndexFile is the markdown file of a directory-backed post.
const IndexFile = "index.md"

// Sentinel errors for post building.
var (
	ErrRead    = errors.New("cannot read post source")
	ErrConvert = errors.New("cannot convert post")
)

// Source locates the markdown of one post.
type Source struct {
	// ID is the file name without ".md", or the directory name.
	ID string
	// Path is the markdown file.
	Path string
	// Dir is the post directory of a directory-backed post, empty otherwise.
	Dir string
}

// FileSource describes a single-file post at path.
func FileSource(path string) Source {
	return Source{
		ID:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Path: path,
	}
}

// DirSource describes a directory-backed post rooted at dir.
func DirSource(dir string) Source {
	return Source{
		ID:   filepath.Base(dir),
		Path: filepath.Join(dir, IndexFile),
		Dir:  dir,
	}
}

// Post is a rendered post. It is not modified once built.
type Post struct {
	ID string
	// Age is the effective date in seconds since the Unix epoch.
	Age    int64
	Source template.HTML
	Meta   meta.Meta
}

// Builder turns sources into posts. It is safe for concurrent use when its
// asset store is.
type Builder struct {
	pipeline *pipeline.Pipeline
	assets   pipeline.AssetStore
	log      zerolog.Logger
}

// NewBuilder creates a Builder storing raster images in assets.
func NewBuilder(p *pipeline.Pipeline, assets pipeline.AssetStore, log zerolog.Logger) *Builder {
	return &Builder{pipeline: p, assets: assets, log: log}
}

// Build reads and converts src. Only an unreadable source is an error; any
// other problem is logged and the affected content passes through.
func (b *Builder) Build(src Source) (*Post, error) {
	log := b.log.With().Str("post", src.ID).Logger()

	data, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}

	ctx := &pipeline.Context{
		Dir:      src.Dir,
		Assets:   b.assets,
		Defaults: &defaults{src: src, log: log},
		Log:      log,
	}
	html, err := b.pipeline.Convert(ctx, string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConvert, err)
	}

	m, ok := ctx.Meta()
	if !ok {
		log.Warn().Msg("no metadata block, using defaults")
		m = meta.Record{}.Resolve(ctx.Defaults)
	}

	return &Post{
		ID:     src.ID,
		Age:    m.Date.Unix(),
		Source: template.HTML(html), // #nosec G203 -- pipeline output
		Meta:   m,
	}, nil
}

// defaults fills metadata a post left out, logging every value it supplies.
type defaults struct {
	src Source
	log zerolog.Logger
}

var _ meta.Defaults = (*defaults)(nil)

func (d *defaults) Title() string {
	d.log.Warn().Msg("no title, using the post id")
	return d.src.ID
}

func (d *defaults) Date() time.Time {
	t, err := createdAt(d.src.Path)
	if err != nil {
		d.log.Error().Err(err).Msg("cannot stat post source, dating it at the unix epoch")
		return time.Unix(0, 0).UTC()
	}
	d.log.Warn().Time("date", t).Msg("no date, using the file creation time")
	return t
}
