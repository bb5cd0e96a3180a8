package pipeline

import (
	"github.com/rs/zerolog"

	"github.com/alnah/go-md2site/internal/meta"
)

// AssetStore stores binary assets under content-derived paths.
type AssetStore interface {
	Put(data []byte, ext string) (string, error)
}

// Context is the state a document shares with its pipeline stages. Each
// document owns its Context; only Assets is shared across documents.
type Context struct {
	// Dir is the directory of a directory-backed document, used to resolve
	// relative image references. Empty for single-file documents.
	Dir string

	Assets   AssetStore
	Defaults meta.Defaults
	Log      zerolog.Logger

	meta *meta.Meta
}

// SetMeta records the document metadata. The last call wins.
func (c *Context) SetMeta(m meta.Meta) {
	c.meta = &m
}

// Meta returns the recorded metadata, if a metadata block was found.
func (c *Context) Meta() (meta.Meta, bool) {
	if c.meta == nil {
		return meta.Meta{}, false
	}
	return *c.meta, true
}
