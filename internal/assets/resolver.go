package assets

import (
	"errors"

	"github.com/alnah/go-md2site/internal/fileutil"
)

// Resolver combines a custom and the embedded loader. Custom templates take
// precedence; a template the custom directory lacks comes from the embedded
// set.
type Resolver struct {
	custom   Loader // nil without a custom directory
	embedded Loader
}

// NewResolver creates a Resolver. An empty customDir, or one that does not
// exist, selects the embedded templates only. Returns an error if customDir
// exists but cannot be used.
func NewResolver(customDir string) (*Resolver, error) {
	r := &Resolver{embedded: NewEmbeddedLoader()}
	if customDir == "" || !fileutil.DirExists(customDir) {
		return r, nil
	}

	fsLoader, err := NewFilesystemLoader(customDir)
	if err != nil {
		return nil, err
	}
	r.custom = fsLoader
	return r, nil
}

// LoadTemplate implements Loader.
func (r *Resolver) LoadTemplate(name string) (string, error) {
	content, _, err := r.Resolve(name)
	return content, err
}

// Resolve loads name and reports whether the custom loader supplied it.
func (r *Resolver) Resolve(name string) (content string, custom bool, err error) {
	if r.custom != nil {
		content, err := r.custom.LoadTemplate(name)
		if err == nil {
			return content, true, nil
		}
		// Only a missing template falls back; validation and I/O errors do not.
		if !errors.Is(err, ErrTemplateNotFound) {
			return "", false, err
		}
	}
	content, err = r.embedded.LoadTemplate(name)
	return content, false, err
}

// HasCustomLoader reports whether a custom template directory is in use.
func (r *Resolver) HasCustomLoader() bool {
	return r.custom != nil
}

var _ Loader = (*Resolver)(nil)
