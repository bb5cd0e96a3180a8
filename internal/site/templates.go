package site

import (
	"fmt"
	"html/template"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-md2site/internal/assets"
	"github.com/alnah/go-md2site/internal/dateutil"
	"github.com/alnah/go-md2site/internal/meta"
	"github.com/alnah/go-md2site/internal/post"
)

// indexData is the data of index.html.
type indexData struct {
	Posts []*post.Post
}

// postData is the data of posts/<id>.html.
type postData struct {
	Post *post.Post
}

// tagData is the data of tags/<tag>.html.
type tagData struct {
	Posts []*post.Post
	Tag   string
}

// funcMap returns the functions available to page templates.
func funcMap(dates *dateutil.Formatter) template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) template.HTML {
			return template.HTML(dates.HTML(t)) // #nosec G203 -- escaped by Formatter.HTML
		},
		"formatDateAs": func(format string, t time.Time) (template.HTML, error) {
			f, err := dateutil.NewFormatter(format)
			if err != nil {
				return "", err
			}
			return template.HTML(f.HTML(t)), nil // #nosec G203 -- escaped by Formatter.HTML
		},
		"urlencode": url.PathEscape,
		"hasTag": func(m meta.Meta, tag string) bool {
			return m.HasTag(tag)
		},
	}
}

// loadTemplates parses the page templates, custom ones first.
func loadTemplates(r *assets.Resolver, funcs template.FuncMap, log zerolog.Logger) (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(assets.PageTemplates))
	for _, name := range assets.PageTemplates {
		source, custom, err := r.Resolve(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrTemplate, name, err)
		}
		log.Info().Str("template", name).Bool("custom", custom).Msg("processing template")

		t, err := template.New(name).Funcs(funcs).Parse(source)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrTemplate, name, err)
		}
		out[name] = t
	}
	return out, nil
}
