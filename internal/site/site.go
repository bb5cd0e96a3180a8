// Package site builds a static site from an input directory:
//
//	<in>/posts/<name>.md          single-file post
//	<in>/posts/<name>/index.md    directory-backed post with its images
//	<in>/templates/*.html         optional template overrides
//	<in>/static/**                copied verbatim
//
// into index.html, posts/<id>.html, tags/<tag>.html, assets/ and static/
// under the output directory.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/alnah/go-md2site/internal/assets"
	"github.com/alnah/go-md2site/internal/assetstore"
	"github.com/alnah/go-md2site/internal/dateutil"
	"github.com/alnah/go-md2site/internal/fileutil"
	"github.com/alnah/go-md2site/internal/pipeline"
	"github.com/alnah/go-md2site/internal/post"
)

// Input directory layout.
const (
	PostsDir     = "posts"
	TemplatesDir = "templates"
	StaticDir    = "static"
)

// Sentinel errors for site building.
var (
	ErrInputDir  = errors.New("invalid input directory")
	ErrReadPosts = errors.New("cannot read posts directory")
	ErrTemplate  = errors.New("cannot load template")
	ErrWrite     = errors.New("cannot write output")
)

// Options configures a build.
type Options struct {
	InDir  string
	OutDir string
	// Workers bounds the posts built concurrently. Values below 1 build
	// sequentially.
	Workers int
	// DateFormat is the dateutil format of formatDate. Empty selects
	// dateutil.DefaultDateFormat.
	DateFormat string
	// Pipeline configures the content pipeline of every post.
	Pipeline []pipeline.Option
}

// Result summarizes a build.
type Result struct {
	// Posts are sorted newest first.
	Posts   []*post.Post
	Tags    []string
	Skipped int
	Assets  int
}

// Builder builds one site.
type Builder struct {
	opts   Options
	log    zerolog.Logger
	assets *assetstore.Store
	posts  *post.Builder
}

// New creates a Builder. The input directory must exist.
func New(opts Options, log zerolog.Logger) (*Builder, error) {
	if !fileutil.DirExists(opts.InDir) {
		return nil, fmt.Errorf("%w: %s", ErrInputDir, opts.InDir)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.DateFormat == "" {
		opts.DateFormat = dateutil.DefaultDateFormat
	}

	store := assetstore.New(log)
	return &Builder{
		opts:   opts,
		log:    log,
		assets: store,
		posts:  post.NewBuilder(pipeline.New(opts.Pipeline...), store, log),
	}, nil
}

// Build runs the whole build. Post-level problems are logged; the error
// reports what prevented a complete site: templates that do not load, a
// cancelled ctx or output that could not be written.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	dates, err := dateutil.NewFormatter(b.opts.DateFormat)
	if err != nil {
		return nil, err
	}
	resolver, err := assets.NewResolver(filepath.Join(b.opts.InDir, TemplatesDir))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	templates, err := loadTemplates(resolver, funcMap(dates), b.log)
	if err != nil {
		return nil, err
	}

	var sources []post.Source
	postsDir := filepath.Join(b.opts.InDir, PostsDir)
	if fileutil.DirExists(postsDir) {
		if sources, err = Discover(postsDir, b.log); err != nil {
			return nil, err
		}
	} else {
		b.log.Warn().Str("path", postsDir).Msg("no posts directory")
	}

	posts, skipped, err := b.buildPosts(ctx, sources)
	if err != nil {
		return nil, err
	}
	sortPosts(posts)

	res := &Result{Posts: posts, Tags: collectTags(posts), Skipped: skipped}

	var errs []error
	errs = append(errs, b.writePages(templates, res))
	if err := b.assets.Flush(b.opts.OutDir); err != nil {
		errs = append(errs, err)
	}
	res.Assets = b.assets.Len()
	errs = append(errs, b.copyStatic())

	if err := errors.Join(errs...); err != nil {
		return res, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return res, nil
}

// buildPosts builds sources with a bounded worker pool. Results keep the
// source order.
func (b *Builder) buildPosts(ctx context.Context, sources []post.Source) ([]*post.Post, int, error) {
	if len(sources) == 0 {
		return nil, 0, nil
	}

	concurrency := b.opts.Workers
	if concurrency > len(sources) {
		concurrency = len(sources)
	}

	built := make([]*post.Post, len(sources))
	var wg sync.WaitGroup
	jobs := make(chan int, len(sources))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					continue
				}
				src := sources[idx]
				b.log.Info().Str("post", src.ID).Str("path", src.Path).Msg("processing post")
				p, err := b.posts.Build(src)
				if err != nil {
					b.log.Error().Err(err).Str("post", src.ID).Msg("skipping post")
					continue
				}
				built[idx] = p
			}
		}()
	}

	for i := range sources {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	posts := make([]*post.Post, 0, len(built))
	for _, p := range built {
		if p != nil {
			posts = append(posts, p)
		}
	}
	return posts, len(sources) - len(posts), nil
}

// sortPosts orders posts newest first, ties by id.
func sortPosts(posts []*post.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].Age != posts[j].Age {
			return posts[i].Age > posts[j].Age
		}
		return posts[i].ID < posts[j].ID
	})
}

// collectTags returns the distinct tags of posts, sorted.
func collectTags(posts []*post.Post) []string {
	seen := map[string]bool{}
	var tags []string
	for _, p := range posts {
		for _, t := range p.Meta.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	sort.Strings(tags)
	return tags
}

// writePages renders every page. A page that fails is logged and the others
// are still written.
func (b *Builder) writePages(templates map[string]*template.Template, res *Result) error {
	var errs []error
	render := func(name, outPath string, data any) {
		b.log.Info().Str("page", outPath).Str("template", name).Msg("rendering page")
		var buf bytes.Buffer
		if err := templates[name].Execute(&buf, data); err != nil {
			b.log.Error().Err(err).Str("page", outPath).Msg("could not render template")
			errs = append(errs, err)
			return
		}
		if err := fileutil.WriteFile(filepath.Join(b.opts.OutDir, filepath.FromSlash(outPath)), buf.Bytes()); err != nil {
			b.log.Error().Err(err).Str("page", outPath).Msg("could not write output")
			errs = append(errs, err)
		}
	}

	render(assets.IndexTemplate, "index.html", indexData{Posts: res.Posts})
	for _, p := range res.Posts {
		render(assets.PostTemplate, "posts/"+p.ID+".html", postData{Post: p})
	}
	for _, tag := range res.Tags {
		if tag == "" || tag == "." || tag == ".." || fileutil.IsFilePath(tag) {
			b.log.Error().Str("tag", tag).Msg("tag cannot be used as a file name, skipping its page")
			continue
		}
		render(assets.TagTemplate, "tags/"+tag+".html", tagData{Posts: res.Posts, Tag: tag})
	}
	return errors.Join(errs...)
}

// copyStatic copies <in>/static to <out>/static when present.
func (b *Builder) copyStatic() error {
	src := filepath.Join(b.opts.InDir, StaticDir)
	if !fileutil.DirExists(src) {
		return nil
	}
	return fileutil.CopyTree(src, filepath.Join(b.opts.OutDir, StaticDir), func(path string) {
		b.log.Info().Str("path", path).Msg("copying static asset")
	})
}
