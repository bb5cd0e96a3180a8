package pipeline

import (
	"bytes"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yuin/goldmark/util"

	"github.com/alnah/go-md2site/internal/fileutil"
)

// ImageEmbedder turns local image references into figures: SVG files are
// cleaned and inlined, raster files are re-encoded into the asset store.
type ImageEmbedder struct {
	svg    *SVGCleaner
	raster *RasterEncoder
}

// NewImageEmbedder creates an embedder.
func NewImageEmbedder(svg *SVGCleaner, raster *RasterEncoder) *ImageEmbedder {
	return &ImageEmbedder{svg: svg, raster: raster}
}

// Embed returns the figure for the image at dest. It reports false when the
// reference must be left as written: external URLs, unresolvable paths and
// unreadable or undecodable files.
func (e *ImageEmbedder) Embed(ctx *Context, dest, alt string) (string, bool) {
	log := ctx.Log.With().Str("image", dest).Logger()

	u, err := url.Parse(dest)
	if err != nil {
		log.Error().Err(err).Msg("invalid image URL")
		return "", false
	}
	// Scheme-relative references ("//host/x.png") are external too.
	if u.Scheme != "" || u.Host != "" {
		return "", false
	}
	if u.Path == "" {
		log.Error().Msg("image reference has no path")
		return "", false
	}
	if ctx.Dir == "" {
		log.Error().Msg("relative image in a single-file post, use a post directory with index.md")
		return "", false
	}

	path := filepath.Join(ctx.Dir, filepath.FromSlash(u.Path))
	if !fileutil.IsPathUnderDir(path, ctx.Dir) {
		log.Error().Msg("image path escapes the post directory")
		return "", false
	}
	if !fileutil.FileExists(path) {
		log.Error().Str("path", path).Msg("image not found")
		return "", false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Error().Err(err).Msg("failed to read image")
		return "", false
	}

	var content string
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		log.Debug().Msg("inlining SVG")
		content = e.svg.Inline(string(data), alt, log)
	} else {
		img, ok := e.rasterImage(ctx.Assets, data, alt, log)
		if !ok {
			return "", false
		}
		content = img
	}
	return figure(content, alt), true
}

func (e *ImageEmbedder) rasterImage(assets AssetStore, data []byte, alt string, log zerolog.Logger) (string, bool) {
	if assets == nil {
		log.Error().Msg("no asset store to hold raster images")
		return "", false
	}
	webp, err := e.raster.Encode(bytes.NewReader(data))
	if err != nil {
		log.Error().Err(err).Msg("failed to convert image")
		return "", false
	}
	path, err := assets.Put(webp, "webp")
	if err != nil {
		log.Error().Err(err).Msg("failed to store image")
		return "", false
	}
	return `<img src="/` + escapeString(path) + `" alt="` + escapeString(alt) + `">`, true
}

func figure(content, caption string) string {
	return "<figure>" + content + "<figcaption>" + escapeString(caption) + "</figcaption></figure>"
}

func escapeString(s string) string {
	return string(util.EscapeHTML([]byte(s)))
}
