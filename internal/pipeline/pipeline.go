package pipeline

import (
	"fmt"
	"strings"
)

// Pipeline converts markdown documents to HTML. It holds no per-document
// state and is safe for concurrent use as long as its collaborators are.
type Pipeline struct {
	tokenizer   *Tokenizer
	renderer    *Renderer
	highlighter Highlighter
	images      *ImageEmbedder
	math        MathRenderer
	fallback    MathFallback
}

// Option configures a Pipeline.
type Option func(*options)

type options struct {
	style        string
	precision    int
	maxWidth     int
	fallback     MathFallback
	highlighter  Highlighter
	mathRenderer MathRenderer
	macros       map[string]string
}

// WithStyle sets the chroma style of highlighted code.
func WithStyle(style string) Option {
	return func(o *options) { o.style = style }
}

// WithSVGPrecision sets the significant digits kept in SVG numbers.
func WithSVGPrecision(digits int) Option {
	return func(o *options) { o.precision = digits }
}

// WithMaxImageWidth downscales raster images wider than px. Zero disables it.
func WithMaxImageWidth(px int) Option {
	return func(o *options) { o.maxWidth = px }
}

// WithMathFallback selects what replaces math that fails to render.
func WithMathFallback(f MathFallback) Option {
	return func(o *options) { o.fallback = f }
}

// WithMathMacros defines TeX macros for the MathML renderer, mapping a macro
// name to its expansion.
func WithMathMacros(macros map[string]string) Option {
	return func(o *options) { o.macros = macros }
}

// WithHighlighter replaces the chroma highlighter.
func WithHighlighter(h Highlighter) Option {
	return func(o *options) { o.highlighter = h }
}

// WithMathRenderer replaces the MathML renderer.
func WithMathRenderer(r MathRenderer) Option {
	return func(o *options) { o.mathRenderer = r }
}

// New creates a Pipeline.
func New(opts ...Option) *Pipeline {
	o := options{
		style:     DefaultStyle,
		precision: DefaultSVGPrecision,
		fallback:  MathDrop,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.highlighter == nil {
		o.highlighter = NewChromaHighlighter(o.style)
	}
	if o.mathRenderer == nil {
		o.mathRenderer = NewMathMLRenderer(o.macros)
	}

	return &Pipeline{
		tokenizer:   NewTokenizer(),
		renderer:    NewRenderer(),
		highlighter: o.highlighter,
		images:      NewImageEmbedder(NewSVGCleaner(o.precision), NewRasterEncoder(o.maxWidth)),
		math:        o.mathRenderer,
		fallback:    o.fallback,
	}
}

// Stages wraps the token stream of doc in the media and math stages.
func (p *Pipeline) Stages(doc *Document, ctx *Context) Stream {
	media := NewMediaStage(doc.Tokens(), ctx, p.highlighter, p.images)
	return NewMathStage(media, ctx, p.math, p.fallback)
}

// Convert renders markdown to an HTML fragment. Metadata found in the
// document is recorded in ctx.
func (p *Pipeline) Convert(ctx *Context, markdown string) (string, error) {
	doc := p.tokenizer.Parse(markdown)
	var sb strings.Builder
	if err := p.renderer.Render(&sb, doc.Source, p.Stages(doc, ctx)); err != nil {
		return "", fmt.Errorf("rendering HTML: %w", err)
	}
	return sb.String(), nil
}
