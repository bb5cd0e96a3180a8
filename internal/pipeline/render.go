package pipeline

import (
	"bufio"
	"fmt"
	"io"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// funcRegistry collects goldmark node renderer functions by node kind.
type funcRegistry map[ast.NodeKind]renderer.NodeRendererFunc

// Register implements renderer.NodeRendererFuncRegisterer.
func (r funcRegistry) Register(kind ast.NodeKind, fn renderer.NodeRendererFunc) {
	r[kind] = fn
}

// Renderer folds a token stream into HTML. Ordinary markdown nodes are
// rendered by goldmark's own HTML renderers; the tags the stages rewrite are
// rendered here. A Renderer is safe for concurrent use.
type Renderer struct {
	funcs funcRegistry
}

// NewRenderer creates a Renderer. Raw HTML in the markdown is kept.
func NewRenderer() *Renderer {
	funcs := funcRegistry{}
	for _, nr := range []renderer.NodeRenderer{
		html.NewRenderer(html.WithUnsafe(), html.WithXHTML()),
		extension.NewTableHTMLRenderer(),
		extension.NewStrikethroughHTMLRenderer(html.WithXHTML()),
		extension.NewTaskCheckBoxHTMLRenderer(html.WithXHTML()),
		extension.NewFootnoteHTMLRenderer(),
	} {
		nr.RegisterFuncs(funcs)
	}
	return &Renderer{funcs: funcs}
}

// fold holds the state of one rendering pass.
type fold struct {
	r      *Renderer
	w      *bufio.Writer
	source []byte
	// titles of the images being rendered; while non-empty, output goes
	// into an alt attribute and markup is flattened to text.
	titles []string
}

// Render drains s and writes the HTML to w. source is the markdown the
// tokens were parsed from.
func (r *Renderer) Render(w io.Writer, source []byte, s Stream) error {
	f := &fold{r: r, w: bufio.NewWriter(w), source: source}
	for t, ok := s.Next(); ok; t, ok = s.Next() {
		if err := f.token(t); err != nil {
			return err
		}
	}
	return f.w.Flush()
}

func (f *fold) inAlt() bool { return len(f.titles) > 0 }

func (f *fold) escape(s string) {
	_, _ = f.w.Write(util.EscapeHTML([]byte(s)))
}

func (f *fold) node(n ast.Node, entering bool) error {
	fn := f.r.funcs[n.Kind()]
	if fn == nil {
		return nil
	}
	if _, err := fn(f.w, f.source, n, entering); err != nil {
		return fmt.Errorf("rendering %s: %w", n.Kind(), err)
	}
	return nil
}

func (f *fold) token(t Token) error {
	switch t.Kind {
	case KindStart:
		return f.start(t)
	case KindEnd:
		return f.end(t)
	case KindText:
		if t.Node != nil && !f.inAlt() {
			return f.node(t.Node, true)
		}
		f.escape(t.Text)
	case KindInlineMath, KindDisplayMath:
		f.math(t)
	case KindHTML:
		if f.inAlt() {
			f.escape(t.Text)
			return nil
		}
		_, _ = f.w.WriteString(t.Text)
	case KindNode:
		if f.inAlt() {
			f.escape(t.Text)
			return nil
		}
		if err := f.node(t.Node, true); err != nil {
			return err
		}
		return f.node(t.Node, false)
	}
	return nil
}

func (f *fold) start(t Token) error {
	switch t.Tag {
	case TagImage:
		if !f.inAlt() {
			_, _ = f.w.WriteString(`<img src="`)
			_, _ = f.w.Write(util.EscapeHTML(util.URLEscape([]byte(t.Dest), true)))
			_, _ = f.w.WriteString(`" alt="`)
		}
		f.titles = append(f.titles, t.Title)
	case TagCodeBlock:
		if f.inAlt() {
			return nil
		}
		_, _ = f.w.WriteString("<pre><code")
		if t.Lang != "" {
			_, _ = f.w.WriteString(` class="language-`)
			f.escape(t.Lang)
			_, _ = f.w.WriteString(`"`)
		}
		_, _ = f.w.WriteString(">")
	case TagMetadata:
		if f.inAlt() {
			return nil
		}
		_, _ = f.w.WriteString(`<pre class="metadata">`)
	default:
		if f.inAlt() || t.Node == nil {
			return nil
		}
		return f.node(t.Node, true)
	}
	return nil
}

func (f *fold) end(t Token) error {
	switch t.Tag {
	case TagImage:
		if !f.inAlt() {
			return nil
		}
		title := f.titles[len(f.titles)-1]
		f.titles = f.titles[:len(f.titles)-1]
		if f.inAlt() {
			return nil
		}
		_, _ = f.w.WriteString(`"`)
		if title != "" {
			_, _ = f.w.WriteString(` title="`)
			f.escape(title)
			_, _ = f.w.WriteString(`"`)
		}
		_, _ = f.w.WriteString(" />")
	case TagCodeBlock:
		if f.inAlt() {
			return nil
		}
		_, _ = f.w.WriteString("</code></pre>\n")
	case TagMetadata:
		if f.inAlt() {
			return nil
		}
		_, _ = f.w.WriteString("</pre>\n")
	default:
		if f.inAlt() || t.Node == nil {
			return nil
		}
		return f.node(t.Node, false)
	}
	return nil
}

// math writes math that no stage rendered. Inside alt text it goes back to
// its delimited source form.
func (f *fold) math(t Token) {
	delim, class := "$", "math math-inline"
	if t.Kind == KindDisplayMath {
		delim, class = "$$", "math math-display"
	}
	if f.inAlt() {
		f.escape(delim + t.Text + delim)
		return
	}
	_, _ = f.w.WriteString(`<span class="` + class + `">`)
	f.escape(t.Text)
	_, _ = f.w.WriteString("</span>")
}
