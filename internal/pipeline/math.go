package pipeline

import (
	"errors"
	"fmt"

	"github.com/wyatt915/treeblood"
)

// ErrMathRender indicates the math engine rejected an expression.
var ErrMathRender = errors.New("math rendering failed")

// MathFallback selects what replaces math that fails to render.
type MathFallback string

// Math fallbacks.
const (
	// MathDrop removes the expression from the output.
	MathDrop MathFallback = "drop"
	// MathSource shows the escaped TeX source in a <code class="math-error">.
	MathSource MathFallback = "source"
)

// MathRenderer turns TeX into presentation markup.
type MathRenderer interface {
	Render(tex string, display bool) (string, error)
}

// MathMLRenderer renders TeX to MathML with treeblood.
type MathMLRenderer struct {
	macros map[string]string
}

var _ MathRenderer = (*MathMLRenderer)(nil)

// NewMathMLRenderer creates a renderer. macros maps macro names to their
// TeX expansion and may be nil.
func NewMathMLRenderer(macros map[string]string) *MathMLRenderer {
	return &MathMLRenderer{macros: macros}
}

// Render implements MathRenderer.
func (r *MathMLRenderer) Render(tex string, display bool) (out string, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = "", fmt.Errorf("%w: %v", ErrMathRender, p)
		}
	}()
	if display {
		out, err = treeblood.DisplayStyle(tex, r.macros)
	} else {
		out, err = treeblood.InlineStyle(tex, r.macros)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMathRender, err)
	}
	return out, nil
}

// MathStage replaces math tokens by rendered markup. Math inside image alt
// text is left alone so it folds back into the alt attribute.
type MathStage struct {
	upstream Stream
	ctx      *Context
	renderer MathRenderer
	fallback MathFallback
	// imageDepth counts the images currently open.
	imageDepth int
}

var _ Stream = (*MathStage)(nil)

// NewMathStage wraps upstream.
func NewMathStage(upstream Stream, ctx *Context, renderer MathRenderer, fallback MathFallback) *MathStage {
	if fallback == "" {
		fallback = MathDrop
	}
	return &MathStage{upstream: upstream, ctx: ctx, renderer: renderer, fallback: fallback}
}

// Next implements Stream.
func (s *MathStage) Next() (Token, bool) {
	for {
		t, ok := s.upstream.Next()
		if !ok {
			return Token{}, false
		}

		switch {
		case t.Kind == KindStart && t.Tag == TagImage:
			s.imageDepth++
			return t, true
		case t.Kind == KindEnd && t.Tag == TagImage:
			if s.imageDepth > 0 {
				s.imageDepth--
			}
			return t, true
		case t.Kind != KindInlineMath && t.Kind != KindDisplayMath, s.imageDepth > 0:
			return t, true
		}

		display := t.Kind == KindDisplayMath
		markup, err := s.renderer.Render(t.Text, display)
		if err == nil {
			return HTML(markup), true
		}
		s.ctx.Log.Error().Err(err).Str("math", t.Text).Msg("failed to render math")
		if s.fallback == MathSource {
			return HTML(`<code class="math-error">` + escapeString(t.Text) + `</code>`), true
		}
		// Dropped: pull the next token.
	}
}
