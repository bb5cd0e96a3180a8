package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// LineMarker precedes every highlighted line. Templates style it to show line
// numbers.
const LineMarker = "<a-lf></a-lf>"

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "github"

// Sentinel errors for highlighting.
var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrHighlight           = errors.New("highlighting failed")
)

// Highlighter turns source code into highlighted markup.
type Highlighter interface {
	Highlight(lang, code string) (string, error)
}

// ChromaHighlighter highlights with chroma, emitting CSS classes rather than
// inline styles.
type ChromaHighlighter struct {
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

var _ Highlighter = (*ChromaHighlighter)(nil)

// NewChromaHighlighter creates a highlighter using the named chroma style.
// Unknown style names fall back to chroma's default style.
func NewChromaHighlighter(style string) *ChromaHighlighter {
	if style == "" {
		style = DefaultStyle
	}
	return &ChromaHighlighter{
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.PreventSurroundingPre(true),
		),
		style: styles.Get(style),
	}
}

// Highlight implements Highlighter. The result carries LineMarker before each
// line of code.
func (h *ChromaHighlighter) Highlight(lang, code string) (string, error) {
	lexer := lexers.Get(lang)
	if lexer == nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, strings.TrimRight(code, " \t\r\n"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHighlight, err)
	}

	var sb strings.Builder
	if err := h.formatter.Format(&sb, h.style, iterator); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHighlight, err)
	}
	return markLines(sb.String()), nil
}

// lineOpen is the wrapper chroma puts around each line when CSS classes are on.
const lineOpen = `<span class="line">`

func markLines(out string) string {
	if strings.Contains(out, lineOpen) {
		return strings.ReplaceAll(out, lineOpen, LineMarker+lineOpen)
	}
	return LineMarker + strings.ReplaceAll(strings.TrimSuffix(out, "\n"), "\n", "\n"+LineMarker)
}
