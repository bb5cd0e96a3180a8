package pipeline

import (
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var crlfOrCR = regexp.MustCompile(`\r\n?`)

// normalizeLineEndings converts \r\n and \r to \n.
func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// Tokenizer parses markdown with goldmark and flattens the tree into tokens.
// It is safe for concurrent use.
type Tokenizer struct {
	parser parser.Parser
}

// NewTokenizer creates a Tokenizer with GFM, footnotes, typographic
// punctuation, heading ids, metadata blocks and math.
func NewTokenizer() *Tokenizer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,         // Tables, strikethrough, autolinks, task lists
			extension.Footnote,    // [^1] footnotes
			extension.Typographer, // Smart quotes and dashes
			Syntax,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &Tokenizer{parser: md.Parser()}
}

// Document is parsed markdown ready to be streamed.
type Document struct {
	Source []byte
	Root   ast.Node
}

// Parse parses markdown source. Line endings are normalized first.
func (t *Tokenizer) Parse(source string) *Document {
	src := []byte(normalizeLineEndings(source))
	root := t.parser.Parse(text.NewReader(src))
	return &Document{Source: src, Root: root}
}

// Tokens returns a fresh stream over the document.
func (d *Document) Tokens() Stream {
	w := &walker{source: d.Source, root: d.Root, node: d.Root, entering: true}
	return w
}

// walker visits the tree depth first without recursion, producing the tokens
// of one node event per step.
type walker struct {
	source   []byte
	root     ast.Node
	node     ast.Node
	entering bool
	done     bool
	pending  []Token
}

func (w *walker) Next() (Token, bool) {
	for len(w.pending) == 0 {
		if w.done {
			return Token{}, false
		}
		w.step()
	}
	t := w.pending[0]
	w.pending = w.pending[1:]
	return t, true
}

// step emits the tokens of the current event and moves to the next one.
func (w *walker) step() {
	n, entering := w.node, w.entering
	descend := w.emit(n, entering)

	switch {
	case entering && descend && n.FirstChild() != nil:
		w.node = n.FirstChild()
	case entering:
		w.entering = false
	case n == w.root:
		w.done = true
	case n.NextSibling() != nil:
		w.node, w.entering = n.NextSibling(), true
	default:
		w.node = n.Parent()
	}
}

func (w *walker) push(tokens ...Token) {
	w.pending = append(w.pending, tokens...)
}

// emit queues the tokens for one event and reports whether the children of n
// should be visited.
func (w *walker) emit(n ast.Node, entering bool) bool {
	switch n := n.(type) {
	case *ast.Document:
		return true

	case *MetaBlock:
		if entering {
			w.push(Token{Kind: KindStart, Tag: TagMetadata, Node: n, Fence: n.Fence})
			w.pushLines(n)
		} else {
			w.push(Token{Kind: KindEnd, Tag: TagMetadata, Node: n, Fence: n.Fence})
		}
		return false

	case *ast.FencedCodeBlock:
		if entering {
			w.push(Token{Kind: KindStart, Tag: TagCodeBlock, Node: n, Lang: string(n.Language(w.source)), Fenced: true})
			w.pushLines(n)
		} else {
			w.push(Token{Kind: KindEnd, Tag: TagCodeBlock, Node: n, Fenced: true})
		}
		return false

	case *ast.CodeBlock:
		if entering {
			w.push(Token{Kind: KindStart, Tag: TagCodeBlock, Node: n})
			w.pushLines(n)
		} else {
			w.push(Token{Kind: KindEnd, Tag: TagCodeBlock, Node: n})
		}
		return false

	case *MathBlock:
		if entering {
			w.push(Token{Kind: KindDisplayMath, Node: n, Text: strings.TrimSpace(linesText(n, w.source))})
		}
		return false

	case *MathInline:
		if entering {
			kind := KindInlineMath
			if n.Display {
				kind = KindDisplayMath
			}
			w.push(Token{Kind: kind, Node: n, Text: n.Source})
		}
		return false

	case *ast.Image:
		tag := Token{Tag: TagImage, Node: n, Dest: string(n.Destination), Title: string(n.Title)}
		if entering {
			tag.Kind = KindStart
		} else {
			tag.Kind = KindEnd
		}
		w.push(tag)
		return true

	case *ast.Text:
		if entering {
			s := string(n.Segment.Value(w.source))
			if n.SoftLineBreak() || n.HardLineBreak() {
				s += "\n"
			}
			w.push(Token{Kind: KindText, Node: n, Text: s})
		}
		return false

	case *ast.String:
		if entering {
			s := string(n.Value)
			if n.IsCode() {
				s = html.UnescapeString(s)
			}
			w.push(Token{Kind: KindText, Node: n, Text: s})
		}
		return false

	case *ast.CodeSpan, *ast.RawHTML, *ast.AutoLink, *ast.HTMLBlock:
		if entering {
			w.push(Token{Kind: KindNode, Node: n, Text: plainText(n, w.source)})
		}
		return false

	default:
		if entering {
			w.push(Token{Kind: KindStart, Tag: TagNode, Node: n})
		} else {
			w.push(Token{Kind: KindEnd, Tag: TagNode, Node: n})
		}
		return true
	}
}

// pushLines queues one Text token per source line of a raw block.
func (w *walker) pushLines(n ast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		w.push(Text(string(seg.Value(w.source))))
	}
}

func linesText(n ast.Node, source []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return sb.String()
}

// plainText returns the textual content of an atomic node, used where markup
// cannot appear such as image alt text.
func plainText(n ast.Node, source []byte) string {
	switch n := n.(type) {
	case *ast.AutoLink:
		return string(n.Label(source))
	case *ast.HTMLBlock:
		return linesText(n, source)
	}
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			sb.Write(c.Segment.Value(source))
		case *ast.String:
			sb.Write(c.Value)
		}
	}
	if raw, ok := n.(*ast.RawHTML); ok {
		for i := 0; i < raw.Segments.Len(); i++ {
			seg := raw.Segments.At(i)
			sb.Write(seg.Value(source))
		}
	}
	return sb.String()
}
