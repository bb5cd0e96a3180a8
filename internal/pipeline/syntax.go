package pipeline

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Node kinds added to goldmark by the syntax extension.
var (
	KindMetaBlock  = ast.NewNodeKind("MetaBlock")
	KindMathBlock  = ast.NewNodeKind("MathBlock")
	KindMathInline = ast.NewNodeKind("MathInline")
)

// MetaBlock is the metadata block at the top of a document. Its lines hold
// the block body without the fences.
type MetaBlock struct {
	ast.BaseBlock
	Fence byte
}

// Kind implements ast.Node.
func (n *MetaBlock) Kind() ast.NodeKind { return KindMetaBlock }

// IsRaw implements ast.Node.
func (n *MetaBlock) IsRaw() bool { return true }

// Dump implements ast.Node.
func (n *MetaBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Fence": string(n.Fence)}, nil)
}

// MathBlock is display math delimited by lines holding only "$$".
type MathBlock struct {
	ast.BaseBlock
}

// Kind implements ast.Node.
func (n *MathBlock) Kind() ast.NodeKind { return KindMathBlock }

// IsRaw implements ast.Node.
func (n *MathBlock) IsRaw() bool { return true }

// Dump implements ast.Node.
func (n *MathBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// MathInline is $...$ or $$...$$ math inside a line.
type MathInline struct {
	ast.BaseInline
	Display bool
	Source  string
}

// Kind implements ast.Node.
func (n *MathInline) Kind() ast.NodeKind { return KindMathInline }

// Dump implements ast.Node.
func (n *MathInline) Dump(source []byte, level int) {
	kv := map[string]string{"Source": n.Source}
	if n.Display {
		kv["Display"] = "true"
	}
	ast.DumpHelper(n, source, level, kv, nil)
}

// syntaxExtension teaches goldmark the metadata fences and math delimiters.
type syntaxExtension struct{}

// Syntax is the goldmark extension recognizing metadata blocks and math.
var Syntax goldmark.Extender = &syntaxExtension{}

// Extend implements goldmark.Extender.
func (e *syntaxExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(
			// Ahead of thematic breaks and list items, which share the triggers.
			util.Prioritized(&metaBlockParser{}, 0),
			util.Prioritized(&mathBlockParser{}, 750),
		),
		parser.WithInlineParsers(
			util.Prioritized(&mathInlineParser{}, 500),
		),
	)
}

// ---------------------------------------------------------------------------
// Metadata block
// ---------------------------------------------------------------------------

type metaBlockParser struct{}

// metaFence reports the fence character if line is "+++" or "---".
func metaFence(line []byte) (byte, bool) {
	line = util.TrimRightSpace(line)
	if len(line) != 3 {
		return 0, false
	}
	c := line[0]
	if (c != '+' && c != '-') || line[1] != c || line[2] != c {
		return 0, false
	}
	return c, true
}

func (b *metaBlockParser) Trigger() []byte {
	return []byte{'+', '-'}
}

func (b *metaBlockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	if lineNum, _ := reader.Position(); lineNum != 0 {
		return nil, parser.NoChildren
	}
	line, segment := reader.PeekLine()
	fence, ok := metaFence(line)
	if !ok || !closedMetaBlock(reader.Source()[segment.Stop:], fence) {
		return nil, parser.NoChildren
	}
	return &MetaBlock{Fence: fence}, parser.NoChildren
}

// closedMetaBlock reports whether rest, the source after an opening fence,
// holds a matching closing fence. A "---" followed by a blank line is a
// thematic break, never metadata.
func closedMetaBlock(rest []byte, fence byte) bool {
	for first := true; len(rest) > 0; first = false {
		line := rest
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			line, rest = rest[:i+1], rest[i+1:]
		} else {
			rest = nil
		}
		if first && fence == '-' && util.IsBlank(line) {
			return false
		}
		if f, ok := metaFence(line); ok && f == fence {
			return true
		}
	}
	return false
}

func (b *metaBlockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	if fence, ok := metaFence(line); ok && fence == node.(*MetaBlock).Fence {
		reader.Advance(segment.Len())
		return parser.Close
	}
	node.Lines().Append(segment)
	return parser.Continue | parser.NoChildren
}

func (b *metaBlockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (b *metaBlockParser) CanInterruptParagraph() bool { return false }

func (b *metaBlockParser) CanAcceptIndentedLine() bool { return false }

// ---------------------------------------------------------------------------
// Display math block
// ---------------------------------------------------------------------------

type mathBlockParser struct{}

var mathFence = []byte("$$")

func isMathFence(line []byte) bool {
	return bytes.Equal(util.TrimRightSpace(util.TrimLeftSpace(line)), mathFence)
}

func (b *mathBlockParser) Trigger() []byte {
	return []byte{'$'}
}

func (b *mathBlockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, _ := reader.PeekLine()
	if !isMathFence(line) {
		return nil, parser.NoChildren
	}
	return &MathBlock{}, parser.NoChildren
}

func (b *mathBlockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	if isMathFence(line) {
		reader.Advance(segment.Len())
		return parser.Close
	}
	node.Lines().Append(segment)
	return parser.Continue | parser.NoChildren
}

func (b *mathBlockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (b *mathBlockParser) CanInterruptParagraph() bool { return true }

func (b *mathBlockParser) CanAcceptIndentedLine() bool { return false }

// ---------------------------------------------------------------------------
// Inline math
// ---------------------------------------------------------------------------

type mathInlineParser struct{}

func (p *mathInlineParser) Trigger() []byte {
	return []byte{'$'}
}

// Parse recognizes $$...$$ and $...$ within the current line. Single dollar
// math follows the pandoc rule: no space after the opener or before the
// closer, and no digit right after the closer, so "$5 and $10" stays text.
func (p *mathInlineParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()

	width := 0
	for width < len(line) && width < 3 && line[width] == '$' {
		width++
	}
	if width > 2 {
		return nil
	}
	display := width == 2

	body := line[width:]
	end := findMathCloser(body, display)
	if end <= 0 {
		return nil
	}

	block.Advance(width + end + width)
	return &MathInline{Display: display, Source: string(body[:end])}
}

// findMathCloser returns the length of the math body, or -1.
func findMathCloser(body []byte, display bool) int {
	if display {
		return bytes.Index(body, mathFence)
	}
	if len(body) == 0 || util.IsSpace(body[0]) {
		return -1
	}
	for i := 1; i < len(body); i++ {
		switch body[i] {
		case '\\':
			i++
		case '$':
			if util.IsSpace(body[i-1]) {
				continue
			}
			if i+1 < len(body) && body[i+1] >= '0' && body[i+1] <= '9' {
				continue
			}
			return i
		}
	}
	return -1
}
