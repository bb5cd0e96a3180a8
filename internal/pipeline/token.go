package pipeline

import (
	"fmt"

	"github.com/yuin/goldmark/ast"
)

// Kind is the category of a Token.
type Kind uint8

// Token kinds.
const (
	KindStart       Kind = iota + 1 // opens a Tag
	KindEnd                         // closes a Tag
	KindText                        // plain text run
	KindInlineMath                  // $...$ source
	KindDisplayMath                 // $$...$$ source
	KindHTML                        // raw markup emitted as is
	KindNode                        // atomic node rendered whole (code span, raw HTML, autolink, HTML block)
)

var kindNames = map[Kind]string{
	KindStart:       "Start",
	KindEnd:         "End",
	KindText:        "Text",
	KindInlineMath:  "InlineMath",
	KindDisplayMath: "DisplayMath",
	KindHTML:        "HTML",
	KindNode:        "Node",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Tag identifies the block opened by a Start token and closed by an End token.
type Tag uint8

// Tags. TagNode covers every goldmark node the stages do not look into.
const (
	TagNode Tag = iota
	TagCodeBlock
	TagImage
	TagMetadata
)

var tagNames = map[Tag]string{
	TagNode:      "Node",
	TagCodeBlock: "CodeBlock",
	TagImage:     "Image",
	TagMetadata:  "Metadata",
}

func (t Tag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Tag(%d)", t)
}

// Token is one unit of the markdown event stream.
type Token struct {
	Kind Kind
	Tag  Tag

	// Node is the goldmark node the token was produced from. Synthesized
	// tokens and code or metadata lines leave it nil.
	Node ast.Node

	// Text holds the text run, the math source or the raw markup.
	Text string

	// Code block attributes.
	Lang   string
	Fenced bool

	// Image attributes.
	Dest  string
	Title string

	// Fence is the delimiter character of a metadata block.
	Fence byte
}

// String describes the token for diagnostics.
func (t Token) String() string {
	switch t.Kind {
	case KindStart, KindEnd:
		if t.Tag == TagNode && t.Node != nil {
			return fmt.Sprintf("%s(%s)", t.Kind, t.Node.Kind())
		}
		return fmt.Sprintf("%s(%s)", t.Kind, t.Tag)
	case KindNode:
		if t.Node != nil {
			return fmt.Sprintf("Node(%s)", t.Node.Kind())
		}
		return "Node"
	default:
		return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
	}
}

// Stream is a lazy, finite, forward-only token sequence. Next returns false
// once the sequence is exhausted and keeps returning false afterwards.
type Stream interface {
	Next() (Token, bool)
}

// Start returns a Start token for tag.
func Start(tag Tag) Token { return Token{Kind: KindStart, Tag: tag} }

// End returns an End token for tag.
func End(tag Tag) Token { return Token{Kind: KindEnd, Tag: tag} }

// Text returns a Text token.
func Text(s string) Token { return Token{Kind: KindText, Text: s} }

// HTML returns a raw markup token.
func HTML(s string) Token { return Token{Kind: KindHTML, Text: s} }

// sliceStream replays a fixed token list.
type sliceStream struct {
	tokens []Token
}

// NewSliceStream returns a Stream over tokens.
func NewSliceStream(tokens ...Token) Stream {
	return &sliceStream{tokens: tokens}
}

func (s *sliceStream) Next() (Token, bool) {
	if len(s.tokens) == 0 {
		return Token{}, false
	}
	t := s.tokens[0]
	s.tokens = s.tokens[1:]
	return t, true
}

// Collect drains s into a slice.
func Collect(s Stream) []Token {
	var out []Token
	for t, ok := s.Next(); ok; t, ok = s.Next() {
		out = append(out, t)
	}
	return out
}
