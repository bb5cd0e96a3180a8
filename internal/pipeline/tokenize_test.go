package pipeline

// Notes:
// - Token sequences are compared through Token.String so failures print
//   readable diffs
// - Only stable goldmark behavior is asserted: node kinds and text content,
//   not segment boundaries inside paragraphs

import (
	"reflect"
	"strings"
	"testing"
)

func tokenize(src string) []Token {
	return Collect(NewTokenizer().Parse(src).Tokens())
}

func findKind(tokens []Token, kind Kind) []Token {
	var out []Token
	for _, t := range tokens {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// TestTokenize - Block Shapes
// ---------------------------------------------------------------------------

func TestTokenize_Blocks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "fenced code",
			src:  "```go\nfmt.Println(1)\n```\n",
			want: []string{`Start(CodeBlock)`, `Text("fmt.Println(1)\n")`, `End(CodeBlock)`},
		},
		{
			name: "indented code",
			src:  "    a\n    b\n",
			want: []string{`Start(CodeBlock)`, `Text("a\n")`, `Text("b\n")`, `End(CodeBlock)`},
		},
		{
			name: "toml metadata",
			src:  "+++\ntitle = 1\n+++\n",
			want: []string{`Start(Metadata)`, `Text("title = 1\n")`, `End(Metadata)`},
		},
		{
			name: "yaml metadata",
			src:  "---\ntitle: T\n---\n",
			want: []string{`Start(Metadata)`, `Text("title: T\n")`, `End(Metadata)`},
		},
		{
			name: "display math block",
			src:  "$$\nE = mc^2\n$$\n",
			want: []string{`DisplayMath("E = mc^2")`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := kinds(tokenize(tt.src))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("tokens = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokenize_CodeBlockAttributes(t *testing.T) {
	t.Parallel()

	tokens := tokenize("```python\nx\n```\n")
	if tokens[0].Lang != "python" || !tokens[0].Fenced {
		t.Errorf("start = %+v, want fenced python block", tokens[0])
	}
}

func TestTokenize_MetadataOnlyAtTop(t *testing.T) {
	t.Parallel()

	for _, src := range []string{"para\n\n---\n\nmore\n", "text\n+++\n"} {
		for _, tok := range tokenize(src) {
			if tok.Tag == TagMetadata && tok.Kind == KindStart {
				t.Errorf("%q produced a metadata block", src)
			}
		}
	}
}

// ---------------------------------------------------------------------------
// TestTokenize - Inline
// ---------------------------------------------------------------------------

func TestTokenize_FenceWithoutMetadata(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		src      string
		wantKind string
	}{
		{"unclosed toml fence", "+++\n# Hello\n", "Heading"},
		{"unclosed yaml fence", "---\ntitle: T\n\n# Hello\n", "Heading"},
		{"thematic break then blank line", "---\n\n# Hello\n\nSome text.\n---\n", "ThematicBreak"},
		{"closing fence of the other kind", "+++\ntitle = 1\n---\n", "Heading"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := strings.Join(kinds(tokenize(tt.src)), " ")
			if strings.Contains(got, "Metadata") {
				t.Errorf("fence read as metadata: %s", got)
			}
			if !strings.Contains(got, tt.wantKind) {
				t.Errorf("tokens %s, want a %s node", got, tt.wantKind)
			}
		})
	}
}

func TestTokenize_Image(t *testing.T) {
	t.Parallel()

	got := kinds(tokenize(`![alt *x*](a.png "T")`))
	want := []string{
		`Start(Paragraph)`,
		`Start(Image)`,
		`Text("alt ")`,
		`Start(Emphasis)`,
		`Text("x")`,
		`End(Emphasis)`,
		`End(Image)`,
		`End(Paragraph)`,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokens = %v, want %v", got, want)
	}

	start := tokenize(`![a](dir/b.png "T")`)[1]
	if start.Dest != "dir/b.png" || start.Title != "T" {
		t.Errorf("image start = %+v", start)
	}
}

func TestTokenize_InlineMath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		src         string
		wantInline  []string
		wantDisplay []string
	}{
		{name: "inline", src: "a $x^2$ b", wantInline: []string{"x^2"}},
		{name: "display in line", src: "a $$\\sum x$$ b", wantDisplay: []string{`\sum x`}},
		{name: "currency is text", src: "costs $5 and $10"},
		{name: "space after opener is text", src: "a $ x$ b"},
		{name: "escaped dollar inside", src: `$a\$b$`, wantInline: []string{`a\$b`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tokens := tokenize(tt.src)
			var inline, display []string
			for _, tok := range findKind(tokens, KindInlineMath) {
				inline = append(inline, tok.Text)
			}
			for _, tok := range findKind(tokens, KindDisplayMath) {
				display = append(display, tok.Text)
			}
			if !reflect.DeepEqual(inline, tt.wantInline) {
				t.Errorf("inline math = %q, want %q", inline, tt.wantInline)
			}
			if !reflect.DeepEqual(display, tt.wantDisplay) {
				t.Errorf("display math = %q, want %q", display, tt.wantDisplay)
			}
		})
	}
}

func TestTokenize_AtomicNodes(t *testing.T) {
	t.Parallel()

	tokens := tokenize("use `x` and <b>raw</b> at https://example.com\n")
	nodes := findKind(tokens, KindNode)
	if len(nodes) < 3 {
		t.Fatalf("got %d atomic tokens, want at least 3: %v", len(nodes), kinds(tokens))
	}
	if nodes[0].Text != "x" {
		t.Errorf("code span text = %q, want %q", nodes[0].Text, "x")
	}
}

func TestTokenize_NormalizesLineEndings(t *testing.T) {
	t.Parallel()

	doc := NewTokenizer().Parse("a\r\nb\rc")
	if strings.Contains(string(doc.Source), "\r") {
		t.Errorf("source still has carriage returns: %q", doc.Source)
	}
}
