package pipeline

import (
	"errors"

	"github.com/alnah/go-md2site/internal/meta"
)

// MediaStage consumes the metadata block, highlights fenced code and embeds
// local images. It must run before MathStage: math inside alt text and
// metadata leaves this stage untouched.
type MediaStage struct {
	buf         *Buffer
	ctx         *Context
	highlighter Highlighter
	images      *ImageEmbedder
}

var _ Stream = (*MediaStage)(nil)

// NewMediaStage wraps upstream. A nil highlighter disables highlighting and
// a nil embedder leaves every image reference as written.
func NewMediaStage(upstream Stream, ctx *Context, highlighter Highlighter, images *ImageEmbedder) *MediaStage {
	return &MediaStage{
		buf:         NewBuffer(upstream),
		ctx:         ctx,
		highlighter: highlighter,
		images:      images,
	}
}

// Next implements Stream.
func (s *MediaStage) Next() (Token, bool) {
	if t, ok := s.buf.Replay(); ok {
		return t, true
	}
	for {
		t, ok := s.buf.Pull()
		if !ok {
			return Token{}, false
		}
		if t.Kind != KindStart {
			return t, true
		}

		switch t.Tag {
		case TagMetadata:
			if s.metadata(t) {
				// Consumed without output: move on to the next token.
				continue
			}
			return t, true
		case TagCodeBlock:
			if t.Fenced && t.Lang != "" && s.highlighter != nil {
				s.code(t)
			}
			return t, true
		case TagImage:
			return s.image(t), true
		default:
			return t, true
		}
	}
}

// metadata parses the block opened by start into the context. It reports
// false when the block must be passed through instead.
func (s *MediaStage) metadata(start Token) bool {
	body, err := s.buf.AccumulateUntil(TagMetadata)
	if err != nil {
		s.ctx.Log.Error().Err(err).Msg("failed to read metadata block")
		return false
	}
	rec, err := meta.Parse(start.Fence, body)
	if err != nil {
		s.ctx.Log.Error().Err(err).Msg("failed to parse metadata")
		return false
	}
	s.ctx.SetMeta(rec.Resolve(s.ctx.Defaults))
	s.buf.Replace()
	return true
}

// code queues the highlighted body of the block opened by start. On failure
// the original lines stay queued.
func (s *MediaStage) code(start Token) {
	code, err := s.buf.AccumulateUntil(TagCodeBlock)
	if err != nil {
		s.ctx.Log.Error().Err(err).Str("lang", start.Lang).Msg("failed to read code block")
		return
	}
	highlighted, err := s.highlighter.Highlight(start.Lang, code)
	switch {
	case errors.Is(err, ErrUnsupportedLanguage):
		s.ctx.Log.Warn().Str("lang", start.Lang).Msg("unsupported language, leaving code unhighlighted")
		return
	case err != nil:
		s.ctx.Log.Error().Err(err).Str("lang", start.Lang).Msg("failed to highlight code")
		return
	}
	s.buf.Replace(HTML(highlighted), Token{Kind: KindEnd, Tag: TagCodeBlock, Lang: start.Lang, Fenced: true})
}

// image returns the token to emit for the image opened by start: a figure
// replacing the whole image, or start itself with the original tokens queued.
func (s *MediaStage) image(start Token) Token {
	alt, err := s.buf.AccumulateUntil(TagImage)
	if err != nil {
		s.ctx.Log.Error().Err(err).Str("image", start.Dest).Msg("failed to read image alt text")
		return start
	}
	if s.images == nil {
		return start
	}
	figure, ok := s.images.Embed(s.ctx, start.Dest, alt)
	if !ok {
		return start
	}
	s.buf.Replace()
	return HTML(figure)
}
