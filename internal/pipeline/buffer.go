package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for Buffer.AccumulateUntil.
var (
	ErrUnexpectedToken   = errors.New("unexpected token in block")
	ErrUnterminatedBlock = errors.New("unterminated block")
)

// Buffer wraps an upstream Stream with a queue of tokens that are handed out
// before upstream is pulled again. Stages use it to look ahead across a whole
// block, then either reseed the queue with a replacement or leave the original
// tokens in place to be replayed untouched.
type Buffer struct {
	upstream Stream
	queue    []Token
}

// NewBuffer returns a Buffer reading from upstream.
func NewBuffer(upstream Stream) *Buffer {
	return &Buffer{upstream: upstream}
}

// Next returns the next queued token, or pulls upstream if the queue is empty.
func (b *Buffer) Next() (Token, bool) {
	if t, ok := b.Replay(); ok {
		return t, true
	}
	return b.Pull()
}

// Replay pops the next queued token without touching upstream.
func (b *Buffer) Replay() (Token, bool) {
	if len(b.queue) == 0 {
		return Token{}, false
	}
	t := b.queue[0]
	b.queue = b.queue[1:]
	return t, true
}

// Pull reads the next upstream token, bypassing the queue.
func (b *Buffer) Pull() (Token, bool) {
	return b.upstream.Next()
}

// Replace clears the queue and seeds it with tokens.
func (b *Buffer) Replace(tokens ...Token) {
	b.queue = append(make([]Token, 0, len(tokens)), tokens...)
}

// Len returns the number of queued tokens.
func (b *Buffer) Len() int { return len(b.queue) }

// AccumulateUntil pulls upstream tokens into the queue until the End token of
// tag, inclusive, and returns the concatenated text. Inline math is folded
// back into its $...$ form. Any other token stops accumulation with
// ErrUnexpectedToken, and running out of tokens with ErrUnterminatedBlock. In
// both cases the queue keeps every token pulled so far, ready for replay.
func (b *Buffer) AccumulateUntil(tag Tag) (string, error) {
	var sb strings.Builder
	for {
		t, ok := b.Pull()
		if !ok {
			return "", fmt.Errorf("%w: missing End(%s)", ErrUnterminatedBlock, tag)
		}
		b.queue = append(b.queue, t)

		switch {
		case t.Kind == KindText:
			sb.WriteString(t.Text)
		case t.Kind == KindInlineMath:
			sb.WriteString("$")
			sb.WriteString(t.Text)
			sb.WriteString("$")
		case t.Kind == KindEnd && t.Tag == tag:
			return sb.String(), nil
		default:
			return "", fmt.Errorf("%w: %s", ErrUnexpectedToken, t)
		}
	}
}
