package ollama

import (
	"strings"
	"unicode/utf8"
)

// Default chunk sizing: long enough to sound like a spoken phrase,
// short enough to keep time-to-first-audio low.
const (
	DefaultMinChunkChars = 20
	DefaultMaxChunkChars = 100
)

// chunker accumulates token fragments and decides phrase-sized emission
// points. It holds no timing or transport state.
type chunker struct {
	min, max int
	buf      strings.Builder
}

func newChunker(min, max int) *chunker {
	if min <= 0 {
		min = DefaultMinChunkChars
	}
	if max <= 0 {
		max = DefaultMaxChunkChars
	}
	return &chunker{min: min, max: max}
}

// append adds one incoming fragment to the buffer.
func (c *chunker) append(fragment string) {
	c.buf.WriteString(fragment)
}

// ready reports whether the buffer should be emitted: at or past the max
// size, or at the min size with a trailing phrase boundary.
func (c *chunker) ready() bool {
	n := c.buf.Len()
	if n >= c.max {
		return true
	}
	if n < c.min {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(c.buf.String())
	return isPhraseBoundary(r)
}

// take returns the trimmed buffer contents and resets it.
func (c *chunker) take() string {
	s := strings.TrimSpace(c.buf.String())
	c.buf.Reset()
	return s
}

func (c *chunker) len() int {
	return c.buf.Len()
}

// isPhraseBoundary reports whether r signals a natural pause point in
// speech-like text.
func isPhraseBoundary(r rune) bool {
	switch r {
	case '.', '!', '?', ',', ';', ':', '\n':
		return true
	}
	return false
}
