package ollama

import (
	"strings"
	"testing"
)

func TestChunkerBoundaryEmission(t *testing.T) {
	c := newChunker(10, 50)

	c.append("Cessna one")
	if c.ready() {
		t.Errorf("no boundary yet, should not be ready")
	}
	c.append(" two three,")
	if !c.ready() {
		t.Errorf("min reached with trailing comma, should be ready")
	}
	got := c.take()
	if got != "Cessna one two three," {
		t.Errorf("unexpected chunk %q", got)
	}
	if c.len() != 0 {
		t.Errorf("buffer should reset after take")
	}
}

func TestChunkerBelowMinNotReady(t *testing.T) {
	c := newChunker(20, 100)
	c.append("Roger.")
	if c.ready() {
		t.Errorf("boundary below min size should not emit")
	}
}

func TestChunkerMaxSizeForcesEmission(t *testing.T) {
	c := newChunker(20, 40)
	c.append(strings.Repeat("x", 39))
	if c.ready() {
		t.Errorf("39 < max, not ready without boundary")
	}
	c.append("xx")
	if !c.ready() {
		t.Errorf("past max size, must be ready regardless of boundary")
	}
}

func TestChunkerMaxOverrunBoundedByOneFragment(t *testing.T) {
	c := newChunker(5, 10)
	frag := "abcdefg"
	for !c.ready() {
		c.append(frag)
	}
	if c.len() > 10+len(frag) {
		t.Errorf("raw length %d exceeds max by more than one fragment", c.len())
	}
}

func TestChunkerTakeTrims(t *testing.T) {
	c := newChunker(1, 100)
	c.append("  descend and maintain three thousand.  ")
	if got := c.take(); got != "descend and maintain three thousand." {
		t.Errorf("expected trimmed text, got %q", got)
	}
}

func TestPhraseBoundaryRunes(t *testing.T) {
	for _, r := range []rune{'.', '!', '?', ',', ';', ':', '\n'} {
		if !isPhraseBoundary(r) {
			t.Errorf("expected %q to be a boundary", r)
		}
	}
	for _, r := range []rune{'a', ' ', '-', '0'} {
		if isPhraseBoundary(r) {
			t.Errorf("did not expect %q to be a boundary", r)
		}
	}
}
