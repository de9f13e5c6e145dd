package chunker

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"docstack/internal/pkg/textnorm"
)

func collect(seq func(func(string) bool)) []string {
	var out []string
	seq(func(s string) bool {
		out = append(out, s)
		return true
	})
	return out
}

func TestSentencesBasicSplit(t *testing.T) {
	s := NewSplitter("")
	got := collect(s.Sentences("First one. Second one! Third one? Done."))
	want := []string{"First one.", "Second one!", "Third one?", "Done."}
	if len(got) != len(want) {
		t.Fatalf("expected %d sentences, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sentence %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestSentencesKeepsAbbreviations(t *testing.T) {
	s := NewSplitter("")
	got := collect(s.Sentences("Dr. Smith agreed. The offer from Acme Inc. was declined."))
	if len(got) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %v", len(got), got)
	}
	if got[0] != "Dr. Smith agreed." {
		t.Fatalf("unexpected first sentence: %q", got[0])
	}
}

func TestSentencesNaiveFallbackOnMissingResource(t *testing.T) {
	s := NewSplitter("testdata/does-not-exist.txt")
	got := collect(s.Sentences("Dr. Smith agreed. Done."))
	// naive mode splits after every terminator run
	if len(got) != 3 {
		t.Fatalf("expected naive split into 3, got %d: %v", len(got), got)
	}
}

func TestSentencesTrailingTextWithoutTerminator(t *testing.T) {
	s := NewSplitter("")
	got := collect(s.Sentences("Complete sentence. trailing fragment"))
	if len(got) != 2 || got[1] != "trailing fragment" {
		t.Fatalf("trailing fragment lost: %v", got)
	}
}

func TestSentencesRestartable(t *testing.T) {
	s := NewSplitter("")
	seq := s.Sentences("One. Two. Three.")
	first := collect(seq)
	second := collect(seq)
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("sequence not restartable: %v then %v", first, second)
	}
}

func TestChunkScenario(t *testing.T) {
	// ~80-char sentences totalling ~10,000 chars must land in 3 chunks
	// of at most 4000 runes with nothing lost.
	sentence := "The quick brown fox jumps over the lazy dog near the quiet river every day no %03d."
	var b strings.Builder
	for i := 0; b.Len() < 10000; i++ {
		fmt.Fprintf(&b, sentence+" ", i)
	}
	text := b.String()

	c := New(NewSplitter(""), textnorm.Normalizer{})
	chunks := c.Chunk(text, 4000)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if n := utf8.RuneCountInString(ch); n > 4000 {
			t.Fatalf("chunk %d exceeds bound: %d runes", i, n)
		}
		if strings.TrimSpace(ch) == "" {
			t.Fatalf("chunk %d is empty", i)
		}
	}
	norm := textnorm.Normalizer{}
	if strings.Join(chunks, " ") != norm.Normalize(text) {
		t.Fatal("concatenated chunks do not reconstruct the normalized text")
	}
}

func TestChunkReconstruction(t *testing.T) {
	texts := []string{
		"One short sentence.",
		"Alpha beta. Gamma delta! Epsilon?   Zeta eta theta.",
		"No terminator at all just words",
		"Mixed. content? with!  runs... and a tail",
	}
	norm := textnorm.Normalizer{}
	c := New(NewSplitter(""), norm)
	for _, text := range texts {
		for _, max := range []int{10, 25, 1000} {
			chunks := c.Chunk(text, max)
			if strings.Join(chunks, " ") != norm.Normalize(text) {
				t.Fatalf("reconstruction failed for %q max=%d: %v", text, max, chunks)
			}
		}
	}
}

func TestChunkOversizedSentenceEmittedWhole(t *testing.T) {
	long := strings.Repeat("word ", 40) + "end."
	text := "Tiny one. " + long + " Tiny two."
	c := New(NewSplitter(""), textnorm.Normalizer{})
	chunks := c.Chunk(text, 30)
	found := false
	for _, ch := range chunks {
		if utf8.RuneCountInString(ch) > 30 {
			if !strings.HasSuffix(ch, "end.") {
				t.Fatalf("oversized chunk was split mid-sentence: %q", ch)
			}
			found = true
		}
	}
	if !found {
		t.Fatalf("oversized sentence was truncated: %v", chunks)
	}
}

func TestChunkDiscardsEmptyInput(t *testing.T) {
	c := New(NewSplitter(""), textnorm.Normalizer{})
	if got := c.Chunk("", 100); len(got) != 0 {
		t.Fatalf("expected no chunks for empty text, got %v", got)
	}
	if got := c.Chunk("   \n\t  ", 100); len(got) != 0 {
		t.Fatalf("expected no chunks for whitespace text, got %v", got)
	}
}

func TestChunkBytesFixedWindows(t *testing.T) {
	data := []byte("abcdefghij")
	windows := ChunkBytes(data, 4)
	if len(windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(windows))
	}
	if !bytes.Equal(windows[0], []byte("abcd")) || !bytes.Equal(windows[2], []byte("ij")) {
		t.Fatalf("unexpected windows: %q", windows)
	}
	if !bytes.Equal(bytes.Join(windows, nil), data) {
		t.Fatal("windows do not reconstruct input")
	}
}

func TestChunkBytesEmpty(t *testing.T) {
	if got := ChunkBytes(nil, 8); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}
