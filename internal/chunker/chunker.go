package chunker

import (
	"strings"
	"unicode/utf8"

	"docstack/internal/pkg/textnorm"
)

// Chunker accumulates sentences into bounded-size chunks. Text chunk
// sizes are measured in runes; binary windows in bytes. The two units
// are never mixed within one file's chunk set.
type Chunker struct {
	splitter *Splitter
	norm     textnorm.Normalizer
}

func New(splitter *Splitter, norm textnorm.Normalizer) *Chunker {
	if splitter == nil {
		splitter = NewSplitter("")
	}
	return &Chunker{splitter: splitter, norm: norm}
}

// Chunk splits text into an ordered sequence of chunks of at most
// maxSize runes each. Sentences are accumulated greedily; a buffer is
// flushed when the next sentence would push it over maxSize. A single
// sentence longer than maxSize is emitted whole rather than truncated.
// Empty and whitespace-only chunks are discarded.
func (c *Chunker) Chunk(text string, maxSize int) []string {
	if maxSize <= 0 {
		return nil
	}
	var chunks []string
	var buf strings.Builder
	bufLen := 0

	flush := func() {
		if bufLen == 0 {
			return
		}
		if normalized := c.norm.Normalize(buf.String()); normalized != "" {
			chunks = append(chunks, normalized)
		}
		buf.Reset()
		bufLen = 0
	}

	for sentence := range c.splitter.Sentences(text) {
		sentLen := utf8.RuneCountInString(sentence)
		// +1 for the joining space
		if bufLen > 0 && bufLen+1+sentLen > maxSize {
			flush()
		}
		if bufLen > 0 {
			buf.WriteByte(' ')
			bufLen++
		}
		buf.WriteString(sentence)
		bufLen += sentLen
	}
	flush()
	return chunks
}

// ChunkBytes splits raw bytes into fixed windows of exactly maxSize
// bytes; the final window may be shorter. No sentence logic applies.
func ChunkBytes(data []byte, maxSize int) [][]byte {
	if maxSize <= 0 || len(data) == 0 {
		return nil
	}
	windows := make([][]byte, 0, (len(data)+maxSize-1)/maxSize)
	for start := 0; start < len(data); start += maxSize {
		end := start + maxSize
		if end > len(data) {
			end = len(data)
		}
		windows = append(windows, data[start:end])
	}
	return windows
}
