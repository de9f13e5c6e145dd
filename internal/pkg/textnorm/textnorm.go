package textnorm

import (
	"regexp"
	"strings"
)

// Normalizer cleans extracted document text. Normalize is a pure function
// and is idempotent: normalizing already-normalized text changes nothing.
type Normalizer struct {
	// FixBoundarySpacing inserts a space at lower/upper and letter/digit
	// boundaries ("wordWord", "word123") to repair spacing lost during
	// OCR or layout extraction.
	FixBoundarySpacing bool
}

// mojibakeReplacer repairs the common UTF-8-decoded-as-Latin-1 artifacts
// that PDF and OCR extractors produce. Every replacement output is plain
// Unicode that no pattern on the left side matches again.
var mojibakeReplacer = strings.NewReplacer(
	"\uFEFF", "",
	"â€™", "’",
	"â€˜", "‘",
	"â€œ", "“",
	"â€", "”",
	"â€“", "–",
	"â€”", "—",
	"â€¦", "…",
	"Ã©", "é",
	"Ã¨", "è",
	"Ã¡", "á",
	"Ã­", "í",
	"Ã³", "ó",
	"Ãº", "ú",
	"Ã±", "ñ",
	"Ã¤", "ä",
	"Ã¶", "ö",
	"Ã¼", "ü",
	"ÃŸ", "ß",
	"Ã§", "ç",
	"Â·", "·",
	"Â°", "°",
	"Â", "",
	"\u00A0", " ",
)

var (
	lowerUpperBoundary  = regexp.MustCompile(`(\p{Ll})(\p{Lu})`)
	letterDigitBoundary = regexp.MustCompile(`(\p{L})(\p{N})`)
	whitespaceRun       = regexp.MustCompile(`\s+`)
)

// Normalize repairs mis-encoded sequences, optionally restores word
// boundary spacing, and collapses all whitespace runs to single spaces.
func (n Normalizer) Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	s := mojibakeReplacer.Replace(raw)
	if n.FixBoundarySpacing {
		s = lowerUpperBoundary.ReplaceAllString(s, "$1 $2")
		s = letterDigitBoundary.ReplaceAllString(s, "$1 $2")
	}
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
