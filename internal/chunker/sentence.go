package chunker

import (
	"bufio"
	"iter"
	"os"
	"strings"
	"unicode"
)

// defaultAbbreviations keeps the splitter from breaking sentences at
// common abbreviation periods when no resource file is configured.
var defaultAbbreviations = []string{
	"mr", "mrs", "ms", "dr", "prof", "sr", "jr", "st",
	"vs", "etc", "e.g", "i.e", "cf", "approx", "no", "fig",
	"vol", "dept", "inc", "corp", "ltd", "co", "jan", "feb",
	"mar", "apr", "jun", "jul", "aug", "sep", "sept", "oct",
	"nov", "dec",
}

// Splitter detects sentence boundaries on '.', '!' and '?' runs.
// With an abbreviation set loaded it avoids splitting after known
// abbreviations; without one it degrades to a naive terminator split.
type Splitter struct {
	abbrevs map[string]struct{}
}

// NewSplitter builds a splitter using the abbreviation list at path.
// An empty path selects the built-in list. A missing or unreadable
// file is not an error: the splitter falls back to naive splitting.
func NewSplitter(path string) *Splitter {
	if path == "" {
		return &Splitter{abbrevs: toSet(defaultAbbreviations)}
	}
	words, err := loadAbbreviations(path)
	if err != nil {
		return &Splitter{}
	}
	return &Splitter{abbrevs: toSet(words)}
}

func loadAbbreviations(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		w := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		words = append(words, strings.TrimSuffix(w, "."))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Sentences returns a lazy, restartable sequence over the sentences of
// text, in order. Every rune of text belongs to exactly one sentence;
// trailing text without a terminator forms the final sentence. Yielded
// sentences are trimmed of surrounding whitespace and never empty.
func (s *Splitter) Sentences(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		runes := []rune(text)
		start := 0
		i := 0
		for i < len(runes) {
			if !isTerminator(runes[i]) {
				i++
				continue
			}
			// consume the full terminator run ("...", "?!")
			for i < len(runes) && isTerminator(runes[i]) {
				i++
			}
			// a boundary needs trailing whitespace or end of text
			if i < len(runes) && !unicode.IsSpace(runes[i]) {
				continue
			}
			candidate := string(runes[start:i])
			if s.endsWithAbbreviation(candidate) && i < len(runes) {
				continue
			}
			if trimmed := strings.TrimSpace(candidate); trimmed != "" {
				if !yield(trimmed) {
					return
				}
			}
			start = i
		}
		if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
			yield(rest)
		}
	}
}

// endsWithAbbreviation reports whether the candidate's final word is a
// known abbreviation, meaning the trailing period is not a boundary.
func (s *Splitter) endsWithAbbreviation(candidate string) bool {
	if len(s.abbrevs) == 0 {
		return false
	}
	trimmed := strings.TrimRight(strings.TrimSpace(candidate), ".")
	if trimmed == "" {
		return false
	}
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return false
	}
	last := strings.ToLower(fields[len(fields)-1])
	_, ok := s.abbrevs[last]
	return ok
}
