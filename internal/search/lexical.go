package search

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"docstack/internal/model"
)

// ChunkLister is the scoped read the lexical backend needs from the
// chunk store.
type ChunkLister interface {
	ListByScope(scope model.Scope) ([]model.Chunk, error)
}

// LexicalBackend ranks the scope's own chunk rows by token overlap.
// It serves as the retrieval backend when no remote search service is
// configured, and its scoring is deliberately simple: the Ochiai
// coefficient over the distinct-token sets of query and chunk.
type LexicalBackend struct {
	chunks ChunkLister
}

func NewLexicalBackend(chunks ChunkLister) *LexicalBackend {
	return &LexicalBackend{chunks: chunks}
}

var wordPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

func (b *LexicalBackend) Search(ctx context.Context, scope model.Scope, query string, limit int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	chunks, err := b.chunks.ListByScope(scope)
	if err != nil {
		return nil, err
	}

	qset := tokenSet(query)
	results := make([]Result, 0, len(chunks))
	for i := range chunks {
		content := chunks[i].DecodedContent()
		score := ochiai(qset, tokenSet(content))
		if score <= 0 {
			continue
		}
		results = append(results, Result{
			Content: content,
			Source:  chunks[i].RelativePath,
			Size:    chunks[i].Size,
			Score:   score,
		})
	}

	// descending by score; stable keeps insertion order on ties
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func tokenSet(s string) map[string]struct{} {
	tokens := wordPattern.FindAllString(strings.ToLower(s), -1)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

// ochiai computes |A∩B| / sqrt(|A|*|B|).
func ochiai(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(a))*float64(len(b)))
}
