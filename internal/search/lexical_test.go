package search

import (
	"context"
	"encoding/hex"
	"testing"

	"docstack/internal/model"
)

type fakeChunkLister struct {
	chunks    []model.Chunk
	lastScope model.Scope
}

func (f *fakeChunkLister) ListByScope(scope model.Scope) ([]model.Chunk, error) {
	f.lastScope = scope
	return f.chunks, nil
}

func textChunk(path, content string) model.Chunk {
	return model.Chunk{
		RelativePath: path,
		Content:      content,
		Encoding:     model.EncodingText,
		Size:         len([]rune(content)),
	}
}

func TestLexicalSearchRanksByOverlap(t *testing.T) {
	store := &fakeChunkLister{chunks: []model.Chunk{
		textChunk("a.txt", "the contract was renewed in march"),
		textChunk("b.txt", "quarterly revenue grew by ten percent"),
		textChunk("c.txt", "the contract renewal terms and the renewal date"),
	}}
	b := NewLexicalBackend(store)

	scope := model.Scope{Owner: "alice", Session: "s1"}
	results, err := b.Search(context.Background(), scope, "contract renewal date", 3)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if store.lastScope != scope {
		t.Fatalf("scope not forwarded to store: %+v", store.lastScope)
	}
	if len(results) == 0 || results[0].Source != "c.txt" {
		t.Fatalf("expected c.txt ranked first, got %+v", results)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("results not in descending score order: %+v", results)
		}
	}
	for _, r := range results {
		if r.Source == "b.txt" {
			t.Fatalf("zero-overlap chunk returned: %+v", r)
		}
	}
}

func TestLexicalSearchStableTies(t *testing.T) {
	store := &fakeChunkLister{chunks: []model.Chunk{
		textChunk("first.txt", "shared token alpha"),
		textChunk("second.txt", "shared token alpha"),
	}}
	b := NewLexicalBackend(store)
	results, err := b.Search(context.Background(), model.Scope{Owner: "a", Session: "s"}, "shared token", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 || results[0].Source != "first.txt" || results[1].Source != "second.txt" {
		t.Fatalf("tie order not stable: %+v", results)
	}
}

func TestLexicalSearchLimit(t *testing.T) {
	store := &fakeChunkLister{chunks: []model.Chunk{
		textChunk("a.txt", "alpha beta"),
		textChunk("b.txt", "alpha gamma"),
		textChunk("c.txt", "alpha delta"),
	}}
	b := NewLexicalBackend(store)
	results, err := b.Search(context.Background(), model.Scope{Owner: "a", Session: "s"}, "alpha", 2)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("limit not applied: %d results", len(results))
	}
}

func TestLexicalSearchDecodesHexChunks(t *testing.T) {
	payload := "binary stored words here"
	store := &fakeChunkLister{chunks: []model.Chunk{
		{
			RelativePath: "bin.dat",
			Content:      hex.EncodeToString([]byte(payload)),
			Encoding:     model.EncodingHex,
			Size:         len(payload),
		},
	}}
	b := NewLexicalBackend(store)
	results, err := b.Search(context.Background(), model.Scope{Owner: "a", Session: "s"}, "stored words", 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 || results[0].Content != payload {
		t.Fatalf("hex chunk not decoded: %+v", results)
	}
}
