package search

import (
	"context"

	"docstack/internal/model"
)

// Result is a ranked retrieval hit. Score is backend-opaque and only
// meaningful for descending ordering; ties keep insertion order.
type Result struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Size    int     `json:"size"`
	Score   float64 `json:"score"`
}

// Backend ranks stored chunks against a query. Implementations must
// restrict results to the given scope; an unscoped search is a bug,
// not an optimization.
type Backend interface {
	Search(ctx context.Context, scope model.Scope, query string, limit int) ([]Result, error)
}
