package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"docstack/internal/ai"
	"docstack/internal/model"
	"docstack/internal/search"
)

// scriptedBackend returns one scripted step per attempt.
type scriptedBackend struct {
	steps []func() ([]search.Result, error)
	calls int
}

func (b *scriptedBackend) Search(ctx context.Context, scope model.Scope, query string, limit int) ([]search.Result, error) {
	step := b.steps[b.calls]
	b.calls++
	return step()
}

func failStep(msg string) func() ([]search.Result, error) {
	return func() ([]search.Result, error) { return nil, errors.New(msg) }
}

func emptyStep() func() ([]search.Result, error) {
	return func() ([]search.Result, error) { return nil, nil }
}

func okStep(results ...search.Result) func() ([]search.Result, error) {
	return func() ([]search.Result, error) { return results, nil }
}

type fakeGenerator struct {
	answer string
	err    error
	calls  int
}

func (g *fakeGenerator) Complete(ctx context.Context, cfg ai.GenerationConfig, prompt string) (string, error) {
	g.calls++
	return g.answer, g.err
}

type fakePublisher struct {
	published []model.Exchange
}

func (p *fakePublisher) Publish(ctx context.Context, exchange model.Exchange) error {
	p.published = append(p.published, exchange)
	return nil
}

type fakeExchangeLister struct {
	exchanges []model.Exchange
}

// ListByScope mirrors the store contract: the limit keeps the newest
// entries, returned in ascending display order.
func (f *fakeExchangeLister) ListByScope(scope model.Scope, limit int) ([]model.Exchange, error) {
	if limit > 0 && len(f.exchanges) > limit {
		return f.exchanges[len(f.exchanges)-limit:], nil
	}
	return f.exchanges, nil
}

type fakeHistoryCache struct {
	entries map[string][]model.Exchange
	dirty   bool
}

func newFakeHistoryCache() *fakeHistoryCache {
	return &fakeHistoryCache{entries: map[string][]model.Exchange{}}
}

func (f *fakeHistoryCache) key(scope model.Scope, limit int) string {
	return fmt.Sprintf("%s:%s:%d", scope.Owner, scope.Session, limit)
}

func (f *fakeHistoryCache) GetHistory(ctx context.Context, scope model.Scope, limit int) ([]model.Exchange, bool, error) {
	cached, ok := f.entries[f.key(scope, limit)]
	return cached, ok, nil
}

func (f *fakeHistoryCache) SetHistory(ctx context.Context, scope model.Scope, limit int, exchanges []model.Exchange) error {
	f.entries[f.key(scope, limit)] = exchanges
	return nil
}

func (f *fakeHistoryCache) DeleteHistory(ctx context.Context, scope model.Scope) error {
	f.entries = map[string][]model.Exchange{}
	return nil
}

func (f *fakeHistoryCache) MarkDirty(ctx context.Context, scope model.Scope) error {
	f.dirty = true
	return nil
}

func (f *fakeHistoryCache) IsDirty(ctx context.Context, scope model.Scope) (bool, error) {
	return f.dirty, nil
}

var testScope = model.Scope{Owner: "alice", Session: "s1"}

func newTestQueryService(backend search.Backend, gen Generator, genCfg ai.GenerationConfig, pub AsyncExchangePublisher) *QueryService {
	return NewQueryService(
		backend,
		gen,
		genCfg,
		pub,
		nil,
		&fakeExchangeLister{},
		3,
		time.Millisecond,
		3,
		nil,
	)
}

func TestRetrieveSucceedsAfterTransientFailures(t *testing.T) {
	backend := &scriptedBackend{steps: []func() ([]search.Result, error){
		failStep("connection refused"),
		failStep("connection refused"),
		okStep(search.Result{Content: "hit", Source: "a.txt", Score: 0.8}),
	}}
	svc := newTestQueryService(backend, nil, ai.GenerationConfig{}, nil)

	results, err := svc.Retrieve(context.Background(), testScope, "query", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, 3, backend.calls)
}

func TestRetrievePropagatesFinalError(t *testing.T) {
	backend := &scriptedBackend{steps: []func() ([]search.Result, error){
		failStep("down"), failStep("down"), failStep("still down"),
	}}
	svc := newTestQueryService(backend, nil, ai.GenerationConfig{}, nil)

	_, err := svc.Retrieve(context.Background(), testScope, "query", 3)
	require.Error(t, err)
	require.Contains(t, err.Error(), "after 3 attempts")
	require.Contains(t, err.Error(), "still down")
	require.Equal(t, 3, backend.calls)
}

func TestRetrieveEmptyExhaustsWithoutError(t *testing.T) {
	backend := &scriptedBackend{steps: []func() ([]search.Result, error){
		emptyStep(), emptyStep(), emptyStep(),
	}}
	svc := newTestQueryService(backend, nil, ai.GenerationConfig{}, nil)

	results, err := svc.Retrieve(context.Background(), testScope, "query", 3)
	require.NoError(t, err)
	require.Empty(t, results)
	// the final empty attempt is not retried past the budget
	require.Equal(t, 3, backend.calls)
}

func TestRetrieveShortCircuitsOnFirstHit(t *testing.T) {
	backend := &scriptedBackend{steps: []func() ([]search.Result, error){
		okStep(search.Result{Content: "hit", Score: 1}),
		failStep("should never be reached"),
	}}
	svc := newTestQueryService(backend, nil, ai.GenerationConfig{}, nil)

	_, err := svc.Retrieve(context.Background(), testScope, "query", 3)
	require.NoError(t, err)
	require.Equal(t, 1, backend.calls)
}

func TestRetrieveHonorsDeadlineDuringDelay(t *testing.T) {
	backend := &scriptedBackend{steps: []func() ([]search.Result, error){
		failStep("down"), failStep("down"), failStep("down"),
	}}
	svc := NewQueryService(backend, nil, ai.GenerationConfig{}, nil, nil, &fakeExchangeLister{}, 3, time.Minute, 3, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := svc.Retrieve(ctx, testScope, "query", 3)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 1, backend.calls)
}

func TestRetrieveSortsDescendingWithStableTies(t *testing.T) {
	backend := &scriptedBackend{steps: []func() ([]search.Result, error){
		okStep(
			search.Result{Content: "low", Score: 0.1},
			search.Result{Content: "tie-first", Score: 0.5},
			search.Result{Content: "tie-second", Score: 0.5},
			search.Result{Content: "high", Score: 0.9},
		),
	}}
	svc := newTestQueryService(backend, nil, ai.GenerationConfig{}, nil)

	results, err := svc.Retrieve(context.Background(), testScope, "query", 10)
	require.NoError(t, err)
	require.Equal(t, "high", results[0].Content)
	require.Equal(t, "tie-first", results[1].Content)
	require.Equal(t, "tie-second", results[2].Content)
	require.Equal(t, "low", results[3].Content)
}

func TestAnswerNothingFound(t *testing.T) {
	backend := &scriptedBackend{steps: []func() ([]search.Result, error){
		emptyStep(), emptyStep(), emptyStep(),
	}}
	gen := &fakeGenerator{answer: "should not run"}
	cfg := ai.GenerationConfig{BaseURL: "http://llm", Model: "m"}
	svc := newTestQueryService(backend, gen, cfg, nil)

	_, err := svc.Answer(context.Background(), testScope, "anything?", 3)
	require.ErrorIs(t, err, ErrNoMatches)
	require.Zero(t, gen.calls)
}

func TestAnswerTemplateFallbackWithoutGenerator(t *testing.T) {
	backend := &scriptedBackend{steps: []func() ([]search.Result, error){
		okStep(
			search.Result{Content: "first passage", Score: 0.9},
			search.Result{Content: "second passage", Score: 0.4},
		),
	}}
	svc := newTestQueryService(backend, nil, ai.GenerationConfig{}, nil)

	result, err := svc.Answer(context.Background(), testScope, "what?", 3)
	require.NoError(t, err)
	require.Equal(t, 2, result.MatchCount)
	require.Contains(t, result.Answer, "Found 2 matching passages")
	require.Contains(t, result.Answer, "first passage")
	require.Contains(t, result.Answer, "second passage")
}

func TestAnswerUsesGenerator(t *testing.T) {
	backend := &scriptedBackend{steps: []func() ([]search.Result, error){
		okStep(search.Result{Content: "context passage", Score: 0.9}),
	}}
	gen := &fakeGenerator{answer: "  a generated answer  "}
	cfg := ai.GenerationConfig{BaseURL: "http://llm", Model: "m"}
	pub := &fakePublisher{}
	svc := newTestQueryService(backend, gen, cfg, pub)

	result, err := svc.Answer(context.Background(), testScope, "what?", 3)
	require.NoError(t, err)
	require.Equal(t, "a generated answer", result.Answer)
	require.Equal(t, 1, gen.calls)

	require.Len(t, pub.published, 1)
	require.Equal(t, "alice", pub.published[0].Username)
	require.Equal(t, "s1", pub.published[0].SessionID)
	require.Equal(t, 1, pub.published[0].MatchCount)
}

func TestHistoryKeepsNewestAndCachesPerLimit(t *testing.T) {
	lister := &fakeExchangeLister{exchanges: []model.Exchange{
		{Question: "q1"}, {Question: "q2"}, {Question: "q3"},
	}}
	cacheFake := newFakeHistoryCache()
	svc := NewQueryService(nil, nil, ai.GenerationConfig{}, nil, cacheFake, lister, 3, time.Millisecond, 3, nil)

	newest, err := svc.History(context.Background(), testScope, 1)
	require.NoError(t, err)
	require.Len(t, newest, 1)
	require.Equal(t, "q3", newest[0].Question)

	// a wider limit must not reuse the narrower cached list
	all, err := svc.History(context.Background(), testScope, 3)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "q1", all[0].Question)
	require.Len(t, cacheFake.entries, 2)
}

func TestAnswerGenerationFailureIsReadable(t *testing.T) {
	backend := &scriptedBackend{steps: []func() ([]search.Result, error){
		okStep(search.Result{Content: "context", Score: 0.9}),
	}}
	gen := &fakeGenerator{err: fmt.Errorf("model overloaded")}
	cfg := ai.GenerationConfig{BaseURL: "http://llm", Model: "m"}
	svc := newTestQueryService(backend, gen, cfg, nil)

	_, err := svc.Answer(context.Background(), testScope, "what?", 3)
	require.ErrorIs(t, err, ErrGeneration)
}
