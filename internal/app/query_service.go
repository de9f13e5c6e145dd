package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"docstack/internal/ai"
	"docstack/internal/model"
	"docstack/internal/search"
)

var (
	// ErrNoMatches is the explicit nothing-found signal; the generator
	// is never called when retrieval comes back empty.
	ErrNoMatches = errors.New("no matching passages found")
	// ErrGeneration marks a failed generation call so the transport can
	// answer with a readable message instead of a crash.
	ErrGeneration = errors.New("could not generate a response")
)

const contextSeparator = "\n---\n"

// Generator is the external text-generation capability.
type Generator interface {
	Complete(ctx context.Context, cfg ai.GenerationConfig, prompt string) (string, error)
}

// AsyncExchangePublisher hands answered exchanges off for background
// persistence.
type AsyncExchangePublisher interface {
	Publish(ctx context.Context, exchange model.Exchange) error
}

// HistoryCache holds a scope's recent exchanges. Entries are keyed by
// (scope, limit) so callers with different limits never see each
// other's lists; invalidation covers the whole scope.
type HistoryCache interface {
	GetHistory(ctx context.Context, scope model.Scope, limit int) ([]model.Exchange, bool, error)
	SetHistory(ctx context.Context, scope model.Scope, limit int, exchanges []model.Exchange) error
	DeleteHistory(ctx context.Context, scope model.Scope) error
	MarkDirty(ctx context.Context, scope model.Scope) error
	IsDirty(ctx context.Context, scope model.Scope) (bool, error)
}

// ExchangeLister reads persisted exchanges for a scope.
type ExchangeLister interface {
	ListByScope(scope model.Scope, limit int) ([]model.Exchange, error)
}

// QueryService answers questions over a scope's ingested chunks:
// bounded-retry retrieval, then synthesis via the generation backend
// or a deterministic template when none is configured.
type QueryService struct {
	backend      search.Backend
	generator    Generator
	genConfig    ai.GenerationConfig
	publisher    AsyncExchangePublisher
	historyCache HistoryCache
	exchangeRepo ExchangeLister
	attempts     int
	retryDelay   time.Duration
	defaultLimit int
	logger       *slog.Logger
}

func NewQueryService(
	backend search.Backend,
	generator Generator,
	genConfig ai.GenerationConfig,
	publisher AsyncExchangePublisher,
	historyCache HistoryCache,
	exchangeRepo ExchangeLister,
	attempts int,
	retryDelay time.Duration,
	defaultLimit int,
	logger *slog.Logger,
) *QueryService {
	if attempts <= 0 {
		attempts = 3
	}
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}
	if defaultLimit <= 0 {
		defaultLimit = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryService{
		backend:      backend,
		generator:    generator,
		genConfig:    genConfig,
		publisher:    publisher,
		historyCache: historyCache,
		exchangeRepo: exchangeRepo,
		attempts:     attempts,
		retryDelay:   retryDelay,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// Retrieve runs the bounded retry loop against the search backend.
// A non-empty result short-circuits; a transient failure or empty
// result is retried with a fixed delay unless this was the final
// attempt. A final-attempt error propagates; exhausting the budget on
// empty results returns an empty slice. The inter-attempt wait honors
// the caller's deadline.
func (s *QueryService) Retrieve(ctx context.Context, scope model.Scope, query string, limit int) ([]search.Result, error) {
	if !scope.Valid() {
		return nil, ErrScopeRequired
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}

	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		results, err := s.backend.Search(ctx, scope, query, limit)
		if err == nil && len(results) > 0 {
			// backends rank already; enforce descending order with
			// insertion-stable ties regardless
			sort.SliceStable(results, func(i, j int) bool {
				return results[i].Score > results[j].Score
			})
			return results, nil
		}
		lastErr = err
		if attempt == s.attempts {
			break
		}
		s.logger.Warn("retrieval attempt unsuccessful, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", s.attempts))
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("retrieval failed after %d attempts: %w", s.attempts, lastErr)
	}
	return nil, nil
}

func (s *QueryService) wait(ctx context.Context) error {
	timer := time.NewTimer(s.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// AnswerResult is a synthesized answer with the passages behind it.
type AnswerResult struct {
	Answer     string          `json:"answer"`
	Results    []search.Result `json:"results"`
	MatchCount int             `json:"match_count"`
}

// Answer retrieves relevant chunks for the question and synthesizes a
// response. Without a configured generator it returns a deterministic
// templated answer built from the match count and context.
func (s *QueryService) Answer(ctx context.Context, scope model.Scope, question string, limit int) (*AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrInvalidInput
	}

	results, err := s.Retrieve(ctx, scope, question, limit)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoMatches
	}

	contextBlob := buildContext(results)

	var answer string
	if s.generator != nil && s.genConfig.Configured() {
		prompt := "Answer the question using only the context below. " +
			"If the context does not contain the answer, say so.\n\n" +
			"Context:\n" + contextBlob + "\n\nQuestion: " + question + "\n\nAnswer:"
		generated, genErr := s.generator.Complete(ctx, s.genConfig, prompt)
		if genErr != nil {
			s.logger.Error("generation failed", slog.String("error", genErr.Error()))
			return nil, fmt.Errorf("%w: %s", ErrGeneration, genErr)
		}
		answer = strings.TrimSpace(generated)
	} else {
		answer = fmt.Sprintf("Found %d matching passages.\n\n%s", len(results), contextBlob)
	}

	s.recordExchange(ctx, scope, question, answer, len(results))

	return &AnswerResult{
		Answer:     answer,
		Results:    results,
		MatchCount: len(results),
	}, nil
}

func buildContext(results []search.Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Content)
	}
	return strings.Join(parts, contextSeparator)
}

// recordExchange enqueues the exchange for async persistence and
// invalidates the cached history. Best effort: a logging failure here
// never fails an already-synthesized answer.
func (s *QueryService) recordExchange(ctx context.Context, scope model.Scope, question, answer string, matches int) {
	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, scope)
		_ = s.historyCache.DeleteHistory(ctx, scope)
	}
	if s.publisher == nil {
		return
	}
	exchange := model.Exchange{
		Username:   scope.Owner,
		SessionID:  scope.Session,
		Question:   question,
		Answer:     answer,
		MatchCount: matches,
		CreatedAt:  time.Now(),
	}
	if err := s.publisher.Publish(ctx, exchange); err != nil {
		s.logger.Error("publish exchange failed", slog.String("error", err.Error()))
	}
}

// History returns the scope's answered exchanges, cache first.
func (s *QueryService) History(ctx context.Context, scope model.Scope, limit int) ([]model.Exchange, error) {
	if !scope.Valid() {
		return nil, ErrScopeRequired
	}

	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, scope)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, scope, limit); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	exchanges, err := s.exchangeRepo.ListByScope(scope, limit)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, scope); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, scope, limit, exchanges)
		}
	}
	return exchanges, nil
}
