package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"docstack/internal/model"
)

// ExchangeCache keeps a scope's recent Q&A history in Redis. A short
// dirty marker suppresses re-population while an async persist of a
// fresh exchange may still be in flight.
type ExchangeCache struct {
	client         *redisv9.Client
	historyTTL     time.Duration
	dirtyMarkerTTL time.Duration
}

func NewExchangeCache(client *redisv9.Client, historyTTL, dirtyMarkerTTL time.Duration) *ExchangeCache {
	if historyTTL <= 0 {
		historyTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &ExchangeCache{
		client:         client,
		historyTTL:     historyTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *ExchangeCache) GetHistory(ctx context.Context, scope model.Scope, limit int) ([]model.Exchange, bool, error) {
	raw, err := c.client.Get(ctx, c.historyKey(scope, limit)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get history failed: %w", err)
	}

	var exchanges []model.Exchange
	if err := json.Unmarshal([]byte(raw), &exchanges); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached history failed: %w", err)
	}
	return exchanges, true, nil
}

func (c *ExchangeCache) SetHistory(ctx context.Context, scope model.Scope, limit int, exchanges []model.Exchange) error {
	payload, err := json.Marshal(exchanges)
	if err != nil {
		return fmt.Errorf("marshal history cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.historyKey(scope, limit), payload, c.historyTTL).Err(); err != nil {
		return fmt.Errorf("redis set history failed: %w", err)
	}
	return nil
}

// DeleteHistory drops every cached list for the scope, across all
// limits callers may have used.
func (c *ExchangeCache) DeleteHistory(ctx context.Context, scope model.Scope) error {
	pattern := fmt.Sprintf("qa:history:%s:%s:*", scope.Owner, scope.Session)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan history keys failed: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete history failed: %w", err)
	}
	return nil
}

func (c *ExchangeCache) MarkDirty(ctx context.Context, scope model.Scope) error {
	if err := c.client.Set(ctx, c.dirtyKey(scope), "1", c.dirtyMarkerTTL).Err(); err != nil {
		return fmt.Errorf("redis set dirty marker failed: %w", err)
	}
	return nil
}

func (c *ExchangeCache) IsDirty(ctx context.Context, scope model.Scope) (bool, error) {
	exists, err := c.client.Exists(ctx, c.dirtyKey(scope)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func (c *ExchangeCache) historyKey(scope model.Scope, limit int) string {
	return fmt.Sprintf("qa:history:%s:%s:%d", scope.Owner, scope.Session, limit)
}

func (c *ExchangeCache) dirtyKey(scope model.Scope) string {
	return fmt.Sprintf("qa:history:dirty:%s:%s", scope.Owner, scope.Session)
}
