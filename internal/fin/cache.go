package fin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "fin:report:"

// Cache memoizes compiled reports in redis. Closed periods never change, so
// their reports are safe to serve from cache indefinitely; the TTL only
// bounds storage.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache wraps a redis client. A nil client degrades to a no-op cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached report for a period, if any.
func (c *Cache) Get(ctx context.Context, period string) (*Report, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, cacheKeyPrefix+period).Bytes()
	if err != nil {
		return nil, false
	}
	var report Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, false
	}
	return &report, true
}

// Set stores a compiled report.
func (c *Cache) Set(ctx context.Context, report *Report) error {
	if c == nil || c.client == nil || report == nil {
		return nil
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("fin: encode report: %w", err)
	}
	return c.client.Set(ctx, cacheKeyPrefix+report.Period, payload, c.ttl).Err()
}

// Invalidate drops a period's cached report.
func (c *Cache) Invalidate(ctx context.Context, period string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, cacheKeyPrefix+period).Err()
}
