package redis

import (
	"context"
	"errors"
	"time"

	"github.com/vulnreport/api/internal/app"
)

const summaryCacheKey = "dashboard:summary"

// SummaryCache adapts the generic cache to the dashboard's contract:
// a miss is reported as (nil, nil), not an error.
type SummaryCache struct {
	cache *Cache[app.DashboardSummary]
}

// NewSummaryCache creates the dashboard summary cache.
func NewSummaryCache(client *Client, ttl time.Duration) (*SummaryCache, error) {
	cache, err := NewCache[app.DashboardSummary](client, "vulnreport", ttl)
	if err != nil {
		return nil, err
	}
	return &SummaryCache{cache: cache}, nil
}

// Get retrieves the cached summary, or (nil, nil) on a miss.
func (c *SummaryCache) Get(ctx context.Context) (*app.DashboardSummary, error) {
	summary, err := c.cache.Get(ctx, summaryCacheKey)
	if errors.Is(err, ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// Set stores the summary with the configured TTL.
func (c *SummaryCache) Set(ctx context.Context, value app.DashboardSummary) error {
	return c.cache.Set(ctx, summaryCacheKey, value)
}
