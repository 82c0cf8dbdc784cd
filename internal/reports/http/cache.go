package http

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// reportCache stores serialised report responses in Redis. Reports are
// deterministic for a fixed window, so cached bytes are served as-is.
// A nil client disables caching without branching at the call sites.
type reportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func newReportCache(client *redis.Client, ttl time.Duration) *reportCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &reportCache{client: client, ttl: ttl}
}

func (c *reportCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

func (c *reportCache) Set(ctx context.Context, key string, payload []byte) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Set(ctx, key, payload, c.ttl).Err()
}

func buildCacheKey(accountBookID uuid.UUID, sheetType string, start, end time.Time) string {
	return fmt.Sprintf("reports:%s:%s:%s|%s",
		accountBookID, sheetType,
		start.Format("2006-01-02"), end.Format("2006-01-02"))
}

// trialBalanceCacheKey includes the page and sort parameters because the
// cached bytes are a fully paginated envelope.
func trialBalanceCacheKey(p listParams) string {
	return fmt.Sprintf("trial-balance:%s:%s|%s:%d:%d:%s:%s",
		p.accountBookID,
		p.start.Format("2006-01-02"), p.end.Format("2006-01-02"),
		p.page, p.pageSize, p.sortBy, p.sortOrder)
}

var reportBuildGroup singleflight.Group

// singleflightBuild collapses concurrent builds of the same report so a
// cache miss under load computes once.
func singleflightBuild(ctx context.Context, key string, fn func(context.Context) ([]byte, error)) ([]byte, error, bool) {
	resultChan := reportBuildGroup.DoChan(key, func() (interface{}, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		payload, _ := res.Val.([]byte)
		return payload, res.Err, res.Shared
	}
}
