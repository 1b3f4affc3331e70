package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const versionKey = "mealcheck:stats:ver"

// Cache keeps computed aggregates in redis behind a version counter. Every
// account or ledger mutation bumps the version, orphaning all cached
// entries at once, so reported counts never outlive the data they came
// from. Old versions expire via TTL.
//
// Key resolution is a separate step from the write: callers pin the
// versioned key before reading the store, so a version bump that lands
// during the read orphans the write instead of blessing stale counts
// under the new version.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache creates a cache. A nil client disables caching entirely.
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// Invalidate bumps the version counter. Failures are logged and ignored:
// a missed bump only shortens cache reuse, it cannot resurrect stale data
// because reads re-fetch the version on every lookup.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Incr(ctx, versionKey).Err(); err != nil {
		log.Warn().Err(err).Msg("stats cache invalidation failed")
	}
}

func (c *Cache) key(ctx context.Context, suffix string) string {
	if c == nil || c.rdb == nil {
		return ""
	}
	ver, err := c.rdb.Get(ctx, versionKey).Int64()
	if err != nil && err != redis.Nil {
		return ""
	}
	return fmt.Sprintf("mealcheck:stats:v%d:%s", ver, suffix)
}

func (c *Cache) get(ctx context.Context, key string, dst any) bool {
	if c == nil || c.rdb == nil || key == "" {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (c *Cache) set(ctx context.Context, key string, v any) {
	if c == nil || c.rdb == nil || key == "" {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, key, raw, c.ttl).Err()
}

// SummaryKey resolves the current versioned key for a schedule summary.
// Empty means the cache is unavailable.
func (c *Cache) SummaryKey(ctx context.Context, scheduleID int64) string {
	return c.key(ctx, fmt.Sprintf("summary:%d", scheduleID))
}

// GetSummary looks up a cached schedule summary under a pinned key.
func (c *Cache) GetSummary(ctx context.Context, key string) (ScheduleSummary, bool) {
	var s ScheduleSummary
	ok := c.get(ctx, key, &s)
	return s, ok
}

// SetSummary stores a schedule summary under a pinned key.
func (c *Cache) SetSummary(ctx context.Context, key string, s ScheduleSummary) {
	c.set(ctx, key, s)
}

// StatisticsKey resolves the current versioned key for user statistics.
func (c *Cache) StatisticsKey(ctx context.Context) string {
	return c.key(ctx, "users")
}

// GetStatistics looks up cached user statistics under a pinned key.
func (c *Cache) GetStatistics(ctx context.Context, key string) (UserStatistics, bool) {
	var st UserStatistics
	ok := c.get(ctx, key, &st)
	return st, ok
}

// SetStatistics stores user statistics under a pinned key.
func (c *Cache) SetStatistics(ctx context.Context, key string, st UserStatistics) {
	c.set(ctx, key, st)
}
