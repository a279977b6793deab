package feature

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dmitrymomot/flagkit/pkg/logger"
)

// DefaultCacheTTL is how long a flag snapshot is served from the evaluation cache.
const DefaultCacheTTL = 5 * time.Minute

// Cache is a cache-aside layer in front of a Repository.
//
// Only found flags are cached; absence is never cached, so a flag created
// after a miss is visible on the next read. Repository writes do not
// invalidate entries: readers may see a snapshot up to the TTL old.
type Cache struct {
	repo    Repository
	store   CacheStore
	ttl     time.Duration
	logger  *slog.Logger
	metrics *Metrics
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCacheTTL sets the lifetime of cached snapshots.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheLogger sets the logger for cache store failures.
func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCacheMetrics records hits and misses.
func WithCacheMetrics(m *Metrics) CacheOption {
	return func(c *Cache) {
		c.metrics = m
	}
}

// NewCache creates an evaluation cache. A nil store disables caching.
func NewCache(repo Repository, store CacheStore, opts ...CacheOption) *Cache {
	if store == nil {
		store = NoopCacheStore{}
	}
	c := &Cache{
		repo:   repo,
		store:  store,
		ttl:    DefaultCacheTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("evaluation_cache"))
	return c
}

// CacheKey returns the evaluation cache key of a flag.
func CacheKey(tenantID, flagKey string) string {
	return StoreKey(tenantID, flagKey)
}

// Get returns the flag from the cache, falling back to the repository on a
// miss and populating the cache with what it found. Returns ErrFlagNotFound
// when the repository has no such flag.
func (c *Cache) Get(ctx context.Context, tenantID, flagKey string) (*Flag, error) {
	if err := validateKey(tenantID, flagKey); err != nil {
		return nil, err
	}
	key := CacheKey(tenantID, flagKey)

	if flag, ok := c.lookup(ctx, key); ok {
		c.metrics.observeCache(cacheResultHit)
		return flag, nil
	}

	c.logger.DebugContext(ctx, "cache miss, fetching from repository", logger.CacheKey(key))
	flag, err := c.repo.Get(ctx, tenantID, flagKey)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(flag)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to encode feature flag", logger.CacheKey(key), logger.Error(err))
		return flag, nil
	}
	if err := c.store.Set(ctx, key, payload, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "failed to cache feature flag", logger.CacheKey(key), logger.Error(err))
	}
	return flag, nil
}

// Invalidate evicts the cached snapshot of a flag.
func (c *Cache) Invalidate(ctx context.Context, tenantID, flagKey string) error {
	return c.store.Delete(ctx, CacheKey(tenantID, flagKey))
}

// lookup reports a usable cached snapshot. Store failures and corrupt
// payloads count as misses.
func (c *Cache) lookup(ctx context.Context, key string) (*Flag, bool) {
	payload, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.metrics.observeCache(cacheResultError)
		c.logger.WarnContext(ctx, "cache lookup failed", logger.CacheKey(key), logger.Error(err))
		return nil, false
	}
	if !ok {
		c.metrics.observeCache(cacheResultMiss)
		return nil, false
	}

	flag, err := decodeFlag(payload)
	if err != nil {
		c.metrics.observeCache(cacheResultError)
		c.logger.WarnContext(ctx, "dropping corrupt cache entry", logger.CacheKey(key), logger.Error(err))
		if derr := c.store.Delete(ctx, key); derr != nil {
			c.logger.WarnContext(ctx, "failed to drop cache entry", logger.CacheKey(key), logger.Error(derr))
		}
		return nil, false
	}
	return flag, true
}
