package feature

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/flagkit/pkg/logger"
	"github.com/dmitrymomot/flagkit/pkg/redis"
)

// Backend is the storage selected at startup: a repository plus the store
// used by the evaluation cache.
type Backend struct {
	Name       string
	Repository Repository
	CacheStore CacheStore
	closers    []func() error
}

// Backend names.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// OpenBackend selects the Redis backend when redisCfg carries an address and
// the in-memory backend otherwise. Demo flags are seeded when cfg.SeedDemo is set.
func OpenBackend(ctx context.Context, cfg Config, redisCfg redis.Config, log *slog.Logger) (*Backend, error) {
	if log == nil {
		log = slog.Default()
	}

	var b *Backend
	if redisCfg.Enabled() {
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return nil, err
		}
		store := redis.NewStorage(client)
		b = &Backend{
			Name: BackendRedis,
			Repository: NewRedisRepository(store,
				WithStoreTTL(cfg.StoreTTL),
				WithOperationTimeout(cfg.OperationTimeout),
				WithRepositoryLogger(log),
			),
			closers: []func() error{store.Close},
		}
		if cfg.SharedCache {
			b.CacheStore = NewRedisCacheStore(store, DefaultRedisCachePrefix,
				WithCacheStoreTimeout(cfg.OperationTimeout),
			)
		}
	} else {
		repo, err := NewMemoryRepository()
		if err != nil {
			return nil, err
		}
		b = &Backend{Name: BackendMemory, Repository: repo}
	}

	if b.CacheStore == nil {
		mem := NewMemoryCacheStore(cfg.CacheCapacity)
		b.CacheStore = mem
		b.closers = append(b.closers, mem.Close)
	}

	log.InfoContext(ctx, "feature flag backend selected", slog.String("backend", b.Name))

	if cfg.SeedDemo {
		if err := Seed(ctx, b.Repository, DemoFlags(NewEvaluator().Now())...); err != nil {
			log.WarnContext(ctx, "failed to seed demo flags", logger.Error(err))
		}
	}
	return b, nil
}

// NewService builds the facade and its evaluation cache on top of the backend.
func (b *Backend) NewService(cfg Config, log *slog.Logger, m *Metrics) *Service {
	cache := NewCache(b.Repository, b.CacheStore,
		WithCacheTTL(cfg.CacheTTL),
		WithCacheLogger(log),
		WithCacheMetrics(m),
	)
	return NewService(b.Repository, cache, WithLogger(log), WithMetrics(m))
}

// Close releases connections and background goroutines.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
