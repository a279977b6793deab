package feature

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/dmitrymomot/flagkit/pkg/redis"
)

// CacheStore holds serialized flag snapshots for a bounded time.
type CacheStore interface {
	// Get returns the stored payload and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores the payload until ttl elapses. Non-positive ttl is a no-op.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete evicts the key.
	Delete(ctx context.Context, key string) error
}

// NoopCacheStore never stores anything; every lookup is a miss.
type NoopCacheStore struct{}

func (NoopCacheStore) Get(context.Context, string) ([]byte, bool, error)         { return nil, false, nil }
func (NoopCacheStore) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NoopCacheStore) Delete(context.Context, string) error                     { return nil }

// DefaultCacheCapacity bounds the number of snapshots held in process memory.
const DefaultCacheCapacity = 10_000

// MemoryCacheStore keeps snapshots in a process-local TTL cache.
// Entries expire at an absolute time; reads do not extend their lifetime.
type MemoryCacheStore struct {
	cache *ttlcache.Cache[string, []byte]
}

// NewMemoryCacheStore creates a store holding at most capacity entries.
// Call Close to stop the background expiration loop.
func NewMemoryCacheStore(capacity uint64) *MemoryCacheStore {
	if capacity == 0 {
		capacity = DefaultCacheCapacity
	}
	c := ttlcache.New[string, []byte](
		ttlcache.WithCapacity[string, []byte](capacity),
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go c.Start()
	return &MemoryCacheStore{cache: c}
}

func (s *MemoryCacheStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	item := s.cache.Get(key)
	if item == nil {
		return nil, false, nil
	}
	return append([]byte(nil), item.Value()...), true, nil
}

func (s *MemoryCacheStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.cache.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

func (s *MemoryCacheStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

// Len returns the number of live entries.
func (s *MemoryCacheStore) Len() int {
	return s.cache.Len()
}

// Close stops the expiration loop.
func (s *MemoryCacheStore) Close() error {
	s.cache.Stop()
	return nil
}

// DefaultRedisCachePrefix separates evaluation cache entries from the
// repository's own flag:{tenant}:{key} records in a shared Redis database.
const DefaultRedisCachePrefix = "eval:"

// RedisCacheStore keeps snapshots in Redis so every instance shares them.
// Every call is bounded by the operation timeout.
type RedisCacheStore struct {
	store   *redis.Storage
	prefix  string
	timeout time.Duration
}

// RedisCacheStoreOption configures a RedisCacheStore.
type RedisCacheStoreOption func(*RedisCacheStore)

// WithCacheStoreTimeout bounds every Redis call of the store.
func WithCacheStoreTimeout(d time.Duration) RedisCacheStoreOption {
	return func(s *RedisCacheStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewRedisCacheStore creates a Redis-backed store. An empty prefix selects
// DefaultRedisCachePrefix. Calls time out after DefaultOperationTimeout
// unless WithCacheStoreTimeout says otherwise.
func NewRedisCacheStore(store *redis.Storage, prefix string, opts ...RedisCacheStoreOption) *RedisCacheStore {
	if prefix == "" {
		prefix = DefaultRedisCachePrefix
	}
	s := &RedisCacheStore{store: store, prefix: prefix, timeout: DefaultOperationTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisCacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	val, err := s.store.Get(ctx, s.prefix+key)
	if err != nil {
		return nil, false, err
	}
	return val, val != nil, nil
}

func (s *RedisCacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.store.Set(ctx, s.prefix+key, value, ttl)
}

func (s *RedisCacheStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.store.Delete(ctx, s.prefix+key)
}
