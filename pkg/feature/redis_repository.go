package feature

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/flagkit/pkg/logger"
	"github.com/dmitrymomot/flagkit/pkg/redis"
)

// Defaults of the Redis-backed repository.
const (
	DefaultStoreTTL         = time.Hour
	DefaultOperationTimeout = 5 * time.Second
)

// RedisRepository stores flags in Redis, using it as a shared pseudo-database.
//
// Each flag lives under flag:{tenant}:{key} and every tenant has an ordered
// JSON list of its keys under tenant_flags:{tenant}; both expire after the
// store TTL. Index updates are read-modify-write without locking, so two
// concurrent writers for the same tenant may lose an index entry.
type RedisRepository struct {
	store   *redis.Storage
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger
}

// RedisRepositoryOption configures a RedisRepository.
type RedisRepositoryOption func(*RedisRepository)

// WithStoreTTL sets the expiration of flags and tenant indexes.
func WithStoreTTL(ttl time.Duration) RedisRepositoryOption {
	return func(r *RedisRepository) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithOperationTimeout bounds every backend call.
func WithOperationTimeout(d time.Duration) RedisRepositoryOption {
	return func(r *RedisRepository) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRepositoryLogger sets the logger used for swallowed backend failures.
func WithRepositoryLogger(l *slog.Logger) RedisRepositoryOption {
	return func(r *RedisRepository) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRedisRepository creates a repository on top of the given storage.
func NewRedisRepository(store *redis.Storage, opts ...RedisRepositoryOption) *RedisRepository {
	r := &RedisRepository{
		store:   store,
		ttl:     DefaultStoreTTL,
		timeout: DefaultOperationTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(logger.Component("redis_flag_repository"))
	return r
}

// Get loads the flag. Timeouts, connection failures and corrupt payloads are
// logged and reported as ErrFlagNotFound.
func (r *RedisRepository) Get(ctx context.Context, tenantID, flagKey string) (*Flag, error) {
	if err := validateKey(tenantID, flagKey); err != nil {
		return nil, err
	}

	flag, err := r.load(ctx, tenantID, flagKey)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to get feature flag",
			logger.TenantID(tenantID), logger.FlagKey(flagKey), logger.Error(err))
		return nil, ErrFlagNotFound
	}
	if flag == nil {
		return nil, ErrFlagNotFound
	}
	return flag, nil
}

// List loads the tenant index and then every member flag. Members that
// expired or were evicted are skipped. Backend failures yield an empty slice.
func (r *RedisRepository) List(ctx context.Context, tenantID string) ([]*Flag, error) {
	if tenantID == "" {
		return nil, errors.Join(ErrInvalidArgument, errors.New("tenant id cannot be empty"))
	}

	keys, err := r.loadIndex(ctx, tenantID)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to load tenant flag index",
			logger.TenantID(tenantID), logger.Error(err))
		return []*Flag{}, nil
	}
	if len(keys) == 0 {
		return []*Flag{}, nil
	}

	storeKeys := make([]string, len(keys))
	for i, k := range keys {
		storeKeys[i] = StoreKey(tenantID, k)
	}

	opCtx, cancel := r.opContext(ctx)
	payloads, err := r.store.MGet(opCtx, storeKeys...)
	cancel()
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to list feature flags",
			logger.TenantID(tenantID), logger.Error(err))
		return []*Flag{}, nil
	}

	flags := make([]*Flag, 0, len(payloads))
	for i, payload := range payloads {
		if payload == nil {
			r.logger.DebugContext(ctx, "skipping dangling flag index entry",
				logger.TenantID(tenantID), logger.FlagKey(keys[i]))
			continue
		}
		flag, err := decodeFlag(payload)
		if err != nil {
			r.logger.WarnContext(ctx, "skipping undecodable feature flag",
				logger.TenantID(tenantID), logger.FlagKey(keys[i]), logger.Error(err))
			continue
		}
		if flag.TenantID != tenantID {
			continue
		}
		flags = append(flags, flag)
	}

	slices.SortFunc(flags, func(a, b *Flag) int {
		return strings.Compare(a.Key, b.Key)
	})
	return flags, nil
}

// Set writes the full flag snapshot and records its key in the tenant index.
func (r *RedisRepository) Set(ctx context.Context, tenantID, flagKey string, flag *Flag) error {
	if err := validateKey(tenantID, flagKey); err != nil {
		return err
	}

	var createdAt time.Time
	if existing, err := r.load(ctx, tenantID, flagKey); err == nil && existing != nil {
		createdAt = existing.CreatedAt
	}

	stored, err := prepareWrite(tenantID, flagKey, flag, createdAt, time.Now().UTC())
	if err != nil {
		return err
	}
	payload, err := json.Marshal(stored)
	if err != nil {
		return errors.Join(ErrInvalidPayload, err)
	}

	opCtx, cancel := r.opContext(ctx)
	err = r.store.Set(opCtx, StoreKey(tenantID, flagKey), payload, r.ttl)
	cancel()
	if err != nil {
		return errors.Join(ErrBackendUnavailable, err)
	}

	return r.updateIndex(ctx, tenantID, func(keys []string) []string {
		pos, found := slices.BinarySearch(keys, flagKey)
		if found {
			return keys
		}
		return slices.Insert(keys, pos, flagKey)
	})
}

// Delete removes the flag and its index entry.
func (r *RedisRepository) Delete(ctx context.Context, tenantID, flagKey string) error {
	if err := validateKey(tenantID, flagKey); err != nil {
		return err
	}

	opCtx, cancel := r.opContext(ctx)
	err := r.store.Delete(opCtx, StoreKey(tenantID, flagKey))
	cancel()
	if err != nil {
		return errors.Join(ErrBackendUnavailable, err)
	}

	return r.updateIndex(ctx, tenantID, func(keys []string) []string {
		return slices.DeleteFunc(keys, func(k string) bool { return k == flagKey })
	})
}

// Conn returns the underlying Redis client, e.g. for health checks.
func (r *RedisRepository) Conn() goredis.UniversalClient {
	return r.store.Conn()
}

func (r *RedisRepository) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// load returns nil, nil when the key does not exist.
func (r *RedisRepository) load(ctx context.Context, tenantID, flagKey string) (*Flag, error) {
	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	payload, err := r.store.Get(opCtx, StoreKey(tenantID, flagKey))
	if err != nil {
		return nil, errors.Join(ErrBackendUnavailable, err)
	}
	if payload == nil {
		return nil, nil
	}
	return decodeFlag(payload)
}

func (r *RedisRepository) loadIndex(ctx context.Context, tenantID string) ([]string, error) {
	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	payload, err := r.store.Get(opCtx, TenantIndexKey(tenantID))
	if err != nil {
		return nil, errors.Join(ErrBackendUnavailable, err)
	}
	if payload == nil {
		return nil, nil
	}
	var keys []string
	if err := json.Unmarshal(payload, &keys); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	return keys, nil
}

func (r *RedisRepository) updateIndex(ctx context.Context, tenantID string, mutate func([]string) []string) error {
	keys, err := r.loadIndex(ctx, tenantID)
	if err != nil && !errors.Is(err, ErrInvalidPayload) {
		return err
	}
	slices.Sort(keys)
	keys = mutate(keys)

	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	indexKey := TenantIndexKey(tenantID)
	if len(keys) == 0 {
		if err := r.store.Delete(opCtx, indexKey); err != nil {
			return errors.Join(ErrBackendUnavailable, err)
		}
		return nil
	}

	payload, err := json.Marshal(keys)
	if err != nil {
		return errors.Join(ErrInvalidPayload, err)
	}
	if err := r.store.Set(opCtx, indexKey, payload, r.ttl); err != nil {
		return errors.Join(ErrBackendUnavailable, err)
	}
	return nil
}

func decodeFlag(payload []byte) (*Flag, error) {
	var flag Flag
	if err := json.Unmarshal(payload, &flag); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	return &flag, nil
}
