package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Storage is a thin key/value wrapper around a go-redis client.
// Missing keys are reported as nil values, never as errors.
type Storage struct {
	db redis.UniversalClient
}

// NewStorage wraps the client.
func NewStorage(client redis.UniversalClient) *Storage {
	return &Storage{db: client}
}

// Get returns nil for empty keys and missing values (redis.Nil becomes nil).
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	if s.db == nil {
		return nil, ErrNilClient
	}
	val, err := s.db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

// MGet fetches several keys in one round trip. The result has one entry per
// key, nil where the key is missing.
func (s *Storage) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if s.db == nil {
		return nil, ErrNilClient
	}
	vals, err := s.db.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		if str, ok := v.(string); ok {
			out[i] = []byte(str)
		}
	}
	return out, nil
}

// Set stores key-value with expiration. Zero duration means no expiration.
func (s *Storage) Set(ctx context.Context, key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	if s.db == nil {
		return ErrNilClient
	}
	return s.db.Set(ctx, key, val, exp).Err()
}

// Delete removes the keys. Empty keys are ignored.
func (s *Storage) Delete(ctx context.Context, keys ...string) error {
	nonEmpty := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			nonEmpty = append(nonEmpty, k)
		}
	}
	if len(nonEmpty) == 0 {
		return nil
	}
	if s.db == nil {
		return ErrNilClient
	}
	return s.db.Del(ctx, nonEmpty...).Err()
}

// Close terminates the Redis connection.
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Conn returns the underlying Redis client for advanced operations.
func (s *Storage) Conn() redis.UniversalClient {
	return s.db
}
