package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect opens a client for cfg.ConnectionURL and pings it until it answers,
// trying at most cfg.RetryAttempts times with cfg.RetryInterval in between.
// The whole procedure is bounded by cfg.ConnectTimeout.
//
// Returns ErrEmptyConnectionURL when no address is configured,
// ErrFailedToParseRedisConnString for malformed URLs and ErrRedisNotReady
// when every attempt failed.
//
// The returned client honors context deadlines on every command.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if !cfg.Enabled() {
		return nil, ErrEmptyConnectionURL
	}

	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}
	// Per-call context deadlines are the only bound callers put on a slow
	// server; go-redis ignores them for socket I/O unless this is set.
	opts.ContextTimeoutEnabled = true

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	attempts := max(cfg.RetryAttempts, 1)
	var lastErr error
	for attempt := range attempts {
		client := redis.NewClient(opts)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		if attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(cfg.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-timer.C:
		}
	}

	return nil, errors.Join(ErrRedisNotReady, lastErr)
}
