// Package redis provides helpers for connecting to the Redis server that
// backs the shared flag store and evaluation cache.
//
// The package wraps the go-redis client and adds:
//
//   - Connect, which retries the initial ping according to Config.
//   - Storage, a context-aware key/value wrapper that turns redis.Nil into
//     nil values so callers only see real failures as errors.
//   - Healthcheck, a probe suitable for liveness and readiness checks.
//
// Configuration is described by the Config struct whose fields are populated
// from environment variables via github.com/caarlos0/env. Leaving REDIS_URL
// empty means no shared backend is configured.
//
// # Usage
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    // handle error, probably terminate the application
//	}
//	defer client.Close()
//
//	store := redis.NewStorage(client)
//	_ = store.Set(ctx, "foo", []byte("bar"), time.Hour)
//
// # Errors
//
// Sentinel errors (ErrRedisNotReady, ErrEmptyConnectionURL, ...) wrap the
// underlying go-redis errors using errors.Join and can be matched with errors.Is.
package redis
