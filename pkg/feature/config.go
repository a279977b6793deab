package feature

import "time"

// Config holds the tunables of the flag engine. Fields are populated from
// environment variables via github.com/caarlos0/env.
type Config struct {
	// CacheTTL is the evaluation cache lifetime.
	CacheTTL time.Duration `env:"FLAGS_CACHE_TTL" envDefault:"5m"`
	// CacheCapacity bounds the in-process evaluation cache.
	CacheCapacity uint64 `env:"FLAGS_CACHE_CAPACITY" envDefault:"10000"`
	// SharedCache keeps the evaluation cache in Redis when it is configured.
	SharedCache bool `env:"FLAGS_SHARED_CACHE" envDefault:"false"`
	// StoreTTL is the expiration of flags stored in Redis.
	StoreTTL time.Duration `env:"FLAGS_STORE_TTL" envDefault:"1h"`
	// OperationTimeout bounds every Redis call.
	OperationTimeout time.Duration `env:"FLAGS_OPERATION_TIMEOUT" envDefault:"5s"`
	// SeedDemo writes the demo flags at startup.
	SeedDemo bool `env:"FLAGS_SEED_DEMO" envDefault:"false"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		CacheTTL:         DefaultCacheTTL,
		CacheCapacity:    DefaultCacheCapacity,
		StoreTTL:         DefaultStoreTTL,
		OperationTimeout: DefaultOperationTimeout,
	}
}
