// Package config loads typed configuration structs from environment variables.
//
// It is a thin layer over github.com/caarlos0/env with automatic loading of
// an optional .env file through github.com/joho/godotenv. Struct fields are
// described with `env` and `envDefault` tags:
//
//	type Config struct {
//		CacheTTL time.Duration `env:"FLAGS_CACHE_TTL" envDefault:"5m"`
//		RedisURL string        `env:"REDIS_URL"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
//
// Additional env files and a variable prefix can be supplied per call with
// WithEnvFiles and WithPrefix. Failures wrap ErrParsingConfig or
// ErrLoadingEnvFile and can be matched with errors.Is.
package config
