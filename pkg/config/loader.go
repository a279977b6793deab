package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var defaultEnvLoaded sync.Once

// Option tunes a single Load call.
type Option func(*options)

type options struct {
	envFiles []string
	prefix   string
}

// WithEnvFiles loads the given files into the process environment before
// parsing. Unlike the implicit .env lookup, missing files are an error.
// Variables already present in the environment are not overridden.
func WithEnvFiles(files ...string) Option {
	return func(o *options) {
		o.envFiles = append(o.envFiles, files...)
	}
}

// WithPrefix prepends prefix to every env tag, e.g. "TENANT_A_" + "REDIS_URL".
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// Load populates v from environment variables according to its struct tags.
//
// The first call also loads a .env file from the working directory if one
// exists. Each call parses the environment afresh, so tests can change
// variables between calls.
//
// Example:
//
//	type RedisConfig struct {
//		URL     string        `env:"REDIS_URL"`
//		Timeout time.Duration `env:"REDIS_TIMEOUT" envDefault:"5s"`
//	}
//
//	var cfg RedisConfig
//	if err := config.Load(&cfg); err != nil {
//		// Handle error
//	}
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	defaultEnvLoaded.Do(func() {
		// The .env file is optional.
		_ = godotenv.Load()
	})

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if len(o.envFiles) > 0 {
		if err := godotenv.Load(o.envFiles...); err != nil {
			return errors.Join(ErrLoadingEnvFile, err)
		}
	}

	if err := env.ParseWithOptions(v, env.Options{Prefix: o.prefix}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
// Use it for configuration the process cannot start without.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
