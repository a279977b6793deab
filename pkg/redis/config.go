package redis

import "time"

// Config describes the connection to the Redis server backing the flag store.
// An empty ConnectionURL means no shared backend is configured.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL"`                              // ConnectionURL in the form "redis://:password@localhost:6379/0".
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`    // RetryAttempts is the number of connection attempts.
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`   // RetryInterval is the pause between attempts.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"15s"` // ConnectTimeout bounds the whole connection procedure.
}

// Enabled reports whether a Redis address is configured.
func (c Config) Enabled() bool {
	return c.ConnectionURL != ""
}
