package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr, which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// TenantID records the tenant under the key "tenant_id".
func TenantID(id string) slog.Attr {
	return slog.String("tenant_id", id)
}

// FlagKey records the flag under the key "flag_key".
func FlagKey(key string) slog.Attr {
	return slog.String("flag_key", key)
}

// CacheKey records a cache key under the key "cache_key".
func CacheKey(key string) slog.Attr {
	return slog.String("cache_key", key)
}

// UserID records the user under the key "user_id". Empty IDs are dropped.
func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}

// Reason records an evaluation reason under the key "reason".
func Reason(reason string) slog.Attr {
	return slog.String("reason", reason)
}

// Duration records an elapsed time under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
