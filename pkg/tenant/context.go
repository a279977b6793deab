package tenant

import (
	"context"
	"log/slog"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// WithID adds the tenant ID to the context. Empty IDs leave ctx unchanged.
func WithID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, id)
}

// IDFromContext returns the tenant ID and whether one was set.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// MustIDFromContext panics when no tenant ID is present. Use it only where
// a tenant has already been enforced upstream.
func MustIDFromContext(ctx context.Context) string {
	id, ok := IDFromContext(ctx)
	if !ok {
		panic(ErrNoTenantInContext)
	}
	return id
}

// LoggerExtractor returns a logger context extractor that adds tenant_id to records.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := IDFromContext(ctx); ok {
			return slog.String("tenant_id", id), true
		}
		return slog.Attr{}, false
	}
}
