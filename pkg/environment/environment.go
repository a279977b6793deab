package environment

import (
	"context"
	"strings"
)

// Environment represents an application environment.
type Environment string

const (
	// Development for development environment.
	Development Environment = "development"
	// Staging for staging environment.
	Staging Environment = "staging"
	// Production for production environment.
	Production Environment = "production"
)

// Parse normalises common spellings ("prod", "stage", "dev", any case).
// Unknown values fall back to Development.
func Parse(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Production), "prod":
		return Production
	case string(Staging), "stage":
		return Staging
	default:
		return Development
	}
}

func (e Environment) String() string {
	return string(e)
}

type contextKey struct{}

// WithContext adds the environment to the context.
func WithContext(ctx context.Context, env Environment) context.Context {
	return context.WithValue(ctx, contextKey{}, env)
}

// FromContext returns the environment stored in ctx and whether one was set.
func FromContext(ctx context.Context) (Environment, bool) {
	if ctx == nil {
		return "", false
	}
	env, ok := ctx.Value(contextKey{}).(Environment)
	return env, ok
}
