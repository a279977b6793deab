package feature

import "errors"

// Predefined errors for the feature package.
var (
	// ErrFlagNotFound indicates that the requested feature flag was not found.
	ErrFlagNotFound = errors.New("feature flag not found")

	// ErrInvalidArgument indicates an empty tenant ID or flag key.
	ErrInvalidArgument = errors.New("invalid feature flag argument")

	// ErrInvalidStrategy indicates an issue with the rollout strategy configuration.
	ErrInvalidStrategy = errors.New("invalid feature rollout strategy")

	// ErrBackendUnavailable indicates the flag store could not be reached in time.
	ErrBackendUnavailable = errors.New("feature flag backend unavailable")

	// ErrInvalidPayload indicates a stored flag could not be decoded.
	ErrInvalidPayload = errors.New("invalid feature flag payload")
)
