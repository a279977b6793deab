package tenant

import "errors"

// ErrNoTenantInContext is returned when no tenant is found in context.
var ErrNoTenantInContext = errors.New("no tenant in context")
