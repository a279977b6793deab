package feature

import (
	"context"
	"errors"
	"time"
)

// Repository is the durable flag store contract shared by every backend.
type Repository interface {
	// Get returns the flag or ErrFlagNotFound. Backend failures are logged
	// and reported as ErrFlagNotFound so the evaluation path stays available.
	Get(ctx context.Context, tenantID, flagKey string) (*Flag, error)

	// List returns the tenant's flags sorted by key. Backend failures yield
	// an empty slice.
	List(ctx context.Context, tenantID string) ([]*Flag, error)

	// Set upserts the flag and adds its key to the tenant index.
	Set(ctx context.Context, tenantID, flagKey string, flag *Flag) error

	// Delete removes the flag and its index entry. Missing flags are a no-op.
	Delete(ctx context.Context, tenantID, flagKey string) error
}

// StoreKey returns the namespaced key of a flag: flag:{tenantID}:{flagKey}.
func StoreKey(tenantID, flagKey string) string {
	return "flag:" + tenantID + ":" + flagKey
}

// TenantIndexKey returns the key of a tenant's flag index: tenant_flags:{tenantID}.
func TenantIndexKey(tenantID string) string {
	return "tenant_flags:" + tenantID
}

func validateKey(tenantID, flagKey string) error {
	if tenantID == "" {
		return errors.Join(ErrInvalidArgument, errors.New("tenant id cannot be empty"))
	}
	if flagKey == "" {
		return errors.Join(ErrInvalidArgument, errors.New("flag key cannot be empty"))
	}
	return nil
}

// prepareWrite copies the flag, binds it to (tenantID, flagKey) and stamps
// its timestamps. createdAt is kept when the flag already existed.
func prepareWrite(tenantID, flagKey string, flag *Flag, createdAt, now time.Time) (*Flag, error) {
	if flag == nil {
		return nil, errors.Join(ErrInvalidArgument, errors.New("flag cannot be nil"))
	}
	c := flag.Clone()
	c.TenantID = tenantID
	c.Key = flagKey
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch {
	case !createdAt.IsZero():
		c.CreatedAt = createdAt
	case c.CreatedAt.IsZero():
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if c.CreatedBy == "" {
		c.CreatedBy = SystemActor
	}
	if c.LastModifiedBy == "" {
		c.LastModifiedBy = SystemActor
	}
	return c, nil
}
