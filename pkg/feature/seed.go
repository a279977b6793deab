package feature

import (
	"context"
	"errors"
	"time"
)

// Demo tenants shipped with the demo flag set.
const (
	DemoTenantABC = "ABC Insurance Co"
	DemoTenantXYZ = "XYZ Insurance Co"
)

// DemoFlags returns a small flag set for two tenants, handy for local runs.
func DemoFlags(now time.Time) []*Flag {
	demo := func(tenantID, key, name, description string, enabled bool, created, updated time.Duration) *Flag {
		return &Flag{
			TenantID:       tenantID,
			Key:            key,
			Name:           name,
			Description:    description,
			Enabled:        enabled,
			Environment:    "production",
			CreatedAt:      now.Add(-created),
			UpdatedAt:      now.Add(-updated),
			CreatedBy:      SystemActor,
			LastModifiedBy: SystemActor,
		}
	}
	const day = 24 * time.Hour
	return []*Flag{
		demo(DemoTenantABC, "dark-mode", "Dark Mode", "Enables dark mode for the application.", true, 5*day, 2*time.Hour),
		demo(DemoTenantABC, "advanced-claims-search", "Advanced Claims Search", "Enables AI-powered advanced search capabilities.", true, day, 6*time.Hour),
		demo(DemoTenantABC, "enhanced-search", "Enhanced Search", "Enables enhanced search capabilities.", false, 3*day, 3*day),
		demo(DemoTenantXYZ, "dark-mode", "Dark Mode", "Enables dark mode for the application.", false, 2*day, 2*day),
		demo(DemoTenantXYZ, "advanced-claims-search", "Advanced Claims Search", "Enables AI-powered advanced search capabilities.", true, 4*day, 12*time.Hour),
		demo(DemoTenantXYZ, "enhanced-search", "Enhanced Search", "Enables enhanced search capabilities.", true, day, 3*time.Hour),
	}
}

// Seed writes the flags into the repository, continuing past failures.
func Seed(ctx context.Context, repo Repository, flags ...*Flag) error {
	var errs []error
	for _, flag := range flags {
		if flag == nil {
			continue
		}
		if err := repo.Set(ctx, flag.TenantID, flag.Key, flag); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
