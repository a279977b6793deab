// Package feature implements multi-tenant feature flag evaluation with a
// cache-aside read path.
//
// A Flag belongs to exactly one tenant and is identified by (TenantID, Key).
// Its Enabled field is the baseline state; an optional RolloutStrategy
// narrows it to a subset of users.
//
// # Architecture
//
// The package is built from four layers, leaves first:
//
//  1. Repository - durable flag storage with a per-tenant key index.
//     MemoryRepository keeps flags in process memory; RedisRepository uses
//     Redis as a shared pseudo-database with a one hour TTL.
//  2. Cache - a short-lived (five minute) cache-aside layer in front of the
//     repository, storing JSON snapshots in a CacheStore.
//  3. Decide - a pure function applying a rollout strategy to a UserContext.
//  4. Service - the facade callers use to evaluate, list and manage flags.
//
// Evaluation rules are applied in a fixed order and the first match wins:
// disabled flag, missing strategy, rollout window, user allow-list, segments,
// geographies, custom rules and finally the percentage bucket. Buckets come
// from xxHash64 over userID+flagKey, so a user keeps the same bucket for a
// flag across restarts and deployments, and raising the percentage never
// removes a user who was already enabled.
//
// # Availability
//
// The read path prefers availability over consistency. Backend timeouts and
// connection failures are logged and surface as "flag not found" (evaluated
// as disabled) or an empty listing. Only administrative writes report
// ErrBackendUnavailable. Cached snapshots are not invalidated on write and
// may be up to the cache TTL old.
//
// # Usage
//
//	repo, _ := feature.NewMemoryRepository(feature.DemoFlags(time.Now())...)
//	cache := feature.NewCache(repo, feature.NewMemoryCacheStore(0))
//	svc := feature.NewService(repo, cache)
//
//	user := feature.NewUserContext("ABC Insurance Co", "user-42", map[string]string{
//		feature.AttrCountry: "US",
//	})
//	res, err := svc.Evaluate(ctx, "ABC Insurance Co", "dark-mode", user)
//	if err != nil {
//		// only ErrInvalidArgument is possible here
//	}
//	if res.Enabled {
//		// ...
//	}
//
// OpenBackend selects Redis when a connection URL is configured and the
// in-memory backend otherwise.
package feature
