// Package tenant propagates the current tenant ID through context.Context.
//
// The flag service stores the tenant of every call with WithID so that log
// records emitted deeper in the stack carry a tenant_id attribute once
// LoggerExtractor is registered with the logger:
//
//	log := logger.New(logger.WithContextExtractors(tenant.LoggerExtractor()))
//	ctx := tenant.WithID(ctx, "acme")
//	log.InfoContext(ctx, "evaluated") // ... tenant_id=acme
package tenant
