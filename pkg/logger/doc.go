// Package logger builds context-aware slog loggers.
//
// New creates a *slog.Logger configured with functional options:
//
//   - WithEnvironment applies per-environment defaults (text/debug in
//     development, JSON/info in staging and production).
//   - WithLevel, WithFormat and WithOutput override individual settings.
//   - WithAttr attaches static attributes.
//   - WithContextExtractors registers callbacks that add attributes taken
//     from the context of each log call, e.g. tenant.LoggerExtractor.
//
// Helper constructors such as TenantID, FlagKey and Error keep attribute
// names consistent across the code base. Error returns an empty attribute for
// nil errors, so it can be passed unconditionally.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment(environment.Production, "flagctl"),
//	    logger.WithContextExtractors(tenant.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "feature flag saved", logger.FlagKey("dark-mode"))
package logger
