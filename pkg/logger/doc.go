// Package logger builds *slog.Logger instances with functional options and
// injects request-scoped attributes from context.Context.
//
// New picks a text or JSON handler and wraps it in LogHandlerDecorator, which
// runs every registered ContextExtractor when a record is handled:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, cfg.ServiceName),
//		logger.WithContextExtractors(
//			requestid.LoggerExtractor(),
//			identity.LoggerExtractor(),
//			tenant.LoggerExtractor(),
//		),
//	)
//	logger.SetAsDefault(log)
//
// Attribute helpers (PrincipalID, TenantID, AttemptedTenantID, Action,
// ResourceKind, Error, ...) keep key names consistent across packages.
// Security derives a child logger tagged component=security for isolation
// violations and super-admin overrides.
package logger
