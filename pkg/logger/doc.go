// Package logger builds context-aware slog loggers and provides attribute
// constructors that keep key names consistent across the inbox packages.
//
// New returns a *slog.Logger configured by functional options. The handler is
// wrapped by LogHandlerDecorator, which runs registered ContextExtractor
// callbacks on every record so request-scoped values (for example the request
// ID set by pkg/requestid) appear without being passed explicitly.
//
// Usage:
//
//	log := logger.New(
//	    logger.WithEnvironment(os.Getenv("APP_ENV"), "inbox"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "notification stored",
//	    logger.UserID(userID),
//	    logger.NotificationID(id),
//	)
package logger
