// Package requestid attaches a correlation ID to every HTTP request.
//
// Middleware reuses a valid client supplied X-Request-ID header or generates
// a UUID, echoes it back and stores it in the request context. LoggerExtractor
// plugs the ID into pkg/logger so every record written with the request
// context carries a "request_id" attribute.
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware)
package requestid
