package requestid

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/inbox/pkg/logger"
)

// LoggerExtractor adds the request ID to every log record written with a request context.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := FromContext(ctx); id != "" {
			return logger.RequestID(id), true
		}
		return slog.Attr{}, false
	}
}
