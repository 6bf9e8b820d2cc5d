package inbox

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/inbox/pkg/broadcast"
	"github.com/dmitrymomot/inbox/pkg/logger"
	"github.com/dmitrymomot/inbox/pkg/notifications"
)

// DefaultListLimit is used when GET / is called without ?limit.
const DefaultListLimit = 20

// Service is the part of notifications.Manager the HTTP surface needs.
type Service interface {
	RecentForUser(ctx context.Context, userID string, limit int) ([]notifications.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkReadForUser(ctx context.Context, userID string, id int64) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

// Sessions opens live push sessions. notifications.BroadcastDeliverer implements it.
type Sessions interface {
	Subscribe(ctx context.Context, userID string) broadcast.Subscriber[notifications.Push]
}

// Options configures the inbox router.
type Options struct {
	// Service is required.
	Service Service

	// Sessions enables GET /ws. Nil leaves the route unmounted.
	Sessions Sessions

	// Identify resolves the caller. Defaults to HeaderIdentity(DefaultIdentityHeader).
	Identify IdentityFunc

	// CheckOrigin guards the WebSocket upgrade. Nil accepts same-origin requests only.
	CheckOrigin func(r *http.Request) bool

	// ConnectLimit wraps GET /ws, typically a ratelimiter.Middleware keyed by user.
	ConnectLimit func(http.Handler) http.Handler

	Logger *slog.Logger
}

// Router builds the inbox HTTP API.
//
//	r := chi.NewRouter()
//	r.Mount("/notifications", inbox.Router(inbox.Options{
//		Service:  manager,
//		Sessions: pushes,
//	}))
func Router(opts Options) chi.Router {
	if opts.Service == nil {
		panic("inbox.Router: Service is required")
	}
	if opts.Identify == nil {
		opts.Identify = HeaderIdentity(DefaultIdentityHeader)
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	h := &handlers{
		svc:      opts.Service,
		identify: opts.Identify,
		log:      opts.Logger.With(logger.Component("inbox")),
	}

	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Get("/unread-count", h.unreadCount)
	r.Post("/read-all", h.markAllRead)
	r.Post("/{id}/read", h.markRead)

	if opts.Sessions != nil {
		ws := newStream(opts.Sessions, opts.Identify, opts.CheckOrigin, h.log)
		if opts.ConnectLimit != nil {
			r.With(opts.ConnectLimit).Get("/ws", ws.ServeHTTP)
		} else {
			r.Get("/ws", ws.ServeHTTP)
		}
	}

	return r
}
