package inbox

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/inbox/handler"
	"github.com/dmitrymomot/inbox/pkg/logger"
	"github.com/dmitrymomot/inbox/pkg/notifications"
)

// Creator is the write side of notifications.Manager.
type Creator interface {
	CreateForUser(ctx context.Context, userID string, c notifications.Content) (notifications.Notification, error)
	CreateForRole(ctx context.Context, role string, c notifications.Content) (notifications.BroadcastReport, error)
}

// IngestOptions configures the ingestion router used by other services.
type IngestOptions struct {
	Creator Creator

	// Token, when set, must be presented as "Authorization: Bearer <token>".
	Token string

	// RateLimit wraps every ingestion route, typically a ratelimiter.Middleware keyed by client IP.
	RateLimit func(http.Handler) http.Handler

	Logger *slog.Logger
}

type contentRequest struct {
	Title           string `json:"title"`
	Message         string `json:"message"`
	Type            string `json:"type"`
	RelatedEntityID string `json:"related_entity_id"`
	ActionURL       string `json:"action_url"`
}

type broadcastResponse struct {
	Role    string   `json:"role"`
	Created int      `json:"created"`
	Failed  []string `json:"failed"`
}

// IngestRouter lets trusted services create notifications:
//
//	POST /users/{userID}  creates one notification, 201 with the stored record
//	POST /roles/{role}    creates one per role member, 200 with a summary
func IngestRouter(opts IngestOptions) chi.Router {
	if opts.Creator == nil {
		panic("inbox.IngestRouter: Creator is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	h := &ingest{
		creator: opts.Creator,
		log:     opts.Logger.With(logger.Component("inbox.ingest")),
	}

	r := chi.NewRouter()
	if opts.RateLimit != nil {
		r.Use(opts.RateLimit)
	}
	if opts.Token != "" {
		r.Use(bearerToken(opts.Token))
	}
	r.Post("/users/{userID}", h.createForUser)
	r.Post("/roles/{role}", h.createForRole)
	return r
}

type ingest struct {
	creator Creator
	log     *slog.Logger
}

func (h *ingest) createForUser(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeContent(w, r)
	if !ok {
		return
	}

	n, err := h.creator.CreateForUser(r.Context(), chi.URLParam(r, "userID"), c)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	handler.Write(w, r, handler.JSON(n, handler.WithJSONStatus(http.StatusCreated)))
}

func (h *ingest) createForRole(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeContent(w, r)
	if !ok {
		return
	}

	report, err := h.creator.CreateForRole(r.Context(), chi.URLParam(r, "role"), c)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	failed := make([]string, 0, len(report.Failed))
	for _, f := range report.Failed {
		failed = append(failed, f.UserID)
	}
	handler.Write(w, r, handler.JSON(broadcastResponse{
		Role:    report.Role,
		Created: len(report.Created),
		Failed:  failed,
	}))
}

func (h *ingest) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, notifications.ErrValidation):
		handler.Write(w, r, handler.JSONError(err))
	case errors.Is(err, notifications.ErrDirectory):
		h.log.ErrorContext(r.Context(), "role lookup failed", logger.Error(err))
		handler.Write(w, r, handler.JSONError(handler.ErrBadGateway, handler.Message("role directory unavailable")))
	default:
		h.log.ErrorContext(r.Context(), "create notification failed", logger.Error(err))
		handler.Write(w, r, handler.JSONError(err))
	}
}

func decodeContent(w http.ResponseWriter, r *http.Request) (notifications.Content, bool) {
	var req contentRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		handler.Write(w, r, handler.JSONError(handler.ErrBadRequest, handler.Message("invalid JSON body")))
		return notifications.Content{}, false
	}

	// Unknown names are passed through and rejected by Content.Validate with the other fields.
	typ, err := notifications.ParseType(req.Type)
	if err != nil {
		typ = notifications.Type(req.Type)
	}

	return notifications.Content{
		Title:           req.Title,
		Message:         req.Message,
		Type:            typ,
		RelatedEntityID: req.RelatedEntityID,
		ActionURL:       req.ActionURL,
	}, true
}

func bearerToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				handler.Write(w, r, handler.JSONError(handler.ErrUnauthorized))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
