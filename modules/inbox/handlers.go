package inbox

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/inbox/handler"
	"github.com/dmitrymomot/inbox/pkg/logger"
)

type handlers struct {
	svc      Service
	identify IdentityFunc
	log      *slog.Logger
}

type countResponse struct {
	Count int `json:"count"`
}

type updatedResponse struct {
	Updated int `json:"updated"`
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(r)
	if !ok {
		handler.Write(w, r, handler.JSONError(handler.ErrUnauthorized))
		return
	}

	limit := DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			handler.Write(w, r, handler.JSONError(handler.ErrBadRequest, handler.Message("limit must be a positive integer")))
			return
		}
		limit = n
	}

	list, err := h.svc.RecentForUser(r.Context(), userID, limit)
	if err != nil {
		h.fail(w, r, userID, "list notifications", err)
		return
	}
	handler.Write(w, r, handler.JSON(list, handler.WithJSONMeta(map[string]any{"limit": limit})))
}

func (h *handlers) unreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(r)
	if !ok {
		handler.Write(w, r, handler.JSONError(handler.ErrUnauthorized))
		return
	}

	count, err := h.svc.UnreadCount(r.Context(), userID)
	if err != nil {
		h.fail(w, r, userID, "count unread notifications", err)
		return
	}
	handler.Write(w, r, handler.JSON(countResponse{Count: count}))
}

func (h *handlers) markRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(r)
	if !ok {
		handler.Write(w, r, handler.JSONError(handler.ErrUnauthorized))
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		handler.Write(w, r, handler.JSONError(handler.ErrBadRequest, handler.Message("invalid notification id")))
		return
	}

	if err := h.svc.MarkReadForUser(r.Context(), userID, id); err != nil {
		h.fail(w, r, userID, "mark notification read", err)
		return
	}
	handler.Write(w, r, handler.Empty())
}

func (h *handlers) markAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(r)
	if !ok {
		handler.Write(w, r, handler.JSONError(handler.ErrUnauthorized))
		return
	}

	n, err := h.svc.MarkAllRead(r.Context(), userID)
	if err != nil {
		h.fail(w, r, userID, "mark all notifications read", err)
		return
	}
	handler.Write(w, r, handler.JSON(updatedResponse{Updated: n}))
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, userID, op string, err error) {
	h.log.LogAttrs(r.Context(), slog.LevelError, op+" failed",
		logger.UserID(userID),
		logger.Error(err),
	)
	handler.Write(w, r, handler.JSONError(err))
}
