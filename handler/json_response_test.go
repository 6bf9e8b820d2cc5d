package handler_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/inbox/handler"
	"github.com/dmitrymomot/inbox/pkg/validator"
)

func render(t *testing.T, resp handler.Response) (*httptest.ResponseRecorder, handler.JSONResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	handler.Write(w, httptest.NewRequest(http.MethodGet, "/", nil), resp)

	var got handler.JSONResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	}
	return w, got
}

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("simple data", func(t *testing.T) {
		t.Parallel()
		w, got := render(t, handler.JSON(map[string]string{"id": "123"}))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, handler.JSONResponse{Data: map[string]any{"id": "123"}}, got)
	})

	t.Run("status and meta", func(t *testing.T) {
		t.Parallel()
		w, got := render(t, handler.JSON(
			[]int{1},
			handler.WithJSONStatus(http.StatusCreated),
			handler.WithJSONMeta(map[string]any{"limit": 20}),
		))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, []any{float64(1)}, got.Data)
		assert.Equal(t, map[string]any{"limit": float64(20)}, got.Meta)
	})
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	t.Run("validation error", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("create: %w", validator.Apply(
			validator.RequiredString("title", ""),
			validator.MaxLenString("message", "toolong", 3),
		))
		w, got := render(t, handler.JSONError(err))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.NotNil(t, got.Error)
		assert.Equal(t, "validation_error", got.Error.Code)
		assert.Equal(t, map[string][]string{
			"title":   {"field is required"},
			"message": {"must be at most 3 characters long"},
		}, got.Error.Details)
	})

	t.Run("http error", func(t *testing.T) {
		t.Parallel()
		w, got := render(t, handler.JSONError(fmt.Errorf("wrapped: %w", handler.ErrUnauthorized)))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, &handler.ErrorDetail{Code: "unauthorized", Message: "Unauthorized"}, got.Error)
	})

	t.Run("custom message", func(t *testing.T) {
		t.Parallel()
		w, got := render(t, handler.JSONError(handler.ErrBadRequest, handler.Message("invalid id")))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, &handler.ErrorDetail{Code: "bad_request", Message: "invalid id"}, got.Error)
	})

	t.Run("unknown error is hidden", func(t *testing.T) {
		t.Parallel()
		w, got := render(t, handler.JSONError(errors.New("pq: connection refused")))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal_server_error", got.Error.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}

func TestEmpty(t *testing.T) {
	w, _ := render(t, handler.Empty())
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, w.Body.Len())
}
