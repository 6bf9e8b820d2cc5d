package inbox_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/inbox/handler"
	"github.com/dmitrymomot/inbox/modules/inbox"
	"github.com/dmitrymomot/inbox/pkg/logger"
	"github.com/dmitrymomot/inbox/pkg/notifications"
	"github.com/dmitrymomot/inbox/pkg/ratelimiter"
)

type fixture struct {
	manager *notifications.Manager
	pushes  *notifications.BroadcastDeliverer
	server  *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	pushes := notifications.NewBroadcastDeliverer(8)
	manager := notifications.NewManager(
		notifications.NewMemoryStorage(),
		nil,
		pushes,
		notifications.WithManagerLogger(logger.Nop()),
	)
	server := httptest.NewServer(inbox.Router(inbox.Options{
		Service:     manager,
		Sessions:    pushes,
		CheckOrigin: func(*http.Request) bool { return true },
	}))

	t.Cleanup(func() {
		_ = pushes.Close()
		server.Close()
	})

	return &fixture{manager: manager, pushes: pushes, server: server}
}

func (f *fixture) create(t *testing.T, userID, title string) notifications.Notification {
	t.Helper()
	n, err := f.manager.CreateForUser(context.Background(), userID, notifications.Content{
		Title:   title,
		Message: "hello",
		Type:    notifications.TypeNewUser,
	})
	require.NoError(t, err)
	return n
}

func (f *fixture) do(t *testing.T, method, path, userID string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, nil)
	require.NoError(t, err)
	if userID != "" {
		req.Header.Set(inbox.DefaultIdentityHeader, userID)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// decode unwraps the "data" member of the response envelope.
func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env.Data
}

func decodeError(t *testing.T, resp *http.Response) handler.ErrorDetail {
	t.Helper()
	var env struct {
		Error *handler.ErrorDetail `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.NotNil(t, env.Error)
	return *env.Error
}

func TestRouter_Unauthorized(t *testing.T) {
	f := newFixture(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/"},
		{http.MethodGet, "/unread-count"},
		{http.MethodPost, "/1/read"},
		{http.MethodPost, "/read-all"},
		{http.MethodGet, "/ws"},
	} {
		resp := f.do(t, tc.method, tc.path, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", tc.method, tc.path)
		assert.Equal(t, "unauthorized", decodeError(t, resp).Code)
	}
}

func TestRouter_List(t *testing.T) {
	f := newFixture(t)
	f.create(t, "u1", "first")
	f.create(t, "u1", "second")
	f.create(t, "u2", "foreign")

	resp := f.do(t, http.MethodGet, "/", "u1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	list := decode[[]notifications.Notification](t, resp)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Title)
	assert.Equal(t, "first", list[1].Title)

	resp = f.do(t, http.MethodGet, "/?limit=1", "u1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]notifications.Notification](t, resp), 1)

	resp = f.do(t, http.MethodGet, "/", "nobody")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var env map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.JSONEq(t, `[]`, string(env["data"]))
	assert.JSONEq(t, `{"limit":20}`, string(env["meta"]))

	for _, bad := range []string{"0", "-3", "ten"} {
		resp = f.do(t, http.MethodGet, "/?limit="+bad, "u1")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, bad)
		assert.Equal(t, "bad_request", decodeError(t, resp).Code)
	}
}

func TestRouter_ReadState(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "u1", "a")
	f.create(t, "u1", "b")
	foreign := f.create(t, "u2", "c")

	count := func(userID string) int {
		resp := f.do(t, http.MethodGet, "/unread-count", userID)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decode[struct {
			Count int `json:"count"`
		}](t, resp).Count
	}
	assert.Equal(t, 2, count("u1"))

	resp := f.do(t, http.MethodPost, "/"+itoa(a.ID)+"/read", "u1")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 1, count("u1"))

	resp = f.do(t, http.MethodPost, "/"+itoa(foreign.ID)+"/read", "u1")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 1, count("u2"), "foreign notification must stay unread")

	resp = f.do(t, http.MethodPost, "/abc/read", "u1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/read-all", "u1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[struct {
		Updated int `json:"updated"`
	}](t, resp).Updated)
	assert.Zero(t, count("u1"))
}

type failingService struct{}

func (failingService) RecentForUser(context.Context, string, int) ([]notifications.Notification, error) {
	return nil, notifications.ErrPersistence
}

func (failingService) UnreadCount(context.Context, string) (int, error) {
	return 0, notifications.ErrPersistence
}

func (failingService) MarkReadForUser(context.Context, string, int64) error {
	return errors.Join(notifications.ErrPersistence, errors.New("timeout"))
}

func (failingService) MarkAllRead(context.Context, string) (int, error) {
	return 0, notifications.ErrPersistence
}

func TestRouter_ServiceErrors(t *testing.T) {
	server := httptest.NewServer(inbox.Router(inbox.Options{Service: failingService{}}))
	defer server.Close()

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/"},
		{http.MethodGet, "/unread-count"},
		{http.MethodPost, "/1/read"},
		{http.MethodPost, "/read-all"},
	} {
		req, err := http.NewRequest(tc.method, server.URL+tc.path, nil)
		require.NoError(t, err)
		req.Header.Set("X-User-ID", "u1")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		e := decodeError(t, resp)
		_ = resp.Body.Close()

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode, "%s %s", tc.method, tc.path)
		assert.Equal(t, "internal_server_error", e.Code)
		assert.NotContains(t, e.Message, "timeout")
	}

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/ws", nil)
	req.Header.Set("X-User-ID", "u1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "ws is not mounted without sessions")
}

func TestRouter_CustomIdentity(t *testing.T) {
	manager := notifications.NewManager(notifications.NewMemoryStorage(), nil, nil, notifications.WithManagerLogger(logger.Nop()))
	server := httptest.NewServer(inbox.Router(inbox.Options{
		Service:  manager,
		Identify: inbox.HeaderIdentity("X-Auth-Subject"),
	}))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/unread-count", nil)
	req.Header.Set("X-User-ID", "u1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req.Header.Set("X-Auth-Subject", "u1")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_WebSocket(t *testing.T) {
	f := newFixture(t)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"

	dial := func(userID string) *websocket.Conn {
		t.Helper()
		header := http.Header{}
		header.Set(inbox.DefaultIdentityHeader, userID)
		conn, resp, err := websocket.DefaultDialer.Dial(url, header)
		require.NoError(t, err)
		_ = resp.Body.Close()
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	}

	type frame struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	read := func(conn *websocket.Conn) frame {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var fr frame
		require.NoError(t, conn.ReadJSON(&fr))
		return fr
	}

	first := dial("u1")
	second := dial("u1")
	other := dial("u2")

	for _, conn := range []*websocket.Conn{first, second, other} {
		assert.Equal(t, inbox.EventConnected, read(conn).Event)
	}
	assert.Equal(t, 2, f.pushes.Sessions("u1"))

	n := f.create(t, "u1", "live")

	for _, conn := range []*websocket.Conn{first, second} {
		got := read(conn)
		require.Equal(t, inbox.EventNotificationCreated, got.Event)

		var push notifications.Push
		require.NoError(t, json.Unmarshal(got.Data, &push))
		assert.Equal(t, n.ID, push.ID)
		assert.Equal(t, "live", push.Title)
		assert.Equal(t, notifications.TypeNewUser, push.Type)
		assert.False(t, push.IsRead)
	}

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "other user must not receive the push")

	require.NoError(t, first.Close())
	assert.Eventually(t, func() bool { return f.pushes.Sessions("u1") == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestRouter_WebSocketConnectLimit(t *testing.T) {
	store := ratelimiter.NewMemoryStore()
	t.Cleanup(store.Close)
	bucket, err := ratelimiter.NewBucket(store, ratelimiter.PerMinute(1))
	require.NoError(t, err)

	pushes := notifications.NewBroadcastDeliverer(8)
	manager := notifications.NewManager(notifications.NewMemoryStorage(), nil, pushes,
		notifications.WithManagerLogger(logger.Nop()))
	server := httptest.NewServer(inbox.Router(inbox.Options{
		Service:     manager,
		Sessions:    pushes,
		CheckOrigin: func(*http.Request) bool { return true },
		ConnectLimit: ratelimiter.Middleware(bucket, func(r *http.Request) string {
			return r.Header.Get(inbox.DefaultIdentityHeader)
		}, nil),
	}))
	t.Cleanup(func() {
		_ = pushes.Close()
		server.Close()
	})

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	header := http.Header{}
	header.Set(inbox.DefaultIdentityHeader, "u1")

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	_, resp, err = websocket.DefaultDialer.Dial(url, header)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
