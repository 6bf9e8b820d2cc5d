package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/inbox/pkg/logger"
	"github.com/dmitrymomot/inbox/pkg/notifications"
)

func TestConfig_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	os.Unsetenv("APP_ENV")
	t.Setenv("INBOX_INTERNAL_TOKEN", "")

	var cfg Config
	require.NoError(t, env.Parse(&cfg))

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "memory", cfg.Storage)
	assert.False(t, cfg.ingestEnabled(), "ingestion must stay closed without a token")
}

func TestConfig_IngestEnabled(t *testing.T) {
	tests := []struct {
		env, token string
		want       bool
	}{
		{env: "production", token: "", want: false},
		{env: "staging", token: "", want: false},
		{env: "development", token: "", want: true},
		{env: "production", token: "s3cret", want: true},
	}
	for _, tt := range tests {
		cfg := Config{Env: tt.env, InternalToken: tt.token}
		assert.Equal(t, tt.want, cfg.ingestEnabled(), "env=%s token=%q", tt.env, tt.token)
	}
}

func TestIngestRouter(t *testing.T) {
	manager := notifications.NewManager(notifications.NewMemoryStorage(), nil, nil,
		notifications.WithManagerLogger(logger.Nop()))
	body := `{"title":"Test","message":"hello","type":"NewUser"}`

	assert.Nil(t, ingestRouter(Config{Env: "production"}, manager, nil, logger.Nop()))

	h := ingestRouter(Config{Env: "production", InternalToken: "s3cret"}, manager, nil, logger.Nop())
	require.NotNil(t, h)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users/u1", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/users/u1", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	count, err := manager.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestConfig_Directory(t *testing.T) {
	cfg := Config{Roles: map[string]string{"Admin": " a1, a2,, "}}
	d, err := cfg.directory()
	require.NoError(t, err)
	admins, err := d.UsersWithRole(context.Background(), notifications.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, admins)

	path := filepath.Join(t.TempDir(), "roles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Admin: [f1]\n"), 0o600))
	cfg.RolesFile = path
	d, err = cfg.directory()
	require.NoError(t, err)
	admins, err = d.UsersWithRole(context.Background(), notifications.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, admins)
}
