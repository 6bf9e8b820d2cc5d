package config_test

import (
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/inbox/pkg/config"
)

type successConfig struct {
	Name    string `env:"INBOX_TEST_NAME" envDefault:"default"`
	Workers int    `env:"INBOX_TEST_WORKERS" envDefault:"4"`
	Relay   bool   `env:"INBOX_TEST_RELAY" envDefault:"false"`
}

type defaultsConfig struct {
	Name    string `env:"INBOX_TEST_DEFAULT_NAME" envDefault:"inbox"`
	Workers int    `env:"INBOX_TEST_DEFAULT_WORKERS" envDefault:"2"`
}

type requiredConfig struct {
	URL string `env:"INBOX_TEST_REQUIRED_URL,required"`
}

type cachedConfig struct {
	Value string `env:"INBOX_TEST_CACHED" envDefault:"first"`
}

type rolesConfig struct {
	Roles map[string]string `env:"INBOX_TEST_ROLES" envSeparator:";" envKeyValSeparator:"="`
}

func TestLoad(t *testing.T) {
	t.Run("reads environment", func(t *testing.T) {
		t.Setenv("INBOX_TEST_NAME", "notifications")
		t.Setenv("INBOX_TEST_WORKERS", "8")
		t.Setenv("INBOX_TEST_RELAY", "true")

		var cfg successConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, successConfig{Name: "notifications", Workers: 8, Relay: true}, cfg)
	})

	t.Run("applies defaults", func(t *testing.T) {
		os.Unsetenv("INBOX_TEST_DEFAULT_NAME")
		os.Unsetenv("INBOX_TEST_DEFAULT_WORKERS")

		var cfg defaultsConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "inbox", cfg.Name)
		assert.Equal(t, 2, cfg.Workers)
	})

	t.Run("missing required value", func(t *testing.T) {
		os.Unsetenv("INBOX_TEST_REQUIRED_URL")

		var cfg requiredConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		var cfg *successConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	})

	t.Run("map values", func(t *testing.T) {
		t.Setenv("INBOX_TEST_ROLES", "Admin=u1,u2;Employer=u3")

		var cfg rolesConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, map[string]string{"Admin": "u1,u2", "Employer": "u3"}, cfg.Roles)
	})
}

func TestLoad_CachedPerType(t *testing.T) {
	t.Setenv("INBOX_TEST_CACHED", "first")

	var first cachedConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("INBOX_TEST_CACHED", "second")

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var cfg cachedConfig
			assert.NoError(t, config.Load(&cfg))
			assert.Equal(t, "first", cfg.Value)
		}()
	}
	wg.Wait()
}

func TestMustLoad(t *testing.T) {
	os.Unsetenv("INBOX_TEST_REQUIRED_URL")
	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg)
	})
}
