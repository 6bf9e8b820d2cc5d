package notifications

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirectoryYAML(t *testing.T) {
	t.Run("roles and members", func(t *testing.T) {
		d, err := ParseDirectoryYAML(strings.NewReader("Admin:\n  - a1\n  - a2\n  - a1\nEmployer: [e1]\n"))
		require.NoError(t, err)

		admins, err := d.UsersWithRole(context.Background(), RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, []string{"a1", "a2"}, admins)

		employers, err := d.UsersWithRole(context.Background(), "Employer")
		require.NoError(t, err)
		assert.Equal(t, []string{"e1"}, employers)
	})

	t.Run("empty document", func(t *testing.T) {
		d, err := ParseDirectoryYAML(strings.NewReader(""))
		require.NoError(t, err)

		users, err := d.UsersWithRole(context.Background(), RoleAdmin)
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("invalid", func(t *testing.T) {
		for _, doc := range []string{
			"Admin: 42: x",
			"Admin:\n  nested: value\n",
			"Admin:\n  - \"\"\n",
			"\"\": [u1]\n",
		} {
			_, err := ParseDirectoryYAML(strings.NewReader(doc))
			assert.ErrorIs(t, err, ErrDirectory, "document %q", doc)
		}
	})
}

func TestLoadDirectoryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Admin: [a1]\n"), 0o600))

	d, err := LoadDirectoryFile(path)
	require.NoError(t, err)
	users, err := d.UsersWithRole(context.Background(), RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, users)

	_, err = LoadDirectoryFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrDirectory)
}
