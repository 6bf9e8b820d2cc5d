package notifications_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/inbox/pkg/notifications"
	"github.com/dmitrymomot/inbox/pkg/notifications/storagetest"
)

func TestMemoryStorage(t *testing.T) {
	storagetest.Run(t, notifications.NewMemoryStorage())
}

func TestMemoryStorage_CancelledContext(t *testing.T) {
	s := notifications.NewMemoryStorage()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Insert(ctx, notifications.Notification{UserID: "u1"})
	require.ErrorIs(t, err, context.Canceled)

	_, err = s.ListForUser(ctx, "u1", 10)
	assert.ErrorIs(t, err, context.Canceled)
}
