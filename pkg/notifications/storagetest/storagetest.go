// Package storagetest holds the behaviour shared by every notifications.Storage.
package storagetest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/inbox/pkg/notifications"
)

var seq atomic.Int64

// UserID returns an identity unique to this process run, so suites can share a database.
func UserID(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("user-%d-%d", time.Now().UnixNano(), seq.Add(1))
}

// Fixture returns a valid notification for userID created at the given time.
func Fixture(userID string, createdAt time.Time) notifications.Notification {
	return notifications.Notification{
		UserID:          userID,
		Title:           "Application received",
		Message:         "Jane applied to Backend Engineer",
		Type:            notifications.TypeJobApplicationReceived,
		CreatedAt:       createdAt.UTC().Truncate(time.Microsecond),
		RelatedEntityID: "job-42",
		ActionURL:       "/jobs/42/applications",
	}
}

// Run exercises s against the Storage contract.
func Run(t *testing.T, s notifications.Storage) {
	t.Helper()
	base := time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC)

	t.Run("insert assigns increasing ids", func(t *testing.T) {
		ctx := context.Background()
		user := UserID(t)

		first, err := s.Insert(ctx, Fixture(user, base))
		require.NoError(t, err)
		second, err := s.Insert(ctx, Fixture(user, base))
		require.NoError(t, err)

		assert.Positive(t, first)
		assert.Greater(t, second, first)
	})

	t.Run("round trip keeps every field", func(t *testing.T) {
		ctx := context.Background()
		want := Fixture(UserID(t), base)
		want.Title = "Zażółć gęślą jaźń"
		want.Message = "line one\nline two <b>&amp;</b>"

		id, err := s.Insert(ctx, want)
		require.NoError(t, err)
		want.ID = id

		got, err := s.FindByID(ctx, id)
		require.NoError(t, err)
		assertSame(t, want, got)
	})

	t.Run("find unknown id", func(t *testing.T) {
		_, err := s.FindByID(context.Background(), 1<<62)
		assert.ErrorIs(t, err, notifications.ErrNotFound)
	})

	t.Run("list orders newest first with insertion tie break", func(t *testing.T) {
		ctx := context.Background()
		user := UserID(t)

		var ids []int64
		for _, at := range []time.Time{base, base.Add(time.Second), base.Add(time.Second), base.Add(-time.Minute)} {
			id, err := s.Insert(ctx, Fixture(user, at))
			require.NoError(t, err)
			ids = append(ids, id)
		}

		list, err := s.ListForUser(ctx, user, 10)
		require.NoError(t, err)
		require.Len(t, list, 4)
		assert.Equal(t, []int64{ids[2], ids[1], ids[0], ids[3]}, idsOf(list))

		limited, err := s.ListForUser(ctx, user, 2)
		require.NoError(t, err)
		assert.Equal(t, []int64{ids[2], ids[1]}, idsOf(limited))
	})

	t.Run("list for user without notifications is empty", func(t *testing.T) {
		list, err := s.ListForUser(context.Background(), UserID(t), 10)
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})

	t.Run("users are isolated", func(t *testing.T) {
		ctx := context.Background()
		alice, bob := UserID(t), UserID(t)

		_, err := s.Insert(ctx, Fixture(alice, base))
		require.NoError(t, err)

		list, err := s.ListForUser(ctx, bob, 10)
		require.NoError(t, err)
		assert.Empty(t, list)

		n, err := s.MarkAllRead(ctx, bob)
		require.NoError(t, err)
		assert.Zero(t, n)

		count, err := s.CountUnread(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("mark read is idempotent", func(t *testing.T) {
		ctx := context.Background()
		user := UserID(t)

		id, err := s.Insert(ctx, Fixture(user, base))
		require.NoError(t, err)
		other, err := s.Insert(ctx, Fixture(user, base))
		require.NoError(t, err)

		require.NoError(t, s.MarkRead(ctx, id))
		require.NoError(t, s.MarkRead(ctx, id))

		got, err := s.FindByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.IsRead)

		untouched, err := s.FindByID(ctx, other)
		require.NoError(t, err)
		assert.False(t, untouched.IsRead)

		count, err := s.CountUnread(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("mark read unknown id is a no-op", func(t *testing.T) {
		ctx := context.Background()
		user := UserID(t)

		id, err := s.Insert(ctx, Fixture(user, base))
		require.NoError(t, err)

		require.NoError(t, s.MarkRead(ctx, 1<<62))

		got, err := s.FindByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, got.IsRead)
	})

	t.Run("mark all read reports transitions", func(t *testing.T) {
		ctx := context.Background()
		user := UserID(t)

		for range 3 {
			_, err := s.Insert(ctx, Fixture(user, base))
			require.NoError(t, err)
		}
		first, err := s.ListForUser(ctx, user, 1)
		require.NoError(t, err)
		require.NoError(t, s.MarkRead(ctx, first[0].ID))

		n, err := s.MarkAllRead(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = s.MarkAllRead(ctx, user)
		require.NoError(t, err)
		assert.Zero(t, n)

		count, err := s.CountUnread(ctx, user)
		require.NoError(t, err)
		assert.Zero(t, count)

		list, err := s.ListForUser(ctx, user, 10)
		require.NoError(t, err)
		require.Len(t, list, 3)
		for _, n := range list {
			assert.True(t, n.IsRead)
		}
	})
}

func assertSame(t *testing.T, want, got notifications.Notification) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.UserID, got.UserID)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Message, got.Message)
	assert.Equal(t, want.Type, got.Type)
	assert.Equal(t, want.IsRead, got.IsRead)
	assert.Equal(t, want.RelatedEntityID, got.RelatedEntityID)
	assert.Equal(t, want.ActionURL, got.ActionURL)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at: want %s, got %s", want.CreatedAt, got.CreatedAt)
}

func idsOf(list []notifications.Notification) []int64 {
	ids := make([]int64, len(list))
	for i, n := range list {
		ids[i] = n.ID
	}
	return ids
}
