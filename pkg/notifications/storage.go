package notifications

import "context"

// Storage persists notifications.
//
// Implementations assign strictly increasing IDs and list a user's
// notifications ordered by CreatedAt descending, then ID descending.
type Storage interface {
	// Insert stores n and returns the assigned ID. CreatedAt and Type are kept as given.
	Insert(ctx context.Context, n Notification) (int64, error)

	// FindByID returns ErrNotFound for unknown ids.
	FindByID(ctx context.Context, id int64) (Notification, error)

	// ListForUser returns at most limit notifications, newest first.
	// The slice is empty, not nil, when the user has none.
	ListForUser(ctx context.Context, userID string, limit int) ([]Notification, error)

	CountUnread(ctx context.Context, userID string) (int, error)

	// MarkRead is idempotent and ignores unknown ids.
	MarkRead(ctx context.Context, id int64) error

	// MarkAllRead marks every unread notification of the user and reports how many changed.
	MarkAllRead(ctx context.Context, userID string) (int, error)
}
