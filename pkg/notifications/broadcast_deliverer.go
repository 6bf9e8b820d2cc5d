package notifications

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/inbox/pkg/broadcast"
	"github.com/dmitrymomot/inbox/pkg/logger"
)

// BroadcastDeliverer pushes to the sessions connected to this process.
// Every session a user opens subscribes under the user's ID and receives
// every push addressed to that user.
type BroadcastDeliverer struct {
	groups *broadcast.Groups[Push]
	logger *slog.Logger
}

// BroadcastDelivererOption configures a BroadcastDeliverer.
type BroadcastDelivererOption func(*BroadcastDeliverer)

func WithBroadcastLogger(l *slog.Logger) BroadcastDelivererOption {
	return func(d *BroadcastDeliverer) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewBroadcastDeliverer creates a deliverer whose sessions buffer up to bufferSize pushes.
// A session that falls further behind is disconnected.
func NewBroadcastDeliverer(bufferSize int, opts ...BroadcastDelivererOption) *BroadcastDeliverer {
	d := &BroadcastDeliverer{
		groups: broadcast.NewGroups[Push](bufferSize),
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deliver publishes push to every session of userID. Users without sessions are skipped.
func (d *BroadcastDeliverer) Deliver(ctx context.Context, userID string, push Push) error {
	n := d.groups.Publish(ctx, userID, broadcast.Message[Push]{Data: push})
	if n == 0 {
		d.logger.LogAttrs(ctx, slog.LevelDebug, "no live sessions for push",
			logger.UserID(userID),
			logger.NotificationID(push.ID),
		)
	}
	return nil
}

// Subscribe opens a session for userID. It ends when ctx is cancelled,
// the subscriber is closed, or the session falls behind.
func (d *BroadcastDeliverer) Subscribe(ctx context.Context, userID string) broadcast.Subscriber[Push] {
	return d.groups.Subscribe(ctx, userID)
}

// Sessions returns the number of live sessions for userID.
func (d *BroadcastDeliverer) Sessions(userID string) int {
	return d.groups.Count(userID)
}

// ConnectedUsers returns the number of users with at least one live session.
func (d *BroadcastDeliverer) ConnectedUsers() int {
	return d.groups.Keys()
}

// Close ends every session.
func (d *BroadcastDeliverer) Close() error {
	return d.groups.Close()
}
