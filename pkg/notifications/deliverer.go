package notifications

import "context"

// Deliverer pushes a freshly created notification to the user's live sessions.
// Delivery is best effort: the notification is already persisted, so an error
// only means the user will see it on the next fetch.
type Deliverer interface {
	Deliver(ctx context.Context, userID string, push Push) error
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(ctx context.Context, userID string, push Push) error

func (f DelivererFunc) Deliver(ctx context.Context, userID string, push Push) error {
	return f(ctx, userID, push)
}

// NoOpDeliverer drops every push. Used when real-time delivery is disabled.
type NoOpDeliverer struct{}

func (NoOpDeliverer) Deliver(context.Context, string, Push) error { return nil }
