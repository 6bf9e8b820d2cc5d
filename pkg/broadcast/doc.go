// Package broadcast provides type-safe, keyed fan-out of messages to live subscribers.
//
// Subscribers register under a key (for example a user ID). Publishing to a key
// delivers the message to every subscriber of that key without blocking: slow
// subscribers miss the message and are detached, and keys without subscribers
// simply drop it. Nothing is buffered beyond each subscriber's channel.
//
// Basic usage:
//
//	groups := broadcast.NewGroups[string](16)
//	defer groups.Close()
//
//	sub := groups.Subscribe(ctx, "user-1")
//	defer sub.Close()
//
//	n := groups.Publish(ctx, "user-1", broadcast.Message[string]{Data: "hello"})
//
//	for msg := range sub.Receive(ctx) {
//		fmt.Println(msg.Data)
//	}
//
// Subscribers are removed when:
//   - Close is called on the subscriber
//   - the context passed to Subscribe is cancelled
//   - the subscriber's buffer is full during Publish
//   - the registry is closed
package broadcast
