// Package notifications implements an in-app notification inbox with
// real-time push.
//
// The Manager validates and persists notifications through a Storage, fans
// role broadcasts out to one record per member resolved by a Directory, and
// hands every stored notification to a Deliverer. Persistence is the source of
// truth: a push is attempted only after the insert succeeded, and push errors
// are logged instead of being returned.
//
// # Basic Usage
//
//	pushes := notifications.NewBroadcastDeliverer(16)
//	async := notifications.NewAsyncDeliverer(pushes, notifications.WithWorkers(4))
//	defer async.Close()
//
//	manager := notifications.NewManager(
//		notifications.NewMemoryStorage(),
//		notifications.NewStaticDirectory(map[string][]string{"Admin": {"u1"}}),
//		async,
//	)
//
//	n, err := manager.CreateForUser(ctx, "u1", notifications.Content{
//		Title:   "New applicant",
//		Message: "Jane applied to Backend Engineer",
//		Type:    notifications.TypeJobApplicationReceived,
//	})
//
//	report, err := manager.CreateForAdmins(ctx, notifications.Content{
//		Title:   "New user",
//		Message: "jane@example.com registered",
//		Type:    notifications.TypeNewUser,
//	})
//
// # Live Sessions
//
// BroadcastDeliverer keeps a registry of live sessions keyed by user ID.
// A transport subscribes once per connection and forwards what it receives:
//
//	sub := pushes.Subscribe(r.Context(), userID)
//	defer sub.Close()
//	for msg := range sub.Receive(r.Context()) {
//		send(msg.Data)
//	}
//
// Storage backends live in the pgstore and mongostore subpackages; redisrelay
// forwards pushes between service instances. The storagetest subpackage holds
// the behaviour every Storage must satisfy.
package notifications
