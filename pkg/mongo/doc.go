// Package mongo connects to MongoDB with go.mongodb.org/mongo-driver/v2 and
// exposes a readiness check. It backs pkg/notifications/mongostore.
package mongo
