// Package redis wraps github.com/redis/go-redis with a retrying Connect and a
// readiness check. The inbox uses Redis pub/sub to relay real-time pushes
// between service instances (see pkg/notifications/redisrelay).
package redis
