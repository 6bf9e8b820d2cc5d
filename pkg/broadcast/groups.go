package broadcast

import (
	"context"
	"sync"
)

// Groups is an in-memory registry of subscribers grouped by key.
// A key usually identifies a user; every live session of that user
// subscribes under the same key and receives every message published to it.
//
// Publishing never blocks: a subscriber whose buffer is full misses the
// message and is detached. Nothing is retained for keys without subscribers.
// All methods are safe for concurrent use.
type Groups[T any] struct {
	groups     map[string]map[*subscriber[T]]struct{}
	bufferSize int
	closed     bool
	mu         sync.RWMutex
	watchers   sync.WaitGroup
}

// NewGroups creates an empty registry.
// bufferSize is the per-subscriber channel capacity; values below 1 are raised to 1.
func NewGroups[T any](bufferSize int) *Groups[T] {
	return &Groups[T]{
		groups:     make(map[string]map[*subscriber[T]]struct{}),
		bufferSize: max(bufferSize, 1),
	}
}

// Subscribe registers a new subscriber under key.
// The subscriber is detached automatically when ctx is cancelled.
// After Close, Subscribe returns an already closed subscriber.
func (g *Groups[T]) Subscribe(ctx context.Context, key string) Subscriber[T] {
	sub := newSubscriber[T](g.bufferSize)

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		_ = sub.Close()
		return sub
	}

	members, ok := g.groups[key]
	if !ok {
		members = make(map[*subscriber[T]]struct{})
		g.groups[key] = members
	}
	members[sub] = struct{}{}
	sub.detach = func() { g.remove(key, sub) }

	if ctx.Done() != nil {
		g.watchers.Add(1)
		go func() {
			defer g.watchers.Done()
			select {
			case <-ctx.Done():
				_ = sub.Close()
			case <-sub.done:
			}
		}()
	}
	g.mu.Unlock()

	return sub
}

// Publish sends msg to every subscriber registered under key and returns
// the number of subscribers that accepted it.
func (g *Groups[T]) Publish(ctx context.Context, key string, msg Message[T]) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed {
		return 0
	}

	delivered := 0
	for sub := range g.groups[key] {
		if sub.send(msg) {
			delivered++
			continue
		}
		// Closing takes the write lock, so it must not run while we hold the read lock.
		go func() { _ = sub.Close() }()
	}

	return delivered
}

// Count returns the number of live subscribers under key.
func (g *Groups[T]) Count(key string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.groups[key])
}

// Keys returns the number of keys with at least one subscriber.
func (g *Groups[T]) Keys() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.groups)
}

// Close closes every subscriber and rejects further subscriptions.
// It is safe to call Close multiple times.
func (g *Groups[T]) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true

	subs := make([]*subscriber[T], 0)
	for _, members := range g.groups {
		for sub := range members {
			subs = append(subs, sub)
		}
	}
	clear(g.groups)
	g.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}

	g.watchers.Wait()
	return nil
}

func (g *Groups[T]) remove(key string, sub *subscriber[T]) {
	g.mu.Lock()
	defer g.mu.Unlock()

	members, ok := g.groups[key]
	if !ok {
		return
	}
	delete(members, sub)
	if len(members) == 0 {
		delete(g.groups, key)
	}
}
