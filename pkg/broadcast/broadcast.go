package broadcast

import (
	"context"
	"sync"
)

// Message wraps data of type T for type-safe publishing.
type Message[T any] struct {
	Data T
}

// Subscriber receives messages published to the key it was registered under.
// Implementations must be safe for concurrent use.
type Subscriber[T any] interface {
	// Receive returns a channel for receiving published messages.
	// The channel is closed once the subscriber is closed or detached.
	Receive(ctx context.Context) <-chan Message[T]

	// Done is closed when the subscriber stops receiving messages.
	Done() <-chan struct{}

	// Close detaches the subscriber from its group and closes the receive channel.
	// Close is idempotent and safe to call multiple times.
	Close() error
}

type subscriber[T any] struct {
	ch        chan Message[T]
	done      chan struct{}
	closed    bool
	mu        sync.RWMutex
	closeOnce sync.Once
	detach    func()
}

func newSubscriber[T any](bufferSize int) *subscriber[T] {
	return &subscriber[T]{
		ch:   make(chan Message[T], bufferSize),
		done: make(chan struct{}),
	}
}

func (s *subscriber[T]) Receive(ctx context.Context) <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Done() <-chan struct{} {
	return s.done
}

func (s *subscriber[T]) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		close(s.done)
		s.mu.Unlock()

		// Detach outside of the subscriber lock: the group holds its own lock
		// while sending, and sending takes the subscriber read lock.
		if s.detach != nil {
			s.detach()
		}
	})
	return nil
}

// send never blocks. A full buffer reports false so the caller can drop the session.
func (s *subscriber[T]) send(msg Message[T]) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}
