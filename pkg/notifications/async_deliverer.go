package notifications

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/inbox/pkg/logger"
)

type asyncJob struct {
	ctx    context.Context
	userID string
	push   Push
}

// AsyncDeliverer hands pushes to a pool of workers so that Deliver returns
// immediately. The queue is bounded; when it is full the push is rejected
// with ErrDeliveryQueueFull instead of blocking the caller.
type AsyncDeliverer struct {
	next    Deliverer
	queue   chan asyncJob
	workers int
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// AsyncDelivererOption configures an AsyncDeliverer.
type AsyncDelivererOption func(*AsyncDeliverer)

// WithQueueSize sets the queue capacity. Values below 1 are ignored.
func WithQueueSize(n int) AsyncDelivererOption {
	return func(d *AsyncDeliverer) {
		if n > 0 {
			d.queue = make(chan asyncJob, n)
		}
	}
}

// WithWorkers sets the number of worker goroutines. Values below 1 are ignored.
func WithWorkers(n int) AsyncDelivererOption {
	return func(d *AsyncDeliverer) {
		if n > 0 {
			d.workers = n
		}
	}
}

func WithAsyncLogger(l *slog.Logger) AsyncDelivererOption {
	return func(d *AsyncDeliverer) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewAsyncDeliverer starts the workers. Call Close to stop them.
func NewAsyncDeliverer(next Deliverer, opts ...AsyncDelivererOption) *AsyncDeliverer {
	d := &AsyncDeliverer{
		next:    next,
		queue:   make(chan asyncJob, 256),
		workers: 4,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}

	for range d.workers {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// Deliver enqueues the push. Request-scoped cancellation is dropped so the
// push outlives the request that created the notification; context values
// such as the request ID are kept for logging.
func (d *AsyncDeliverer) Deliver(ctx context.Context, userID string, push Push) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDelivererClosed
	}

	select {
	case d.queue <- asyncJob{ctx: context.WithoutCancel(ctx), userID: userID, push: push}:
		return nil
	default:
		return ErrDeliveryQueueFull
	}
}

// Pending returns the number of queued pushes.
func (d *AsyncDeliverer) Pending() int {
	return len(d.queue)
}

// Close stops accepting pushes, drains the queue and waits for the workers.
func (d *AsyncDeliverer) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	return nil
}

func (d *AsyncDeliverer) work() {
	defer d.wg.Done()

	for job := range d.queue {
		if err := d.next.Deliver(job.ctx, job.userID, job.push); err != nil {
			d.logger.LogAttrs(job.ctx, slog.LevelWarn, "async push failed",
				logger.UserID(job.userID),
				logger.NotificationID(job.push.ID),
				logger.Error(err),
			)
		}
	}
}
