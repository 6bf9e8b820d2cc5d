// Package redisrelay carries pushes between service instances over Redis pub/sub.
//
// Publisher is the Deliverer used by the Manager: it publishes every push on a
// per-user channel. Relay runs on every instance, pattern-subscribes to those
// channels and hands each push to the local BroadcastDeliverer, so a user
// connected to any instance receives it. With the relay enabled the Manager
// should deliver through Publisher only; the origin instance gets its own
// pushes back through Relay.
package redisrelay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/inbox/pkg/logger"
	"github.com/dmitrymomot/inbox/pkg/notifications"
)

// DefaultPrefix is prepended to the user ID to form the channel name.
const DefaultPrefix = "inbox:push:"

var (
	ErrInvalidChannel = errors.New("redisrelay: channel does not carry a user id")
	ErrInvalidPayload = errors.New("redisrelay: invalid push payload")
	ErrPublish        = errors.New("redisrelay: publish failed")
	ErrNotSubscribed  = errors.New("redisrelay: relay is not subscribed")
	ErrSubscription   = errors.New("redisrelay: subscription closed")
)

// Channel returns the channel pushes for userID are published on.
func Channel(prefix, userID string) string {
	return prefix + userID
}

type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Publisher publishes pushes to Redis.
type Publisher struct {
	client publisher
	prefix string
}

// NewPublisher creates a Publisher. An empty prefix means DefaultPrefix.
func NewPublisher(client redis.UniversalClient, prefix string) *Publisher {
	return newPublisher(client, prefix)
}

func newPublisher(client publisher, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Publisher{client: client, prefix: prefix}
}

func (p *Publisher) Deliver(ctx context.Context, userID string, push notifications.Push) error {
	payload, err := json.Marshal(push)
	if err != nil {
		return errors.Join(ErrInvalidPayload, err)
	}
	if err := p.client.Publish(ctx, Channel(p.prefix, userID), payload).Err(); err != nil {
		return errors.Join(ErrPublish, err)
	}
	return nil
}

type subscriber interface {
	PSubscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// Relay forwards pushes received from Redis to a local deliverer.
type Relay struct {
	client subscriber
	local  notifications.Deliverer
	prefix string
	logger *slog.Logger

	minBackoff time.Duration
	maxBackoff time.Duration
	subscribed atomic.Bool
	run        func(ctx context.Context) error
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

func WithPrefix(prefix string) RelayOption {
	return func(r *Relay) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

func WithLogger(l *slog.Logger) RelayOption {
	return func(r *Relay) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithBackoff bounds the delay between Serve restarts. The delay doubles
// after each consecutive failure. Non-positive values keep the defaults.
func WithBackoff(min, max time.Duration) RelayOption {
	return func(r *Relay) {
		if min > 0 {
			r.minBackoff = min
		}
		if max > 0 {
			r.maxBackoff = max
		}
	}
}

func NewRelay(client redis.UniversalClient, local notifications.Deliverer, opts ...RelayOption) *Relay {
	r := &Relay{
		client:     client,
		local:      local,
		prefix:     DefaultPrefix,
		logger:     logger.Nop(),
		minBackoff: 500 * time.Millisecond,
		maxBackoff: 30 * time.Second,
	}
	r.run = r.Run
	for _, opt := range opts {
		opt(r)
	}
	r.maxBackoff = max(r.maxBackoff, r.minBackoff)
	return r
}

// Ready reports whether the relay currently holds a live subscription.
// It fits httpserver.HealthCheckHandler readiness checks.
func (r *Relay) Ready(context.Context) error {
	if !r.subscribed.Load() {
		return ErrNotSubscribed
	}
	return nil
}

// Serve keeps Run alive until ctx is cancelled, restarting it with
// exponential backoff whenever the subscription fails.
func (r *Relay) Serve(ctx context.Context) {
	backoff := r.minBackoff
	for {
		started := time.Now()
		err := r.run(ctx)
		if ctx.Err() != nil {
			return
		}
		// A subscription that lived past the longest delay was healthy; start over.
		if time.Since(started) > r.maxBackoff {
			backoff = r.minBackoff
		}

		r.logger.LogAttrs(ctx, slog.LevelError, "push relay stopped, restarting",
			logger.Error(err),
			logger.Duration(backoff),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		backoff = min(backoff*2, r.maxBackoff)
	}
}

// Run subscribes and forwards pushes until ctx is cancelled or the
// subscription fails. It returns nil on cancellation.
func (r *Relay) Run(ctx context.Context) error {
	ps := r.client.PSubscribe(ctx, r.prefix+"*")
	defer func() { _ = ps.Close() }()
	defer r.subscribed.Store(false)

	if _, err := ps.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	r.subscribed.Store(true)
	r.logger.InfoContext(ctx, "push relay subscribed", slog.String("pattern", r.prefix+"*"))

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return ErrSubscription
			}
			if err := r.handleMessage(ctx, msg); err != nil {
				r.logger.LogAttrs(ctx, slog.LevelWarn, "dropping relayed push",
					slog.String("channel", msg.Channel),
					logger.Error(err),
				)
			}
		}
	}
}

func (r *Relay) handleMessage(ctx context.Context, msg *redis.Message) error {
	userID, ok := strings.CutPrefix(msg.Channel, r.prefix)
	if !ok || userID == "" {
		return ErrInvalidChannel
	}

	var push notifications.Push
	if err := json.Unmarshal([]byte(msg.Payload), &push); err != nil {
		return errors.Join(ErrInvalidPayload, err)
	}

	return r.local.Deliver(ctx, userID, push)
}
