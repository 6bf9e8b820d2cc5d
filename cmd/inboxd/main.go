// Command inboxd serves the notification inbox API and WebSocket push stream.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/inbox/modules/inbox"
	"github.com/dmitrymomot/inbox/pkg/clientip"
	"github.com/dmitrymomot/inbox/pkg/config"
	"github.com/dmitrymomot/inbox/pkg/httpserver"
	"github.com/dmitrymomot/inbox/pkg/logger"
	"github.com/dmitrymomot/inbox/pkg/mongo"
	"github.com/dmitrymomot/inbox/pkg/notifications"
	"github.com/dmitrymomot/inbox/pkg/notifications/mongostore"
	"github.com/dmitrymomot/inbox/pkg/notifications/pgstore"
	"github.com/dmitrymomot/inbox/pkg/notifications/redisrelay"
	"github.com/dmitrymomot/inbox/pkg/pg"
	"github.com/dmitrymomot/inbox/pkg/ratelimiter"
	"github.com/dmitrymomot/inbox/pkg/redis"
	"github.com/dmitrymomot/inbox/pkg/requestid"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type readinessCheck = func(*http.Request) error

func readiness(check func(context.Context) error) readinessCheck {
	return func(r *http.Request) error { return check(r.Context()) }
}

func run() error {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.ServiceName),
		logger.WithContextExtractors(requestid.LoggerExtractor(), clientip.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cleanup []func()
	defer func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}()

	storage, checks, closeStorage, err := openStorage(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	cleanup = append(cleanup, closeStorage)

	pushes := notifications.NewBroadcastDeliverer(cfg.PushBuffer,
		notifications.WithBroadcastLogger(log.With(logger.Component("push"))))

	var channel notifications.Deliverer = pushes
	if cfg.RedisRelay {
		var redisCfg redis.Config
		if err := config.Load(&redisCfg); err != nil {
			return err
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		cleanup = append(cleanup, func() { _ = client.Close() })
		checks = append(checks, readiness(redis.Healthcheck(client)))

		// Every instance, this one included, receives pushes back through the relay.
		channel = redisrelay.NewPublisher(client, cfg.RedisPrefix)
		relay := redisrelay.NewRelay(client, pushes,
			redisrelay.WithPrefix(cfg.RedisPrefix),
			redisrelay.WithLogger(log.With(logger.Component("relay"))),
		)
		checks = append(checks, readiness(relay.Ready))
		go relay.Serve(ctx)
	}

	async := notifications.NewAsyncDeliverer(channel,
		notifications.WithWorkers(cfg.PushWorkers),
		notifications.WithQueueSize(cfg.PushQueue),
		notifications.WithAsyncLogger(log),
	)

	directory, err := cfg.directory()
	if err != nil {
		return err
	}

	manager := notifications.NewManager(
		storage,
		directory,
		async,
		notifications.WithManagerLogger(log.With(logger.Component("notifications"))),
	)

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(clientip.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", httpserver.HealthCheckHandler(log))
	r.Get("/health/ready", httpserver.HealthCheckHandler(log, checks...))

	identify := inbox.HeaderIdentity(cfg.IdentityHeader)
	limits := ratelimiter.NewMemoryStore()
	cleanup = append(cleanup, limits.Close)

	wsLimit, err := rateLimit(limits, cfg.WSConnectRate, func(r *http.Request) string {
		if id, ok := identify(r); ok {
			return "ws:" + id
		}
		return ""
	}, log)
	if err != nil {
		return err
	}
	ingestLimit, err := rateLimit(limits, cfg.IngestRate, func(r *http.Request) string {
		if ip := clientip.FromContext(r.Context()); ip != "" {
			return "ingest:" + ip
		}
		return ""
	}, log)
	if err != nil {
		return err
	}

	r.Mount("/notifications", inbox.Router(inbox.Options{
		Service:      manager,
		Sessions:     pushes,
		Identify:     identify,
		ConnectLimit: wsLimit,
		Logger:       log,
	}))
	if ingest := ingestRouter(cfg, manager, ingestLimit, log); ingest != nil {
		r.Mount("/internal/notifications", ingest)
	}

	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return err
	}

	srv := httpserver.NewFromConfig(httpCfg,
		httpserver.WithLogger(log),
		httpserver.WithStopHook(func(l *slog.Logger) {
			cancel()
			// Drain queued pushes before ending the sessions they target.
			_ = async.Close()
			users := pushes.ConnectedUsers()
			_ = pushes.Close()
			l.Info("push channel closed", logger.Count(users))
		}),
	)

	log.Info("starting inboxd",
		slog.String("storage", cfg.Storage),
		slog.Bool("redis_relay", cfg.RedisRelay),
	)
	return srv.Run(ctx, r)
}

// ingestRouter returns nil when the ingestion API must stay unmounted:
// outside development it is never served without INBOX_INTERNAL_TOKEN.
func ingestRouter(cfg Config, creator inbox.Creator, limit func(http.Handler) http.Handler, log *slog.Logger) http.Handler {
	if !cfg.ingestEnabled() {
		log.Warn("INBOX_INTERNAL_TOKEN is empty, ingestion API is disabled")
		return nil
	}
	if cfg.InternalToken == "" {
		log.Warn("ingestion API is mounted without authentication")
	}
	return inbox.IngestRouter(inbox.IngestOptions{
		Creator:   creator,
		Token:     cfg.InternalToken,
		RateLimit: limit,
		Logger:    log,
	})
}

// rateLimit returns nil when perMinute is zero, leaving the routes unlimited.
func rateLimit(store ratelimiter.Store, perMinute int, key ratelimiter.KeyFunc, log *slog.Logger) (func(http.Handler) http.Handler, error) {
	if perMinute <= 0 {
		return nil, nil
	}
	bucket, err := ratelimiter.NewBucket(store, ratelimiter.PerMinute(perMinute))
	if err != nil {
		return nil, err
	}
	return ratelimiter.Middleware(bucket, key, log), nil
}

func openStorage(ctx context.Context, kind string, log *slog.Logger) (notifications.Storage, []readinessCheck, func(), error) {
	switch strings.ToLower(kind) {
	case "", "memory":
		log.Warn("using in-memory notification storage, data is lost on restart")
		return notifications.NewMemoryStorage(), nil, func() {}, nil

	case "postgres", "pg":
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return nil, nil, nil, err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := pgstore.Migrate(ctx, pool, cfg, log); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return pgstore.New(pool, pgstore.WithQueryTimeout(cfg.QueryTimeout)),
			[]readinessCheck{readiness(pg.Healthcheck(pool))},
			pool.Close,
			nil

	case "mongo", "mongodb":
		var cfg mongo.Config
		if err := config.Load(&cfg); err != nil {
			return nil, nil, nil, err
		}
		db, err := mongo.NewWithDatabase(ctx, cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		client := db.Client()
		store := mongostore.New(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, nil, err
		}
		return store,
			[]readinessCheck{readiness(mongo.Healthcheck(client))},
			func() { _ = client.Disconnect(context.Background()) },
			nil
	}

	return nil, nil, nil, fmt.Errorf("unknown INBOX_STORAGE %q", kind)
}
