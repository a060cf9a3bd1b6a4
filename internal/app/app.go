package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/pulsepage/internal/aggregator"
	"github.com/MrSnakeDoc/pulsepage/internal/bus"
	"github.com/MrSnakeDoc/pulsepage/internal/config"
	"github.com/MrSnakeDoc/pulsepage/internal/draft"
	"github.com/MrSnakeDoc/pulsepage/internal/httpserver"
	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/mw"
	"github.com/MrSnakeDoc/pulsepage/internal/index"
	"github.com/MrSnakeDoc/pulsepage/internal/logger"
	"github.com/MrSnakeDoc/pulsepage/internal/preview"
	"github.com/MrSnakeDoc/pulsepage/internal/provider"
	"github.com/MrSnakeDoc/pulsepage/internal/publish"
	"github.com/MrSnakeDoc/pulsepage/internal/redis"
	"github.com/MrSnakeDoc/pulsepage/internal/scheduler"
	sqlstore "github.com/MrSnakeDoc/pulsepage/internal/store/sql"
	redisstore "github.com/MrSnakeDoc/pulsepage/internal/store/redis"
	"github.com/MrSnakeDoc/pulsepage/internal/utils"
	"github.com/MrSnakeDoc/pulsepage/internal/version"
)

type App struct {
	cfg          *config.Config
	logger       logger.Logger
	server       *httpserver.Server
	db           *sqlstore.Store
	redisClient  *goredis.Client
	bus          *bus.Publisher
	subscription *nats.Subscription
	draft        *draft.Store
	poller       *scheduler.MonitorPoller
	refresher    *scheduler.PublicRefresher
	gc           *scheduler.GarbageCollector
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	ctx := context.Background()

	// Database - fail fast if unavailable
	loggerClient.Info("opening database", logger.String("driver", cfg.DBDriver))
	db, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		loggerClient.Fatal("failed to open database", logger.Error(err))
	}

	catalogue, err := preview.NewLoader(cfg.ScenarioFile).Load()
	if err != nil {
		loggerClient.Fatal("failed to load preview scenarios",
			logger.String("file", cfg.ScenarioFile),
			logger.Error(err))
	}
	loggerClient.Info("preview scenarios loaded", logger.Int("count", len(catalogue.List())))

	// Draft of the single editor
	draftStore := draft.New(db, cfg.OwnerID, loggerClient.With(logger.Component("draft")), draft.Options{
		Debounce:    cfg.SaveDebounce,
		SavedLinger: cfg.SavedLinger,
	})
	if _, found, err := draftStore.Load(ctx, cfg.OwnerID); err != nil {
		loggerClient.Fatal("failed to load draft", logger.Error(err))
	} else if !found {
		loggerClient.Info("no site yet, starting from defaults", logger.String("owner_id", cfg.OwnerID))
	}

	// Monitor providers
	registry := provider.NewRegistry()
	registry.Register(provider.UptimeRobotName, provider.NewUptimeRobot(provider.UptimeRobotOptions{
		BaseURL:            cfg.ProviderURL,
		Timeout:            cfg.ProviderTimeout,
		ResponseTimesLimit: cfg.ResponseTimesLimit,
		LogsLimit:          cfg.LogsLimit,
	}))

	memIndex := index.NewMemoryIndex()
	agg := aggregator.New(draftStore, registry, loggerClient.With(logger.Component("aggregator")))
	poller := scheduler.NewMonitorPoller(agg, draftStore, memIndex, loggerClient.With(logger.Component("monitor_poll")), cfg.PollInterval)

	// Redis is optional: without it every instance renders its own pages
	redisClient, pageCache := connectRedis(ctx, cfg, loggerClient.With(logger.Component("redis")))
	if pageCache != nil {
		syncer := scheduler.NewRedisSyncer(pageCache, memIndex, loggerClient.With(logger.Component("redis_sync")))
		if err := syncer.Sync(ctx); err != nil {
			loggerClient.Warn("failed to sync public pages from redis on startup, will render them",
				logger.Error(err))
		}
	}

	refresher := scheduler.NewPublicRefresher(
		db,
		registry,
		pageCache,
		memIndex,
		loggerClient.With(logger.Component("public_refresh")),
		cfg.PublicRefreshInterval,
		cfg.MaintenanceHorizon,
	)
	refresher.SetConcurrency(cfg.RefreshConcurrency)

	// NATS is optional: without it only this instance learns about publishes
	var publisher *bus.Publisher
	var subscription *nats.Subscription
	if cfg.NATSURL != "" {
		publisher, err = bus.NewPublisher(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			loggerClient.Warn("nats unavailable, publish announcements disabled", logger.Error(err))
			publisher = nil
		} else {
			subscription, err = publisher.Subscribe(func(evt bus.Event) {
				loggerClient.Debug("publish announced",
					logger.String("site_id", evt.SiteID),
					logger.String("subdomain", evt.Subdomain))
				refresher.Trigger()
			})
			if err != nil {
				loggerClient.Warn("failed to subscribe to publish announcements", logger.Error(err))
			}
		}
	}

	publishOpts := []publish.Option{publish.WithTrigger(refresher.Trigger)}
	if pageCache != nil {
		publishOpts = append(publishOpts, publish.WithCache(pageCache))
	}
	if publisher != nil {
		publishOpts = append(publishOpts, publish.WithAnnouncer(publisher))
	}
	publisherSvc := publish.New(db, loggerClient.With(logger.Component("publish")), publishOpts...)

	gc := scheduler.NewGarbageCollector(
		db,
		pageCache,
		memIndex,
		loggerClient.With(logger.Component("gc")),
		cfg.GCInterval,
		cfg.GCThreshold,
	)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:           loggerClient,
		StartTime:        time.Now(),
		Version:          version.Version,
		Commit:           version.Commit,
		BuildDate:        version.BuildDate,
		GoVersion:        version.GoVersion,
		TimeNow:          time.Now,
		AllowedCIDRS:     cfg.AllowedCIDRS,
		TrustProxy:       cfg.TrustProxy,
		PublicBaseDomain: cfg.PublicBaseDomain,
		PublicRateLimit: mw.RateLimitConfig{
			Burst:             cfg.PublicRateBurst,
			RefillPerIPPerMin: cfg.PublicRateRefill,
			MaxEntries:        cfg.PublicRateMaxIPs,
			IdleTTL:           cfg.PublicRateIdleTime,
			TrustProxy:        cfg.TrustProxy,
		},
		MaintenanceHorizon: cfg.MaintenanceHorizon,
		Draft:              draftStore,
		Aggregator:         agg,
		Poller:             poller,
		Publisher:          publisherSvc,
		Refresher:          refresher,
		Catalogue:          catalogue,
		Sites:              db,
		MemoryIndex:        memIndex,
		PageCache:          pageCache,
		RedisClient:        redisClient,
		Bus:                publisher,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:          cfg,
		logger:       loggerClient,
		server:       server,
		db:           db,
		redisClient:  redisClient,
		bus:          publisher,
		subscription: subscription,
		draft:        draftStore,
		poller:       poller,
		refresher:    refresher,
		gc:           gc,
	}
}

// connectRedis returns nil values when Redis is disabled or unreachable.
func connectRedis(ctx context.Context, cfg *config.Config, log logger.Logger) (*goredis.Client, *redisstore.Store) {
	client, err := redis.New(ctx, redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, log)
	if errors.Is(err, redis.ErrDisabled) {
		log.Info("redis not configured, public page cache disabled")
		return nil, nil
	}
	if err != nil {
		log.Warn("redis unavailable, public page cache disabled", logger.Error(err))
		return nil, nil
	}
	log.Info("redis initialized successfully")
	return client, redisstore.NewStore(client, cfg.PublicCacheTTL)
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting pulsepage %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.draft.Start(ctx)

	if err := a.poller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start monitor poller: %w", err)
	}
	a.logger.Info("monitor poller started",
		logger.Duration("interval", a.cfg.PollInterval))

	if err := a.refresher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start public refresher: %w", err)
	}
	a.logger.Info("public refresher started",
		logger.Duration("interval", a.cfg.PublicRefreshInterval))

	if err := a.gc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start garbage collector: %w", err)
	}
	a.logger.Info("garbage collector started",
		logger.Duration("interval", a.cfg.GCInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	a.poller.Stop()
	a.refresher.Stop()
	a.gc.Stop()

	// Keep the last edits before the loops go away.
	if err := a.draft.Flush(shutdownCtx); err != nil {
		a.logger.Error("failed to save draft on shutdown", logger.Error(err))
	}
	a.draft.Stop()

	if a.subscription != nil {
		_ = a.subscription.Unsubscribe()
	}
	if a.bus != nil {
		a.bus.Close()
		a.logger.Info("✅ NATS drained")
	}
	if a.redisClient != nil {
		utils.MustClose(a.redisClient, "redis", a.logger)
	}
	utils.MustClose(a.db, "database", a.logger)

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ pulsepage stopped cleanly")
	return nil
}
