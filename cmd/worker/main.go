// Package main is the entry point for the progress engine background worker.
//
// The worker runs the periodic jobs the API server must not block on:
//   - the nightly streak sweep, which persists streak decay for idle learners
//   - content catalog synchronization from the learning platform
//   - activity feed backfill to recover missed webhook pushes
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JaoharRaihan/WorkIn-sub001/config"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/application/command"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/infrastructure/external/platform"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/infrastructure/messaging"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/infrastructure/persistence/memory"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/infrastructure/persistence/postgres"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/infrastructure/persistence/redis"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/infrastructure/scheduler"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/infrastructure/scheduler/jobs"
	"github.com/JaoharRaihan/WorkIn-sub001/pkg/timeutil"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slogger := newSlogLogger(cfg)
	slog.SetDefault(slogger)

	if !cfg.Worker.Enabled {
		slogger.Warn("worker disabled by configuration; exiting")
		return nil
	}

	slogger.Info("starting progress engine worker",
		"version", cfg.App.Version,
		"environment", string(cfg.App.Environment),
		"sweep_time", fmt.Sprintf("%02d:%02d", cfg.Worker.SweepHour, cfg.Worker.SweepMinute),
		"timezone", cfg.App.Timezone,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─────────────────────────────────────────────────────────────────────────
	// Infrastructure
	// ─────────────────────────────────────────────────────────────────────────

	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	var cache *redis.Cache
	if !cfg.Redis.Disabled {
		cache, err = redis.NewCache(redisConfigFrom(cfg))
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer cache.Close()
	}

	localBusConfig := messaging.DefaultInMemoryEventBusConfig()
	localBusConfig.Logger = slogger

	var eventBus shared.EventBus
	if cache != nil {
		redisBus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         redis.NewEventBusClient(cache),
			InstanceID:     hostnameInstanceID(),
			LocalBusConfig: localBusConfig,
			Logger:         slogger,
		})
		if err != nil {
			return fmt.Errorf("create event bus: %w", err)
		}
		defer redisBus.Close()
		eventBus = redisBus
	} else {
		localBus := messaging.NewInMemoryEventBus(localBusConfig)
		defer localBus.Close()
		eventBus = localBus
	}

	progressRepo := postgres.NewProgressRepository(dbConn)

	var keyLocker progress.KeyLocker
	if cache != nil {
		// The worker shares the lock keyspace with the API server so a sweep
		// never races a live pipeline run on the same key.
		keyLocker = redis.NewKeyLocker(cache, cfg.Engine.KeyLockTTL)
	} else {
		keyLocker = memory.NewKeyLocker()
	}

	clock := timeutil.NewClock(cfg.App.Location)

	// ─────────────────────────────────────────────────────────────────────────
	// Jobs
	// ─────────────────────────────────────────────────────────────────────────

	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:        slogger,
		Timezone:      cfg.App.Location,
		EnableMetrics: cfg.Observability.MetricsEnabled,
	})

	sweepJob := jobs.NewStreakSweepJob(
		progressRepo, keyLocker, eventBus, clock, slogger,
		jobs.StreakSweepConfig{
			MaxConcurrentKeys: cfg.Worker.MaxConcurrentKeys,
			Timeout:           cfg.Worker.SweepTimeout,
		})

	sweepExpr := fmt.Sprintf("%d %d * * *", cfg.Worker.SweepMinute, cfg.Worker.SweepHour)
	sweepSchedule, err := scheduler.ParseCronExpression(sweepExpr)
	if err != nil {
		return fmt.Errorf("parse sweep schedule: %w", err)
	}
	if err := sched.Register(sweepJob, sweepSchedule); err != nil {
		return fmt.Errorf("register streak sweep: %w", err)
	}

	if cfg.Platform.Enabled {
		clientConfig := platform.DefaultClientConfig(cfg.Platform.BaseURL)
		clientConfig.APIKey = cfg.Platform.APIKey
		clientConfig.Timeout = cfg.Platform.Timeout
		clientConfig.RateLimiterConfig = platform.SyncRateLimiterConfig()
		clientConfig.Logger = slogger
		platformClient := platform.NewClient(clientConfig)

		syncJob := jobs.NewCatalogSyncJob(
			platformClient,
			postgres.NewTestRepository(dbConn),
			postgres.NewDiagnosticRepository(dbConn),
			slogger,
			jobs.DefaultCatalogSyncConfig())
		if err := sched.Register(syncJob, scheduler.NewIntervalSchedule(cfg.Platform.SyncInterval)); err != nil {
			return fmt.Errorf("register catalog sync: %w", err)
		}

		recorder := command.NewRecordBatchActivityHandler(
			command.NewRecordActivityHandler(progressRepo, keyLocker, nil, eventBus, clock))
		backfillConfig := jobs.DefaultActivityBackfillConfig()
		backfillConfig.Window = cfg.Platform.BackfillWindow
		backfillJob := jobs.NewActivityBackfillJob(platformClient, recorder, slogger, backfillConfig)
		if err := sched.Register(backfillJob, scheduler.NewIntervalSchedule(cfg.Platform.SyncInterval)); err != nil {
			return fmt.Errorf("register activity backfill: %w", err)
		}
	} else {
		slogger.Info("platform sync disabled; running streak sweep only")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Run until signalled
	// ─────────────────────────────────────────────────────────────────────────

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	slogger.Info("shutdown signal received", "signal", sig.String())

	if err := sched.Stop(); err != nil {
		slogger.Warn("scheduler stop", "error", err)
	}

	slogger.Info("worker stopped")
	return nil
}

// newSlogLogger builds the process logger from observability settings.
func newSlogLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Observability.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Observability.LogFormat == "text" || cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

// redisConfigFrom maps the application Redis settings onto the cache config.
func redisConfigFrom(cfg *config.Config) redis.Config {
	rc := redis.DefaultConfig()
	if cfg.Redis.URL != "" {
		rc.URL = cfg.Redis.URL
	}
	if cfg.Redis.Host != "" {
		rc.Host = cfg.Redis.Host
	}
	if cfg.Redis.Port != 0 {
		rc.Port = cfg.Redis.Port
	}
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	if cfg.Redis.PoolSize > 0 {
		rc.PoolSize = cfg.Redis.PoolSize
	}
	if cfg.Redis.MinIdleConns > 0 {
		rc.MinIdleConns = cfg.Redis.MinIdleConns
	}
	if cfg.Redis.DialTimeout > 0 {
		rc.DialTimeout = cfg.Redis.DialTimeout
	}
	if cfg.Redis.ReadTimeout > 0 {
		rc.ReadTimeout = cfg.Redis.ReadTimeout
	}
	if cfg.Redis.WriteTimeout > 0 {
		rc.WriteTimeout = cfg.Redis.WriteTimeout
	}
	return rc
}

// hostnameInstanceID derives a bus instance ID so this process can filter
// its own republished events.
func hostnameInstanceID() string {
	host, err := os.Hostname()
	if err != nil {
		return fmt.Sprintf("worker-%d", os.Getpid())
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
