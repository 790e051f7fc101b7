// Package main is the entry point for the progress engine API server.
//
// The server exposes the HTTP surface of the engine: activity ingestion,
// checkpoint and diagnostic submission, progress and heatmap reads, roadmap
// recommendations, the platform webhook, and health/metrics endpoints.
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
	"github.com/JaoharRaihan/WorkIn-sub001/internal/application/eventhandler"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/application/query"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/infrastructure/external/platform"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/infrastructure/messaging"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/infrastructure/persistence/memory"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/infrastructure/persistence/postgres"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/infrastructure/persistence/redis"
	httpserver "github.com/JaoharRaihan/WorkIn-sub001/internal/interface/http"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/interface/http/handlers"
	"github.com/JaoharRaihan/WorkIn-sub001/pkg/logger"
	"github.com/JaoharRaihan/WorkIn-sub001/pkg/timeutil"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ─────────────────────────────────────────────────────────────────────────
	// Configuration and logging
	// ─────────────────────────────────────────────────────────────────────────

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slogger := newSlogLogger(cfg)
	slog.SetDefault(slogger)

	httpLogger := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	})

	slogger.Info("starting progress engine server",
		"version", cfg.App.Version,
		"environment", string(cfg.App.Environment),
		"timezone", cfg.App.Timezone,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─────────────────────────────────────────────────────────────────────────
	// PostgreSQL
	// ─────────────────────────────────────────────────────────────────────────

	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if status, err := migrator.Status(ctx); err == nil {
		applied := 0
		for _, m := range status {
			if m.IsApplied {
				applied++
			}
		}
		slogger.Info("database ready", "migrations_applied", applied)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Redis (optional; the engine degrades to uncached reads without it)
	// ─────────────────────────────────────────────────────────────────────────

	var (
		cache         *redis.Cache
		progressCache *redis.ProgressCache
	)
	if !cfg.Redis.Disabled {
		cache, err = redis.NewCache(redisConfigFrom(cfg))
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer cache.Close()
		progressCache = redis.NewProgressCache(cache)
		slogger.Info("redis connected", "addr", redisConfigFrom(cfg).Addr())
	} else {
		slogger.Warn("redis disabled; running without read cache or distributed locks")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Event bus
	// ─────────────────────────────────────────────────────────────────────────

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

	// ─────────────────────────────────────────────────────────────────────────
	// Repositories and locks
	// ─────────────────────────────────────────────────────────────────────────

	progressRepo := postgres.NewProgressRepository(dbConn)
	testRepo := postgres.NewTestRepository(dbConn)
	diagnosticRepo := postgres.NewDiagnosticRepository(dbConn)
	analysisRepo := postgres.NewAnalysisRepository(dbConn)

	var keyLocker progress.KeyLocker
	if cache != nil {
		keyLocker = redis.NewKeyLocker(cache, cfg.Engine.KeyLockTTL)
	} else {
		keyLocker = memory.NewKeyLocker()
	}

	clock := timeutil.NewClock(cfg.App.Location)

	// ─────────────────────────────────────────────────────────────────────────
	// Application layer
	// ─────────────────────────────────────────────────────────────────────────

	recordHandler := command.NewRecordActivityHandler(progressRepo, keyLocker, nil, eventBus, clock)
	batchHandler := command.NewRecordBatchActivityHandler(recordHandler)
	checkpointHandler := command.NewSubmitCheckpointHandler(testRepo, recordHandler, eventBus, clock,
		command.SubmitCheckpointConfig{
			PassXP:         cfg.Engine.CheckpointPassXP,
			PerfectBonusXP: cfg.Engine.PerfectScoreBonusXP,
		})
	diagnosticHandler := command.NewSubmitDiagnosticHandler(diagnosticRepo, analysisRepo, nil, recordHandler, eventBus, clock,
		command.SubmitDiagnosticConfig{
			CompletionXP: cfg.Engine.DiagnosticCompletionXP,
		})
	resetHandler := command.NewResetProgressHandler(progressRepo, keyLocker, eventBus, clock)

	var readCache query.ReadCache
	if progressCache != nil {
		readCache = progressCache
	}
	getProgressHandler := query.NewGetProgressHandler(progressRepo, readCache, clock)
	getHeatmapHandler := query.NewGetHeatmapHandler(progressRepo, readCache, clock)
	getRoadmapsHandler := query.NewGetRecommendedRoadmapsHandler(analysisRepo, nil)

	// ─────────────────────────────────────────────────────────────────────────
	// Event subscribers
	// ─────────────────────────────────────────────────────────────────────────

	// Subscriptions go through the dispatcher so a redis blip or slow
	// handler is retried and, if it keeps failing, dead-lettered instead
	// of dropped.
	dispatcher := messaging.NewDispatcher(messaging.DispatcherConfig{
		Bus:           eventBus,
		Logger:        slogger,
		EnableMetrics: cfg.Observability.MetricsEnabled,
	})

	if progressCache != nil {
		invalidation := eventhandler.NewProgressChangedHandler(progressCache, slogger)
		if err := invalidation.Register(dispatcher); err != nil {
			return fmt.Errorf("register cache invalidation: %w", err)
		}
	}
	milestoneLogger := eventhandler.NewMilestoneUnlockedHandler(slogger)
	if err := milestoneLogger.Register(dispatcher); err != nil {
		return fmt.Errorf("register milestone handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Health checks and webhook
	// ─────────────────────────────────────────────────────────────────────────

	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	if cache != nil {
		healthChecker.AddCheck("cache", handlers.NewCacheCheck(cache))
	}
	if cfg.Platform.Enabled {
		clientConfig := platform.DefaultClientConfig(cfg.Platform.BaseURL)
		clientConfig.APIKey = cfg.Platform.APIKey
		clientConfig.Timeout = cfg.Platform.Timeout
		clientConfig.Logger = slogger
		platformClient := platform.NewClient(clientConfig)
		healthChecker.AddCheck("platform", handlers.NewExternalAPICheck(platformClient))
	}

	var webhookHandler handlers.WebhookHandler
	if cfg.Features.WebhooksEnabled(nil) {
		webhookHandler = handlers.NewActivityWebhookHandler(batchHandler)
	} else {
		slogger.Warn("activity webhooks disabled by feature flag")
		webhookHandler = handlers.NewNoopWebhookHandler()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// HTTP server
	// ─────────────────────────────────────────────────────────────────────────

	serverConfig := httpserver.DefaultConfig()
	serverConfig.Host = cfg.HTTP.Host
	serverConfig.Port = cfg.HTTP.Port
	serverConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	serverConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	serverConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	serverConfig.EnableCORS = cfg.HTTP.EnableCORS
	serverConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	serverConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	serverConfig.APIKeyHeader = cfg.HTTP.APIKeyHeader
	serverConfig.APIKeys = cfg.HTTP.APIKeys
	serverConfig.WebhookSecret = cfg.HTTP.WebhookSecret
	serverConfig.EnableMetrics = cfg.HTTP.EnableMetrics
	serverConfig.EnablePprof = cfg.HTTP.EnablePprof

	server := httpserver.NewServer(serverConfig, httpserver.Dependencies{
		RecordActivityHandler:         recordHandler,
		BatchActivityHandler:          batchHandler,
		SubmitCheckpointHandler:       checkpointHandler,
		SubmitDiagnosticHandler:       diagnosticHandler,
		ResetProgressHandler:          resetHandler,
		GetProgressHandler:            getProgressHandler,
		GetHeatmapHandler:             getHeatmapHandler,
		GetRecommendedRoadmapsHandler: getRoadmapsHandler,
		Logger:                        httpLogger,
		HealthChecker:                 healthChecker,
		WebhookHandler:                webhookHandler,
	})

	errCh := server.StartAsync()
	slogger.Info("http server listening", "address", server.Address())

	// ─────────────────────────────────────────────────────────────────────────
	// Wait for shutdown
	// ─────────────────────────────────────────────────────────────────────────

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case sig := <-sigCh:
		slogger.Info("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	slogger.Info("server stopped")
	return nil
}

// newSlogLogger builds the process logger from observability settings.
// Production logs JSON for the aggregator; development logs text.
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
		return fmt.Sprintf("server-%d", os.Getpid())
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
