package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tidemarkhq/tidemark/internal/application"
	"github.com/tidemarkhq/tidemark/internal/domain"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/api"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/auth"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/cache"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/config"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/database"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/logging"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/metrics"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/postgres"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/worker"
)

func main() {
	logger := logging.New()
	logger.Info("tidemark starting up")

	if err := run(logger); err != nil {
		logger.Error("application failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(logger *logging.Logger) error {
	// load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err.Error())
		return err
	}

	// build rotation schemes from config
	schemes, err := buildSchemes(cfg.Tracker)
	if err != nil {
		return err
	}

	// establish database connection
	conn, err := database.New(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	// run migrations
	migrator := database.NewMigrator(conn, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := migrator.Run(ctx); err != nil {
		return err
	}

	// verify health after migrations
	if err := conn.HealthCheck(ctx); err != nil {
		return err
	}

	logger.Info("tidemark infrastructure ready",
		"schema", conn.Schema(),
		"timezone", cfg.Tracker.Timezone,
		"schemes", len(schemes),
	)

	// initialize prometheus metrics
	appMetrics := metrics.New()

	// initialize jwt validator for the admin surface
	jwtValidator := auth.NewJWTValidator(cfg.Auth.JWTSecret)

	// initialize repositories
	pool := conn.Pool()
	eventRepo := postgres.NewEventRepository(pool, conn.Schema())
	bucketRepo := postgres.NewBucketRepository(pool, conn.Schema())
	statsRepo := postgres.NewPeriodStatsRepository(pool, conn.Schema())

	// initialize redis (optional - disabled if REDIS_URL is empty)
	var redisClient *cache.RedisClient
	if cfg.Redis.URL != "" {
		redisClient, err = cache.NewRedisClient(cache.RedisConfig{URL: cfg.Redis.URL}, logger)
		if err != nil {
			logger.Error("failed to create redis client", "error", err.Error())
			return err
		}

		if err := redisClient.Connect(ctx); err != nil {
			logger.Warn("redis connection failed, continuing without cache", "error", err.Error())
			redisClient = nil
		} else {
			defer redisClient.Close()
			logger.Info("redis forecast cache enabled")
		}
	}

	// initialize event ingestion worker (async buffer pattern)
	ingestionWorker := worker.NewIngestWorker(eventRepo, worker.DefaultIngestConfig(), logger).
		WithBufferGauge(appMetrics)

	// start the ingestion worker before accepting requests
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	ingestionWorker.Start(workerCtx)

	// initialize use cases
	location := schemes[0].Location()

	ingestUseCase := application.NewIngestRecordsUseCase(ingestionWorker, logger).
		WithMetrics(appMetrics)

	rebuildUseCase := application.NewRebuildHeatmapUseCase(eventRepo, bucketRepo, location, logger).
		WithMetrics(appMetrics)

	summarizeUseCase := application.NewSummarizePeriodsUseCase(schemes, bucketRepo, statsRepo, logger).
		WithMetrics(appMetrics)

	forecastUseCase := application.NewForecastUseCase(schemes, eventRepo, bucketRepo, logger).
		WithMetrics(appMetrics)
	if redisClient != nil {
		forecastUseCase = forecastUseCase.WithCache(redisClient)
	}

	activityQuery := application.NewActivityQuery(bucketRepo, statsRepo, logger)

	// start the scheduled recompute pipeline
	scheduler := worker.NewRecomputeScheduler(
		cfg.Tracker.RecomputeCron,
		rebuildUseCase,
		summarizeUseCase,
		forecastUseCase,
		logger,
	)
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	// initialize http server
	serverConfig := api.DefaultServerConfig()
	if port := os.Getenv("PORT"); port != "" {
		serverConfig.Addr = ":" + port
	}

	server := api.NewServer(serverConfig, logger)

	// register routes
	api.RegisterRoutes(server.Echo(), api.RouterConfig{
		Schemes:         schemes,
		IngestUseCase:   ingestUseCase,
		ForecastUseCase: forecastUseCase,
		ActivityQuery:   activityQuery,
		PipelineRunner:  scheduler,
		JWTValidator:    jwtValidator,
		Readiness:       conn,
		Logger:          logger,
		Metrics:         appMetrics,
	})

	// start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("http server error", "error", err.Error())
		}
	}()

	// wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("tidemark shutting down")

	// stop the cron pipeline first so no run starts mid-shutdown
	scheduler.Stop()

	// stop background workers
	workerCancel()

	// stop ingestion worker and drain buffer
	ingestionWorker.Stop()

	// graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err.Error())
		return err
	}

	logger.Info("tidemark shutdown complete")
	return nil
}

// buildSchemes turns scheme declarations into validated rotation schemes.
func buildSchemes(cfg config.TrackerConfig) ([]domain.RotationScheme, error) {
	schemes := make([]domain.RotationScheme, 0, len(cfg.Schemes))
	for _, sc := range cfg.Schemes {
		scheme, err := domain.NewRotationScheme(sc.Name, sc.Anchor, cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("scheme %s: %w", sc.Name, err)
		}
		schemes = append(schemes, scheme)
	}
	return schemes, nil
}
