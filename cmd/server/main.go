package main

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/spuriolabs/spurio/internal/api"
	"github.com/spuriolabs/spurio/internal/api/handlers"
	"github.com/spuriolabs/spurio/internal/cache"
	"github.com/spuriolabs/spurio/internal/config"
	"github.com/spuriolabs/spurio/internal/database"
	"github.com/spuriolabs/spurio/internal/datasets"
	"github.com/spuriolabs/spurio/internal/engine"
	"github.com/spuriolabs/spurio/internal/feedback"
	"github.com/spuriolabs/spurio/internal/logging"
	"github.com/spuriolabs/spurio/internal/middleware"
	"github.com/spuriolabs/spurio/internal/observability"
	"github.com/spuriolabs/spurio/internal/services"
	"github.com/spuriolabs/spurio/internal/telemetry"
)

const serviceVersion = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := observability.InitSentry(cfg.Sentry, serviceVersion, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Sentry disabled: %v\n", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		observability.Flush(ctx)
	}()

	logger := newLogrusLogger(cfg)

	provider, err := telemetry.Init(context.Background(), &telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		Exporter:       cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("Telemetry shutdown incomplete")
		}
	}()

	stdLogger := newStandardLogger(cfg)
	stdLogger.LogStartup("spurio", serviceVersion, cfg.Server.Port)

	ctx := context.Background()

	// Postgres is optional: without it feedback lives in process memory.
	var db *database.PostgresDB
	var feedbackStore engineFeedbackStore
	if pg, err := database.NewPostgresConnection(cfg.Database); err != nil {
		logger.WithError(err).Warn("Postgres unavailable, feedback kept in memory")
		feedbackStore = feedback.NewMemoryStore(cfg.Engine.PriorityThreshold)
	} else {
		db = pg
		defer db.Close()
		store := feedback.NewPostgresStore(db.Pool, cfg.Engine.PriorityThreshold, logger)
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to prepare feedback schema: %w", err)
		}
		feedbackStore = store
	}

	// Redis is optional too: without it records live in memory and rate
	// limiting is off.
	resultTTL, err := cfg.ResultCache.TTLDuration()
	if err != nil {
		return err
	}
	var redis *database.RedisClient
	var records cache.RecordStore
	var limiter *middleware.RateLimiter
	if rc, err := connectRedis(ctx, cfg.Redis, logger); err != nil {
		logger.WithError(err).Warn("Redis unavailable, using in-memory result cache")
		records = cache.NewMemoryStore(resultTTL, time.Minute)
	} else {
		redis = rc
		defer redis.Close()
		records = cache.NewRedisStore(redis.Client, resultTTL, cfg.ResultCache.Prefix, logger)

		window, err := cfg.RateLimit.WindowDuration()
		if err != nil {
			return err
		}
		limiter = middleware.NewRateLimiter(redis, cfg.RateLimit.Requests, window, logger)
	}
	defer func() { _ = records.Close() }()

	worldBank := datasetsClient(cfg, logger)
	collector := services.NewCollectorService(worldBank, cfg.Datasets, logger)

	engineCfg, err := cfg.Engine.Settings()
	if err != nil {
		return err
	}
	eng, err := engine.New(engineCfg, collector, feedbackStore, rand.New(rand.NewSource(cryptoSeed())), logger)
	if err != nil {
		return fmt.Errorf("failed to build correlation engine: %w", err)
	}
	if err := eng.Warm(ctx); err != nil {
		logger.WithError(err).Warn("Dataset cache warm-up failed")
	}

	notifier := services.NewNotifierService(cfg.Telegram, logger)

	cleanup := services.NewCleanupService(feedbackStore, cfg.Feedback, logger)
	cleanup.Start()
	defer cleanup.Stop()

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
		MaxAge:       12 * time.Hour,
	}))

	api.SetupRoutes(router, api.Dependencies{
		Generator:      eng,
		EngineStats:    eng,
		Records:        records,
		Feedback:       feedbackStore,
		Notifier:       notifier,
		DB:             healthChecker(db),
		Redis:          redisChecker(redis),
		Collector:      collector,
		RateLimiter:    limiter,
		AdminKeyHash:   cfg.Security.AdminKeyHash,
		ShareThreshold: cfg.Telegram.ShareThreshold,
		SampleSize:     cfg.Engine.SampleSize,
		Version:        serviceVersion,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       15 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stdLogger.LogShutdown("spurio", "signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}

// engineFeedbackStore is the union of everything the process needs from one
// feedback store: engine prioritization, the HTTP handlers and the retention
// sweep.
type engineFeedbackStore interface {
	engine.FeedbackScorer
	handlers.FeedbackStore
	services.FeedbackPruner
}

// newLogrusLogger builds the shared service logger from config.
func newLogrusLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logging.ParseLogrusLevel(cfg.LogLevel))
	if cfg.Environment == "development" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

// newStandardLogger builds the structured startup/shutdown logger, OTLP-backed
// when telemetry is enabled.
func newStandardLogger(cfg *config.Config) *logging.StandardLogger {
	if cfg.Telemetry.Enabled && cfg.Telemetry.Exporter == "otlp" {
		return logging.NewStandardOTLPLogger(logging.OTLPConfig{
			Enabled:        true,
			Endpoint:       cfg.Telemetry.Endpoint,
			Insecure:       cfg.Telemetry.Insecure,
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: serviceVersion,
			Environment:    cfg.Environment,
			LogLevel:       cfg.LogLevel,
		})
	}
	return logging.NewStandardLogger(cfg.LogLevel, cfg.Environment)
}

// connectRedis dials Redis under the redis_operation retry policy so a slow
// container start does not force an in-memory fallback.
func connectRedis(ctx context.Context, cfg config.RedisConfig, logger *logrus.Logger) (*database.RedisClient, error) {
	var client *database.RedisClient
	retrier := services.NamedRetrier("redis_operation", logger)
	err := retrier.Do(ctx, "redis_connect", func(ctx context.Context) error {
		rc, err := database.NewRedisConnection(cfg)
		if err != nil {
			return err
		}
		if err := rc.HealthCheck(ctx); err != nil {
			rc.Close()
			return err
		}
		client = rc
		return nil
	})
	return client, err
}

// datasetsClient builds the World Bank client, or nil when no countries or
// indicators are configured (synthetic-only mode).
func datasetsClient(cfg *config.Config, logger *logrus.Logger) services.IndicatorFetcher {
	wb := cfg.Datasets.WorldBank
	if len(wb.Countries) == 0 || len(wb.Indicators) == 0 {
		logger.Info("No World Bank sources configured, running on synthetic data only")
		return nil
	}
	return datasets.NewWorldBankClient(wb, logger)
}

// cryptoSeed derives a math/rand seed from the OS entropy source, falling
// back to the clock if that fails.
func cryptoSeed() int64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(buf[:]))
}

// healthChecker hides a typed-nil Postgres handle from the health handler.
func healthChecker(db *database.PostgresDB) handlers.HealthChecker {
	if db == nil {
		return nil
	}
	return db
}

// redisChecker hides a typed-nil Redis handle from the health handler.
func redisChecker(rc *database.RedisClient) handlers.HealthChecker {
	if rc == nil {
		return nil
	}
	return rc
}
