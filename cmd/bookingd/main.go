package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"equipment-booking-backend/config"
	"equipment-booking-backend/internal/api"
	"equipment-booking-backend/internal/backend"
	"equipment-booking-backend/internal/db"
	"equipment-booking-backend/internal/metrics"
	"equipment-booking-backend/internal/notification"
	"equipment-booking-backend/internal/provider"
	"equipment-booking-backend/internal/session"
	"equipment-booking-backend/internal/store"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Str("path", configPath).Msg("failed to load configuration")
	}

	logger := newLogger(cfg.Server.Debug)
	logger.Info().Str("path", configPath).Msg("configuration loaded")

	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Init(&cfg.Database, cfg.Server.Debug, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	appStore := store.NewGormStore(gormDB)

	if cfg.Database.SeedDemo {
		if err := appStore.Seed(ctx, store.DemoFixture()); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed demo data")
		}
		logger.Info().Msg("demo machine seeded")
	}

	var source provider.Provider = appStore
	if cfg.Provider.Kind == "http" {
		source = provider.NewHTTPProvider(cfg.Provider, &logger)
		logger.Info().Str("base_url", cfg.Provider.BaseURL).Msg("using upstream booking API")
	}

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, cache reads will fall through")
		}
	}
	source = provider.NewCached(source, rdb, cfg.Redis.TTL, &logger)

	submitter, err := backend.New(cfg.Backend, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create booking backend")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	loc := cfg.Location()
	deps := session.Deps{
		Provider:            source,
		Submitter:           submitter,
		Metrics:             m,
		Logger:              &logger,
		Location:            loc,
		ExtraTimeQuestionID: int(cfg.Booking.ExtraTimeQuestionID),
	}

	var push api.StaffPush
	if cfg.Push.Enabled {
		if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
			logger.Fatal().Msg("push is enabled but VAPID keys are not configured")
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool, cfg.Push, &logger)
		pool.Start(ctx)
		deps.Notifier = pool
		push = pool
		logger.Info().Int("subscribers", pool.Subscribers()).Msg("booking notifications enabled")
	}

	registry := session.NewRegistry(deps, cfg.Server.SessionTTL)

	health := func(ctx context.Context) error {
		sqlDB, err := gormDB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}

	handler := api.NewHandler(source, registry, push, health, &logger)
	router := api.NewRouter(handler, api.RouterOptions{
		Server:   cfg.Server,
		Logger:   &logger,
		Metrics:  m,
		Gatherer: reg,
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Str("timezone", loc.String()).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server ListenAndServe")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server Shutdown")
	}
	logger.Info().Msg("server gracefully stopped")
}

func newLogger(debug bool) zerolog.Logger {
	if debug {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).Level(zerolog.InfoLevel).With().Timestamp().Logger()
}
