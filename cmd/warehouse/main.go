package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/tair/warehouse-erp/internal/app"
	"github.com/tair/warehouse-erp/kafka"
	"github.com/tair/warehouse-erp/pkg/auth"
	"github.com/tair/warehouse-erp/pkg/config"
	"github.com/tair/warehouse-erp/pkg/database"
	"github.com/tair/warehouse-erp/pkg/grpcx"
	"github.com/tair/warehouse-erp/pkg/httpx"
	"github.com/tair/warehouse-erp/pkg/logger"
	"github.com/tair/warehouse-erp/pkg/tracing"
)

func main() {
	cfg, err := config.Load(getEnv("CONFIG_PATH", ""))
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	logger.Init(logger.Config{
		Service:     cfg.App.Name,
		Environment: cfg.App.Environment,
		Level:       cfg.App.LogLevel,
	})

	logger.Logger.Info().
		Str("environment", cfg.App.Environment).
		Str("log_level", cfg.App.LogLevel).
		Str("order_sequence", cfg.Orders.Sequence).
		Msg("Starting warehouse service")

	// Initialize tracer
	tp, err := tracing.InitTracer(tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.App.Name,
		JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
		SampleRatio:    cfg.Tracing.SampleRatio,
	})
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	dbConfig := database.Config{
		Host:         cfg.Postgres.Host,
		Port:         cfg.Postgres.Port,
		User:         cfg.Postgres.User,
		Password:     cfg.Postgres.Password,
		DBName:       cfg.Postgres.DBName,
		SSLMode:      cfg.Postgres.SSLMode,
		MaxOpenConns: cfg.Postgres.MaxOpen,
		MaxIdleConns: cfg.Postgres.MaxIdle,
	}

	// Run migrations
	if cfg.Postgres.AutoMigrate {
		if err := database.Migrate(dbConfig); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	// Connect to database
	db, err := database.NewGormConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	var rdb redis.UniversalClient
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.Logger.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
		}
		defer client.Close()
		rdb = client
		logger.Logger.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connected, locks are shared")
	}

	var publisher kafka.EventPublisher = kafka.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		p, err := kafka.NewPublisher(cfg.Kafka.Brokers)
		if err != nil {
			logger.Logger.Fatal().Err(err).Strs("brokers", cfg.Kafka.Brokers).Msg("Failed to create Kafka publisher")
		}
		defer p.Close()
		publisher = p
	}

	// Initialize handlers with Wire DI
	reg := prometheus.DefaultRegisterer
	handlers, err := app.InitializeHandlers(cfg, db, rdb, publisher, reg)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize handlers")
	}

	router := app.NewRouter(handlers, app.RouterConfig{
		ServiceName:    cfg.App.Name,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Auth:           auth.NewValidator(cfg.Auth.JWTSecret),
		Metrics:        httpx.NewMetrics(reg),
		Gatherer:       prometheus.DefaultGatherer,
		DB:             sqlDB,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Logger.Info().
			Str("port", cfg.HTTP.Port).
			Str("metrics_endpoint", "/metrics").
			Bool("auth", cfg.Auth.JWTSecret != "").
			Msg("HTTP server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	// gRPC health
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	grpcServer := grpcx.NewServer(cfg.App.Name, grpcx.NewMetrics(reg))
	go grpcServer.Watch(ctx, sqlDB, 10*time.Second)
	go func() {
		if err := grpcServer.Serve(":" + cfg.GRPC.Port); err != nil {
			logger.Logger.Error().Err(err).Msg("gRPC server stopped")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")
	stop()
	grpcServer.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
