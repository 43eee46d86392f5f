package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	sqltrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/database/sql"
	redistrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/redis/go-redis.v9"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
	"gopkg.in/DataDog/dd-trace-go.v1/profiler"

	"github.com/osinovi/user-service/internal/common/logging"
	"github.com/osinovi/user-service/internal/config"
	"github.com/osinovi/user-service/internal/presentation/router"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := logging.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	// Start Datadog tracer (APM). Spans are created per layer
	// (handler, usecase, repository) and shipped on span.Finish().
	tracer.Start(
		tracer.WithEnv(cfg.DDEnv),
		tracer.WithService(cfg.DDService),
		tracer.WithServiceVersion(cfg.DDVersion),
		tracer.WithLogStartup(true),
	)
	defer tracer.Stop()

	// Continuous profiling: CPU time and heap allocations.
	if err := profiler.Start(
		profiler.WithService(cfg.DDService),
		profiler.WithEnv(cfg.DDEnv),
		profiler.WithVersion(cfg.DDVersion),
		profiler.WithProfileTypes(
			profiler.CPUProfile,
			profiler.HeapProfile,
		),
	); err != nil {
		logger.WithError(err).Warn("Failed to start profiler")
	}
	defer profiler.Stop()

	// DogStatsD client, used for the cache hit/miss/error counters.
	statsdClient, err := statsd.New(fmt.Sprintf("%s:8125", cfg.DDAgent),
		statsd.WithTags([]string{
			"env:" + cfg.DDEnv,
			"service:" + cfg.DDService,
		}),
	)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize StatsD client")
		os.Exit(1)
	}
	defer statsdClient.Close()

	// MySQL with tracing
	db, err := sqltrace.Open("mysql", cfg.MySQL.DSN(), sqltrace.WithServiceName("mysql"))
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MySQL")
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.WithError(err).Error("Failed to ping MySQL")
		os.Exit(1)
	}
	logger.Info("Successfully connected to MySQL")

	// Redis with tracing
	redisClient := redistrace.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr(),
	}, redistrace.WithServiceName("redis"))

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Error("Failed to connect to Redis")
		os.Exit(1)
	}
	defer redisClient.Close()
	logger.Info("Successfully connected to Redis")

	locator := SetupRepositories(db, redisClient, statsdClient, cfg, logger)
	e := router.Setup(cfg, logger, locator)

	go func() {
		logger.WithField("port", cfg.Port).Info("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server failed to start")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
