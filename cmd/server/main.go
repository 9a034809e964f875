package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // container images ship without zoneinfo

	"github.com/ignite/health-surveillance/internal/api"
	"github.com/ignite/health-surveillance/internal/app"
	"github.com/ignite/health-surveillance/internal/config"
	"github.com/ignite/health-surveillance/internal/metrics"
	"github.com/ignite/health-surveillance/internal/pkg/logger"
)

func main() {
	configPath := "config/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	// Load configuration
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		logger.Error("failed to load config", "path", configPath, "error", err.Error())
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	ctx := context.Background()

	db, err := app.OpenDB(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to record store", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to record store")

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	engine, err := app.NewPostgresEngine(cfg, db, m)
	if err != nil {
		logger.Error("failed to build analytics engine", "error", err.Error())
		os.Exit(1)
	}

	redisClient := app.OpenRedis(ctx, cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}

	opts := api.RouteOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Health:         api.NewHealthChecker(db, redisClient),
		Metrics:        m,
		MetricsPath:    cfg.Metrics.Path,
	}
	if cfg.RateLimit.Enabled {
		if redisClient == nil {
			logger.Warn("rate limiting enabled but redis unavailable, not limiting")
		} else {
			opts.RateLimiter = api.NewRateLimiter(redisClient, cfg.RateLimit.RequestsPerMinute)
		}
	}

	server := api.NewServer(cfg.Server, engine, opts)

	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err.Error())
	}
	logger.Info("server stopped")
}
