// Package app wires the configured dependencies shared by the binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/health-surveillance/internal/analytics"
	"github.com/ignite/health-surveillance/internal/config"
	"github.com/ignite/health-surveillance/internal/location"
	"github.com/ignite/health-surveillance/internal/metrics"
	"github.com/ignite/health-surveillance/internal/pkg/logger"
	"github.com/ignite/health-surveillance/internal/repository/postgres"
	"github.com/redis/go-redis/v9"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// OpenDB connects to the record store and verifies the connection.
func OpenDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url is required")
	}
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns / 2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// OpenRedis returns nil when no Redis is configured or reachable; callers
// treat Redis as optional.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.URL == "" {
		return nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		logger.Warn("invalid redis url, continuing without redis", "error", err.Error())
		return nil
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, continuing without redis", "error", err.Error())
		client.Close()
		return nil
	}
	return client
}

// NewResolver builds the district resolver from the canonical list, which
// is the built-in one unless a districts file is configured.
func NewResolver(cfg *config.Config) (*location.Resolver, error) {
	districts, err := location.LoadDistricts(cfg.DistrictsFile)
	if err != nil {
		return nil, err
	}
	cache := location.NewMatcherCache(cfg.Analytics.ResolverCacheCapacity)
	return location.NewResolver(districts, cache, cfg.Analytics.FuzzyMaxDistance), nil
}

// NewEngine builds the analytics engine over store.
func NewEngine(cfg *config.Config, store analytics.RecordStore) (*analytics.Engine, error) {
	settings, err := cfg.AnalyticsSettings()
	if err != nil {
		return nil, err
	}
	resolver, err := NewResolver(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("analytics engine ready",
		"districts", len(resolver.Districts()),
		"timezone", settings.Location.String(),
		"query_timeout_ms", settings.QueryTimeout.Milliseconds())
	return analytics.NewEngine(store, resolver, settings), nil
}

// NewPostgresEngine is NewEngine over the Postgres event store. Fetches are
// instrumented when m is non-nil.
func NewPostgresEngine(cfg *config.Config, db *sql.DB, m *metrics.Metrics) (*analytics.Engine, error) {
	return NewEngine(cfg, m.InstrumentStore(postgres.NewEventStore(db)))
}
