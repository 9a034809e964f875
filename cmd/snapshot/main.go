// Command snapshot exports the day's hierarchy and heatmap views to S3. It
// is meant to run from a scheduler; concurrent runs are serialized by a
// distributed lock so only one of them uploads.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata" // container images ship without zoneinfo

	"github.com/ignite/health-surveillance/internal/app"
	"github.com/ignite/health-surveillance/internal/config"
	"github.com/ignite/health-surveillance/internal/pkg/distlock"
	"github.com/ignite/health-surveillance/internal/pkg/logger"
	"github.com/ignite/health-surveillance/internal/snapshot"
)

func main() {
	configPath := "config/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		logger.Error("failed to load config", "path", configPath, "error", err.Error())
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	if !cfg.Snapshot.Enabled {
		logger.Info("snapshot export disabled")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("snapshot export failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	db, err := app.OpenDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	engine, err := app.NewPostgresEngine(cfg, db, nil)
	if err != nil {
		return err
	}

	s3Client, err := snapshot.NewS3Client(ctx, cfg.Snapshot.S3Region)
	if err != nil {
		return err
	}

	redisClient := app.OpenRedis(ctx, cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}
	lock := distlock.NewLock(redisClient, db, snapshot.LockKey, cfg.Snapshot.LockTTL())

	exporter := snapshot.NewExporter(engine, s3Client, lock, snapshot.Options{
		Bucket:    cfg.Snapshot.S3Bucket,
		Prefix:    cfg.Snapshot.Prefix,
		RangeDays: cfg.Snapshot.RangeDays,
	})
	res, err := exporter.Export(ctx)
	if err != nil {
		return err
	}
	if res.Ran {
		logger.Info("snapshot export complete", "run_id", res.RunID, "objects", len(res.Keys))
	}
	return nil
}
