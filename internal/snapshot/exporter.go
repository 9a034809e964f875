// Package snapshot exports dashboard views as JSON objects to S3 so a day's
// figures can be looked up after the record store has moved on.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/ignite/health-surveillance/internal/analytics"
	"github.com/ignite/health-surveillance/internal/pkg/distlock"
	"github.com/ignite/health-surveillance/internal/pkg/logger"
)

// LockKey is the distributed lock name shared by every exporter replica.
const LockKey = "snapshot-export"

// ObjectPutter is the slice of the S3 API the exporter needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Views are the engine views that get exported.
type Views interface {
	Hierarchy(ctx context.Context, p analytics.ViewParams) (*analytics.Hierarchy, error)
	Heatmap(ctx context.Context, p analytics.ViewParams) (*analytics.Heatmap, error)
}

// Options configure an Exporter.
type Options struct {
	Bucket    string
	Prefix    string
	RangeDays int
}

// Result describes one export run.
type Result struct {
	RunID string
	// Ran is false when another replica held the lock.
	Ran  bool
	Keys []string
}

// Exporter writes the hierarchy and heatmap views to S3 under a lock.
type Exporter struct {
	views Views
	s3    ObjectPutter
	lock  distlock.DistLock
	opts  Options
	newID func() string
}

// NewExporter wires an exporter.
func NewExporter(views Views, putter ObjectPutter, lock distlock.DistLock, opts Options) *Exporter {
	return &Exporter{
		views: views,
		s3:    putter,
		lock:  lock,
		opts:  opts,
		newID: func() string { return uuid.New().String() },
	}
}

// NewS3Client loads the default AWS config for region.
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for snapshots: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// Export computes both views and uploads them. Nothing is uploaded unless
// both views were computed.
func (e *Exporter) Export(ctx context.Context) (Result, error) {
	if e.opts.Bucket == "" {
		return Result{}, errors.New("snapshot bucket not configured")
	}
	res := Result{RunID: e.newID()}

	ran, err := distlock.WithLock(ctx, e.lock, func(ctx context.Context) error {
		keys, err := e.export(ctx, res.RunID)
		res.Keys = keys
		return err
	})
	res.Ran = ran
	if err != nil {
		return res, err
	}
	if !ran {
		logger.Info("snapshot skipped, another run holds the lock", "run_id", res.RunID)
	}
	return res, nil
}

func (e *Exporter) export(ctx context.Context, runID string) ([]string, error) {
	params := analytics.ViewParams{RangeDays: e.opts.RangeDays}

	hierarchy, err := e.views.Hierarchy(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("build hierarchy: %w", err)
	}
	heatmap, err := e.views.Heatmap(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("build heatmap: %w", err)
	}

	day := hierarchy.Window.End.Format("2006-01-02")
	keys := make([]string, 0, 2)
	for _, obj := range []struct {
		view    string
		payload any
	}{
		{"hierarchy", hierarchy},
		{"heatmap", heatmap},
	} {
		key := path.Join(e.opts.Prefix, day, fmt.Sprintf("%s-%s.json", obj.view, runID))
		if err := e.put(ctx, key, runID, obj.payload); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (e *Exporter) put(ctx context.Context, key, runID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling snapshot %s: %w", key, err)
	}

	started := time.Now()
	_, err = e.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.opts.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{"run-id": runID},
	})
	if err != nil {
		return fmt.Errorf("S3 PutObject %s/%s: %w", e.opts.Bucket, key, err)
	}

	logger.Info("snapshot uploaded",
		"bucket", e.opts.Bucket,
		"key", key,
		"bytes", len(body),
		"elapsed_ms", time.Since(started).Milliseconds())
	return nil
}
