package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ignite/health-surveillance/internal/analytics"
	"github.com/ignite/health-surveillance/internal/location"
	"github.com/ignite/health-surveillance/internal/pkg/distlock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 15, 10, 30, 0, 0, time.UTC)

type putCall struct {
	bucket, key, contentType string
	metadata                 map[string]string
	body                     []byte
}

type fakeS3 struct {
	mu    sync.Mutex
	calls []putCall
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, putCall{
		bucket:      aws.ToString(in.Bucket),
		key:         aws.ToString(in.Key),
		contentType: aws.ToString(in.ContentType),
		metadata:    in.Metadata,
		body:        body,
	})
	return &s3.PutObjectOutput{}, nil
}

type staticStore struct {
	records []analytics.Record
	err     error
}

func (s staticStore) Fetch(ctx context.Context, q analytics.Query) ([]analytics.Record, error) {
	return s.records, s.err
}

func newEngine(store analytics.RecordStore) *analytics.Engine {
	settings := analytics.DefaultSettings()
	settings.Now = func() time.Time { return fixedNow }
	resolver := location.NewResolver(location.DefaultDistricts(), location.NewMatcherCache(16), location.DefaultMaxDistance)
	return analytics.NewEngine(store, resolver, settings)
}

func setupLock(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestExport(t *testing.T) {
	client := setupLock(t)
	store := staticStore{records: []analytics.Record{{
		ID: "1", SubjectID: "MIG-1", District: "Kollam", IssuedAt: fixedNow.Add(-time.Hour), ConfirmedDisease: "Dengue",
	}}}
	putter := &fakeS3{}
	exp := NewExporter(newEngine(store), putter, distlock.NewRedisLock(client, LockKey, time.Minute),
		Options{Bucket: "health-snapshots", Prefix: "snapshots", RangeDays: 7})
	exp.newID = func() string { return "run-1" }

	res, err := exp.Export(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Ran)
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, []string{
		"snapshots/2026-10-15/hierarchy-run-1.json",
		"snapshots/2026-10-15/heatmap-run-1.json",
	}, res.Keys)

	require.Len(t, putter.calls, 2)
	for _, c := range putter.calls {
		assert.Equal(t, "health-snapshots", c.bucket)
		assert.Equal(t, "application/json", c.contentType)
		assert.Equal(t, "run-1", c.metadata["run-id"])
	}

	var heatmap analytics.Heatmap
	require.NoError(t, json.Unmarshal(putter.calls[1].body, &heatmap))
	assert.Equal(t, "kollam", heatmap.Districts[0].Slug)
	assert.Equal(t, 7, heatmap.Window.RangeDays)

	// the lock is released after the run
	ok, err := distlock.NewRedisLock(client, LockKey, time.Minute).Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExportSkipsWhenLocked(t *testing.T) {
	client := setupLock(t)
	holder := distlock.NewRedisLock(client, LockKey, time.Minute)
	_, err := holder.Acquire(context.Background())
	require.NoError(t, err)

	putter := &fakeS3{}
	exp := NewExporter(newEngine(staticStore{}), putter, distlock.NewRedisLock(client, LockKey, time.Minute),
		Options{Bucket: "health-snapshots", Prefix: "snapshots", RangeDays: 7})

	res, err := exp.Export(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Ran)
	assert.NotEmpty(t, res.RunID)
	assert.Empty(t, putter.calls)
}

func TestExportUploadsNothingWhenAViewFails(t *testing.T) {
	client := setupLock(t)
	putter := &fakeS3{}
	exp := NewExporter(newEngine(staticStore{err: errors.New("connection refused")}), putter,
		distlock.NewRedisLock(client, LockKey, time.Minute),
		Options{Bucket: "health-snapshots", Prefix: "snapshots", RangeDays: 7})

	res, err := exp.Export(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, analytics.ErrUpstreamFailure))
	assert.True(t, res.Ran)
	assert.Empty(t, putter.calls)
}

func TestExportUploadError(t *testing.T) {
	client := setupLock(t)
	exp := NewExporter(newEngine(staticStore{}), &fakeS3{err: errors.New("AccessDenied")},
		distlock.NewRedisLock(client, LockKey, time.Minute),
		Options{Bucket: "health-snapshots", Prefix: "snapshots", RangeDays: 7})

	_, err := exp.Export(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3 PutObject health-snapshots/snapshots/")
}

func TestExportRequiresBucket(t *testing.T) {
	exp := NewExporter(newEngine(staticStore{}), &fakeS3{}, nil, Options{})
	_, err := exp.Export(context.Background())
	assert.Error(t, err)
}
