package analytics

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ignite/health-surveillance/internal/location"
)

// fixedNow is 2026-10-15 10:30 in UTC; every test window is anchored to it.
var fixedNow = time.Date(2026, 10, 15, 10, 30, 0, 0, time.UTC)

func testSettings() Settings {
	s := DefaultSettings()
	s.Now = func() time.Time { return fixedNow }
	s.Location = time.UTC
	return s
}

func testResolver() *location.Resolver {
	return location.NewResolver(location.DefaultDistricts(), location.NewMatcherCache(16), location.DefaultMaxDistance)
}

// daysAgo returns noon UTC n days before fixedNow.
func daysAgo(n int) time.Time {
	return time.Date(2026, 10, 15-n, 12, 0, 0, 0, time.UTC)
}

type recordOpt func(*Record)

func withTaluk(taluk, village string) recordOpt {
	return func(r *Record) { r.Taluk, r.Village = taluk, village }
}

func contagious() recordOpt { return func(r *Record) { r.Contagious = true } }

func suspected(d string) recordOpt {
	return func(r *Record) { r.ConfirmedDisease, r.SuspectedDisease = "", d }
}

var recordSeq int64

func rec(subject, district, disease string, issued time.Time, opts ...recordOpt) Record {
	r := Record{
		ID:               fmt.Sprintf("rec-%d", atomic.AddInt64(&recordSeq, 1)),
		SubjectID:        subject,
		District:         district,
		Taluk:            "Central",
		Village:          "Ward 1",
		Camp:             "Camp A",
		IssuedAt:         issued,
		ConfirmedDisease: disease,
	}
	for _, o := range opts {
		o(&r)
	}
	return r
}

// memStore is an in-memory RecordStore that filters by the query window and
// records the queries it receives.
type memStore struct {
	mu      sync.Mutex
	records []Record
	err     error
	delay   time.Duration
	queries []Query
	// failWhen makes only the matching query fail.
	failWhen func(Query) bool
}

func (m *memStore) Fetch(ctx context.Context, q Query) ([]Record, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil && (m.failWhen == nil || m.failWhen(q)) {
		return nil, m.err
	}

	out := make([]Record, 0, len(m.records))
	for _, r := range m.records {
		if !r.IssuedAt.Before(q.Start) && !r.IssuedAt.After(q.End) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) queryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}
