package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/health-surveillance/internal/analytics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	records []analytics.Record
	err     error
}

func (s stubStore) Fetch(ctx context.Context, q analytics.Query) ([]analytics.Record, error) {
	return s.records, s.err
}

func TestInstrumentStore(t *testing.T) {
	m := New()

	ok := m.InstrumentStore(stubStore{records: make([]analytics.Record, 3)})
	recs, err := ok.Fetch(context.Background(), analytics.Query{})
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	failing := m.InstrumentStore(stubStore{err: errors.New("connection refused")})
	_, err = failing.Fetch(context.Background(), analytics.Query{})
	assert.Error(t, err)

	slow := m.InstrumentStore(stubStore{err: context.DeadlineExceeded})
	_, _ = slow.Fetch(context.Background(), analytics.Query{})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("timeout")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.fetchRecords))
}

func TestInstrumentStoreNilMetrics(t *testing.T) {
	var m *Metrics
	store := stubStore{}
	assert.Equal(t, store, m.InstrumentStore(store))
}

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/analytics/{view}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	for _, path := range []string{"/api/analytics/heatmap", "/api/analytics/trends", "/health", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/analytics/{view}", "503")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/health", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("unmatched", "404")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	_, _ = m.InstrumentStore(stubStore{}).Fetch(context.Background(), analytics.Query{})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `health_store_fetches_total{outcome="ok"} 1`))
	assert.Contains(t, body, "go_goroutines")
}
