// Package metrics exposes Prometheus counters and histograms for the HTTP
// API and the record store.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ignite/health-surveillance/internal/analytics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "health"

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	requestDur   *prometheus.HistogramVec
	fetches      *prometheus.CounterVec
	fetchDur     prometheus.Histogram
	fetchRecords prometheus.Histogram
}

// New builds and registers every collector.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route pattern and status code",
	}, []string{"route", "status"})
	m.requestDur = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
	m.fetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "fetches_total",
		Help:      "Record store fetches by outcome",
	}, []string{"outcome"})
	m.fetchDur = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "fetch_duration_seconds",
		Help:      "Record store fetch latency",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 1.5, 2.5, 5, 10},
	})
	m.fetchRecords = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "fetch_records",
		Help:      "Rows returned per successful fetch",
		Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
	})

	m.registry.MustRegister(
		m.requests, m.requestDur,
		m.fetches, m.fetchDur, m.fetchRecords,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency labelled by the chi route
// pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.requestDur.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// InstrumentStore wraps store so every fetch is timed and counted. A nil
// receiver returns store unchanged.
func (m *Metrics) InstrumentStore(store analytics.RecordStore) analytics.RecordStore {
	if m == nil {
		return store
	}
	return &instrumentedStore{next: store, m: m}
}

type instrumentedStore struct {
	next analytics.RecordStore
	m    *Metrics
}

func (s *instrumentedStore) Fetch(ctx context.Context, q analytics.Query) ([]analytics.Record, error) {
	start := time.Now()
	recs, err := s.next.Fetch(ctx, q)
	s.m.fetchDur.Observe(time.Since(start).Seconds())
	s.m.fetches.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		s.m.fetchRecords.Observe(float64(len(recs)))
	}
	return recs, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
