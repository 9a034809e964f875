package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ignite/health-surveillance/internal/metrics"
)

// RouteOptions carries what SetupRoutes needs besides the handlers.
type RouteOptions struct {
	AllowedOrigins []string
	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter *RateLimiter
	Health      *HealthChecker
	// Metrics is optional; nil disables instrumentation and the endpoint.
	Metrics     *metrics.Metrics
	MetricsPath string
}

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, opts RouteOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))

	// Health check (never rate limited)
	if opts.Health != nil {
		r.Get("/health", opts.Health.HandleHealth)
		r.Get("/health/live", opts.Health.HandleLiveness)
		r.Get("/health/ready", opts.Health.HandleReadiness)
	} else {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"healthy"}`))
		})
	}

	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, opts.Metrics.Handler())
	}

	r.Route("/api/analytics", func(r chi.Router) {
		if opts.RateLimiter != nil {
			r.Use(opts.RateLimiter.Middleware)
		}
		r.Get("/hierarchy", h.GetHierarchy)
		r.Get("/heatmap", h.GetHeatmap)
		r.Get("/trends", h.GetTrends)
		r.Get("/leaderboard", h.GetLeaderboard)
	})

	return r
}
