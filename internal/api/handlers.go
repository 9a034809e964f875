package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ignite/health-surveillance/internal/analytics"
	"github.com/ignite/health-surveillance/internal/pkg/httputil"
	"github.com/ignite/health-surveillance/internal/pkg/logger"
)

const unavailableMessage = "analytics temporarily unavailable"

// Views is the read side the dashboard endpoints serve. *analytics.Engine
// implements it.
type Views interface {
	Hierarchy(ctx context.Context, p analytics.ViewParams) (*analytics.Hierarchy, error)
	Heatmap(ctx context.Context, p analytics.ViewParams) (*analytics.Heatmap, error)
	Trend(ctx context.Context, p analytics.ViewParams) (*analytics.Trend, error)
	Leaderboard(ctx context.Context, p analytics.ViewParams) (*analytics.Leaderboard, error)
}

// Handlers contains the analytics HTTP handlers
type Handlers struct {
	views Views
}

// NewHandlers creates a new Handlers instance
func NewHandlers(views Views) *Handlers {
	return &Handlers{views: views}
}

// viewParams reads the shared query parameters. Non-numeric values are
// treated as absent; range clamping happens in the engine.
func viewParams(r *http.Request) analytics.ViewParams {
	return analytics.ViewParams{
		District:      r.URL.Query().Get("district"),
		RangeDays:     httputil.QueryInt(r, "range", 0),
		OffsetDays:    httputil.QueryInt(r, "offset", 0),
		BarRangeDays:  httputil.QueryInt(r, "barRange", 0),
		BarOffsetDays: httputil.QueryInt(r, "barOffset", 0),
	}
}

// GetHierarchy handles GET /api/analytics/hierarchy
func (h *Handlers) GetHierarchy(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	view, err := h.views.Hierarchy(r.Context(), viewParams(r))
	if err != nil {
		h.fail(w, r, "hierarchy", err)
		return
	}
	logView("hierarchy", started, len(view.Districts))
	httputil.OK(w, view)
}

// GetHeatmap handles GET /api/analytics/heatmap
func (h *Handlers) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	view, err := h.views.Heatmap(r.Context(), viewParams(r))
	if err != nil {
		h.fail(w, r, "heatmap", err)
		return
	}
	logView("heatmap", started, len(view.Districts))
	httputil.OK(w, view)
}

// GetTrends handles GET /api/analytics/trends
func (h *Handlers) GetTrends(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	view, err := h.views.Trend(r.Context(), viewParams(r))
	if err != nil {
		h.fail(w, r, "trends", err)
		return
	}
	logView("trends", started, len(view.TrendData))
	httputil.OK(w, view)
}

// GetLeaderboard handles GET /api/analytics/leaderboard
func (h *Handlers) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	view, err := h.views.Leaderboard(r.Context(), viewParams(r))
	if err != nil {
		h.fail(w, r, "leaderboard", err)
		return
	}
	logView("leaderboard", started, len(view.Cases))
	httputil.OK(w, view)
}

// fail maps a view error to the response. Upstream errors become a 503 with
// a stable message; nothing is written when the client has gone away.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, view string, err error) {
	var upstream *analytics.UpstreamError
	switch {
	case errors.As(err, &upstream):
		logger.Error("analytics view failed",
			"view", view,
			"code", upstream.Code(),
			"error", err.Error())
		httputil.Unavailable(w, unavailableMessage, upstream.Code())
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		logger.Debug("client went away", "view", view)
	default:
		httputil.InternalError(w, err)
	}
}

func logView(view string, started time.Time, rows int) {
	logger.Debug("analytics view served",
		"view", view,
		"rows", rows,
		"elapsed_ms", time.Since(started).Milliseconds())
}
