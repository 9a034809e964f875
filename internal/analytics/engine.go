package analytics

import (
	"context"

	"github.com/ignite/health-surveillance/internal/location"
	"golang.org/x/sync/errgroup"
)

// ViewParams are the request parameters every view accepts. Zero ranges fall
// back to the configured default; out of range values are clamped.
type ViewParams struct {
	District      string
	RangeDays     int
	OffsetDays    int
	BarRangeDays  int
	BarOffsetDays int
}

// Engine computes dashboard views. It holds no per-request state; the
// resolver's matcher cache is the only thing shared between calls.
type Engine struct {
	fetcher  *Fetcher
	resolver *location.Resolver
	windows  WindowCalculator
	settings Settings
}

// NewEngine wires an engine over store.
func NewEngine(store RecordStore, resolver *location.Resolver, settings Settings) *Engine {
	settings = settings.withDefaults()
	return &Engine{
		fetcher:  NewFetcher(store, resolver, settings),
		resolver: resolver,
		windows:  NewWindowCalculator(settings.Now, settings.Location, settings.MaxLookbackDays, settings.MaxOffsetDays),
		settings: settings,
	}
}

// Settings returns the effective settings after defaults were applied.
func (e *Engine) Settings() Settings { return e.settings }

func (e *Engine) window(p ViewParams) Window {
	rangeDays := p.RangeDays
	if rangeDays == 0 {
		rangeDays = e.settings.DefaultRangeDays
	}
	return e.windows.Calculate(rangeDays, p.OffsetDays)
}

func sameWindow(a, b Window) bool {
	return a.Start.Equal(b.Start) && a.End.Equal(b.End)
}

// fetchPair loads two windows concurrently. If either fetch fails the other
// is cancelled and no records are returned.
func (e *Engine) fetchPair(ctx context.Context, district string, a, b Window) ([]Record, []Record, error) {
	var first, second []Record
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := e.fetcher.Fetch(gctx, FetchParams{Window: &a, District: district})
		first = recs
		return err
	})
	g.Go(func() error {
		recs, err := e.fetcher.Fetch(gctx, FetchParams{Window: &b, District: district})
		second = recs
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return first, second, nil
}

// Hierarchy builds the district -> taluk -> village view for p.
func (e *Engine) Hierarchy(ctx context.Context, p ViewParams) (*Hierarchy, error) {
	current := e.window(p)
	previous := current.Previous()
	cur, prev, err := e.fetchPair(ctx, p.District, current, previous)
	if err != nil {
		return nil, err
	}
	return &Hierarchy{
		Districts:   BuildHierarchy(cur, prev, e.resolver, e.settings.Hierarchy),
		Window:      current,
		Previous:    previous,
		GeneratedAt: e.settings.Now(),
	}, nil
}

// Heatmap builds the statewide risk view for p.
func (e *Engine) Heatmap(ctx context.Context, p ViewParams) (*Heatmap, error) {
	current := e.window(p)
	previous := current.Previous()
	cur, prev, err := e.fetchPair(ctx, p.District, current, previous)
	if err != nil {
		return nil, err
	}
	return &Heatmap{
		Districts:   BuildHeatmap(cur, prev, e.resolver, e.settings.Risk),
		Window:      current,
		Previous:    previous,
		GeneratedAt: e.settings.Now(),
	}, nil
}

// Trend builds the line and bar chart series for p. The bar window defaults
// to the trend window.
func (e *Engine) Trend(ctx context.Context, p ViewParams) (*Trend, error) {
	current := e.window(p)
	bar := current
	if p.BarRangeDays != 0 || p.BarOffsetDays != 0 {
		barRange := p.BarRangeDays
		if barRange == 0 {
			barRange = current.RangeDays
		}
		bar = e.windows.Calculate(barRange, p.BarOffsetDays)
	}

	var cur, barRecs []Record
	if sameWindow(bar, current) {
		recs, err := e.fetcher.Fetch(ctx, FetchParams{Window: &current, District: p.District})
		if err != nil {
			return nil, err
		}
		cur, barRecs = recs, recs
	} else {
		var err error
		cur, barRecs, err = e.fetchPair(ctx, p.District, current, bar)
		if err != nil {
			return nil, err
		}
	}

	t := BuildTrend(cur, current, barRecs, bar, e.settings.TopTrendSeries, e.settings.TopBarSeries)
	t.GeneratedAt = e.settings.Now()
	return &t, nil
}

// Leaderboard ranks the most active districts for p. Its range is capped
// tighter than the other views.
func (e *Engine) Leaderboard(ctx context.Context, p ViewParams) (*Leaderboard, error) {
	rangeDays := p.RangeDays
	if rangeDays == 0 {
		rangeDays = e.settings.DefaultRangeDays
	}
	current := e.windows.WithMaxRange(e.settings.MaxLeaderboardRangeDays).Calculate(rangeDays, p.OffsetDays)

	recs, err := e.fetcher.Fetch(ctx, FetchParams{Window: &current, District: p.District})
	if err != nil {
		return nil, err
	}
	lb := BuildLeaderboard(recs, current, e.resolver, e.settings.Leaderboard)
	lb.GeneratedAt = e.settings.Now()
	return &lb, nil
}
