package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/health-surveillance/internal/location"
	"github.com/ignite/health-surveillance/internal/pkg/logger"
)

// Query is what the engine asks of the record store.
type Query struct {
	Start time.Time
	End   time.Time
	// Limit caps the number of rows; zero means the store's own default.
	Limit int
}

// RecordStore is the external source of event records. Implementations
// must honour ctx cancellation and should return records ordered most
// recent first; the fetcher re-sorts defensively either way.
type RecordStore interface {
	Fetch(ctx context.Context, q Query) ([]Record, error)
}

// FetchParams scope a fetch. A nil Window means all time up to the
// lookback ceiling; an empty District (or "all") means every district.
type FetchParams struct {
	Window   *Window
	District string
}

// Fetcher is the single path every view reads records through: window,
// district post-filter, recency order and per-case dedup are applied here
// so all views count the same cases.
type Fetcher struct {
	store    RecordStore
	resolver *location.Resolver
	windows  WindowCalculator
	settings Settings
}

// NewFetcher wires a fetcher over store.
func NewFetcher(store RecordStore, resolver *location.Resolver, settings Settings) *Fetcher {
	settings = settings.withDefaults()
	return &Fetcher{
		store:    store,
		resolver: resolver,
		windows:  NewWindowCalculator(settings.Now, settings.Location, settings.MaxLookbackDays, settings.MaxOffsetDays),
		settings: settings,
	}
}

// DistrictSlug normalizes a district filter to the slug records are
// compared against. It returns "" when no filtering applies.
func (f *Fetcher) DistrictSlug(filter string) string {
	if location.IsBlank(filter) || strings.EqualFold(strings.TrimSpace(filter), "all") {
		return ""
	}
	return f.resolver.Resolve(filter).Slug
}

// Fetch returns the deduplicated records for p, most recent first.
func (f *Fetcher) Fetch(ctx context.Context, p FetchParams) ([]Record, error) {
	w := p.Window
	if w == nil {
		all := f.windows.Calculate(f.settings.MaxLookbackDays, 0)
		w = &all
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.settings.QueryTimeout)
	defer cancel()

	started := time.Now()
	records, err := f.store.Fetch(fetchCtx, Query{Start: w.Start, End: w.End, Limit: f.settings.MaxRecords})
	elapsed := time.Since(started)
	if err != nil {
		if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return nil, upstreamError("fetch records", ctx, err)
	}
	if elapsed > f.settings.SlowQueryWarn {
		logger.Warn("slow record fetch",
			"elapsed_ms", elapsed.Milliseconds(),
			"start", w.Start.Format(dayKeyLayout),
			"end", w.End.Format(dayKeyLayout),
			"rows", len(records))
	}

	return f.prepare(records, *w, f.DistrictSlug(p.District)), nil
}

// prepare applies the window and district filters, orders by recency and
// keeps the first record per (subject, disease) case.
func (f *Fetcher) prepare(records []Record, w Window, districtSlug string) []Record {
	filtered := make([]Record, 0, len(records))
	malformed := 0
	for _, r := range records {
		if !w.Contains(r.IssuedAt) {
			continue
		}
		if districtSlug != "" && !f.resolver.Matches(r.District, districtSlug) {
			continue
		}
		if r.malformed() {
			malformed++
		}
		filtered = append(filtered, r)
	}
	if malformed > 0 {
		logger.Debug("records with missing location or disease fields", "count", malformed)
	}

	sortRecentFirst(filtered)
	return Dedup(filtered)
}

// Dedup keeps the first record per (subject, lowercased disease). Callers
// pass records most recent first, so the survivor is the latest encounter.
func Dedup(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		key := r.dedupKey()
		if key != "" {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, r)
	}
	return out
}
