package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/ignite/health-surveillance/internal/location"
)

// defaultTopDisease labels a district with no recorded disease.
const defaultTopDisease = "health"

// Heatmap is the statewide risk view.
type Heatmap struct {
	Districts   []HeatmapEntry `json:"districts"`
	Window      Window         `json:"window"`
	Previous    Window         `json:"previousWindow"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

// HeatmapEntry is one district's risk summary.
type HeatmapEntry struct {
	Name             string               `json:"name"`
	Slug             string               `json:"slug"`
	Migrants         int                  `json:"migrants"`
	ActiveCases      int                  `json:"activeCases"`
	ContagiousCases  int                  `json:"contagiousCases"`
	PreviousCases    int                  `json:"previousCases"`
	Risk             string               `json:"risk"`
	TopDisease       string               `json:"topDisease"`
	ChangePercent    int                  `json:"changePercent"`
	DiseaseBreakdown map[string]int       `json:"diseaseBreakdown"`
	Coordinates      location.Coordinates `json:"coordinates"`
	Canonical        bool                 `json:"canonical"`
}

// PercentChange is the rounded period-over-period change. A district with no
// previous activity reports 100 when it has current activity and 0 otherwise.
func PercentChange(current, previous int) int {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return int(math.Round(float64(current-previous) / float64(previous) * 100))
}

type heatmapAcc struct {
	district   location.District
	active     int
	contagious int
	subjects   map[string]struct{}
	diseases   *diseaseTally
}

// BuildHeatmap seeds every canonical district at zero, folds in the current
// records, and classifies each district against its previous-window count.
// Entries are ordered by active cases, highest first.
func BuildHeatmap(current, previous []Record, resolver *location.Resolver, thresholds RiskThresholds) []HeatmapEntry {
	accs := make(map[string]*heatmapAcc)
	order := make([]string, 0)
	ensure := func(d location.District) *heatmapAcc {
		acc, ok := accs[d.Slug]
		if !ok {
			acc = &heatmapAcc{
				district: d,
				subjects: make(map[string]struct{}),
				diseases: newDiseaseTally(),
			}
			accs[d.Slug] = acc
			order = append(order, d.Slug)
		}
		return acc
	}

	for _, d := range resolver.Districts() {
		ensure(d)
	}
	for _, r := range current {
		acc := ensure(resolver.Resolve(r.District))
		acc.active++
		if r.Contagious {
			acc.contagious++
		}
		if r.SubjectID != "" {
			acc.subjects[r.SubjectID] = struct{}{}
		}
		acc.diseases.add(r)
	}

	prevCounts := make(map[string]int)
	for _, r := range previous {
		prevCounts[resolver.Resolve(r.District).Slug]++
	}

	out := make([]HeatmapEntry, 0, len(order))
	for _, slug := range order {
		acc := accs[slug]
		change := PercentChange(acc.active, prevCounts[slug])
		topDisease := defaultTopDisease
		if top := acc.diseases.top(1); len(top) > 0 {
			topDisease = top[0]
		}
		out = append(out, HeatmapEntry{
			Name:             acc.district.Name,
			Slug:             slug,
			Migrants:         len(acc.subjects),
			ActiveCases:      acc.active,
			ContagiousCases:  acc.contagious,
			PreviousCases:    prevCounts[slug],
			Risk:             thresholds.Classify(acc.active, change),
			TopDisease:       topDisease,
			ChangePercent:    change,
			DiseaseBreakdown: acc.diseases.byDisplay(),
			Coordinates:      acc.district.Coordinates,
			Canonical:        acc.district.Canonical,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ActiveCases > out[j].ActiveCases
	})
	return out
}
