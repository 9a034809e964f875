package analytics

import (
	"encoding/json"
	"strings"
	"time"
)

// Trend holds day-bucketed disease series for charting.
type Trend struct {
	TrendData   []TrendPoint `json:"trendData"`
	TrendKeys   []string     `json:"trendKeys"`
	BarData     []TrendPoint `json:"barData"`
	BarKeys     []string     `json:"barKeys"`
	Window      Window       `json:"window"`
	BarWindow   Window       `json:"barWindow"`
	GeneratedAt time.Time    `json:"generatedAt"`
}

// TrendPoint is one day of counts. It marshals flat, with one property per
// disease next to the date, which is the shape chart libraries expect:
//
//	{"date":"2026-10-01","label":"Oct 1","Dengue":3,"Malaria":0}
type TrendPoint struct {
	Date   string
	Label  string
	Counts map[string]int
}

// seriesKey is the property name a disease gets in a point. Diseases whose
// label would shadow the date or label fields get a suffix.
func seriesKey(label string) string {
	switch strings.ToLower(label) {
	case "date", "label":
		return label + " (disease)"
	}
	return label
}

// MarshalJSON flattens Counts into the point object. Counts keys that
// collide with date or label are renamed with seriesKey.
func (p TrendPoint) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(p.Counts)+2)
	for k, v := range p.Counts {
		m[seriesKey(k)] = v
	}
	m["date"] = p.Date
	m["label"] = p.Label
	return json.Marshal(m)
}

// BuildSeries buckets records by day across every day of w, keeping only the
// top diseases by total volume. Days without records are present with zero
// counts. It returns the points and the series keys in rank order.
func BuildSeries(records []Record, w Window, top int) ([]TrendPoint, []string) {
	days := w.Days()
	index := make(map[string]int, len(days))
	perDay := make([]*diseaseTally, len(days))
	for i, d := range days {
		index[w.DayKey(d)] = i
		perDay[i] = newDiseaseTally()
	}

	total := newDiseaseTally()
	for _, r := range records {
		if !w.Contains(r.IssuedAt) {
			continue
		}
		i, ok := index[w.DayKey(r.IssuedAt)]
		if !ok {
			continue
		}
		perDay[i].add(r)
		total.add(r)
	}

	labels := total.top(top)
	keys := make([]string, len(labels))
	for i, l := range labels {
		keys[i] = seriesKey(l)
	}
	points := make([]TrendPoint, len(days))
	for i, d := range days {
		counts := make(map[string]int, len(keys))
		for j, l := range labels {
			counts[keys[j]] = perDay[i].counts[strings.ToLower(l)]
		}
		points[i] = TrendPoint{
			Date:   w.DayKey(d),
			Label:  d.Format("Jan 2"),
			Counts: counts,
		}
	}
	return points, keys
}

// BuildTrend produces the line-chart series over w (top topSeries diseases)
// and the bar-chart series over barWindow (top topBar diseases).
func BuildTrend(records []Record, w Window, barRecords []Record, barWindow Window, topSeries, topBar int) Trend {
	trendData, trendKeys := BuildSeries(records, w, topSeries)
	barData, barKeys := BuildSeries(barRecords, barWindow, topBar)
	return Trend{
		TrendData: trendData,
		TrendKeys: trendKeys,
		BarData:   barData,
		BarKeys:   barKeys,
		Window:    w,
		BarWindow: barWindow,
	}
}
