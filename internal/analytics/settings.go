// Package analytics turns flat clinical event records into the dashboard
// views: the district/taluk/village hierarchy, the risk heatmap, day-level
// trend series and the active-district leaderboard.
//
// Every view is computed fresh per request from one deduplicated fetch, so
// figures agree across widgets.
package analytics

import (
	"time"
)

// Risk levels used by the heatmap.
const (
	RiskStable   = "stable"
	RiskObserve  = "observe"
	RiskCritical = "critical"
)

// Leaderboard status tags.
const (
	StatusStable   = "stable"
	StatusModerate = "moderate"
	StatusCritical = "critical"
)

// RiskThresholds classify a district on the heatmap. A district is critical
// when either critical threshold is reached, otherwise observe when either
// observe threshold is reached.
type RiskThresholds struct {
	CriticalActiveCases int
	CriticalPercent     int
	ObserveActiveCases  int
	ObservePercent      int
}

// LeaderboardSettings control the most-active-districts view.
type LeaderboardSettings struct {
	Limit               int
	RecentPatientCap    int
	LatestAdmissionsCap int
	// NewCaseDays is the trailing number of days, counted back from the
	// window end, in which a case counts as new.
	NewCaseDays int

	CriticalTotal      int
	CriticalContagious int
	CriticalNew        int
	ModerateTotal      int
	ModerateNew        int
}

// HierarchyCaps bound the sample lists attached to hierarchy nodes.
type HierarchyCaps struct {
	TalukSamples   int
	VillageSamples int
}

// Settings holds every tunable of the engine.
type Settings struct {
	// Location aligns windows to local calendar days.
	Location *time.Location
	// Now is the clock; tests pin it.
	Now func() time.Time

	MaxLookbackDays         int
	MaxOffsetDays           int
	MaxLeaderboardRangeDays int
	DefaultRangeDays        int

	QueryTimeout  time.Duration
	SlowQueryWarn time.Duration
	MaxRecords    int

	Hierarchy   HierarchyCaps
	Risk        RiskThresholds
	Leaderboard LeaderboardSettings

	TopTrendSeries int
	TopBarSeries   int
}

// DefaultSettings returns the documented defaults.
func DefaultSettings() Settings {
	return Settings{
		Location:                time.UTC,
		Now:                     time.Now,
		MaxLookbackDays:         365,
		MaxOffsetDays:           365,
		MaxLeaderboardRangeDays: 90,
		DefaultRangeDays:        30,
		QueryTimeout:            5 * time.Second,
		SlowQueryWarn:           1500 * time.Millisecond,
		MaxRecords:              50000,
		Hierarchy: HierarchyCaps{
			TalukSamples:   5,
			VillageSamples: 3,
		},
		Risk: RiskThresholds{
			CriticalActiveCases: 60,
			CriticalPercent:     30,
			ObserveActiveCases:  25,
			ObservePercent:      10,
		},
		Leaderboard: LeaderboardSettings{
			Limit:               8,
			RecentPatientCap:    5,
			LatestAdmissionsCap: 10,
			NewCaseDays:         2,
			CriticalTotal:       80,
			CriticalContagious:  12,
			CriticalNew:         25,
			ModerateTotal:       30,
			ModerateNew:         10,
		},
		TopTrendSeries: 2,
		TopBarSeries:   4,
	}
}

// withDefaults fills zero values so a partially populated Settings is usable.
func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.Location == nil {
		s.Location = d.Location
	}
	if s.Now == nil {
		s.Now = d.Now
	}
	if s.MaxLookbackDays <= 0 {
		s.MaxLookbackDays = d.MaxLookbackDays
	}
	if s.MaxOffsetDays <= 0 {
		s.MaxOffsetDays = d.MaxOffsetDays
	}
	if s.MaxLeaderboardRangeDays <= 0 {
		s.MaxLeaderboardRangeDays = d.MaxLeaderboardRangeDays
	}
	if s.DefaultRangeDays <= 0 {
		s.DefaultRangeDays = d.DefaultRangeDays
	}
	if s.QueryTimeout <= 0 {
		s.QueryTimeout = d.QueryTimeout
	}
	if s.SlowQueryWarn <= 0 {
		s.SlowQueryWarn = d.SlowQueryWarn
	}
	if s.MaxRecords <= 0 {
		s.MaxRecords = d.MaxRecords
	}
	if s.Hierarchy.TalukSamples <= 0 {
		s.Hierarchy.TalukSamples = d.Hierarchy.TalukSamples
	}
	if s.Hierarchy.VillageSamples <= 0 {
		s.Hierarchy.VillageSamples = d.Hierarchy.VillageSamples
	}
	if s.Risk == (RiskThresholds{}) {
		s.Risk = d.Risk
	}
	if s.Leaderboard == (LeaderboardSettings{}) {
		s.Leaderboard = d.Leaderboard
	}
	if s.Leaderboard.Limit <= 0 {
		s.Leaderboard.Limit = d.Leaderboard.Limit
	}
	if s.Leaderboard.RecentPatientCap <= 0 {
		s.Leaderboard.RecentPatientCap = d.Leaderboard.RecentPatientCap
	}
	if s.Leaderboard.LatestAdmissionsCap <= 0 {
		s.Leaderboard.LatestAdmissionsCap = d.Leaderboard.LatestAdmissionsCap
	}
	if s.Leaderboard.NewCaseDays <= 0 {
		s.Leaderboard.NewCaseDays = d.Leaderboard.NewCaseDays
	}
	if s.TopTrendSeries <= 0 {
		s.TopTrendSeries = d.TopTrendSeries
	}
	if s.TopBarSeries <= 0 {
		s.TopBarSeries = d.TopBarSeries
	}
	return s
}

// Classify returns the heatmap risk tag for a district.
func (t RiskThresholds) Classify(activeCases, percentDelta int) string {
	switch {
	case activeCases >= t.CriticalActiveCases || percentDelta >= t.CriticalPercent:
		return RiskCritical
	case activeCases >= t.ObserveActiveCases || percentDelta >= t.ObservePercent:
		return RiskObserve
	default:
		return RiskStable
	}
}

// Status returns the leaderboard tag for a district.
func (l LeaderboardSettings) Status(total, newCases, contagious int) string {
	switch {
	case total >= l.CriticalTotal || contagious >= l.CriticalContagious || newCases >= l.CriticalNew:
		return StatusCritical
	case total >= l.ModerateTotal || newCases >= l.ModerateNew:
		return StatusModerate
	default:
		return StatusStable
	}
}
