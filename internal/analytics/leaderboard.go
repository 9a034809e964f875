package analytics

import (
	"sort"
	"time"

	"github.com/ignite/health-surveillance/internal/location"
)

// Leaderboard ranks the most active districts and lists the latest cases.
type Leaderboard struct {
	Cases            []LeaderboardEntry `json:"cases"`
	LatestAdmissions []Admission        `json:"latestAdmissions"`
	Window           Window             `json:"window"`
	GeneratedAt      time.Time          `json:"generatedAt"`
}

// LeaderboardEntry is one district's activity summary.
type LeaderboardEntry struct {
	District        string        `json:"district"`
	Slug            string        `json:"slug"`
	TotalCases      int           `json:"totalCases"`
	NewCases        int           `json:"newCases"`
	ContagiousCases int           `json:"contagiousCases"`
	Status          string        `json:"status"`
	TopDisease      string        `json:"topDisease"`
	LastActivity    time.Time     `json:"lastActivity"`
	RecentPatients  []CaseSummary `json:"recentPatients"`
}

// Admission is a recent case with its location spelled out.
type Admission struct {
	CaseSummary
	District string `json:"district"`
	Taluk    string `json:"taluk"`
	Village  string `json:"village"`
}

type leaderboardAcc struct {
	district   location.District
	total      int
	newCases   int
	contagious int
	last       time.Time
	recent     []CaseSummary
	diseases   *diseaseTally
}

// BuildLeaderboard groups records by district and ranks districts by most
// recent activity, then new cases, then total cases. Records must be
// ordered most recent first.
func BuildLeaderboard(records []Record, w Window, resolver *location.Resolver, cfg LeaderboardSettings) Leaderboard {
	y, m, d := w.End.Date()
	newSince := time.Date(y, m, d-(max(cfg.NewCaseDays, 1)-1), 0, 0, 0, 0, w.End.Location())

	accs := make(map[string]*leaderboardAcc)
	admissions := make([]Admission, 0, max(cfg.LatestAdmissionsCap, 0))
	for _, r := range records {
		dist := resolver.Resolve(r.District)
		acc, ok := accs[dist.Slug]
		if !ok {
			acc = &leaderboardAcc{district: dist, diseases: newDiseaseTally()}
			accs[dist.Slug] = acc
		}
		acc.total++
		if !r.IssuedAt.Before(newSince) {
			acc.newCases++
		}
		if r.Contagious {
			acc.contagious++
		}
		if r.IssuedAt.After(acc.last) {
			acc.last = r.IssuedAt
		}
		if len(acc.recent) < cfg.RecentPatientCap {
			acc.recent = append(acc.recent, r.Summary())
		}
		acc.diseases.add(r)

		if len(admissions) < cfg.LatestAdmissionsCap {
			admissions = append(admissions, Admission{
				CaseSummary: r.Summary(),
				District:    dist.Name,
				Taluk:       location.Clean(location.KindTaluk, r.Taluk),
				Village:     location.Clean(location.KindVillage, r.Village),
			})
		}
	}

	cases := make([]LeaderboardEntry, 0, len(accs))
	for slug, acc := range accs {
		recent := acc.recent
		if recent == nil {
			recent = []CaseSummary{}
		}
		top := defaultTopDisease
		if t := acc.diseases.top(1); len(t) > 0 {
			top = t[0]
		}
		cases = append(cases, LeaderboardEntry{
			District:        acc.district.Name,
			Slug:            slug,
			TotalCases:      acc.total,
			NewCases:        acc.newCases,
			ContagiousCases: acc.contagious,
			Status:          cfg.Status(acc.total, acc.newCases, acc.contagious),
			TopDisease:      top,
			LastActivity:    acc.last,
			RecentPatients:  recent,
		})
	}

	sort.Slice(cases, func(i, j int) bool {
		a, b := cases[i], cases[j]
		if !a.LastActivity.Equal(b.LastActivity) {
			return a.LastActivity.After(b.LastActivity)
		}
		if a.NewCases != b.NewCases {
			return a.NewCases > b.NewCases
		}
		if a.TotalCases != b.TotalCases {
			return a.TotalCases > b.TotalCases
		}
		return a.District < b.District
	})
	if cfg.Limit > 0 && len(cases) > cfg.Limit {
		cases = cases[:cfg.Limit]
	}

	return Leaderboard{
		Cases:            cases,
		LatestAdmissions: admissions,
		Window:           w,
	}
}
