package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardStatus(t *testing.T) {
	cfg := DefaultSettings().Leaderboard
	assert.Equal(t, StatusCritical, cfg.Status(80, 0, 0))
	assert.Equal(t, StatusCritical, cfg.Status(5, 0, 12))
	assert.Equal(t, StatusCritical, cfg.Status(5, 25, 0))
	assert.Equal(t, StatusModerate, cfg.Status(30, 0, 0))
	assert.Equal(t, StatusModerate, cfg.Status(5, 10, 0))
	assert.Equal(t, StatusStable, cfg.Status(29, 9, 11))
}

func TestBuildLeaderboard(t *testing.T) {
	w := testCalculator().Calculate(30, 0)
	records := []Record{
		rec("a", "Kollam", "Dengue", daysAgo(0), contagious()),
		rec("b", "Kannur", "Dengue", daysAgo(0)),
		rec("c", "Kannur", "Malaria", daysAgo(1)),
		rec("d", "Kollam", "Dengue", daysAgo(2)),
		rec("e", "Kollam", "Dengue", daysAgo(10)),
		rec("f", "Wayanad", "Dengue", daysAgo(20)),
	}
	sortRecentFirst(records)

	cfg := DefaultSettings().Leaderboard
	lb := BuildLeaderboard(records, w, testResolver(), cfg)

	require.Len(t, lb.Cases, 3)
	// Kollam and Kannur are both active today; Kannur has more new cases.
	assert.Equal(t, "kannur", lb.Cases[0].Slug)
	assert.Equal(t, 2, lb.Cases[0].NewCases)
	assert.Equal(t, "kollam", lb.Cases[1].Slug)
	assert.Equal(t, 3, lb.Cases[1].TotalCases)
	assert.Equal(t, 1, lb.Cases[1].NewCases)
	assert.Equal(t, 1, lb.Cases[1].ContagiousCases)
	assert.Equal(t, "Dengue", lb.Cases[1].TopDisease)
	assert.Equal(t, "wayanad", lb.Cases[2].Slug)
	assert.Equal(t, StatusStable, lb.Cases[2].Status)
	assert.Equal(t, daysAgo(20), lb.Cases[2].LastActivity)

	require.Len(t, lb.LatestAdmissions, 6)
	assert.Equal(t, "Kollam", lb.LatestAdmissions[0].District)
	assert.Equal(t, "Central", lb.LatestAdmissions[0].Taluk)
}

func TestBuildLeaderboardCaps(t *testing.T) {
	w := testCalculator().Calculate(30, 0)
	var records []Record
	districts := []string{"Kollam", "Kannur", "Wayanad", "Idukki", "Thrissur"}
	for i := 0; i < 40; i++ {
		records = append(records, rec(fmt.Sprintf("s%d", i), districts[i%len(districts)], "Dengue", daysAgo(i/5)))
	}
	sortRecentFirst(records)

	cfg := DefaultSettings().Leaderboard
	cfg.Limit = 3
	cfg.RecentPatientCap = 2
	cfg.LatestAdmissionsCap = 4
	lb := BuildLeaderboard(records, w, testResolver(), cfg)

	require.Len(t, lb.Cases, 3)
	for _, c := range lb.Cases {
		assert.Len(t, c.RecentPatients, 2)
		assert.Equal(t, 8, c.TotalCases)
		assert.False(t, c.RecentPatients[0].IssuedAt.Before(c.RecentPatients[1].IssuedAt))
	}
	assert.Len(t, lb.LatestAdmissions, 4)
}

func TestBuildLeaderboardCritical(t *testing.T) {
	w := testCalculator().Calculate(7, 0)
	var records []Record
	for i := 0; i < 12; i++ {
		records = append(records, rec(fmt.Sprintf("s%d", i), "Palakkad", "Chickenpox", daysAgo(5), contagious()))
	}
	lb := BuildLeaderboard(records, w, testResolver(), DefaultSettings().Leaderboard)
	require.Len(t, lb.Cases, 1)
	assert.Equal(t, StatusCritical, lb.Cases[0].Status)
	assert.Equal(t, 0, lb.Cases[0].NewCases)
}

func TestBuildLeaderboardEmpty(t *testing.T) {
	w := testCalculator().Calculate(7, 0)
	lb := BuildLeaderboard(nil, w, testResolver(), DefaultSettings().Leaderboard)
	assert.NotNil(t, lb.Cases)
	assert.Empty(t, lb.Cases)
	assert.NotNil(t, lb.LatestAdmissions)
}
