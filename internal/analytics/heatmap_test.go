package analytics

import (
	"testing"

	"github.com/ignite/health-surveillance/internal/location"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func heatmapEntry(t *testing.T, entries []HeatmapEntry, slug string) HeatmapEntry {
	t.Helper()
	for _, e := range entries {
		if e.Slug == slug {
			return e
		}
	}
	t.Fatalf("district %s not on heatmap", slug)
	return HeatmapEntry{}
}

func TestPercentChange(t *testing.T) {
	assert.Equal(t, 0, PercentChange(0, 0))
	assert.Equal(t, 100, PercentChange(5, 0))
	assert.Equal(t, 50, PercentChange(15, 10))
	assert.Equal(t, -50, PercentChange(5, 10))
	assert.Equal(t, 33, PercentChange(4, 3))
	assert.Equal(t, -100, PercentChange(0, 7))
}

func TestClassify(t *testing.T) {
	th := DefaultSettings().Risk
	assert.Equal(t, RiskCritical, th.Classify(60, 0))
	assert.Equal(t, RiskCritical, th.Classify(1, 30))
	assert.Equal(t, RiskObserve, th.Classify(25, 0))
	assert.Equal(t, RiskObserve, th.Classify(3, 10))
	assert.Equal(t, RiskStable, th.Classify(24, 9))
	assert.Equal(t, RiskStable, th.Classify(0, -40))
}

func TestBuildHeatmapSeedsCanonicalDistricts(t *testing.T) {
	current := []Record{rec("A", "Kollam", "Dengue", daysAgo(0))}
	entries := BuildHeatmap(current, nil, testResolver(), DefaultSettings().Risk)

	assert.Len(t, entries, len(location.DefaultDistricts()))
	wayanad := heatmapEntry(t, entries, "wayanad")
	assert.Equal(t, "Wayanad", wayanad.Name)
	assert.Equal(t, 0, wayanad.ActiveCases)
	assert.Equal(t, RiskStable, wayanad.Risk)
	assert.Equal(t, "health", wayanad.TopDisease)
	assert.Equal(t, 0, wayanad.ChangePercent)
	assert.NotZero(t, wayanad.Coordinates.Lat)

	assert.Equal(t, "kollam", entries[0].Slug)
}

func TestBuildHeatmapCountsAndChange(t *testing.T) {
	var current, previous []Record
	for i := 0; i < 15; i++ {
		current = append(current, rec(string(rune('a'+i)), "Malappuram", "Hepatitis A", daysAgo(0)))
	}
	current = append(current,
		rec("a", "Malappuram", "Cholera", daysAgo(0), contagious()),
		rec("z", "malapuram", "Cholera", daysAgo(1), contagious()),
	)
	for i := 0; i < 10; i++ {
		previous = append(previous, rec(string(rune('a'+i)), "Malappuram", "Hepatitis A", daysAgo(8)))
	}

	entries := BuildHeatmap(current, previous, testResolver(), DefaultSettings().Risk)
	mlp := heatmapEntry(t, entries, "malappuram")

	assert.Equal(t, 17, mlp.ActiveCases)
	assert.Equal(t, 16, mlp.Migrants)
	assert.Equal(t, 2, mlp.ContagiousCases)
	assert.Equal(t, 10, mlp.PreviousCases)
	assert.Equal(t, 70, mlp.ChangePercent)
	assert.Equal(t, RiskCritical, mlp.Risk)
	assert.Equal(t, "Hepatitis A", mlp.TopDisease)
	assert.Equal(t, map[string]int{"Hepatitis A": 15, "Cholera": 2}, mlp.DiseaseBreakdown)
	assert.Equal(t, "malappuram", entries[0].Slug)
}

func TestBuildHeatmapPercentBoundary(t *testing.T) {
	var current, previous []Record
	for i := 0; i < 15; i++ {
		current = append(current, rec(string(rune('a'+i)), "Kannur", "Dengue", daysAgo(0)))
	}
	for i := 0; i < 10; i++ {
		previous = append(previous, rec(string(rune('a'+i)), "Kannur", "Dengue", daysAgo(9)))
	}
	entries := BuildHeatmap(current, previous, testResolver(), DefaultSettings().Risk)
	kannur := heatmapEntry(t, entries, "kannur")
	assert.Equal(t, 50, kannur.ChangePercent)
	assert.Equal(t, RiskCritical, kannur.Risk)

	idukki := heatmapEntry(t, entries, "idukki")
	assert.Equal(t, 0, idukki.ChangePercent)
}

func TestBuildHeatmapSynthesizedDistrict(t *testing.T) {
	current := []Record{
		rec("A", "Coimbatore", "Dengue", daysAgo(0)),
		rec("B", "Coimbatore", "Dengue", daysAgo(0)),
	}
	entries := BuildHeatmap(current, nil, testResolver(), DefaultSettings().Risk)
	require.Len(t, entries, len(location.DefaultDistricts())+1)

	cbe := heatmapEntry(t, entries, "coimbatore")
	assert.False(t, cbe.Canonical)
	assert.Equal(t, 2, cbe.ActiveCases)
	assert.Equal(t, 100, cbe.ChangePercent)
	assert.Equal(t, RiskCritical, cbe.Risk)
	assert.Equal(t, location.DefaultCoordinates, cbe.Coordinates)
	assert.Equal(t, "coimbatore", entries[0].Slug)
}

func TestBuildHeatmapTopDiseaseTieIsAlphabetical(t *testing.T) {
	current := []Record{
		rec("A", "Kottayam", "Typhoid", daysAgo(0)),
		rec("B", "Kottayam", "Dengue", daysAgo(0)),
	}
	entries := BuildHeatmap(current, nil, testResolver(), DefaultSettings().Risk)
	assert.Equal(t, "Dengue", heatmapEntry(t, entries, "kottayam").TopDisease)
}
