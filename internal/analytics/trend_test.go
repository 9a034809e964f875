package analytics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSeriesFillsEmptyDays(t *testing.T) {
	w := testCalculator().Calculate(30, 0)
	var records []Record
	for day := 0; day < 30; day++ {
		if day == 15 {
			continue
		}
		records = append(records, rec("s", "Kollam", "Dengue", daysAgo(day)))
	}

	points, keys := BuildSeries(records, w, 2)
	require.Len(t, points, 30)
	assert.Equal(t, []string{"Dengue"}, keys)

	gap := points[29-15]
	assert.Equal(t, daysAgo(15).Format(dayKeyLayout), gap.Date)
	assert.Equal(t, map[string]int{"Dengue": 0}, gap.Counts)

	assert.Equal(t, "2026-09-16", points[0].Date)
	assert.Equal(t, "2026-10-15", points[29].Date)
	assert.Equal(t, 1, points[29].Counts["Dengue"])
}

func TestBuildSeriesNoRecords(t *testing.T) {
	w := testCalculator().Calculate(30, 0)
	points, keys := BuildSeries(nil, w, 2)
	require.Len(t, points, 30)
	assert.NotNil(t, keys)
	assert.Empty(t, keys)
	for _, p := range points {
		assert.Empty(t, p.Counts)
	}
}

func TestBuildSeriesTopDiseases(t *testing.T) {
	w := testCalculator().Calculate(7, 0)
	records := []Record{
		rec("a", "Kollam", "Dengue", daysAgo(0)),
		rec("b", "Kollam", "dengue", daysAgo(1)),
		rec("c", "Kollam", "Dengue", daysAgo(2)),
		rec("d", "Kollam", "Malaria", daysAgo(0)),
		rec("e", "Kollam", "Malaria", daysAgo(3)),
		rec("f", "Kollam", "Typhoid", daysAgo(1)),
		rec("g", "Kollam", "", daysAgo(1), suspected("Cholera")),
		rec("h", "Kollam", "Mumps", daysAgo(40)),
	}

	points, keys := BuildSeries(records, w, 2)
	assert.Equal(t, []string{"Dengue", "Malaria"}, keys)
	today := points[len(points)-1]
	assert.Equal(t, map[string]int{"Dengue": 1, "Malaria": 1}, today.Counts)

	_, barKeys := BuildSeries(records, w, 4)
	assert.Equal(t, []string{"Dengue", "Malaria", "Cholera", "Typhoid"}, barKeys)
}

func TestBuildTrendUsesSeparateBarWindow(t *testing.T) {
	c := testCalculator()
	w := c.Calculate(7, 0)
	bar := c.Calculate(3, 0)
	records := []Record{
		rec("a", "Kollam", "Dengue", daysAgo(5)),
		rec("b", "Kollam", "Dengue", daysAgo(6)),
		rec("c", "Kollam", "Malaria", daysAgo(1)),
	}
	trend := BuildTrend(records, w, records, bar, 2, 4)

	assert.Len(t, trend.TrendData, 7)
	assert.Equal(t, []string{"Dengue", "Malaria"}, trend.TrendKeys)
	assert.Len(t, trend.BarData, 3)
	assert.Equal(t, []string{"Malaria"}, trend.BarKeys)
}

func TestTrendPointJSON(t *testing.T) {
	p := TrendPoint{Date: "2026-10-15", Label: "Oct 15", Counts: map[string]int{"Dengue": 3, "Malaria": 0}}
	data, err := json.Marshal(p)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "2026-10-15", got["date"])
	assert.Equal(t, "Oct 15", got["label"])
	assert.Equal(t, float64(3), got["Dengue"])
	assert.Equal(t, float64(0), got["Malaria"])
}

func TestBuildSeriesRenamesDiseasesShadowingPointFields(t *testing.T) {
	w := testCalculator().Calculate(2, 0)
	records := []Record{
		rec("A", "Kollam", "date", daysAgo(0)),
		rec("B", "Kollam", "Label", daysAgo(0)),
		rec("C", "Kollam", "Dengue", daysAgo(1)),
	}
	points, keys := BuildSeries(records, w, 0)
	assert.ElementsMatch(t, []string{"date (disease)", "Label (disease)", "Dengue"}, keys)

	data, err := json.Marshal(points[len(points)-1])
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "2026-10-15", got["date"])
	assert.Equal(t, "Oct 15", got["label"])
	assert.Equal(t, float64(1), got["date (disease)"])
	assert.Equal(t, float64(1), got["Label (disease)"])
	assert.Equal(t, float64(0), got["Dengue"])
}

func TestTrendPointJSONKeepsDateAndLabel(t *testing.T) {
	p := TrendPoint{Date: "2026-10-15", Label: "Oct 15", Counts: map[string]int{"date": 2, "label": 1}}
	data, err := json.Marshal(p)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "2026-10-15", got["date"])
	assert.Equal(t, "Oct 15", got["label"])
	assert.Equal(t, float64(2), got["date (disease)"])
	assert.Equal(t, float64(1), got["label (disease)"])
}
