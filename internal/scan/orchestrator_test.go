package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/campuswatch/internal/cpted"
	"github.com/sells-group/campuswatch/internal/incident"
	"github.com/sells-group/campuswatch/internal/luminance"
	"github.com/sells-group/campuswatch/internal/risk"
	"github.com/sells-group/campuswatch/internal/sightline"
)

// hotspotRecords clusters theft incidents at Jesse Hall so one
// grid location dominates the scan.
func hotspotRecords(n int) []incident.Record {
	recs := make([]incident.Record, 0, n)
	for i := 0; i < n; i++ {
		recs = append(recs, incident.Record{
			Lat: 38.9442, Lon: -92.3268, HasLocation: true,
			Hour: 22, DayOfWeek: "Friday",
			Category: incident.CategoryTheft, Severity: 3,
		})
	}
	return recs
}

func testOrchestrator(t *testing.T, records []incident.Record, weights map[string]float64) *Orchestrator {
	t.Helper()
	store := incident.NewStore(records)
	scorer := risk.NewScorer(store, risk.DefaultConfig())
	catalog, err := cpted.LoadCatalog()
	require.NoError(t, err)
	analyzer := cpted.NewAnalyzer(
		cpted.NewDetector(luminance.NewSampler(nil, nil), sightline.NewSampler(nil, nil)),
		cpted.NewEngine(catalog),
		nil,
	)
	return NewOrchestrator(scorer, analyzer, store, nil, weights)
}

func TestScanCampusSortsByScoreDescending(t *testing.T) {
	o := testOrchestrator(t, hotspotRecords(25), nil)

	scored, err := o.ScanCampus(context.Background(), 22)
	require.NoError(t, err)
	require.Len(t, scored, len(DefaultGrid()))

	for i := 1; i < len(scored); i++ {
		assert.GreaterOrEqual(t, scored[i-1].RiskScore, scored[i].RiskScore)
	}
	assert.Equal(t, "Jesse Hall", scored[0].LocationName)
	assert.Greater(t, scored[0].RiskScore, 4.0)
}

func TestScanCampusNoIncidents(t *testing.T) {
	o := testOrchestrator(t, nil, nil)

	scored, err := o.ScanCampus(context.Background(), 12)
	require.NoError(t, err)
	for _, s := range scored {
		assert.InDelta(t, 0.5, s.RiskScore, 0.001)
		assert.Equal(t, risk.LevelLow, s.RiskLevel)
		assert.Equal(t, 1.0, s.SurveyWeight)
	}
}

func TestScanCampusSurveyWeights(t *testing.T) {
	weights := map[string]float64{
		"Jesse Hall": 1.5,
		"Memorial Union":   0.5,
	}
	o := testOrchestrator(t, hotspotRecords(25), weights)

	scored, err := o.ScanCampus(context.Background(), 22)
	require.NoError(t, err)

	byName := make(map[string]ScoredLocation)
	for _, s := range scored {
		byName[s.LocationName] = s
	}

	hall := byName["Jesse Hall"]
	assert.Equal(t, 1.5, hall.SurveyWeight)
	assert.Greater(t, hall.RiskScore, hall.BaseRiskScore)
	assert.LessOrEqual(t, hall.RiskScore, 10.0)

	union := byName["Memorial Union"]
	assert.Equal(t, 0.5, union.SurveyWeight)
	assert.LessOrEqual(t, union.RiskScore, union.BaseRiskScore)
}

func TestScanCampusWeightCapsAtTen(t *testing.T) {
	o := testOrchestrator(t, hotspotRecords(200), map[string]float64{"Jesse Hall": 3.0})

	scored, err := o.ScanCampus(context.Background(), 23)
	require.NoError(t, err)
	assert.Equal(t, 10.0, scored[0].RiskScore)
}

func TestScanCampusInvalidHour(t *testing.T) {
	o := testOrchestrator(t, nil, nil)
	_, err := o.ScanCampus(context.Background(), -1)
	assert.Error(t, err)
}

func TestAnalyzeTopHotspotsReport(t *testing.T) {
	o := testOrchestrator(t, hotspotRecords(25), nil)

	report, err := o.AnalyzeTopHotspots(context.Background(), 22, Options{})
	require.NoError(t, err)

	assert.NotEmpty(t, report.ReportID)
	assert.Equal(t, 22, report.ScanHour)
	assert.Equal(t, len(DefaultGrid()), report.LocationsScored)
	assert.Len(t, report.AllLocations, len(DefaultGrid()))

	require.NotEmpty(t, report.TopHotspots)
	assert.LessOrEqual(t, len(report.TopHotspots), DefaultTopN)
	assert.Equal(t, "Jesse Hall", report.TopHotspots[0].LocationName)

	total := report.RiskSummary.HighRisk + report.RiskSummary.MediumRisk + report.RiskSummary.LowRisk
	assert.Equal(t, len(DefaultGrid()), total)
	assert.Greater(t, report.RiskSummary.CampusRiskIndex, 0.0)

	counted := report.PrioritySummary.Critical + report.PrioritySummary.High + report.PrioritySummary.Medium
	assert.Equal(t, len(report.TopHotspots), counted)

	require.NotNil(t, report.Temporal)
	require.NotNil(t, report.Benchmarks)
}

func TestAnalyzeTopHotspotsThreshold(t *testing.T) {
	o := testOrchestrator(t, nil, nil)

	// Every location scores the 0.5 floor; a higher threshold filters all.
	report, err := o.AnalyzeTopHotspots(context.Background(), 12, Options{MinRiskScore: 2.0})
	require.NoError(t, err)
	assert.Empty(t, report.TopHotspots)
	assert.Zero(t, report.CampusROI.TotalInfrastructureCost)
}

func TestAnalyzeTopHotspotsROIRollup(t *testing.T) {
	o := testOrchestrator(t, hotspotRecords(25), nil)

	report, err := o.AnalyzeTopHotspots(context.Background(), 22, Options{TopN: 1})
	require.NoError(t, err)
	require.Len(t, report.TopHotspots, 1)

	roi := report.TopHotspots[0].ROI
	require.NotNil(t, roi)
	assert.Equal(t, roi.Financials.TotalInfrastructureCost, report.CampusROI.TotalInfrastructureCost)
	assert.Equal(t, roi.Financials.TotalAnnualSavings, report.CampusROI.TotalAnnualSavings)
	assert.Equal(t, roi.VsConsulting.SavingsVsConsulting, report.CampusROI.VsConsultingSavings)
}

func TestTemporalHeatmap(t *testing.T) {
	records := []incident.Record{
		{Lat: 38.94, Lon: -92.33, HasLocation: true, Hour: 22, DayOfWeek: "Friday", Category: incident.CategoryTheft},
		{Lat: 38.94, Lon: -92.33, HasLocation: true, Hour: 22, DayOfWeek: "Saturday", Category: incident.CategoryTheft},
		{Lat: 38.94, Lon: -92.33, HasLocation: true, Hour: 22, DayOfWeek: "Friday", Category: incident.CategoryAssault},
		{Lat: 38.94, Lon: -92.33, HasLocation: true, Hour: 14, DayOfWeek: "Monday", Category: incident.CategoryTheft},
		{Lat: 38.94, Lon: -92.33, HasLocation: true, Hour: -1, DayOfWeek: "Tuesday", Category: incident.CategoryOther},
	}
	o := testOrchestrator(t, records, nil)

	hm := o.TemporalHeatmap()
	assert.Equal(t, 5, hm.TotalIncidents)
	require.Len(t, hm.ByHour, 24)
	assert.Equal(t, 3, hm.ByHour[22].Count)
	assert.Equal(t, "22:00", hm.ByHour[22].Label)

	require.NotEmpty(t, hm.PeakHours)
	assert.Equal(t, 22, hm.PeakHours[0].Hour)

	// 3 of 4 timestamped records fall in the night window.
	assert.InDelta(t, 75.0, hm.NightPct, 0.1)
	assert.InDelta(t, 20.0, hm.HourMean, 0.1)
	assert.Contains(t, hm.Insight, "night")

	days := make(map[string]int)
	for _, d := range hm.ByDay {
		days[d.Day] = d.Count
	}
	assert.Equal(t, 2, days["Friday"])
	assert.Equal(t, 1, days["Tuesday"])
}

func TestTemporalHeatmapEmpty(t *testing.T) {
	o := testOrchestrator(t, nil, nil)
	hm := o.TemporalHeatmap()
	assert.Zero(t, hm.TotalIncidents)
	assert.Empty(t, hm.PeakHours)
	assert.Contains(t, hm.Insight, "No timestamped incidents")
}

func TestComparativeBenchmarks(t *testing.T) {
	o := testOrchestrator(t, hotspotRecords(25), nil)
	scored, err := o.ScanCampus(context.Background(), 22)
	require.NoError(t, err)

	b := o.ComparativeBenchmarks(scored)
	assert.Equal(t, 25, b.TotalIncidents)
	// 25/30000*10000 = 8.3 per 10k.
	assert.InDelta(t, 8.3, b.RatePer10k, 0.01)
	assert.Equal(t, "Top quartile nationally", b.Ranking)
	assert.InDelta(t, 5.0, b.ProjectedRatePer10k, 0.01)
	assert.Greater(t, b.HighRiskLocations+b.MediumRiskLocations, 0)
}

func TestRankRate(t *testing.T) {
	assert.Equal(t, "Top quartile nationally", rankRate(31.0))
	assert.Equal(t, "Below peer average (good)", rankRate(45.0))
	assert.Equal(t, "Above peer average", rankRate(60.0))
	assert.Equal(t, "Above national average", rankRate(70.0))
}

func TestLoadLocationsCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "locations.csv")
	data := "name,latitude,longitude\n" +
		"Test Hall,38.945,-92.328\n" +
		"Off Campus,40.0,-95.0\n" +
		"Bad Row,not-a-number,-92.33\n" +
		",38.9410,-92.3300\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	locs, err := LoadLocationsCSV(path)
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Equal(t, "Test Hall", locs[0].Name)
	assert.Equal(t, "38.9410,-92.3300", locs[1].Name)
}

func TestLoadLocationsCSVMissing(t *testing.T) {
	_, err := LoadLocationsCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestDefaultGridWithinCampusBox(t *testing.T) {
	grid := DefaultGrid()
	require.Len(t, grid, 22)
	for _, loc := range grid {
		assert.True(t, CampusBox.Contains(loc.Lat, loc.Lon), loc.Name)
	}
}
