package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/campuswatch/internal/cpted"
	"github.com/sells-group/campuswatch/internal/luminance"
	"github.com/sells-group/campuswatch/internal/risk"
	"github.com/sells-group/campuswatch/internal/scan"
)

func sampleReport() *scan.CampusReport {
	detail := &risk.Detail{
		RiskScore:     7.4,
		RiskLevel:     risk.LevelHigh,
		IncidentCount: 23,
		DominantCrime: "theft",
	}
	hotspot := &cpted.HotspotReport{
		LocationName: "Parking Lot C2",
		Lat:          38.9380,
		Lon:          -92.3350,
		Risk:         detail,
		Priority:     cpted.PriorityCritical,
		Profile: &cpted.Profile{
			Luminance: &luminance.Reading{
				LuminanceNW: 4.2,
				Label:       luminance.LabelDim,
			},
			LightingGap: true,
			CallBoxGap:  true,
			Deficiencies: []cpted.Deficiency{
				{Category: cpted.DeficiencyLighting, Description: "Nearest light pole 450ft away"},
			},
		},
		ROI: &cpted.ROIResult{
			Interventions: []cpted.Intervention{
				{
					Priority: 1, Type: "led_light_pole", Name: "LED Light Pole",
					Quantity: 2, LocationNote: "along main approach",
					UnitCost: 7500, TotalCost: 15000, AnnualMaintenance: 300,
					CostTier: "medium", ReductionLow: 20, ReductionHigh: 65,
					ReductionMedian: 40, IncidentsPrevented: 9, AnnualSavings: 31500,
					Citations: []cpted.Citation{{Authors: "Welsh & Farrington", Year: 2008, Finding: "Improved street lighting reduced crime"}},
				},
			},
			Financials: cpted.Financials{
				TotalInfrastructureCost: 15000,
				TotalAnnualSavings:      31500,
				TotalIncidentsPrevented: 9,
				ROIPercentage:           110.0,
				PaybackLabel:            "6 months",
			},
		},
	}

	return &scan.CampusReport{
		ReportID:        "test-report-1",
		GeneratedAt:     time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		ScanHour:        22,
		LocationsScored: 2,
		RiskSummary:     scan.RiskSummary{HighRisk: 1, LowRisk: 1, CampusRiskIndex: 3.95},
		GapSummary:      scan.GapSummary{LightingGaps: 1, CallBoxGaps: 1, TotalGaps: 1},
		PrioritySummary: scan.PrioritySummary{Critical: 1},
		CampusROI: scan.CampusROI{
			TotalInfrastructureCost: 15000,
			TotalAnnualSavings:      31500,
			TotalIncidentsPrevented: 9,
			ROIPercentage:           110.0,
		},
		TopHotspots: []*cpted.HotspotReport{hotspot},
		AllLocations: []scan.ScoredLocation{
			{LocationName: "Parking Lot C2", Lat: 38.9380, Lon: -92.3350, Risk: detail, RiskScore: 7.4, BaseRiskScore: 7.4, RiskLevel: risk.LevelHigh, SurveyWeight: 1.0},
			{LocationName: "Memorial Union", Lat: 38.9404, Lon: -92.3277, RiskScore: 0.5, BaseRiskScore: 0.5, RiskLevel: risk.LevelLow, SurveyWeight: 1.0},
		},
		Temporal: &scan.TemporalHeatmap{
			TotalIncidents: 23,
			ByHour:         []scan.HourBucket{{Label: "22:00", Hour: 22, Count: 23}},
			ByDay:          []scan.DayBucket{{Day: "Friday", Count: 23}},
			Insight:        "Incidents concentrate at night",
		},
		Benchmarks: &scan.CampusBenchmarks{RatePer10k: 7.7, Ranking: "Top quartile nationally"},
	}
}

func TestExportJSONRoundTrip(t *testing.T) {
	e, err := NewExporter(t.TempDir())
	require.NoError(t, err)

	path, err := e.ExportJSON(sampleReport(), "report.json")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded scan.CampusReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "test-report-1", decoded.ReportID)
	assert.Equal(t, 1, decoded.RiskSummary.HighRisk)
	require.Len(t, decoded.TopHotspots, 1)
	assert.Equal(t, "Parking Lot C2", decoded.TopHotspots[0].LocationName)
}

func TestExportInterventionsCSV(t *testing.T) {
	e, err := NewExporter(t.TempDir())
	require.NoError(t, err)

	path, err := e.ExportInterventionsCSV(sampleReport(), "interventions.csv")
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, interventionHeader, rows[0])

	row := rows[1]
	assert.Equal(t, "1", row[0])
	assert.Equal(t, "Parking Lot C2", row[1])
	assert.Equal(t, "High", row[2])
	assert.Equal(t, "4.20", row[6])
	assert.Equal(t, "Dim", row[7])
	assert.Equal(t, "LED Light Pole", row[10])
	assert.Equal(t, "15000", row[14])
	assert.Equal(t, "Welsh & Farrington (2008)", row[23])
}

func TestExportRiskScoresCSV(t *testing.T) {
	e, err := NewExporter(t.TempDir())
	require.NoError(t, err)

	path, err := e.ExportRiskScoresCSV(sampleReport(), "scores.csv")
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Parking Lot C2", rows[1][0])
	assert.Equal(t, "7.40", rows[1][4])
	assert.Equal(t, "Memorial Union", rows[2][0])
	// Location scored without an incident query carries no count.
	assert.Equal(t, "", rows[2][7])
}

func TestExportWorkbook(t *testing.T) {
	e, err := NewExporter(t.TempDir())
	require.NoError(t, err)

	path, err := e.ExportWorkbook(sampleReport(), "report.xlsx")
	require.NoError(t, err)

	wb, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 3)
	assert.Equal(t, "Summary", wb.Sheets[0].Name)
	assert.Equal(t, "Risk Scores", wb.Sheets[1].Name)
	assert.Equal(t, "Interventions", wb.Sheets[2].Name)

	// Header plus two locations.
	assert.Len(t, wb.Sheets[1].Rows, 3)
}

func TestExportExecutiveSummary(t *testing.T) {
	e, err := NewExporter(t.TempDir())
	require.NoError(t, err)

	path, err := e.ExportExecutiveSummary(sampleReport(), "summary.txt")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "CAMPUS SAFETY INFRASTRUCTURE REPORT")
	assert.Contains(t, text, "Campus Risk Index:         4.0/10")
	assert.Contains(t, text, "#1 Parking Lot C2")
	assert.Contains(t, text, "PRIORITY 1: LED Light Pole")
	// Currency figures carry thousands separators.
	assert.Contains(t, text, "$15,000")
	assert.Contains(t, text, "$31,500")
	assert.Contains(t, text, "Payback: 6 months")
	assert.Contains(t, text, "573-882-7201")
}

func TestExportHeatmapHTML(t *testing.T) {
	e, err := NewExporter(t.TempDir())
	require.NoError(t, err)

	path, err := e.ExportHeatmapHTML(sampleReport(), "heatmap.html")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "Incidents by Hour of Day")
	assert.Contains(t, html, "Campus Risk Map")
	assert.Contains(t, html, "echarts")
}

func TestExportAllBundle(t *testing.T) {
	dir := t.TempDir()
	e, err := NewExporter(dir)
	require.NoError(t, err)

	bundle, err := e.ExportAll(sampleReport())
	require.NoError(t, err)

	for _, p := range []string{
		bundle.JSON, bundle.InterventionsCSV, bundle.RiskScoresCSV,
		bundle.Workbook, bundle.Summary, bundle.Heatmap,
	} {
		require.NotEmpty(t, p)
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
	assert.True(t, strings.HasPrefix(bundle.JSON, dir))
}

func TestExportAllNilReport(t *testing.T) {
	e, err := NewExporter(t.TempDir())
	require.NoError(t, err)
	_, err = e.ExportAll(nil)
	assert.Error(t, err)
}
