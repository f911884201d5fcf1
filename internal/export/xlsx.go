package export

import (
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/campuswatch/internal/scan"
)

// ExportWorkbook writes a three-sheet XLSX workbook: campus summary, every
// location's risk score, and the itemized intervention budget.
func (e *Exporter) ExportWorkbook(report *scan.CampusReport, filename string) (string, error) {
	path := filepath.Join(e.dir, filename)
	f := xlsx.NewFile()

	if err := addSummarySheet(f, report); err != nil {
		return "", err
	}
	if err := addRiskSheet(f, report); err != nil {
		return "", err
	}
	if err := addInterventionSheet(f, report); err != nil {
		return "", err
	}

	if err := f.Save(path); err != nil {
		return "", eris.Wrap(err, "export: save workbook")
	}
	zap.L().Info("export: workbook written", zap.String("path", path))
	return path, nil
}

func addSummarySheet(f *xlsx.File, report *scan.CampusReport) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}

	kv := func(key string, set func(c *xlsx.Cell)) {
		row := sheet.AddRow()
		row.AddCell().SetString(key)
		set(row.AddCell())
	}

	kv("Report ID", func(c *xlsx.Cell) { c.SetString(report.ReportID) })
	kv("Generated", func(c *xlsx.Cell) { c.SetString(report.GeneratedAt.Format("2006-01-02 15:04 MST")) })
	kv("Scan Hour", func(c *xlsx.Cell) { c.SetInt(report.ScanHour) })
	kv("Locations Scored", func(c *xlsx.Cell) { c.SetInt(report.LocationsScored) })
	kv("High-Risk Locations", func(c *xlsx.Cell) { c.SetInt(report.RiskSummary.HighRisk) })
	kv("Medium-Risk Locations", func(c *xlsx.Cell) { c.SetInt(report.RiskSummary.MediumRisk) })
	kv("Campus Risk Index", func(c *xlsx.Cell) { c.SetFloat(report.RiskSummary.CampusRiskIndex) })
	kv("Lighting Gaps", func(c *xlsx.Cell) { c.SetInt(report.GapSummary.LightingGaps) })
	kv("Call Box Gaps", func(c *xlsx.Cell) { c.SetInt(report.GapSummary.CallBoxGaps) })
	kv("Isolated Locations", func(c *xlsx.Cell) { c.SetInt(report.GapSummary.IsolatedSpots) })
	kv("Total Infrastructure Cost ($)", func(c *xlsx.Cell) { c.SetInt(report.CampusROI.TotalInfrastructureCost) })
	kv("Projected Annual Savings ($)", func(c *xlsx.Cell) { c.SetInt(report.CampusROI.TotalAnnualSavings) })
	kv("Incidents Prevented / Year", func(c *xlsx.Cell) { c.SetInt(report.CampusROI.TotalIncidentsPrevented) })
	kv("Overall ROI (%)", func(c *xlsx.Cell) { c.SetFloat(report.CampusROI.ROIPercentage) })
	if report.Benchmarks != nil {
		kv("Incident Rate / 10k Students", func(c *xlsx.Cell) { c.SetFloat(report.Benchmarks.RatePer10k) })
		kv("National Ranking", func(c *xlsx.Cell) { c.SetString(report.Benchmarks.Ranking) })
	}
	return nil
}

func addRiskSheet(f *xlsx.File, report *scan.CampusReport) error {
	sheet, err := f.AddSheet("Risk Scores")
	if err != nil {
		return eris.Wrap(err, "export: add risk sheet")
	}

	header := sheet.AddRow()
	for _, h := range riskScoreHeader {
		header.AddCell().SetString(h)
	}
	for _, loc := range report.AllLocations {
		row := sheet.AddRow()
		row.AddCell().SetString(loc.LocationName)
		row.AddCell().SetFloat(loc.Lat)
		row.AddCell().SetFloat(loc.Lon)
		row.AddCell().SetString(string(loc.RiskLevel))
		row.AddCell().SetFloat(loc.RiskScore)
		row.AddCell().SetFloat(loc.BaseRiskScore)
		row.AddCell().SetFloat(loc.SurveyWeight)
		if loc.Risk != nil {
			row.AddCell().SetInt(loc.Risk.IncidentCount)
		} else {
			row.AddCell().SetString("")
		}
	}
	return nil
}

func addInterventionSheet(f *xlsx.File, report *scan.CampusReport) error {
	sheet, err := f.AddSheet("Interventions")
	if err != nil {
		return eris.Wrap(err, "export: add interventions sheet")
	}

	header := sheet.AddRow()
	for _, h := range interventionHeader {
		header.AddCell().SetString(h)
	}
	for rank, spot := range report.TopHotspots {
		if spot.ROI == nil {
			continue
		}
		for _, iv := range spot.ROI.Interventions {
			row := sheet.AddRow()
			for _, v := range interventionRow(rank+1, spot, iv) {
				row.AddCell().SetString(v)
			}
		}
	}
	return nil
}
