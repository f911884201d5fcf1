package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/campuswatch/internal/cpted"
	"github.com/sells-group/campuswatch/internal/scan"
)

var interventionHeader = []string{
	"Rank", "Location", "Risk Level", "Risk Score", "Incident Count",
	"Dominant Crime", "Luminance", "Luminance Label", "Priority",
	"Intervention Priority", "Intervention", "Quantity", "Location Note",
	"Unit Cost ($)", "Total Cost ($)", "Annual Maintenance ($)", "Cost Tier",
	"Reduction % Low", "Reduction % High", "Reduction % Median",
	"Incidents Prevented/yr", "Annual Savings ($)", "Citation Count", "Citations",
}

// ExportInterventionsCSV writes a flat itemization of every recommended
// intervention across all hotspots, one row per intervention line.
func (e *Exporter) ExportInterventionsCSV(report *scan.CampusReport, filename string) (string, error) {
	path := filepath.Join(e.dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrap(err, "export: create interventions csv")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(interventionHeader); err != nil {
		return "", eris.Wrap(err, "export: write header")
	}

	rows := 0
	for rank, spot := range report.TopHotspots {
		if spot.ROI == nil {
			continue
		}
		for _, iv := range spot.ROI.Interventions {
			if err := w.Write(interventionRow(rank+1, spot, iv)); err != nil {
				return "", eris.Wrap(err, "export: write row")
			}
			rows++
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", eris.Wrap(err, "export: flush interventions csv")
	}

	zap.L().Info("export: interventions csv written",
		zap.String("path", path),
		zap.Int("rows", rows),
	)
	return path, nil
}

func interventionRow(rank int, spot *cpted.HotspotReport, iv cpted.Intervention) []string {
	riskLevel, riskScore, incidents, dominant := "", "", "", ""
	if spot.Risk != nil {
		riskLevel = string(spot.Risk.RiskLevel)
		riskScore = fmt.Sprintf("%.2f", spot.Risk.RiskScore)
		incidents = strconv.Itoa(spot.Risk.IncidentCount)
		dominant = string(spot.Risk.DominantCrime)
	}
	lum, lumLabel := "", ""
	if spot.Profile != nil && spot.Profile.Luminance != nil {
		lum = fmt.Sprintf("%.2f", spot.Profile.Luminance.LuminanceNW)
		lumLabel = string(spot.Profile.Luminance.Label)
	}

	cites := make([]string, 0, len(iv.Citations))
	for _, c := range iv.Citations {
		cites = append(cites, fmt.Sprintf("%s (%d)", c.Authors, c.Year))
	}

	return []string{
		strconv.Itoa(rank),
		spot.LocationName,
		riskLevel,
		riskScore,
		incidents,
		dominant,
		lum,
		lumLabel,
		string(spot.Priority),
		strconv.Itoa(iv.Priority),
		iv.Name,
		strconv.Itoa(iv.Quantity),
		iv.LocationNote,
		strconv.Itoa(iv.UnitCost),
		strconv.Itoa(iv.TotalCost),
		strconv.Itoa(iv.AnnualMaintenance),
		iv.CostTier,
		fmt.Sprintf("%.0f", iv.ReductionLow),
		fmt.Sprintf("%.0f", iv.ReductionHigh),
		fmt.Sprintf("%.0f", iv.ReductionMedian),
		strconv.Itoa(iv.IncidentsPrevented),
		strconv.Itoa(iv.AnnualSavings),
		strconv.Itoa(len(iv.Citations)),
		strings.Join(cites, " | "),
	}
}

var riskScoreHeader = []string{
	"Location", "Latitude", "Longitude", "Risk Level", "Risk Score",
	"Base Score", "Survey Weight", "Incident Count",
}

// ExportRiskScoresCSV writes every scanned location's score as a flat CSV.
func (e *Exporter) ExportRiskScoresCSV(report *scan.CampusReport, filename string) (string, error) {
	path := filepath.Join(e.dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrap(err, "export: create risk scores csv")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(riskScoreHeader); err != nil {
		return "", eris.Wrap(err, "export: write header")
	}
	for _, loc := range report.AllLocations {
		incidents := ""
		if loc.Risk != nil {
			incidents = strconv.Itoa(loc.Risk.IncidentCount)
		}
		row := []string{
			loc.LocationName,
			fmt.Sprintf("%.4f", loc.Lat),
			fmt.Sprintf("%.4f", loc.Lon),
			string(loc.RiskLevel),
			fmt.Sprintf("%.2f", loc.RiskScore),
			fmt.Sprintf("%.2f", loc.BaseRiskScore),
			fmt.Sprintf("%.2f", loc.SurveyWeight),
			incidents,
		}
		if err := w.Write(row); err != nil {
			return "", eris.Wrap(err, "export: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", eris.Wrap(err, "export: flush risk scores csv")
	}

	zap.L().Info("export: risk scores csv written",
		zap.String("path", path),
		zap.Int("locations", len(report.AllLocations)),
	)
	return path, nil
}
