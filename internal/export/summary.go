package export

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/campuswatch/internal/scan"
)

const summaryRule = "======================================================================"
const summaryDash = "----------------------------------------------------------------------"

// ExportExecutiveSummary writes a plain-text summary suitable for email
// attachment or conversion to PDF.
func (e *Exporter) ExportExecutiveSummary(report *scan.CampusReport, filename string) (string, error) {
	path := filepath.Join(e.dir, filename)
	p := message.NewPrinter(language.AmericanEnglish)

	var b strings.Builder
	line := func(format string, args ...interface{}) {
		p.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line(summaryRule)
	line("CAMPUS SAFETY INFRASTRUCTURE REPORT")
	line("Date: %s", report.GeneratedAt.Format("January 2, 2006"))
	line("Scan Hour: %02d:00", report.ScanHour)
	line(summaryRule)
	line("")
	line("EXECUTIVE SUMMARY")
	line(summaryDash)
	line("Locations Scanned:         %d", report.LocationsScored)
	line("High-Risk Locations:       %d", report.RiskSummary.HighRisk)
	line("Medium-Risk Locations:     %d", report.RiskSummary.MediumRisk)
	line("Campus Risk Index:         %.1f/10", report.RiskSummary.CampusRiskIndex)
	line("")
	line("INFRASTRUCTURE GAPS IDENTIFIED:")
	line("  Lighting improvements needed:    %d locations", report.GapSummary.LightingGaps)
	line("  Call box coverage gaps:          %d locations", report.GapSummary.CallBoxGaps)
	line("  Isolated (low surveillance):     %d locations", report.GapSummary.IsolatedSpots)
	line("")

	if report.CampusROI.TotalInfrastructureCost > 0 {
		line("INVESTMENT SUMMARY (ALL HOTSPOTS COMBINED):")
		line("  Total Infrastructure Cost:   $%d", report.CampusROI.TotalInfrastructureCost)
		line("  Incidents Prevented/Year:    %d", report.CampusROI.TotalIncidentsPrevented)
		line("  Projected Annual Savings:    $%d", report.CampusROI.TotalAnnualSavings)
		line("  Overall ROI:                 %.1f%%", report.CampusROI.ROIPercentage)
		line("")
	}

	line("TOP HOTSPOTS")
	line(summaryRule)
	line("")
	for i, spot := range report.TopHotspots {
		riskLabel, riskScore, incidents := "N/A", 0.0, 0
		if spot.Risk != nil {
			riskLabel = string(spot.Risk.RiskLevel)
			riskScore = spot.Risk.RiskScore
			incidents = spot.Risk.IncidentCount
		}
		line("#%d %s", i+1, spot.LocationName)
		line("   Risk: %s (%.1f/10) | Incidents: %d | Priority: %s",
			riskLabel, riskScore, incidents, spot.Priority)
		if spot.Risk != nil && spot.Risk.DominantCrime != "" {
			line("   Dominant Crime: %s", spot.Risk.DominantCrime)
		}
		if spot.Profile != nil && spot.Profile.Luminance != nil {
			line("   Lighting: %.2f nW/cm2/sr [%s]",
				spot.Profile.Luminance.LuminanceNW, spot.Profile.Luminance.Label)
		}

		if spot.Profile != nil && len(spot.Profile.Deficiencies) > 0 {
			line("   Environmental Deficiencies:")
			for j, d := range spot.Profile.Deficiencies {
				if j == 4 {
					break
				}
				line("     - %s", d.Description)
			}
		}

		if spot.ROI != nil && len(spot.ROI.Interventions) > 0 {
			line("")
			line("   Recommended Interventions:")
			for _, iv := range spot.ROI.Interventions {
				line("   PRIORITY %d: %s", iv.Priority, iv.Name)
				line("     Cost:     $%d | Impact: %.0f-%.0f%% reduction",
					iv.TotalCost, iv.ReductionLow, iv.ReductionHigh)
				line("     Prevents: ~%d incidents/year | Saves: $%d/year",
					iv.IncidentsPrevented, iv.AnnualSavings)
				if len(iv.Citations) > 0 {
					c := iv.Citations[0]
					line("     Evidence: %s (%d): %s", c.Authors, c.Year, truncate(c.Finding, 80))
				}
			}
			fin := spot.ROI.Financials
			line("")
			line("   Total Investment: $%d | Annual Savings: $%d | ROI: %.1f%% | Payback: %s",
				fin.TotalInfrastructureCost, fin.TotalAnnualSavings,
				fin.ROIPercentage, fin.PaybackLabel)
		}
		line("")
		line(summaryDash)
		line("")
	}

	line("METHODOLOGY")
	line(summaryRule)
	line("Crime Data: Campus crime log + municipal 911 dispatch")
	line("Lighting:   VIIRS satellite nighttime lights (EOG/NOAA)")
	line("Roads:      US Census TIGER/Line shapefiles")
	line("Framework:  Crime Prevention Through Environmental Design (CPTED)")
	line("")
	line("CONTACT")
	line("MU Police Department: 573-882-7201")
	line("Safe Ride: 573-882-1010 | Friend Walk: 573-884-9255")
	line(summaryRule)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", eris.Wrap(err, "export: write summary")
	}
	zap.L().Info("export: executive summary written", zap.String("path", path))
	return path, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
