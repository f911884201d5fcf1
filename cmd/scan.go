package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/campuswatch/internal/export"
	"github.com/sells-group/campuswatch/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the campus grid and export the full report",
	Long: `Score every grid location, analyze the top hotspots, and export the
campus report: JSON, intervention and risk-score CSVs, an Excel workbook,
an executive summary, and an interactive heatmap.

Examples:
  # Nightly scan at the configured hour
  campuswatch scan

  # Scan at 2am, keep only the top 3 hotspots
  campuswatch scan --hour 2 --top 3

  # Score only, skip report files
  campuswatch scan --no-export`,
	RunE: runScan,
}

func init() {
	f := scanCmd.Flags()
	f.Int("hour", -1, "hour of day 0-23 (default from config)")
	f.Int("top", 0, "hotspots to analyze (default from config)")
	f.Float64("min-score", -1, "minimum adjusted score for hotspot analysis (default from config)")
	f.Bool("no-export", false, "print summary only, write no report files")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("scan"); err != nil {
		return err
	}

	hour, _ := cmd.Flags().GetInt("hour")
	top, _ := cmd.Flags().GetInt("top")
	minScore, _ := cmd.Flags().GetFloat64("min-score")
	noExport, _ := cmd.Flags().GetBool("no-export")
	if hour < 0 {
		hour = cfg.Scan.Hour
	}
	if top <= 0 {
		top = cfg.Scan.TopN
	}
	if minScore < 0 {
		minScore = cfg.Scan.MinRiskScore
	}

	env, err := initEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	report, err := env.orchestrator.AnalyzeTopHotspots(ctx, hour, scan.Options{
		TopN:         top,
		MinRiskScore: minScore,
	})
	if err != nil {
		return err
	}

	zap.L().Info("campus scan complete",
		zap.String("report_id", report.ReportID),
		zap.Int("locations", report.LocationsScored),
		zap.Int("hotspots", len(report.TopHotspots)),
		zap.Float64("campus_risk_index", report.RiskSummary.CampusRiskIndex),
	)

	fmt.Printf("Scanned %d locations at %02d:00\n", report.LocationsScored, hour)
	fmt.Printf("Campus risk index: %.2f/10 (%d high, %d medium, %d low)\n",
		report.RiskSummary.CampusRiskIndex, report.RiskSummary.HighRisk, report.RiskSummary.MediumRisk, report.RiskSummary.LowRisk)
	for i, spot := range report.TopHotspots {
		fmt.Printf("  #%d %s (%s)\n", i+1, spot.LocationName, spot.Priority)
	}

	if noExport {
		return nil
	}

	exporter, err := export.NewExporter(cfg.Data.ReportsDir)
	if err != nil {
		return err
	}
	bundle, err := exporter.ExportAll(report)
	if err != nil {
		return err
	}

	fmt.Printf("\nReports written to %s\n", exporter.Dir())
	fmt.Printf("  %s\n  %s\n  %s\n  %s\n  %s\n  %s\n",
		bundle.JSON, bundle.InterventionsCSV, bundle.RiskScoresCSV,
		bundle.Workbook, bundle.Summary, bundle.Heatmap)
	return nil
}
