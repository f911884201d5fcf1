package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var hotspotCmd = &cobra.Command{
	Use:   "hotspot",
	Short: "Analyze one location's environment and interventions",
	Long: `Run the full hotspot analysis for a single location: risk detail,
lighting and sightline deficiencies, intervention plan with ROI, and a
written CPTED report.

Without an Anthropic API key the written report is composed from the
structured findings.

Examples:
  campuswatch hotspot --lat 38.9380 --lon -92.3350 --name "Parking Lot C2" --hour 22
  campuswatch hotspot --lat 38.9441 --lon -92.3269 --format json`,
	RunE: runHotspot,
}

func init() {
	f := hotspotCmd.Flags()
	f.Float64("lat", 0, "latitude (required)")
	f.Float64("lon", 0, "longitude (required)")
	f.String("name", "", "location name for the report")
	f.Int("hour", -1, "hour of day 0-23 (default from config)")
	f.String("format", "text", "output format: text or json")
	_ = hotspotCmd.MarkFlagRequired("lat")
	_ = hotspotCmd.MarkFlagRequired("lon")

	rootCmd.AddCommand(hotspotCmd)
}

func runHotspot(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("scan"); err != nil {
		return err
	}

	lat, _ := cmd.Flags().GetFloat64("lat")
	lon, _ := cmd.Flags().GetFloat64("lon")
	name, _ := cmd.Flags().GetString("name")
	hour, _ := cmd.Flags().GetInt("hour")
	format, _ := cmd.Flags().GetString("format")
	if hour < 0 {
		hour = cfg.Scan.Hour
	}
	if name == "" {
		name = fmt.Sprintf("%.4f,%.4f", lat, lon)
	}

	env, err := initEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	detail, err := env.scorer.Score(lat, lon, hour)
	if err != nil {
		return err
	}

	report, err := env.analyzer.AnalyzeHotspot(ctx, lat, lon, detail, name)
	if err != nil {
		return err
	}

	text, fromModel := env.narrator.Generate(ctx, report)
	zap.L().Info("hotspot analyzed",
		zap.String("location", name),
		zap.String("priority", string(report.Priority)),
		zap.Bool("model_narrative", fromModel),
	)

	if format == "json" {
		out := struct {
			Report    any    `json:"report"`
			Narrative string `json:"narrative"`
		}{Report: report, Narrative: text}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("%s (%s priority)\n\n%s\n", report.LocationName, report.Priority, text)
	return nil
}
