package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/campuswatch/internal/geo"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score crime risk at a single point",
	Long: `Score crime risk at a coordinate for a given hour.

Counts incidents within the scoring radius, weights them by severity,
recency proxy, and time-of-day overlap, and prints the full risk detail
as JSON.

Examples:
  # Score a parking lot at 10pm
  campuswatch score --lat 38.9380 --lon -92.3350 --hour 22

  # Score with the configured default hour
  campuswatch score --lat 38.9404 --lon -92.3277`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.Float64("lat", 0, "latitude (required)")
	f.Float64("lon", 0, "longitude (required)")
	f.Int("hour", -1, "hour of day 0-23 (default from config)")
	_ = scoreCmd.MarkFlagRequired("lat")
	_ = scoreCmd.MarkFlagRequired("lon")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("scan"); err != nil {
		return err
	}

	lat, _ := cmd.Flags().GetFloat64("lat")
	lon, _ := cmd.Flags().GetFloat64("lon")
	hour, _ := cmd.Flags().GetInt("hour")
	if hour < 0 {
		hour = cfg.Scan.Hour
	}
	if err := geo.ValidateCoordinate(lat, lon); err != nil {
		return err
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

	zap.L().Info("point scored",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.Int("hour", hour),
		zap.Float64("score", detail.RiskScore),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(detail)
}
