package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/campuswatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "campuswatch",
	Short: "Campus public-safety risk analysis",
	Long:  "Scores crime risk across campus locations, annotates walking routes, detects lighting and sightline deficiencies, and plans CPTED interventions with ROI projections.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
