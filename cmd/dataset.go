package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/campuswatch/internal/dataset"
	"github.com/sells-group/campuswatch/internal/resilience"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Download external datasets",
	Long: `Stage the external datasets the samplers read:

  roads      TIGER/Line county roads shapefile (sightline analysis)
  luminance  VIIRS nighttime lights raster (lighting analysis)

Downloads are cached under the data directory; re-running skips files
already staged.`,
}

var datasetRoadsCmd = &cobra.Command{
	Use:   "roads",
	Short: "Download the county roads shapefile",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfgRetry := resilience.DatasetRetryConfig()
		cfgRetry.OnRetry = resilience.RetryLogger("dataset", "roads")
		path, err := resilience.DoVal(ctx, cfgRetry, func(ctx context.Context) (string, error) {
			return dataset.FetchRoads(ctx, cfg.Data.RoadsURL, cfg.Data.Dir)
		})
		if err != nil {
			return err
		}

		zap.L().Info("roads shapefile staged", zap.String("path", path))
		fmt.Printf("Roads shapefile: %s\nSet data.roads_shapefile to use it.\n", path)
		return nil
	},
}

var datasetLuminanceCmd = &cobra.Command{
	Use:   "luminance",
	Short: "Download the nighttime lights raster",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Data.LuminanceURL == "" {
			return fmt.Errorf("data.luminance_url is not configured")
		}

		cfgRetry := resilience.DatasetRetryConfig()
		cfgRetry.OnRetry = resilience.RetryLogger("dataset", "luminance")
		path, err := resilience.DoVal(ctx, cfgRetry, func(ctx context.Context) (string, error) {
			return dataset.FetchLuminanceRaster(ctx, cfg.Data.LuminanceURL, cfg.Data.Dir)
		})
		if err != nil {
			return err
		}

		zap.L().Info("luminance raster staged", zap.String("path", path))
		fmt.Printf("Luminance raster: %s\nSet data.luminance_raster to use it.\n", path)
		return nil
	},
}

func init() {
	datasetCmd.AddCommand(datasetRoadsCmd)
	datasetCmd.AddCommand(datasetLuminanceCmd)
	rootCmd.AddCommand(datasetCmd)
}
