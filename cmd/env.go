package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/campuswatch/internal/cpted"
	"github.com/sells-group/campuswatch/internal/incident"
	"github.com/sells-group/campuswatch/internal/luminance"
	"github.com/sells-group/campuswatch/internal/risk"
	"github.com/sells-group/campuswatch/internal/scan"
	"github.com/sells-group/campuswatch/internal/sightline"
	"github.com/sells-group/campuswatch/pkg/anthropic"
	"github.com/sells-group/campuswatch/pkg/narrative"
	"github.com/sells-group/campuswatch/pkg/policy"
)

// VIIRS annual composites are pre-calibrated; -999.9 marks masked pixels.
const (
	rasterScale  = 1.0
	rasterNoData = -999.9
)

// env holds the wired analysis stack shared by the commands.
type env struct {
	store        *incident.Store
	scorer       *risk.Scorer
	analyzer     *cpted.Analyzer
	orchestrator *scan.Orchestrator
	narrator     *narrative.Generator
	pool         *pgxpool.Pool
}

func (e *env) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
}

// initEnv loads incidents and assembles the scoring and analysis stack
// from config.
func initEnv(ctx context.Context) (*env, error) {
	e := &env{}

	store, err := e.loadStore(ctx)
	if err != nil {
		return nil, err
	}
	e.store = store

	e.scorer = risk.NewScorer(store, risk.DefaultConfig())

	detector := cpted.NewDetector(buildLuminanceSampler(), buildSightlineSampler())
	catalog, err := cpted.LoadCatalog()
	if err != nil {
		return nil, err
	}
	e.analyzer = cpted.NewAnalyzer(detector, cpted.NewEngine(catalog), buildPolicyProvider())

	grid, err := loadGrid()
	if err != nil {
		return nil, err
	}
	weights, err := loadWeights()
	if err != nil {
		return nil, err
	}
	e.orchestrator = scan.NewOrchestrator(e.scorer, e.analyzer, store, grid, weights)
	e.orchestrator.SetConcurrency(cfg.Scan.Concurrency)

	e.narrator = buildNarrator()

	zap.L().Info("analysis stack ready",
		zap.Int("incidents", store.Len()),
		zap.String("store_driver", cfg.Store.Driver),
	)
	return e, nil
}

func (e *env) loadStore(ctx context.Context) (*incident.Store, error) {
	var feed incident.Feed
	switch cfg.Store.Driver {
	case "csv":
		feed = &incident.CSVFeed{Path: cfg.Store.Path}
	case "sqlite":
		feed = &incident.SQLiteFeed{Path: cfg.Store.Path}
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "connect postgres")
		}
		e.pool = pool
		feed = &incident.PostgresFeed{Pool: pool}
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	return incident.FromFeed(ctx, feed, scan.CampusBox)
}

func buildLuminanceSampler() *luminance.Sampler {
	estimator := luminance.NewEstimator(luminance.DefaultReferencePoints())

	path := cfg.Data.LuminanceRaster
	if path == "" {
		return luminance.NewSampler(nil, estimator)
	}
	if _, err := os.Stat(path); err != nil {
		zap.L().Warn("luminance raster not staged, using reference estimates",
			zap.String("path", path),
		)
		return luminance.NewSampler(nil, estimator)
	}

	var (
		raster luminance.RasterSource
		err    error
	)
	if strings.EqualFold(filepath.Ext(path), ".asc") {
		raster, err = luminance.OpenASCIIGrid(path)
	} else {
		world := strings.TrimSuffix(path, filepath.Ext(path)) + ".tfw"
		raster, err = luminance.OpenWorldTIFF(path, world, rasterScale, rasterNoData)
	}
	if err != nil {
		zap.L().Warn("luminance raster unreadable, using reference estimates",
			zap.String("path", path),
			zap.Error(err),
		)
		return luminance.NewSampler(nil, estimator)
	}
	return luminance.NewSampler(raster, estimator)
}

func buildSightlineSampler() *sightline.Sampler {
	fallback := sightline.NewZoneSource(sightline.DefaultZones())

	if path := cfg.Data.RoadsShapefile; path != "" {
		if _, err := os.Stat(path); err == nil {
			src, err := sightline.OpenShapefile(path, scan.CampusBox)
			if err == nil {
				return sightline.NewSampler(src, fallback)
			}
			zap.L().Warn("roads shapefile unreadable, falling back",
				zap.String("path", path),
				zap.Error(err),
			)
		}
	}

	if cfg.Overpass.Endpoint != "" {
		timeout := time.Duration(cfg.Overpass.TimeoutSecs) * time.Second
		return sightline.NewSampler(sightline.NewOverpassSource(cfg.Overpass.Endpoint, timeout), fallback)
	}

	return sightline.NewSampler(nil, fallback)
}

func buildPolicyProvider() cpted.PolicyContextProvider {
	if cfg.Policy.BaseURL == "" {
		return nil
	}
	if cfg.Policy.TimeoutSecs > 0 {
		hc := &http.Client{Timeout: time.Duration(cfg.Policy.TimeoutSecs) * time.Second}
		return policy.NewClient(cfg.Policy.BaseURL, policy.WithHTTPClient(hc))
	}
	return policy.NewClient(cfg.Policy.BaseURL)
}

func buildNarrator() *narrative.Generator {
	if cfg.Anthropic.Key == "" {
		return narrative.NewGenerator(nil)
	}
	return narrative.NewGenerator(
		anthropic.NewClient(cfg.Anthropic.Key),
		narrative.WithModel(cfg.Anthropic.Model),
		narrative.WithMaxTokens(int64(cfg.Anthropic.MaxTokens)),
	)
}

func loadGrid() ([]scan.Location, error) {
	if cfg.Scan.LocationsCSV == "" {
		return nil, nil
	}
	return scan.LoadLocationsCSV(cfg.Scan.LocationsCSV)
}

func loadWeights() (map[string]float64, error) {
	if cfg.Scan.SurveyWeightsFile == "" {
		return nil, nil
	}
	return scan.LoadSurveyWeights(cfg.Scan.SurveyWeightsFile)
}
