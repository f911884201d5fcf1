package scan

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/campuswatch/internal/cpted"
	"github.com/sells-group/campuswatch/internal/geo"
	"github.com/sells-group/campuswatch/internal/incident"
	"github.com/sells-group/campuswatch/internal/risk"
)

// Grids larger than this are scored with a worker pool; below it the
// sequential path is cheaper than the goroutine overhead.
const parallelThreshold = 20

// DefaultConcurrency bounds the scoring worker pool.
const DefaultConcurrency = 8

// DefaultMinRiskScore gates the expensive hotspot-enrichment path.
const DefaultMinRiskScore = 0.5

// DefaultTopN caps how many hotspots get full CPTED analysis per scan.
const DefaultTopN = 5

// maxAdjustedScore caps survey-weighted scores at the scale ceiling.
const maxAdjustedScore = 10.0

// ScoredLocation is one scan-grid entry with its risk assessment.
type ScoredLocation struct {
	LocationName  string       `json:"location_name"`
	Lat           float64      `json:"lat"`
	Lon           float64      `json:"lon"`
	Risk          *risk.Detail `json:"risk_detail"`
	RiskScore     float64      `json:"risk_score"` // survey-adjusted
	BaseRiskScore float64      `json:"base_risk_score"`
	RiskLevel     risk.Level   `json:"risk_level"`
	SurveyWeight  float64      `json:"survey_weight"`
}

// Orchestrator drives the campus pipeline: grid scoring, temporal and
// benchmark analysis, then hotspot enrichment above the risk threshold.
type Orchestrator struct {
	scorer   *risk.Scorer
	analyzer *cpted.Analyzer
	store    *incident.Store

	grid          []Location
	surveyWeights map[string]float64
	concurrency   int
}

// Options tune a scan run. Zero values select the defaults.
type Options struct {
	TopN         int
	MinRiskScore float64
}

// NewOrchestrator builds an orchestrator. grid nil selects DefaultGrid;
// surveyWeights may be nil.
func NewOrchestrator(scorer *risk.Scorer, analyzer *cpted.Analyzer, store *incident.Store, grid []Location, surveyWeights map[string]float64) *Orchestrator {
	if len(grid) == 0 {
		grid = DefaultGrid()
	}
	return &Orchestrator{
		scorer:        scorer,
		analyzer:      analyzer,
		store:         store,
		grid:          grid,
		surveyWeights: surveyWeights,
		concurrency:   DefaultConcurrency,
	}
}

// SetConcurrency bounds the scoring worker pool. Values outside 1..64
// are ignored.
func (o *Orchestrator) SetConcurrency(n int) {
	if n >= 1 && n <= 64 {
		o.concurrency = n
	}
}

// ScanCampus scores every grid location at the given hour and returns the
// results sorted by adjusted score descending. Large grids fan out across
// a bounded worker pool; each location reads only immutable data.
func (o *Orchestrator) ScanCampus(ctx context.Context, hour int) ([]ScoredLocation, error) {
	if err := geo.ValidateHour(hour); err != nil {
		return nil, err
	}

	zap.L().Info("scan: scoring campus grid",
		zap.Int("locations", len(o.grid)),
		zap.Int("hour", hour),
	)

	scored := make([]ScoredLocation, len(o.grid))
	if len(o.grid) > parallelThreshold {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.concurrency)
		for i, loc := range o.grid {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				s, err := o.scoreLocation(loc, hour)
				if err != nil {
					return err
				}
				scored[i] = s
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, loc := range o.grid {
			s, err := o.scoreLocation(loc, hour)
			if err != nil {
				return nil, err
			}
			scored[i] = s
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RiskScore > scored[j].RiskScore
	})
	return scored, nil
}

func (o *Orchestrator) scoreLocation(loc Location, hour int) (ScoredLocation, error) {
	detail, err := o.scorer.Score(loc.Lat, loc.Lon, hour)
	if err != nil {
		return ScoredLocation{}, err
	}

	weight := 1.0
	if w, ok := o.surveyWeights[loc.Name]; ok && w > 0 {
		weight = w
	}
	adjusted := math.Round(math.Min(maxAdjustedScore, detail.RiskScore*weight)*100) / 100

	return ScoredLocation{
		LocationName:  loc.Name,
		Lat:           loc.Lat,
		Lon:           loc.Lon,
		Risk:          detail,
		RiskScore:     adjusted,
		BaseRiskScore: detail.RiskScore,
		RiskLevel:     detail.RiskLevel,
		SurveyWeight:  weight,
	}, nil
}

// AnalyzeTopHotspots runs the full pipeline: scan, temporal heatmap,
// benchmarks, then CPTED enrichment of the highest-risk locations. Only
// locations at or above the risk threshold reach the expensive path.
func (o *Orchestrator) AnalyzeTopHotspots(ctx context.Context, hour int, opts Options) (*CampusReport, error) {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.MinRiskScore <= 0 {
		opts.MinRiskScore = DefaultMinRiskScore
	}

	scored, err := o.ScanCampus(ctx, hour)
	if err != nil {
		return nil, err
	}

	temporal := o.TemporalHeatmap()
	bench := o.ComparativeBenchmarks(scored)

	var hotspots []ScoredLocation
	for _, s := range scored {
		if s.RiskScore >= opts.MinRiskScore {
			hotspots = append(hotspots, s)
		}
		if len(hotspots) == opts.TopN {
			break
		}
	}

	zap.L().Info("scan: enriching hotspots",
		zap.Int("hotspots", len(hotspots)),
		zap.Float64("min_risk_score", opts.MinRiskScore),
	)

	reports := make([]*cpted.HotspotReport, 0, len(hotspots))
	for _, h := range hotspots {
		report, err := o.analyzer.AnalyzeHotspot(ctx, h.Lat, h.Lon, h.Risk, h.LocationName)
		if err != nil {
			// Invalid grid entries must not sink the whole scan.
			zap.L().Error("scan: hotspot analysis failed",
				zap.String("location", h.LocationName),
				zap.Error(err),
			)
			continue
		}
		reports = append(reports, report)
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reportScore(reports[i]) > reportScore(reports[j])
	})

	return compileReport(hour, scored, reports, temporal, bench), nil
}

func reportScore(r *cpted.HotspotReport) float64 {
	if r.Risk == nil {
		return 0
	}
	return r.Risk.RiskScore
}
