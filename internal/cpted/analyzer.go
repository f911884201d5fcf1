package cpted

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/campuswatch/internal/incident"
	"github.com/sells-group/campuswatch/internal/risk"
)

// Priority is the action urgency for a hotspot.
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
)

// Priority thresholds on risk score and deficiency count.
const (
	priorityCriticalScore = 8.5
	priorityHighScore     = 7.0
	criticalDeficiencies  = 5
	highDeficiencies      = 4
)

// PolicyContextProvider supplies free-text campus policy context. Optional
// and best-effort: it enriches reporting and never gates numeric results.
type PolicyContextProvider interface {
	Context(ctx context.Context, query string) (string, error)
}

// HotspotReport is the full analysis of one elevated-risk location.
type HotspotReport struct {
	LocationName  string       `json:"location_name"`
	Lat           float64      `json:"lat"`
	Lon           float64      `json:"lon"`
	Risk          *risk.Detail `json:"risk_detail"`
	Profile       *Profile     `json:"environmental_profile"`
	ROI           *ROIResult   `json:"roi"`
	Priority      Priority     `json:"priority"`
	PolicyContext string       `json:"policy_context,omitempty"`
	AnalyzedAt    time.Time    `json:"analyzed_at"`
}

// Analyzer chains the detector and ROI engine into the full hotspot
// pipeline.
type Analyzer struct {
	detector *Detector
	engine   *Engine
	policy   PolicyContextProvider // may be nil
}

// NewAnalyzer builds an analyzer. policy may be nil.
func NewAnalyzer(detector *Detector, engine *Engine, policy PolicyContextProvider) *Analyzer {
	return &Analyzer{detector: detector, engine: engine, policy: policy}
}

// AnalyzeHotspot profiles a location, plans interventions, and computes
// ROI. Only invalid coordinates fail; collaborator outages degrade.
func (a *Analyzer) AnalyzeHotspot(ctx context.Context, lat, lon float64, detail *risk.Detail, locationName string) (*HotspotReport, error) {
	profile, err := a.detector.Profile(ctx, lat, lon, detail, locationName)
	if err != nil {
		return nil, err
	}

	annualIncidents := 1
	var dominant incident.Category
	if detail != nil {
		annualIncidents = detail.IncidentCount
		dominant = detail.DominantCrime
	}
	plan := a.engine.PlanFromProfile(profile, detail)
	roi := a.engine.Calculate(locationName, annualIncidents, dominant, plan)

	report := &HotspotReport{
		LocationName: locationName,
		Lat:          lat,
		Lon:          lon,
		Risk:         detail,
		Profile:      profile,
		ROI:          roi,
		Priority:     derivePriority(detail, profile),
		AnalyzedAt:   time.Now(),
	}
	report.PolicyContext = a.policyContext(ctx, detail, locationName)
	return report, nil
}

// derivePriority buckets a hotspot from its numbers alone, so priority
// never depends on any narrative service.
func derivePriority(detail *risk.Detail, profile *Profile) Priority {
	score := 0.0
	if detail != nil {
		score = detail.RiskScore
	}
	count := profile.DeficiencyCount()

	switch {
	case score >= priorityCriticalScore,
		score >= priorityHighScore && count >= criticalDeficiencies:
		return PriorityCritical
	case score >= priorityHighScore, count >= highDeficiencies:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

func (a *Analyzer) policyContext(ctx context.Context, detail *risk.Detail, locationName string) string {
	if a.policy == nil {
		return ""
	}
	dominant := "crime"
	if detail != nil && detail.DominantCrime != "" {
		dominant = string(detail.DominantCrime)
	}
	query := fmt.Sprintf(
		"What does university policy say about campus lighting standards, emergency call box placement, and environmental design for preventing %s near %s?",
		dominant, locationName,
	)
	text, err := a.policy.Context(ctx, query)
	if err != nil {
		zap.L().Warn("cpted: policy context unavailable",
			zap.String("location", locationName),
			zap.Error(err),
		)
		return ""
	}
	return text
}
