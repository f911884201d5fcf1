// Package route annotates walking routes with per-step risk detail and
// safety-asset proximity.
package route

import (
	"context"

	"github.com/sells-group/campuswatch/internal/asset"
	"github.com/sells-group/campuswatch/internal/risk"
)

// Step is one raw routing step as supplied by a routing service.
type Step struct {
	Lat       float64
	Lon       float64
	DistanceM float64
	DurationS float64
	Road      string
	Direction string
}

// Plan is the raw route returned by a routing service.
type Plan struct {
	Steps     []Step
	DistanceM float64
	DurationS float64
}

// RoutingService produces walking plans between two coordinates. It may be
// unavailable; the annotator then synthesizes a straight-line plan.
type RoutingService interface {
	Route(ctx context.Context, startLat, startLon, endLat, endLon float64) (*Plan, error)
}

// RouteStep is one annotated step of a route.
type RouteStep struct {
	Step       int              `json:"step"`
	Direction  string           `json:"direction"`
	Road       string           `json:"road"`
	Lat        float64          `json:"lat"`
	Lon        float64          `json:"lon"`
	DistanceM  int              `json:"distance_m"`
	DurationS  int              `json:"duration_s"`
	Risk       *risk.Detail     `json:"risk_detail"`
	CallBox    *asset.Proximity `json:"call_box"`
	SafetyNote string           `json:"safety_note,omitempty"`
}

// Recommendation is one advisory item for a traveler.
type Recommendation struct {
	Type        string `json:"type"`
	Priority    int    `json:"priority"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// AnnotatedRoute is a fully scored route. Steps are ordered by traversal
// and not modified after construction.
type AnnotatedRoute struct {
	Source             string           `json:"source"` // "osrm" or "fallback"
	TotalDistanceM     int              `json:"total_distance_m"`
	TotalDistanceMiles float64          `json:"total_distance_miles"`
	TotalDurationS     int              `json:"total_duration_s"`
	WalkMinutes        int              `json:"walk_minutes"`
	Steps              []RouteStep      `json:"steps"`
	StepCount          int              `json:"step_count"`
	OverallRisk        risk.Level       `json:"overall_risk"`
	MaxStepScore       float64          `json:"max_step_risk_score"`
	AvgStepScore       float64          `json:"avg_step_risk_score"`
	HotspotStep        *RouteStep       `json:"hotspot_step"`
	Recommendations    []Recommendation `json:"recommendations"`
}
