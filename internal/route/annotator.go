package route

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/campuswatch/internal/asset"
	"github.com/sells-group/campuswatch/internal/geo"
	"github.com/sells-group/campuswatch/internal/incident"
	"github.com/sells-group/campuswatch/internal/risk"
)

// Route-level buckets are stricter than point-level ones: one step at 8 or
// above makes the whole walk High regardless of how calm the rest is.
const (
	routeHighMin   = 8.0
	routeMediumMin = 4.0
)

// callBoxMentionFt is how close a call box must be before a step's safety
// note points it out.
const callBoxMentionFt = 300.0

const walkingMPH = 3.0

// Annotator scores each step of a walking route.
type Annotator struct {
	scorer    *risk.Scorer
	router    RoutingService // may be nil
	callBoxes []asset.Asset
}

// NewAnnotator builds an annotator. router may be nil; every route then
// uses the straight-line fallback.
func NewAnnotator(scorer *risk.Scorer, router RoutingService) *Annotator {
	return &Annotator{
		scorer:    scorer,
		router:    router,
		callBoxes: asset.CallBoxes(),
	}
}

// AnnotateRoute plans a walk between the endpoints and scores every step.
// Routing failures degrade to a two-step straight-line route; only invalid
// endpoints or an invalid hour return an error.
func (a *Annotator) AnnotateRoute(ctx context.Context, startLat, startLon, endLat, endLon float64, hour int) (*AnnotatedRoute, error) {
	if err := geo.ValidateCoordinate(startLat, startLon); err != nil {
		return nil, err
	}
	if err := geo.ValidateCoordinate(endLat, endLon); err != nil {
		return nil, err
	}
	if err := geo.ValidateHour(hour); err != nil {
		return nil, err
	}

	source := "osrm"
	var plan *Plan
	if a.router != nil {
		var err error
		plan, err = a.router.Route(ctx, startLat, startLon, endLat, endLon)
		if err != nil {
			zap.L().Warn("route: routing service unavailable, using straight-line fallback",
				zap.Error(err),
			)
			plan = nil
		}
	}
	if plan == nil || len(plan.Steps) == 0 {
		plan = fallbackPlan(startLat, startLon, endLat, endLon)
		source = "fallback"
	}

	return a.AnnotateSteps(plan, hour, source)
}

// AnnotateSteps scores an externally supplied plan. Steps with coordinates
// the scorer rejects keep a nil risk detail rather than failing the route.
func (a *Annotator) AnnotateSteps(plan *Plan, hour int, source string) (*AnnotatedRoute, error) {
	if err := geo.ValidateHour(hour); err != nil {
		return nil, err
	}
	if source == "" {
		source = "external"
	}

	steps := make([]RouteStep, 0, len(plan.Steps))
	for i, raw := range plan.Steps {
		detail, err := a.scorer.Score(raw.Lat, raw.Lon, hour)
		if err != nil {
			zap.L().Warn("route: step scoring failed",
				zap.Int("step", i+1),
				zap.Error(err),
			)
			detail = nil
		}
		box := asset.Nearest(raw.Lat, raw.Lon, a.callBoxes)
		steps = append(steps, RouteStep{
			Step:       i + 1,
			Direction:  raw.Direction,
			Road:       raw.Road,
			Lat:        raw.Lat,
			Lon:        raw.Lon,
			DistanceM:  int(math.Round(raw.DistanceM)),
			DurationS:  int(math.Round(raw.DurationS)),
			Risk:       detail,
			CallBox:    box,
			SafetyNote: safetyNote(detail, box),
		})
	}

	var maxScore, sum float64
	hotspot := -1
	for i, s := range steps {
		score := stepScore(s)
		sum += score
		if hotspot == -1 || score > maxScore {
			maxScore = score
			hotspot = i
		}
	}
	avg := 0.0
	if len(steps) > 0 {
		avg = math.Round(sum/float64(len(steps))*100) / 100
	}

	r := &AnnotatedRoute{
		Source:             source,
		TotalDistanceM:     int(math.Round(plan.DistanceM)),
		TotalDistanceMiles: math.Round(plan.DistanceM/geo.MetersPerMile*100) / 100,
		TotalDurationS:     int(math.Round(plan.DurationS)),
		WalkMinutes:        int(math.Round(plan.DurationS / 60)),
		Steps:              steps,
		StepCount:          len(steps),
		OverallRisk:        overallRisk(maxScore),
		MaxStepScore:       math.Round(maxScore*100) / 100,
		AvgStepScore:       avg,
	}
	if hotspot >= 0 {
		r.HotspotStep = &r.Steps[hotspot]
	}
	r.Recommendations = recommendations(r, hour)
	return r, nil
}

func stepScore(s RouteStep) float64 {
	if s.Risk == nil {
		return 0
	}
	return s.Risk.RiskScore
}

func overallRisk(maxScore float64) risk.Level {
	switch {
	case maxScore >= routeHighMin:
		return risk.LevelHigh
	case maxScore >= routeMediumMin:
		return risk.LevelMedium
	default:
		return risk.LevelLow
	}
}

// fallbackPlan is the two-step straight-line route used when no routing
// service answered.
func fallbackPlan(startLat, startLon, endLat, endLon float64) *Plan {
	distMiles := geo.Haversine(startLat, startLon, endLat, endLon)
	walkMin := math.Max(1, math.Round(distMiles/walkingMPH*60))

	return &Plan{
		Steps: []Step{
			{
				Lat:       startLat,
				Lon:       startLon,
				DistanceM: distMiles * geo.MetersPerMile,
				DurationS: walkMin * 60,
				Road:      "Campus path",
				Direction: "Head toward your destination",
			},
			{
				Lat:       endLat,
				Lon:       endLon,
				Direction: "Arrive at destination",
			},
		},
		DistanceM: distMiles * geo.MetersPerMile,
		DurationS: walkMin * 60,
	}
}

// safetyNote synthesizes the contextual advisory for one step.
func safetyNote(detail *risk.Detail, box *asset.Proximity) string {
	if detail == nil {
		return ""
	}
	var notes []string

	switch detail.RiskLevel {
	case risk.LevelHigh:
		notes = append(notes, "High-risk segment: "+detail.PatternSummary)
	case risk.LevelMedium:
		if detail.PatternSummary != "" {
			notes = append(notes, "Moderate risk: "+detail.PatternSummary)
		}
	}

	switch detail.DominantCrime {
	case incident.CategoryTheft:
		if detail.IncidentCount > 2 {
			notes = append(notes, "Theft is the dominant crime type here; keep valuables secured.")
		}
	case incident.CategoryAssault:
		notes = append(notes, "Physical incidents reported in this area; stay aware.")
	}

	if detail.NightRatio >= 0.7 && detail.RiskLevel != risk.LevelLow {
		notes = append(notes, "This area is notably more dangerous at night.")
	}

	if box != nil && box.DistanceFt <= callBoxMentionFt {
		notes = append(notes, fmt.Sprintf("Emergency call box %.0fft away (%s).", box.DistanceFt, box.Name))
	}

	return strings.Join(notes, " ")
}

// recommendations builds the priority-ordered advisory list for a route.
func recommendations(r *AnnotatedRoute, hour int) []Recommendation {
	var recs []Recommendation

	if r.OverallRisk == risk.LevelHigh {
		recs = append(recs,
			Recommendation{
				Type:        "transport",
				Priority:    1,
				Title:       "Use Safe Ride",
				Description: "Free campus shuttle. Call 573-882-1010.",
			},
			Recommendation{
				Type:        "escort",
				Priority:    1,
				Title:       "Request a walking escort",
				Description: "Friend Walk escort service. Call 573-884-9255 (7PM-3AM).",
			},
		)
	}

	night := hour >= 20 || hour <= 6
	if night && (r.OverallRisk == risk.LevelHigh || r.OverallRisk == risk.LevelMedium) {
		recs = append(recs, Recommendation{
			Type:        "timing",
			Priority:    2,
			Title:       "Consider an alternate time",
			Description: "Travel during daylight if possible.",
		})
	}

	if r.HotspotStep != nil && r.HotspotStep.Risk != nil && r.HotspotStep.Risk.RiskScore >= routeMediumMin {
		recs = append(recs, Recommendation{
			Type:        "avoid",
			Priority:    1,
			Title:       fmt.Sprintf("High-risk segment at step %d", r.HotspotStep.Step),
			Description: r.HotspotStep.Risk.PatternSummary,
		})
	}

	recs = append(recs, Recommendation{
		Type:        "emergency_contact",
		Priority:    1,
		Title:       "MUPD",
		Description: "573-882-7201: Campus police, 24/7 dispatch.",
	})
	return recs
}
