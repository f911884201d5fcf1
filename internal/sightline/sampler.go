package sightline

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/campuswatch/internal/geo"
)

// Segment is one road segment near a queried point.
type Segment struct {
	Name         string  `json:"name"`
	Code         string  `json:"code"` // MTFCC
	Label        string  `json:"label"`
	Surveillance float64 `json:"surveillance_score"`
	WidthFt      float64 `json:"width_ft"`
	DistanceFt   float64 `json:"distance_ft"`
}

// Analysis is the sightline assessment for a point.
type Analysis struct {
	SurveillanceScore float64   `json:"surveillance_score"` // 0-10, average of nearby segments
	SurveillanceLabel string    `json:"surveillance_label"`
	DominantRoadType  string    `json:"dominant_road_type"`
	DominantRoadName  string    `json:"dominant_road_name"`
	RoadCount         int       `json:"road_count"`
	Segments          []Segment `json:"segments,omitempty"` // top five by surveillance
	Issues            []string  `json:"issues"`
	Source            string    `json:"source"` // "roads" or "zone_estimate"
}

// RoadNetworkSource returns road segments within radiusFt of a point.
// An error means the source itself failed; the sampler then degrades to the
// zone fallback rather than surfacing it.
type RoadNetworkSource interface {
	SegmentsNear(ctx context.Context, lat, lon, radiusFt float64) ([]Segment, error)
}

// DefaultRadiusFt is the standard sightline query radius.
const DefaultRadiusFt = 300.0

// Surveillance label thresholds on the average segment score.
const (
	labelGoodMin     = 7.0
	labelModerateMin = 5.0
	labelPoorMin     = 3.0
)

// noRoadScore is reported when nothing is near: effectively no natural
// surveillance, but still a valid analysis.
const noRoadScore = 2.0

// Sampler classifies nearby road segments into a surveillance assessment.
type Sampler struct {
	source   RoadNetworkSource // may be nil
	fallback *ZoneSource
}

// NewSampler builds a sampler. source may be nil to run on the zone table
// alone; fallback nil selects the default campus zone table.
func NewSampler(source RoadNetworkSource, fallback *ZoneSource) *Sampler {
	if fallback == nil {
		fallback = NewZoneSource(DefaultZones())
	}
	return &Sampler{source: source, fallback: fallback}
}

// Analyze assesses natural surveillance within radiusFt of the point.
// radiusFt <= 0 selects DefaultRadiusFt. Road-data failures degrade to the
// zone estimate; only invalid coordinates return an error.
func (s *Sampler) Analyze(ctx context.Context, lat, lon, radiusFt float64) (*Analysis, error) {
	if err := geo.ValidateCoordinate(lat, lon); err != nil {
		return nil, err
	}
	if radiusFt <= 0 {
		radiusFt = DefaultRadiusFt
	}

	source := "roads"
	useFallback := s.source == nil
	var segments []Segment
	if s.source != nil {
		var err error
		segments, err = s.source.SegmentsNear(ctx, lat, lon, radiusFt)
		if err != nil {
			zap.L().Warn("sightline: road source failed, using zone estimate",
				zap.Float64("lat", lat),
				zap.Float64("lon", lon),
				zap.Error(err),
			)
			segments = nil
			useFallback = true
		}
	}
	// An empty result from a healthy source is a real "no roads" answer and
	// must not be papered over by the zone table.
	if useFallback {
		segments = s.fallback.SegmentsNear(lat, lon)
		source = "zone_estimate"
	}

	return buildAnalysis(segments, radiusFt, source), nil
}

func buildAnalysis(segments []Segment, radiusFt float64, source string) *Analysis {
	if len(segments) == 0 {
		return &Analysis{
			SurveillanceScore: noRoadScore,
			SurveillanceLabel: "Very Poor",
			DominantRoadType:  "No roads detected",
			Issues:            []string{"No road infrastructure detected nearby"},
			Source:            source,
		}
	}

	var sum, maxScore float64
	dominant := segments[0]
	for _, seg := range segments {
		sum += seg.Surveillance
		if seg.Surveillance > maxScore {
			maxScore = seg.Surveillance
		}
		if seg.Surveillance > dominant.Surveillance {
			dominant = seg
		}
	}
	avg := math.Round(sum/float64(len(segments))*10) / 10

	a := &Analysis{
		SurveillanceScore: avg,
		SurveillanceLabel: labelFor(avg),
		DominantRoadType:  dominant.Label,
		DominantRoadName:  dominant.Name,
		RoadCount:         len(segments),
		Issues:            issuesFor(segments, avg, maxScore, radiusFt),
		Source:            source,
	}

	sorted := make([]Segment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Surveillance > sorted[j].Surveillance
	})
	if len(sorted) > 5 {
		sorted = sorted[:5]
	}
	a.Segments = sorted
	return a
}

func labelFor(avg float64) string {
	switch {
	case avg >= labelGoodMin:
		return "Good"
	case avg >= labelModerateMin:
		return "Moderate"
	case avg >= labelPoorMin:
		return "Poor"
	default:
		return "Very Poor"
	}
}

func issuesFor(segments []Segment, avg, maxScore, radiusFt float64) []string {
	var issues []string

	lowTypes := map[string]bool{}
	concealment := false
	for _, seg := range segments {
		if seg.Surveillance <= 3 {
			lowTypes[seg.Label] = true
		}
		if concealmentCodes[seg.Code] {
			concealment = true
		}
	}
	if len(lowTypes) > 0 {
		types := make([]string, 0, len(lowTypes))
		for t := range lowTypes {
			types = append(types, t)
		}
		sort.Strings(types)
		issues = append(issues, "Low-surveillance road types nearby: "+strings.Join(types, ", "))
	}
	if avg < 5 {
		issues = append(issues, "Limited natural surveillance from road network")
	}
	if maxScore < 6 {
		issues = append(issues, fmt.Sprintf("No high-traffic roads within %.0fft — isolated location", radiusFt))
	}
	if concealment {
		issues = append(issues, "Alleys or service drives nearby create concealment opportunities")
	}
	return issues
}
