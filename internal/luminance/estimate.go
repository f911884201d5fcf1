package luminance

import (
	"math"

	"github.com/sells-group/campuswatch/internal/geo"
)

// ReferencePoint anchors the estimator: a known coordinate with a surveyed
// luminance value valid within RadiusMiles.
type ReferencePoint struct {
	Lat         float64 `yaml:"lat" json:"lat"`
	Lon         float64 `yaml:"lon" json:"lon"`
	RadiusMiles float64 `yaml:"radius_miles" json:"radius_miles"`
	LuminanceNW float64 `yaml:"luminance_nw" json:"luminance_nw"`
}

// perimeterDefaultNW is returned when a point is outside every reference
// zone: assume a dim campus perimeter rather than darkness or daylight.
const perimeterDefaultNW = 1.5

// Estimator produces deterministic luminance estimates by inverse-distance
// weighting over a fixed reference table.
type Estimator struct {
	points []ReferencePoint
}

// NewEstimator builds an estimator over the reference table.
func NewEstimator(points []ReferencePoint) *Estimator {
	return &Estimator{points: points}
}

// Estimate returns the IDW-blended luminance of reference points whose
// doubled radius covers the coordinate.
func (e *Estimator) Estimate(lat, lon float64) float64 {
	var weightSum, valueSum float64
	for _, p := range e.points {
		dist := geo.Haversine(lat, lon, p.Lat, p.Lon)
		if dist > p.RadiusMiles*2 {
			continue
		}
		w := math.Max(0.01, 1.0/(dist+0.001))
		weightSum += w
		valueSum += w * p.LuminanceNW
	}
	if weightSum == 0 {
		return perimeterDefaultNW
	}
	return round2(valueSum / weightSum)
}

// DefaultReferencePoints is the surveyed campus table: core buildings are
// well lit, athletics moderate, remote parking and perimeter paths dim.
func DefaultReferencePoints() []ReferencePoint {
	return []ReferencePoint{
		// Core campus
		{38.9404, -92.3277, 0.05, 6.2},
		{38.9445, -92.3263, 0.05, 5.8},
		{38.9423, -92.3268, 0.05, 5.5},
		{38.9441, -92.3269, 0.05, 4.8},
		{38.9438, -92.3256, 0.05, 4.5},
		// Recreation and athletics
		{38.9389, -92.3301, 0.05, 3.2},
		{38.9356, -92.3332, 0.06, 4.1},
		{38.9355, -92.3306, 0.06, 2.8},
		// Residential and social
		{38.9395, -92.3320, 0.06, 2.1},
		{38.9430, -92.3275, 0.04, 3.8},
		{38.9415, -92.3280, 0.04, 3.1},
		// Parking
		{38.9450, -92.3240, 0.06, 1.4},
		{38.9380, -92.3350, 0.06, 0.9},
		// Perimeter
		{38.9380, -92.3250, 0.05, 1.8},
		{38.9360, -92.3270, 0.05, 1.2},
		{38.9465, -92.3270, 0.05, 2.3},
		{38.9420, -92.3220, 0.06, 1.6},
		{38.9410, -92.3340, 0.06, 0.8},
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
