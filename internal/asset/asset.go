// Package asset holds the fixed campus safety infrastructure inventory:
// emergency call boxes, light poles, and high-traffic pedestrian corridors.
package asset

import (
	"math"

	"github.com/sells-group/campuswatch/internal/geo"
)

// Kind distinguishes the asset tables.
type Kind string

const (
	KindCallBox   Kind = "call_box"
	KindLightPole Kind = "light_pole"
	KindCorridor  Kind = "corridor"
)

// Asset is one fixed safety installation.
type Asset struct {
	Name string  `json:"name"`
	Kind Kind    `json:"kind"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Proximity is an asset with its distance from a query point.
type Proximity struct {
	Asset
	DistanceMiles float64 `json:"distance_miles"`
	DistanceFt    float64 `json:"distance_ft"`
}

// Nearest returns the closest asset by haversine distance, or nil for an
// empty table.
func Nearest(lat, lon float64, assets []Asset) *Proximity {
	var best *Proximity
	bestDist := math.MaxFloat64
	for _, a := range assets {
		d := geo.Haversine(lat, lon, a.Lat, a.Lon)
		if d < bestDist {
			bestDist = d
			best = &Proximity{
				Asset:         a,
				DistanceMiles: math.Round(d*1000) / 1000,
				DistanceFt:    math.Round(d * geo.FeetPerMile),
			}
		}
	}
	return best
}

// CallBoxes is the emergency blue-light call box inventory.
func CallBoxes() []Asset {
	return []Asset{
		{"Call Box - Memorial Union", KindCallBox, 38.9404, -92.3277},
		{"Call Box - Ellis Library", KindCallBox, 38.9445, -92.3263},
		{"Call Box - Rec Center", KindCallBox, 38.9389, -92.3301},
		{"Call Box - Parking Garage A", KindCallBox, 38.9450, -92.3240},
		{"Call Box - Student Center", KindCallBox, 38.9423, -92.3268},
		{"Call Box - Engineering", KindCallBox, 38.9438, -92.3256},
		{"Call Box - Conley Ave", KindCallBox, 38.9380, -92.3250},
		{"Call Box - Hitt St", KindCallBox, 38.9415, -92.3280},
		{"Call Box - Virginia Ave", KindCallBox, 38.9456, -92.3264},
		{"Call Box - Greek Town", KindCallBox, 38.9395, -92.3320},
	}
}

// LightPoles is the outdoor lighting inventory.
func LightPoles() []Asset {
	return []Asset{
		{"Light - Memorial Union North", KindLightPole, 38.9408, -92.3280},
		{"Light - Memorial Union South", KindLightPole, 38.9400, -92.3275},
		{"Light - Ellis Library East", KindLightPole, 38.9443, -92.3258},
		{"Light - Student Center", KindLightPole, 38.9420, -92.3265},
		{"Light - Rec Center Path", KindLightPole, 38.9392, -92.3298},
		{"Light - Engineering Quad", KindLightPole, 38.9440, -92.3252},
		{"Light - Conley Ave", KindLightPole, 38.9382, -92.3252},
		{"Light - Greek Town Main", KindLightPole, 38.9398, -92.3318},
		{"Light - Parking Garage A", KindLightPole, 38.9452, -92.3242},
		{"Light - Virginia Ave", KindLightPole, 38.9455, -92.3260},
		{"Light - Hitt St North", KindLightPole, 38.9418, -92.3282},
		{"Light - Tiger Plaza", KindLightPole, 38.9432, -92.3273},
	}
}

// Corridors are high-traffic pedestrian routes used as natural surveillance
// anchors.
func Corridors() []Asset {
	return []Asset{
		{"Memorial Union to Jesse Hall", KindCorridor, 38.9422, -92.3273},
		{"Student Center to Rec Center", KindCorridor, 38.9406, -92.3284},
		{"Engineering Quad", KindCorridor, 38.9439, -92.3255},
		{"Greek Town Main Strip", KindCorridor, 38.9397, -92.3322},
	}
}
