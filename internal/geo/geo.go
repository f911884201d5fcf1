// Package geo provides great-circle distance and bounding-box helpers used
// by every spatial component in the pipeline.
package geo

import (
	"math"

	"github.com/rotisserie/eris"
)

// EarthRadiusMiles is the mean radius of the Earth in statute miles.
const EarthRadiusMiles = 3959.0

// FeetPerMile converts statute miles to feet.
const FeetPerMile = 5280.0

// MetersPerMile converts statute miles to meters.
const MetersPerMile = 1609.34

// ErrInvalidInput marks caller errors (bad coordinates, non-positive radius).
// Boundaries use eris.Is against this sentinel to distinguish caller mistakes
// from data-availability degradation, which is never surfaced.
var ErrInvalidInput = eris.New("geo: invalid input")

// Haversine returns the great-circle distance in miles between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusMiles * 2 * math.Asin(math.Sqrt(math.Max(0, a)))
}

// FeetBetween returns the distance between two points in feet.
func FeetBetween(lat1, lon1, lat2, lon2 float64) float64 {
	return Haversine(lat1, lon1, lat2, lon2) * FeetPerMile
}

// BBox is a latitude/longitude bounding box.
type BBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether the point lies inside the box, inclusive.
func (b BBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// BoxAround returns the bounding box enclosing a circle of radiusMiles around
// a point. One degree of latitude is ~69 miles; longitude degrees shrink with
// the cosine of the latitude.
func BoxAround(lat, lon, radiusMiles float64) BBox {
	dLat := radiusMiles / 69.0
	cos := math.Cos(radians(lat))
	if cos < 1e-6 {
		cos = 1e-6
	}
	dLon := radiusMiles / (69.0 * cos)
	return BBox{
		MinLat: lat - dLat,
		MinLon: lon - dLon,
		MaxLat: lat + dLat,
		MaxLon: lon + dLon,
	}
}

// ValidateCoordinate rejects coordinates outside the WGS84 domain.
func ValidateCoordinate(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return eris.Wrap(ErrInvalidInput, "coordinate is NaN")
	}
	if lat < -90 || lat > 90 {
		return eris.Wrapf(ErrInvalidInput, "latitude %.4f out of range", lat)
	}
	if lon < -180 || lon > 180 {
		return eris.Wrapf(ErrInvalidInput, "longitude %.4f out of range", lon)
	}
	return nil
}

// ValidateRadius rejects non-positive search radii.
func ValidateRadius(radiusMiles float64) error {
	if math.IsNaN(radiusMiles) || radiusMiles <= 0 {
		return eris.Wrapf(ErrInvalidInput, "radius %.4f must be positive", radiusMiles)
	}
	return nil
}

// ValidateHour rejects negative scan hours. Hours >= 24 wrap modulo 24 at the
// scoring layer, matching how clock arithmetic is done throughout.
func ValidateHour(hour int) error {
	if hour < 0 {
		return eris.Wrapf(ErrInvalidInput, "hour %d must be non-negative", hour)
	}
	return nil
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
