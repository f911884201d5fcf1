package sightline

import "github.com/sells-group/campuswatch/internal/geo"

// Zone is a circular campus area with a representative road segment used
// when no real road geometry is available.
type Zone struct {
	Lat, Lon    float64
	RadiusMiles float64
	Segment     Segment
}

// ZoneSource estimates road context from known campus geography.
type ZoneSource struct {
	zones  []Zone
	defSeg Segment
}

// NewZoneSource builds a zone estimator. Points outside every zone get a
// generic pedestrian path segment.
func NewZoneSource(zones []Zone) *ZoneSource {
	return &ZoneSource{
		zones: zones,
		defSeg: Segment{
			Name:         "Campus Path",
			Code:         CodeWalkway,
			Label:        "Pedestrian Walkway",
			Surveillance: 4,
			WidthFt:      10,
		},
	}
}

// SegmentsNear returns the representative segment for the first zone
// containing the point, or the perimeter default.
func (z *ZoneSource) SegmentsNear(lat, lon float64) []Segment {
	for _, zone := range z.zones {
		if geo.Haversine(lat, lon, zone.Lat, zone.Lon) < zone.RadiusMiles {
			return []Segment{zone.Segment}
		}
	}
	return []Segment{z.defSeg}
}

// DefaultZones covers known campus geography: the well-connected core and
// the large surface parking areas.
func DefaultZones() []Zone {
	core := Segment{
		Name:         "Campus Road",
		Code:         CodeLocalRoad,
		Label:        "Local Road",
		Surveillance: 7,
		WidthFt:      30,
	}
	parking := Segment{
		Name:         "Parking Access",
		Code:         CodeParkingLotRoad,
		Label:        "Parking Lot Road",
		Surveillance: 3,
		WidthFt:      20,
	}

	zones := []Zone{
		{Lat: 38.9404, Lon: -92.3277, RadiusMiles: 0.1, Segment: core},
		{Lat: 38.9441, Lon: -92.3269, RadiusMiles: 0.1, Segment: core},
		{Lat: 38.9423, Lon: -92.3268, RadiusMiles: 0.1, Segment: core},
		{Lat: 38.9415, Lon: -92.3280, RadiusMiles: 0.1, Segment: core},
		{Lat: 38.9450, Lon: -92.3240, RadiusMiles: 0.08, Segment: parking},
		{Lat: 38.9380, Lon: -92.3350, RadiusMiles: 0.08, Segment: parking},
	}
	return zones
}
