package cpted

import (
	"context"
	"fmt"
	"math"

	"github.com/sells-group/campuswatch/internal/asset"
	"github.com/sells-group/campuswatch/internal/geo"
	"github.com/sells-group/campuswatch/internal/incident"
	"github.com/sells-group/campuswatch/internal/luminance"
	"github.com/sells-group/campuswatch/internal/risk"
	"github.com/sells-group/campuswatch/internal/sightline"
)

// Spacing standards in feet. A gap beyond these distances is a deficiency.
const (
	lightSpacingFt    = 200.0
	callBoxSpacingFt  = 500.0
	corridorReachFt   = 400.0
	isolatedSightline = 5.0
)

// Temporal concentration thresholds on incident ratios.
const (
	nightDominantMin = 0.5
	weekendSpikeMin  = 0.5
)

// DeficiencyCategory tags a deficiency with the concern it belongs to.
type DeficiencyCategory string

const (
	DeficiencyLighting  DeficiencyCategory = "lighting"
	DeficiencyCallBox   DeficiencyCategory = "call_box"
	DeficiencySightline DeficiencyCategory = "sightline"
	DeficiencyIsolation DeficiencyCategory = "isolation"
	DeficiencyTemporal  DeficiencyCategory = "temporal"
	DeficiencyWeekend   DeficiencyCategory = "weekend"
	DeficiencyCrimeType DeficiencyCategory = "crime_type"
)

// Deficiency is one detected environmental problem.
type Deficiency struct {
	Category    DeficiencyCategory `json:"category"`
	Description string             `json:"description"`
}

// Profile is the full environmental assessment of a location.
type Profile struct {
	LocationName string               `json:"location_name"`
	Lat          float64              `json:"lat"`
	Lon          float64              `json:"lon"`
	Luminance    *luminance.Reading   `json:"luminance"`
	Sightline    *sightline.Analysis  `json:"sightline"`
	NearestLight *asset.Proximity     `json:"nearest_light"`
	NearestBox   *asset.Proximity     `json:"nearest_call_box"`
	NearestPath  *asset.Proximity     `json:"nearest_corridor"`

	LuminanceGap  bool `json:"luminance_gap"` // satellite/estimate below threshold
	LightingGap   bool `json:"lighting_gap"`  // luminance gap or pole spacing gap
	CallBoxGap    bool `json:"call_box_gap"`
	Isolated      bool `json:"isolated"`
	NightDominant bool `json:"night_dominant"`
	WeekendSpike  bool `json:"weekend_spike"`

	Deficiencies []Deficiency `json:"deficiencies"`
}

// DeficiencyCount is len(Deficiencies), kept as a method so callers do not
// duplicate it into a field that can drift.
func (p *Profile) DeficiencyCount() int { return len(p.Deficiencies) }

// Detector assembles environmental profiles from the lighting and sightline
// samplers plus the fixed asset inventory.
type Detector struct {
	luminance *luminance.Sampler
	sightline *sightline.Sampler

	lightPoles []asset.Asset
	callBoxes  []asset.Asset
	corridors  []asset.Asset
}

// NewDetector builds a detector over the given samplers.
func NewDetector(lum *luminance.Sampler, sight *sightline.Sampler) *Detector {
	return &Detector{
		luminance:  lum,
		sightline:  sight,
		lightPoles: asset.LightPoles(),
		callBoxes:  asset.CallBoxes(),
		corridors:  asset.Corridors(),
	}
}

// Profile runs the full environmental assessment for a location. Only
// invalid coordinates fail; every data gap resolves through the samplers'
// fallbacks.
func (d *Detector) Profile(ctx context.Context, lat, lon float64, detail *risk.Detail, locationName string) (*Profile, error) {
	if err := geo.ValidateCoordinate(lat, lon); err != nil {
		return nil, err
	}

	reading, err := d.luminance.Sample(lat, lon)
	if err != nil {
		return nil, err
	}
	sight, err := d.sightline.Analyze(ctx, lat, lon, 0)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		LocationName: locationName,
		Lat:          lat,
		Lon:          lon,
		Luminance:    reading,
		Sightline:    sight,
		NearestLight: asset.Nearest(lat, lon, d.lightPoles),
		NearestBox:   asset.Nearest(lat, lon, d.callBoxes),
		NearestPath:  asset.Nearest(lat, lon, d.corridors),
	}

	poleGap := p.NearestLight.DistanceFt > lightSpacingFt
	p.LuminanceGap = reading.BelowThreshold
	p.LightingGap = p.LuminanceGap || poleGap
	p.CallBoxGap = p.NearestBox.DistanceFt > callBoxSpacingFt
	p.Isolated = p.NearestPath.DistanceFt > corridorReachFt ||
		sight.SurveillanceScore < isolatedSightline
	if detail != nil {
		p.NightDominant = detail.NightRatio >= nightDominantMin
		p.WeekendSpike = detail.WeekendRatio >= weekendSpikeMin
	}

	p.Deficiencies = d.describe(p, detail, poleGap)
	return p, nil
}

// describe turns the boolean gaps into the human-readable deficiency list.
func (d *Detector) describe(p *Profile, detail *risk.Detail, poleGap bool) []Deficiency {
	var defs []Deficiency

	if p.LuminanceGap {
		srcNote := "campus-estimated"
		if p.Luminance.Source == luminance.SourceSatellite {
			srcNote = "satellite-measured"
		}
		defs = append(defs, Deficiency{DeficiencyLighting, fmt.Sprintf(
			"Insufficient illumination: %.2f nW/cm2/sr (%s) below %.1f nW/cm2/sr safe pedestrian threshold [%s]",
			p.Luminance.LuminanceNW, srcNote, luminance.ThresholdDim, p.Luminance.Label,
		)})
	} else if poleGap {
		defs = append(defs, Deficiency{DeficiencyLighting, fmt.Sprintf(
			"Nearest light pole %.0fft away (%s), exceeds %.0fft spacing standard",
			p.NearestLight.DistanceFt, p.NearestLight.Name, lightSpacingFt,
		)})
	}

	if p.CallBoxGap {
		defs = append(defs, Deficiency{DeficiencyCallBox, fmt.Sprintf(
			"Call box coverage gap: nearest box %.0fft (%s), exceeds %.0fft safe threshold",
			p.NearestBox.DistanceFt, p.NearestBox.Name, callBoxSpacingFt,
		)})
	}

	for _, issue := range p.Sightline.Issues {
		defs = append(defs, Deficiency{DeficiencySightline, "Road network: " + issue})
	}

	if p.Isolated && p.NearestPath.DistanceFt > corridorReachFt {
		defs = append(defs, Deficiency{DeficiencyIsolation, fmt.Sprintf(
			"Low natural surveillance: %.0fft from nearest high-traffic corridor (%s)",
			p.NearestPath.DistanceFt, p.NearestPath.Name,
		)})
	}

	if detail != nil {
		if p.NightDominant {
			defs = append(defs, Deficiency{DeficiencyTemporal, fmt.Sprintf(
				"%d%% of incidents at night, lighting is the primary risk amplifier",
				int(math.Round(detail.NightRatio*100)),
			)})
		}
		if p.WeekendSpike {
			defs = append(defs, Deficiency{DeficiencyWeekend, fmt.Sprintf(
				"Weekend/Friday concentration (%d%%), targeted patrol or activity programming needed",
				int(math.Round(detail.WeekendRatio*100)),
			)})
		}

		switch detail.DominantCrime {
		case incident.CategoryTheft:
			defs = append(defs, Deficiency{DeficiencyCrimeType,
				"Theft-dominant: concealment opportunities likely (vegetation, blind corners)"})
		case incident.CategoryAssault:
			defs = append(defs, Deficiency{DeficiencyCrimeType,
				"Assault-dominant: isolation and poor sightlines are primary contributors"})
		case incident.CategoryVehicle:
			defs = append(defs, Deficiency{DeficiencyCrimeType,
				"Vehicle crime dominant: parking area lacks adequate lighting and surveillance"})
		}
	}

	return defs
}
