// Package luminance samples satellite-measured nighttime brightness
// (nW/cm²/sr) at campus coordinates, with a deterministic estimate fallback
// so lighting analysis keeps working when no raster is on disk.
package luminance

import (
	"go.uber.org/zap"

	"github.com/sells-group/campuswatch/internal/geo"
	"github.com/sells-group/campuswatch/internal/risk"
)

// Luminance thresholds in nW/cm²/sr.
const (
	ThresholdCritical = 0.5  // below: critical lighting gap
	ThresholdDim      = 2.0  // below: under the safe pedestrian standard
	ThresholdAdequate = 5.0  // below: meets minimum only
	ThresholdWellLit  = 10.0 // below: above standard; at or over: bright
)

// Label describes a luminance band.
type Label string

const (
	LabelVeryDark Label = "Very Dark"
	LabelDim      Label = "Dim"
	LabelAdequate Label = "Adequate"
	LabelWellLit  Label = "Well-Lit"
	LabelBright   Label = "Bright"
)

// Source distinguishes measured from estimated readings.
type Source string

const (
	SourceSatellite Source = "satellite"
	SourceEstimate  Source = "estimate"
)

// Reading is a sampled or estimated nighttime luminance value with its
// lighting classification.
type Reading struct {
	LuminanceNW    float64    `json:"luminance_nw"`
	Label          Label      `json:"label"`
	LightingRisk   risk.Level `json:"lighting_risk"`
	BelowThreshold bool       `json:"below_threshold"`
	Source         Source     `json:"source"`
}

// RasterSource samples a calibrated single-band raster at a coordinate.
// A false return is an expected state (outside coverage, nodata, no file),
// not an error; the sampler falls back to the estimator.
type RasterSource interface {
	Sample(lat, lon float64) (float64, bool)
}

// maxPlausibleNW rejects raster values far above anything a campus emits;
// such pixels are sensor artifacts or nodata encodings.
const maxPlausibleNW = 5000.0

// Sampler resolves luminance readings, preferring the raster and degrading
// to the reference-point estimator.
type Sampler struct {
	raster    RasterSource // may be nil
	estimator *Estimator
}

// NewSampler builds a sampler. raster may be nil to run estimate-only.
func NewSampler(raster RasterSource, estimator *Estimator) *Sampler {
	if estimator == nil {
		estimator = NewEstimator(DefaultReferencePoints())
	}
	return &Sampler{raster: raster, estimator: estimator}
}

// Sample returns the luminance reading at a coordinate. Only coordinate
// validation can fail; data gaps resolve via the estimator.
func (s *Sampler) Sample(lat, lon float64) (*Reading, error) {
	if err := geo.ValidateCoordinate(lat, lon); err != nil {
		return nil, err
	}

	if s.raster != nil {
		if v, ok := s.raster.Sample(lat, lon); ok && v > 0 && v <= maxPlausibleNW {
			return newReading(v, SourceSatellite), nil
		}
	}

	v := s.estimator.Estimate(lat, lon)
	zap.L().Debug("luminance: estimated reading",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.Float64("nw", v),
	)
	return newReading(v, SourceEstimate), nil
}

func newReading(nw float64, source Source) *Reading {
	return &Reading{
		LuminanceNW:    round3(nw),
		Label:          LabelFor(nw),
		LightingRisk:   RiskFor(nw),
		BelowThreshold: nw < ThresholdDim,
		Source:         source,
	}
}

// LabelFor maps a luminance value onto its band label.
func LabelFor(nw float64) Label {
	switch {
	case nw < ThresholdCritical:
		return LabelVeryDark
	case nw < ThresholdDim:
		return LabelDim
	case nw < ThresholdAdequate:
		return LabelAdequate
	case nw < ThresholdWellLit:
		return LabelWellLit
	default:
		return LabelBright
	}
}

// RiskFor maps a luminance value onto a lighting risk level.
func RiskFor(nw float64) risk.Level {
	switch {
	case nw < ThresholdCritical:
		return risk.LevelHigh
	case nw < ThresholdDim:
		return risk.LevelMedium
	default:
		return risk.LevelLow
	}
}
