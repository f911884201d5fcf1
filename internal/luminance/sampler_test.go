package luminance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/campuswatch/internal/geo"
	"github.com/sells-group/campuswatch/internal/risk"
)

// fixedRaster returns one value for every in-coverage sample.
type fixedRaster struct {
	value float64
	ok    bool
}

func (f fixedRaster) Sample(lat, lon float64) (float64, bool) { return f.value, f.ok }

func TestSample_SatellitePreferred(t *testing.T) {
	s := NewSampler(fixedRaster{value: 3.4, ok: true}, nil)
	r, err := s.Sample(38.9404, -92.3277)
	require.NoError(t, err)

	assert.Equal(t, SourceSatellite, r.Source)
	assert.Equal(t, 3.4, r.LuminanceNW)
	assert.Equal(t, LabelAdequate, r.Label)
	assert.False(t, r.BelowThreshold)
}

func TestSample_FallbackOnMiss(t *testing.T) {
	for _, tc := range []struct {
		name   string
		raster RasterSource
	}{
		{"no raster", nil},
		{"outside coverage", fixedRaster{ok: false}},
		{"non-positive value", fixedRaster{value: 0, ok: true}},
		{"implausible value", fixedRaster{value: 6000, ok: true}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSampler(tc.raster, nil)
			r, err := s.Sample(38.9404, -92.3277)
			require.NoError(t, err)
			assert.Equal(t, SourceEstimate, r.Source)
			assert.Greater(t, r.LuminanceNW, 0.0)
		})
	}
}

func TestSample_BelowThresholdBothSources(t *testing.T) {
	sat := NewSampler(fixedRaster{value: 1.1, ok: true}, nil)
	r, err := sat.Sample(38.9404, -92.3277)
	require.NoError(t, err)
	assert.True(t, r.BelowThreshold)
	assert.Equal(t, r.BelowThreshold, r.LuminanceNW < ThresholdDim)

	est := NewSampler(nil, NewEstimator(nil)) // empty table → perimeter default 1.5
	r, err = est.Sample(38.9404, -92.3277)
	require.NoError(t, err)
	assert.Equal(t, 1.5, r.LuminanceNW)
	assert.True(t, r.BelowThreshold)
	assert.Equal(t, r.BelowThreshold, r.LuminanceNW < ThresholdDim)
}

func TestSample_InvalidCoordinate(t *testing.T) {
	s := NewSampler(nil, nil)
	_, err := s.Sample(99, -92.33)
	require.Error(t, err)
	assert.True(t, eris.Is(err, geo.ErrInvalidInput))
}

func TestLabelsAndRisk(t *testing.T) {
	cases := []struct {
		nw    float64
		label Label
		rl    risk.Level
	}{
		{0.3, LabelVeryDark, risk.LevelHigh},
		{0.5, LabelDim, risk.LevelMedium},
		{1.9, LabelDim, risk.LevelMedium},
		{2.0, LabelAdequate, risk.LevelLow},
		{5.0, LabelWellLit, risk.LevelLow},
		{10.0, LabelBright, risk.LevelLow},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.label, LabelFor(tc.nw), "nw=%v", tc.nw)
		assert.Equal(t, tc.rl, RiskFor(tc.nw), "nw=%v", tc.nw)
	}
}

func TestEstimator_NearReferenceDominates(t *testing.T) {
	e := NewEstimator(DefaultReferencePoints())
	// On top of the 6.2 nW core reference point.
	v := e.Estimate(38.9404, -92.3277)
	assert.Greater(t, v, 4.0)

	// On top of the 0.9 nW remote lot.
	v = e.Estimate(38.9380, -92.3350)
	assert.Less(t, v, 2.0)
}

func TestEstimator_OutsideAllZones(t *testing.T) {
	e := NewEstimator(DefaultReferencePoints())
	assert.Equal(t, perimeterDefaultNW, e.Estimate(40.0, -90.0))
}

func TestASCIIGrid_SampleAndNodata(t *testing.T) {
	content := "ncols 3\nnrows 2\nxllcorner -92.335\nyllcorner 38.935\ncellsize 0.01\nNODATA_value -9999\n" +
		"1.0 2.0 3.0\n" +
		"4.0 -9999 6.0\n"
	path := filepath.Join(t.TempDir(), "lights.asc")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	g, err := OpenASCIIGrid(path)
	require.NoError(t, err)

	// Southernmost row is the last data row; cell centers offset by 0.005.
	v, ok := g.Sample(38.940, -92.330) // row 1, col 0
	require.True(t, ok)
	assert.Equal(t, 4.0, v)

	v, ok = g.Sample(38.950, -92.320) // row 0, col 1
	require.True(t, ok)
	assert.Equal(t, 2.0, v)

	_, ok = g.Sample(38.940, -92.320) // nodata cell
	assert.False(t, ok)

	_, ok = g.Sample(39.5, -92.33) // far outside
	assert.False(t, ok)
}

func TestASCIIGrid_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.asc")
	require.NoError(t, os.WriteFile(path, []byte("ncols 2\nnrows 2\ncellsize 0.01\n1 2 3\n"), 0o644))
	_, err := OpenASCIIGrid(path)
	assert.Error(t, err)
}

func TestReadWorldFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lights.tfw")
	require.NoError(t, os.WriteFile(path, []byte("0.004\n0\n0\n-0.004\n-92.36\n38.96\n"), 0o644))

	params, err := readWorldFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0.004, params[0])
	assert.Equal(t, -0.004, params[3])

	require.NoError(t, os.WriteFile(path, []byte("0.004\n0\n"), 0o644))
	_, err = readWorldFile(path)
	assert.Error(t, err)
}
