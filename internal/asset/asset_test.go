package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestPicksClosest(t *testing.T) {
	// Standing at Memorial Union, the Memorial Union box must win.
	p := Nearest(38.9404, -92.3277, CallBoxes())
	require.NotNil(t, p)
	assert.Equal(t, "Call Box - Memorial Union", p.Name)
	assert.Equal(t, KindCallBox, p.Kind)
	assert.Equal(t, 0.0, p.DistanceFt)
}

func TestNearestDistanceUnits(t *testing.T) {
	// Roughly 0.04 miles north of the Memorial Union box.
	p := Nearest(38.941, -92.3277, CallBoxes())
	require.NotNil(t, p)
	assert.InDelta(t, p.DistanceMiles*5280, p.DistanceFt, 3)
	assert.Greater(t, p.DistanceFt, 100.0)
}

func TestNearestEmptyTable(t *testing.T) {
	assert.Nil(t, Nearest(38.94, -92.33, nil))
}

func TestInventoriesPopulated(t *testing.T) {
	assert.Len(t, CallBoxes(), 10)
	assert.Len(t, LightPoles(), 12)
	assert.Len(t, Corridors(), 4)
	for _, a := range LightPoles() {
		assert.Equal(t, KindLightPole, a.Kind)
	}
}
