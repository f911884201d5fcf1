package incident

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/campuswatch/internal/geo"
)

func located(lat, lon float64, cat Category) Record {
	return Record{
		Lat: lat, Lon: lon, HasLocation: true,
		Hour: 22, DayOfWeek: "Friday",
		Category: cat, Severity: SeverityOrDefault(cat, 0), Source: "test",
	}
}

func TestIncidentsNear_RadiusFilter(t *testing.T) {
	store := NewStore([]Record{
		located(38.9404, -92.3277, CategoryTheft),  // at the query point
		located(38.9406, -92.3279, CategoryTheft),   // ~100ft away
		located(38.9500, -92.3277, CategoryAssault), // ~0.66mi north, outside
	})

	near, err := store.IncidentsNear(38.9404, -92.3277, 0.15)
	require.NoError(t, err)
	assert.Len(t, near, 2)
	for _, r := range near {
		assert.Equal(t, CategoryTheft, r.Category)
	}
}

func TestIncidentsNear_SkipsUnlocatedRecords(t *testing.T) {
	store := NewStore([]Record{
		{Category: CategoryTheft, Severity: 2, Hour: -1}, // no coordinates
		located(38.9404, -92.3277, CategoryTheft),
	})

	near, err := store.IncidentsNear(38.9404, -92.3277, 0.15)
	require.NoError(t, err)
	assert.Len(t, near, 1)
}

func TestIncidentsNear_InvalidInput(t *testing.T) {
	store := NewStore(nil)

	_, err := store.IncidentsNear(38.94, -92.33, 0)
	require.Error(t, err)
	assert.True(t, eris.Is(err, geo.ErrInvalidInput))

	_, err = store.IncidentsNear(99, -92.33, 0.15)
	require.Error(t, err)
	assert.True(t, eris.Is(err, geo.ErrInvalidInput))
}

func TestIncidentsNear_EmptyStore(t *testing.T) {
	store := NewStore(nil)
	near, err := store.IncidentsNear(38.94, -92.33, 0.15)
	require.NoError(t, err)
	assert.Empty(t, near)
}

func TestInRegion(t *testing.T) {
	box := geo.BBox{MinLat: 38.92, MaxLat: 38.96, MinLon: -92.36, MaxLon: -92.30}
	store := NewStore([]Record{
		located(38.9404, -92.3277, CategoryTheft),
		located(39.5, -92.3277, CategoryTheft), // outside
		{Category: CategoryOther, Severity: 1, Hour: -1},
	})
	assert.Len(t, store.InRegion(box), 1)
}

func TestParseCategory(t *testing.T) {
	cases := map[string]Category{
		"Larceny from motor vehicle": CategoryTheft, // theft matches before vehicle
		"Assault 3rd Degree":         CategoryAssault,
		"Burglary - Breaking":        CategoryBurglary,
		"Stalking":                   CategoryHarassment,
		"Property Damage":            CategoryVandalism,
		"Controlled Substance":       CategoryDrug,
		"Auto Tampering":             CategoryVehicle,
		"Suspicious Person":          CategorySuspicious,
		"Trespassing":                CategoryOther,
		"":                           CategoryOther,
		"vehicle":                    CategoryVehicle,
	}
	for offense, want := range cases {
		assert.Equal(t, want, ParseCategory(offense), "offense %q", offense)
	}
}

func TestSeverityOrDefault(t *testing.T) {
	assert.Equal(t, 5, SeverityOrDefault(CategoryAssault, 0))
	assert.Equal(t, 3, SeverityOrDefault(CategoryAssault, 3))
	assert.Equal(t, 5, SeverityOrDefault(CategoryTheft, 9)) // clamped
	assert.Equal(t, 1, SeverityOrDefault(Category("bogus"), 0))
}

func TestRecordTemporalFlags(t *testing.T) {
	assert.True(t, Record{Hour: 23}.IsNight())
	assert.True(t, Record{Hour: 2}.IsNight())
	assert.False(t, Record{Hour: 12}.IsNight())
	assert.False(t, Record{Hour: -1}.IsNight())

	assert.True(t, Record{DayOfWeek: "Friday"}.IsWeekend())
	assert.True(t, Record{DayOfWeek: "Sunday"}.IsWeekend())
	assert.False(t, Record{DayOfWeek: "Tuesday"}.IsWeekend())
	assert.False(t, Record{}.IsWeekend())
}
