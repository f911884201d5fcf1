package route

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/campuswatch/internal/incident"
	"github.com/sells-group/campuswatch/internal/risk"
)

type fakeRouter struct {
	plan *Plan
	err  error
}

func (f *fakeRouter) Route(_ context.Context, _, _, _, _ float64) (*Plan, error) {
	return f.plan, f.err
}

func quietScorer() *risk.Scorer {
	return risk.NewScorer(incident.NewStore(nil), risk.DefaultConfig())
}

func hotScorer(lat, lon float64) *risk.Scorer {
	records := make([]incident.Record, 0, 30)
	for i := 0; i < 30; i++ {
		records = append(records, incident.Record{
			Lat: lat, Lon: lon, HasLocation: true,
			Hour: 23, DayOfWeek: "Friday",
			Category: incident.CategoryAssault, Severity: 5,
		})
	}
	return risk.NewScorer(incident.NewStore(records), risk.DefaultConfig())
}

func TestAnnotateRouteScoresEachStep(t *testing.T) {
	router := &fakeRouter{plan: &Plan{
		Steps: []Step{
			{Lat: 38.9404, Lon: -92.3277, DistanceM: 200, DurationS: 150, Road: "Hitt St", Direction: "Start on Hitt St"},
			{Lat: 38.9445, Lon: -92.3263, Road: "Lowry Mall", Direction: "Arrive at destination"},
		},
		DistanceM: 200,
		DurationS: 150,
	}}
	a := NewAnnotator(quietScorer(), router)

	r, err := a.AnnotateRoute(context.Background(), 38.9404, -92.3277, 38.9445, -92.3263, 14)
	require.NoError(t, err)

	assert.Equal(t, "osrm", r.Source)
	assert.Equal(t, 2, r.StepCount)
	require.NotNil(t, r.Steps[0].Risk)
	assert.Equal(t, risk.LevelLow, r.OverallRisk)
	assert.Equal(t, 1, r.Steps[0].Step)
	assert.Equal(t, 2, r.Steps[1].Step)
	require.NotNil(t, r.Steps[0].CallBox)
	assert.Equal(t, "Call Box - Memorial Union", r.Steps[0].CallBox.Name)
}

func TestAnnotateRouteFallsBackOnRouterError(t *testing.T) {
	a := NewAnnotator(quietScorer(), &fakeRouter{err: eris.New("osrm down")})

	r, err := a.AnnotateRoute(context.Background(), 38.9404, -92.3277, 38.9445, -92.3263, 22)
	require.NoError(t, err)

	assert.Equal(t, "fallback", r.Source)
	require.Equal(t, 2, r.StepCount)
	assert.Equal(t, "Head toward your destination", r.Steps[0].Direction)
	assert.Equal(t, "Arrive at destination", r.Steps[1].Direction)
	assert.GreaterOrEqual(t, r.WalkMinutes, 1)
	assert.Greater(t, r.TotalDistanceMiles, 0.0)
}

func TestAnnotateRouteNilRouterUsesFallback(t *testing.T) {
	a := NewAnnotator(quietScorer(), nil)

	r, err := a.AnnotateRoute(context.Background(), 38.9404, -92.3277, 38.9445, -92.3263, 10)
	require.NoError(t, err)
	assert.Equal(t, "fallback", r.Source)
}

func TestOverallRiskIsMaxNotAverage(t *testing.T) {
	// One dangerous step among many calm ones must dominate the verdict.
	hotLat, hotLon := 38.9404, -92.3277
	router := &fakeRouter{plan: &Plan{
		Steps: []Step{
			{Lat: 38.90, Lon: -92.40},
			{Lat: 38.91, Lon: -92.41},
			{Lat: hotLat, Lon: hotLon},
			{Lat: 38.92, Lon: -92.42},
		},
	}}
	a := NewAnnotator(hotScorer(hotLat, hotLon), router)

	r, err := a.AnnotateRoute(context.Background(), 38.90, -92.40, 38.92, -92.42, 23)
	require.NoError(t, err)

	assert.Equal(t, risk.LevelHigh, r.OverallRisk)
	assert.Greater(t, r.MaxStepScore, r.AvgStepScore)
	require.NotNil(t, r.HotspotStep)
	assert.Equal(t, 3, r.HotspotStep.Step)
}

func TestOverallRiskBuckets(t *testing.T) {
	assert.Equal(t, risk.LevelHigh, overallRisk(8.0))
	assert.Equal(t, risk.LevelMedium, overallRisk(7.9))
	assert.Equal(t, risk.LevelMedium, overallRisk(4.0))
	assert.Equal(t, risk.LevelLow, overallRisk(3.9))
}

func TestAnnotateRouteInvalidInput(t *testing.T) {
	a := NewAnnotator(quietScorer(), nil)
	ctx := context.Background()

	_, err := a.AnnotateRoute(ctx, 95, -92.33, 38.94, -92.33, 10)
	assert.Error(t, err)

	_, err = a.AnnotateRoute(ctx, 38.94, -92.33, 38.95, -92.34, -1)
	assert.Error(t, err)
}

func TestSafetyNoteMentionsNearbyCallBox(t *testing.T) {
	router := &fakeRouter{plan: &Plan{
		Steps: []Step{{Lat: 38.9404, Lon: -92.3277}},
	}}
	a := NewAnnotator(quietScorer(), router)

	r, err := a.AnnotateRoute(context.Background(), 38.9404, -92.3277, 38.9404, -92.3277, 12)
	require.NoError(t, err)
	assert.Contains(t, r.Steps[0].SafetyNote, "Emergency call box")
	assert.Contains(t, r.Steps[0].SafetyNote, "Call Box - Memorial Union")
}

func TestRecommendationsForHighRiskNightRoute(t *testing.T) {
	hotLat, hotLon := 38.9404, -92.3277
	router := &fakeRouter{plan: &Plan{Steps: []Step{{Lat: hotLat, Lon: hotLon}}}}
	a := NewAnnotator(hotScorer(hotLat, hotLon), router)

	r, err := a.AnnotateRoute(context.Background(), hotLat, hotLon, hotLat, hotLon, 23)
	require.NoError(t, err)
	require.Equal(t, risk.LevelHigh, r.OverallRisk)

	types := make(map[string]bool)
	for _, rec := range r.Recommendations {
		types[rec.Type] = true
	}
	assert.True(t, types["transport"])
	assert.True(t, types["escort"])
	assert.True(t, types["timing"])
	assert.True(t, types["avoid"])
	assert.True(t, types["emergency_contact"])
}

func TestRecommendationsAlwaysIncludeEmergencyContact(t *testing.T) {
	a := NewAnnotator(quietScorer(), nil)

	r, err := a.AnnotateRoute(context.Background(), 38.94, -92.33, 38.95, -92.34, 12)
	require.NoError(t, err)

	require.NotEmpty(t, r.Recommendations)
	last := r.Recommendations[len(r.Recommendations)-1]
	assert.Equal(t, "emergency_contact", last.Type)
}

func TestOSRMClientParsesRoute(t *testing.T) {
	body := `{
		"code": "Ok",
		"routes": [{
			"distance": 812.3,
			"duration": 610.0,
			"legs": [{
				"steps": [
					{"name": "Hitt Street", "distance": 400, "duration": 300,
					 "maneuver": {"type": "depart", "location": [-92.3280, 38.9415]}},
					{"name": "", "distance": 412.3, "duration": 310,
					 "maneuver": {"type": "turn", "modifier": "left", "location": [-92.3270, 38.9430]}},
					{"name": "", "distance": 0, "duration": 0,
					 "maneuver": {"type": "arrive", "location": [-92.3263, 38.9445]}}
				]
			}]
		}]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewOSRMClient(srv.URL, 0)
	plan, err := c.Route(context.Background(), 38.9415, -92.3280, 38.9445, -92.3263)
	require.NoError(t, err)

	assert.Equal(t, 812.3, plan.DistanceM)
	require.Len(t, plan.Steps, 3)
	assert.Equal(t, "Start on Hitt Street", plan.Steps[0].Direction)
	assert.Equal(t, 38.9415, plan.Steps[0].Lat)
	assert.Equal(t, "Turn left onto Unnamed road", plan.Steps[1].Direction)
	assert.Equal(t, "Unnamed road", plan.Steps[1].Road)
	assert.Equal(t, "Arrive at destination", plan.Steps[2].Direction)
}

func TestOSRMClientErrorOnBadCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code": "NoRoute", "routes": []}`))
	}))
	defer srv.Close()

	c := NewOSRMClient(srv.URL, 0)
	_, err := c.Route(context.Background(), 38.94, -92.33, 38.95, -92.34)
	assert.Error(t, err)
}

func TestOSRMClientErrorOnHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewOSRMClient(srv.URL, 0)
	_, err := c.Route(context.Background(), 38.94, -92.33, 38.95, -92.34)
	assert.Error(t, err)
}
