package sightline

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"github.com/serjvanilla/go-overpass"

	geopkg "github.com/sells-group/campuswatch/internal/geo"
)

// DefaultOverpassEndpoint is the public Overpass API instance.
const DefaultOverpassEndpoint = "https://overpass-api.de/api/interpreter"

// OverpassSource queries OpenStreetMap ways around a point and maps their
// highway tags onto the MTFCC classification table. An alternative to a
// local TIGER shapefile when no download has been staged.
type OverpassSource struct {
	client overpass.Client
}

// NewOverpassSource builds a source against endpoint. Empty endpoint
// selects the public instance.
func NewOverpassSource(endpoint string, timeout time.Duration) *OverpassSource {
	if endpoint == "" {
		endpoint = DefaultOverpassEndpoint
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	return &OverpassSource{
		client: overpass.NewWithSettings(endpoint, 2, httpClient),
	}
}

// SegmentsNear fetches highway=* ways within radiusFt and classifies each.
func (o *OverpassSource) SegmentsNear(_ context.Context, lat, lon, radiusFt float64) ([]Segment, error) {
	radiusM := radiusFt / geopkg.FeetPerMile * geopkg.MetersPerMile
	query := fmt.Sprintf(`
		[out:json];
		(
			way["highway"](around:%.0f,%f,%f);
		);
		out body;
		>;
		out skel qt;
	`, radiusM, lat, lon)

	result, err := o.client.Query(query)
	if err != nil {
		return nil, eris.Wrap(err, "sightline: overpass query")
	}

	var out []Segment
	for _, way := range result.Ways {
		if way == nil || len(way.Nodes) == 0 {
			continue
		}
		code := CodeForHighwayTag(way.Tags["highway"])
		cls := Classify(code)
		name := way.Tags["name"]
		if name == "" {
			name = "Unnamed"
		}
		out = append(out, Segment{
			Name:         name,
			Code:         code,
			Label:        cls.Label,
			Surveillance: cls.Surveillance,
			WidthFt:      cls.WidthFt,
			DistanceFt:   wayDistanceFt(lat, lon, way),
		})
	}
	return out, nil
}

// wayDistanceFt approximates distance from the point to the way as the
// nearest node distance. Overpass already filtered by radius, so this only
// feeds reporting, not selection.
func wayDistanceFt(lat, lon float64, way *overpass.Way) float64 {
	best := math.MaxFloat64
	for _, node := range way.Nodes {
		if node == nil {
			continue
		}
		d := geopkg.FeetBetween(lat, lon, node.Lat, node.Lon)
		if d < best {
			best = d
		}
	}
	if best == math.MaxFloat64 {
		return 0
	}
	return math.Round(best)
}
