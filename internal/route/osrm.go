package route

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// DefaultOSRMBase is the public OSRM demo server, walking profile.
const DefaultOSRMBase = "https://router.project-osrm.org/route/v1/foot"

// OSRMClient fetches walking plans from an OSRM instance. The public demo
// server asks for no more than one request per second, hence the limiter.
type OSRMClient struct {
	base    string
	client  *http.Client
	limiter *rate.Limiter
}

// NewOSRMClient builds a client against base; empty base selects the
// public demo server.
func NewOSRMClient(base string, timeout time.Duration) *OSRMClient {
	if base == "" {
		base = DefaultOSRMBase
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &OSRMClient{
		base:    base,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(1, 2),
	}
}

type osrmResponse struct {
	Code   string      `json:"code"`
	Routes []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Distance float64   `json:"distance"`
	Duration float64   `json:"duration"`
	Legs     []osrmLeg `json:"legs"`
}

type osrmLeg struct {
	Steps []osrmStep `json:"steps"`
}

type osrmStep struct {
	Name     string       `json:"name"`
	Ref      string       `json:"ref"`
	Distance float64      `json:"distance"`
	Duration float64      `json:"duration"`
	Maneuver osrmManeuver `json:"maneuver"`
}

type osrmManeuver struct {
	Type     string    `json:"type"`
	Modifier string    `json:"modifier"`
	Location []float64 `json:"location"` // lon, lat
}

// Route fetches a walking plan between the endpoints.
func (c *OSRMClient) Route(ctx context.Context, startLat, startLon, endLat, endLon float64) (*Plan, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "route: osrm rate limit wait")
	}

	url := fmt.Sprintf("%s/%f,%f;%f,%f?steps=true&geometries=geojson&overview=full",
		c.base, startLon, startLat, endLon, endLat)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "route: build osrm request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "route: osrm request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, eris.Errorf("route: osrm status %d: %s", resp.StatusCode, string(body))
	}

	var decoded osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, eris.Wrap(err, "route: decode osrm response")
	}
	if decoded.Code != "Ok" || len(decoded.Routes) == 0 {
		return nil, eris.Errorf("route: osrm returned code %q with %d routes", decoded.Code, len(decoded.Routes))
	}

	return planFromOSRM(decoded.Routes[0]), nil
}

func planFromOSRM(r osrmRoute) *Plan {
	plan := &Plan{
		DistanceM: r.Distance,
		DurationS: r.Duration,
	}
	for _, leg := range r.Legs {
		for _, step := range leg.Steps {
			if len(step.Maneuver.Location) < 2 {
				continue
			}
			road := step.Name
			if road == "" {
				road = step.Ref
			}
			if road == "" {
				road = "Unnamed road"
			}
			plan.Steps = append(plan.Steps, Step{
				Lat:       step.Maneuver.Location[1],
				Lon:       step.Maneuver.Location[0],
				DistanceM: step.Distance,
				DurationS: step.Duration,
				Road:      road,
				Direction: buildDirection(step.Maneuver.Type, step.Maneuver.Modifier, road),
			})
		}
	}
	return plan
}

var turnPhrases = map[string]string{
	"left":         "Turn left",
	"right":        "Turn right",
	"slight left":  "Bear left",
	"slight right": "Bear right",
	"sharp left":   "Sharp left",
	"sharp right":  "Sharp right",
	"straight":     "Continue straight",
	"uturn":        "U-turn",
}

// buildDirection converts an OSRM maneuver into plain English.
func buildDirection(maneuverType, modifier, road string) string {
	switch maneuverType {
	case "depart":
		return "Start on " + road
	case "arrive":
		return "Arrive at destination"
	case "turn", "new name":
		action, ok := turnPhrases[modifier]
		if !ok {
			action = "Continue"
		}
		if road != "" {
			return action + " onto " + road
		}
		return action
	case "roundabout":
		return "Enter roundabout, take exit onto " + road
	case "continue":
		return "Continue on " + road
	}
	if road != "" {
		return "Head toward " + road
	}
	return maneuverType
}
