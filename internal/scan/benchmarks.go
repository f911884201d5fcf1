package scan

import (
	"math"

	"github.com/sells-group/campuswatch/internal/risk"
)

// Campus-wide benchmark constants (FBI UCR / Clery Act derived).
const (
	campusEnrollment      = 30000
	peerAveragePer10k     = 52.0
	topQuartilePer10k     = 31.0
	nationalAveragePer10k = 68.0
	// Full deployment of the recommended intervention portfolio is modeled
	// as a 40% campus-wide incident reduction.
	campusReductionRate = 0.4
)

// CampusBenchmarks places the whole campus against peer institutions.
type CampusBenchmarks struct {
	TotalIncidents        int     `json:"total_incidents"`
	Enrollment            int     `json:"enrollment"`
	RatePer10k            float64 `json:"rate_per_10k"`
	PeerAveragePer10k     float64 `json:"peer_average_per_10k"`
	TopQuartilePer10k     float64 `json:"top_quartile_per_10k"`
	NationalAveragePer10k float64 `json:"national_average_per_10k"`
	Ranking               string  `json:"ranking"`
	ProjectedRatePer10k   float64 `json:"projected_rate_per_10k"`
	ProjectedRanking      string  `json:"projected_ranking"`
	HighRiskLocations     int     `json:"high_risk_locations"`
	MediumRiskLocations   int     `json:"medium_risk_locations"`
}

// ComparativeBenchmarks computes the campus incident rate per 10k students
// from the region snapshot and ranks it against national figures.
func (o *Orchestrator) ComparativeBenchmarks(scored []ScoredLocation) *CampusBenchmarks {
	total := len(o.store.InRegion(CampusBox))
	rate := math.Round(float64(total)/campusEnrollment*10000*10) / 10
	projected := math.Round(rate*(1-campusReductionRate)*10) / 10

	high, medium := 0, 0
	for _, s := range scored {
		switch s.RiskLevel {
		case risk.LevelHigh:
			high++
		case risk.LevelMedium:
			medium++
		}
	}

	return &CampusBenchmarks{
		TotalIncidents:        total,
		Enrollment:            campusEnrollment,
		RatePer10k:            rate,
		PeerAveragePer10k:     peerAveragePer10k,
		TopQuartilePer10k:     topQuartilePer10k,
		NationalAveragePer10k: nationalAveragePer10k,
		Ranking:               rankRate(rate),
		ProjectedRatePer10k:   projected,
		ProjectedRanking:      "Top 30% nationally (estimated)",
		HighRiskLocations:     high,
		MediumRiskLocations:   medium,
	}
}

func rankRate(rate float64) string {
	switch {
	case rate <= topQuartilePer10k:
		return "Top quartile nationally"
	case rate <= peerAveragePer10k:
		return "Below peer average (good)"
	case rate <= nationalAveragePer10k:
		return "Above peer average"
	default:
		return "Above national average"
	}
}
