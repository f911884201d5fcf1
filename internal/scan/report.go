package scan

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/campuswatch/internal/cpted"
	"github.com/sells-group/campuswatch/internal/risk"
)

// RiskSummary counts grid locations per risk bucket and carries the campus
// risk index, the mean survey-adjusted score across the grid.
type RiskSummary struct {
	HighRisk        int     `json:"high_risk_locations"`
	MediumRisk      int     `json:"medium_risk_locations"`
	LowRisk         int     `json:"low_risk_locations"`
	CampusRiskIndex float64 `json:"campus_risk_index"`
}

// GapSummary counts infrastructure deficiencies across analyzed hotspots.
type GapSummary struct {
	LightingGaps  int `json:"lighting_gaps"`
	CallBoxGaps   int `json:"call_box_gaps"`
	IsolatedSpots int `json:"isolated_locations"`
	TotalGaps     int `json:"total_deficiencies"`
}

// PrioritySummary counts analyzed hotspots per remediation priority.
type PrioritySummary struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
}

// CampusROI rolls up hotspot-level ROI figures across the scan.
type CampusROI struct {
	TotalInfrastructureCost int     `json:"total_infrastructure_cost"`
	TotalAnnualSavings      int     `json:"total_annual_savings"`
	TotalIncidentsPrevented int     `json:"total_incidents_prevented"`
	ROIPercentage           float64 `json:"roi_percentage"`
	VsConsultingSavings     int     `json:"vs_consulting_savings"`
}

// CampusReport is the full output of a campus scan run.
type CampusReport struct {
	ReportID        string                 `json:"report_id"`
	GeneratedAt     time.Time              `json:"generated_at"`
	ScanHour        int                    `json:"scan_hour"`
	LocationsScored int                    `json:"locations_scored"`
	RiskSummary     RiskSummary            `json:"risk_summary"`
	GapSummary      GapSummary             `json:"infrastructure_gaps"`
	PrioritySummary PrioritySummary        `json:"priority_summary"`
	CampusROI       CampusROI              `json:"campus_roi"`
	TopHotspots     []*cpted.HotspotReport `json:"top_hotspots"`
	AllLocations    []ScoredLocation       `json:"all_locations"`
	Temporal        *TemporalHeatmap       `json:"temporal_heatmap"`
	Benchmarks      *CampusBenchmarks      `json:"benchmarks"`
}

func compileReport(hour int, scored []ScoredLocation, hotspots []*cpted.HotspotReport, temporal *TemporalHeatmap, bench *CampusBenchmarks) *CampusReport {
	return &CampusReport{
		ReportID:        uuid.NewString(),
		GeneratedAt:     time.Now().UTC(),
		ScanHour:        hour,
		LocationsScored: len(scored),
		RiskSummary:     summarizeRisk(scored),
		GapSummary:      summarizeGaps(hotspots),
		PrioritySummary: summarizePriorities(hotspots),
		CampusROI:       rollUpROI(hotspots),
		TopHotspots:     hotspots,
		AllLocations:    scored,
		Temporal:        temporal,
		Benchmarks:      bench,
	}
}

func summarizeRisk(scored []ScoredLocation) RiskSummary {
	var s RiskSummary
	var sum float64
	for _, loc := range scored {
		sum += loc.RiskScore
		switch loc.RiskLevel {
		case risk.LevelHigh:
			s.HighRisk++
		case risk.LevelMedium:
			s.MediumRisk++
		default:
			s.LowRisk++
		}
	}
	if len(scored) > 0 {
		s.CampusRiskIndex = math.Round(sum/float64(len(scored))*100) / 100
	}
	return s
}

func summarizeGaps(hotspots []*cpted.HotspotReport) GapSummary {
	var g GapSummary
	for _, h := range hotspots {
		if h.Profile == nil {
			continue
		}
		if h.Profile.LightingGap || h.Profile.LuminanceGap {
			g.LightingGaps++
		}
		if h.Profile.CallBoxGap {
			g.CallBoxGaps++
		}
		if h.Profile.Isolated {
			g.IsolatedSpots++
		}
		g.TotalGaps += h.Profile.DeficiencyCount()
	}
	return g
}

func summarizePriorities(hotspots []*cpted.HotspotReport) PrioritySummary {
	var p PrioritySummary
	for _, h := range hotspots {
		switch h.Priority {
		case cpted.PriorityCritical:
			p.Critical++
		case cpted.PriorityHigh:
			p.High++
		default:
			p.Medium++
		}
	}
	return p
}

func rollUpROI(hotspots []*cpted.HotspotReport) CampusROI {
	var r CampusROI
	totalCost := 0
	for _, h := range hotspots {
		if h.ROI == nil {
			continue
		}
		f := h.ROI.Financials
		totalCost += f.TotalInfrastructureCost
		r.TotalAnnualSavings += f.TotalAnnualSavings
		r.TotalIncidentsPrevented += f.TotalIncidentsPrevented
		r.VsConsultingSavings += h.ROI.VsConsulting.SavingsVsConsulting
	}
	r.TotalInfrastructureCost = totalCost
	if totalCost > 0 {
		net := r.TotalAnnualSavings - totalCost
		r.ROIPercentage = math.Round(float64(net)/float64(totalCost)*1000) / 10
	}
	return r
}
