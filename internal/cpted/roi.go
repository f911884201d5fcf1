package cpted

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sells-group/campuswatch/internal/incident"
	"github.com/sells-group/campuswatch/internal/risk"
)

// PaybackNever is the payback_days sentinel meaning the plan never pays
// for itself (zero projected savings).
const PaybackNever = 9999

// Campus benchmark constants (FBI UCR / Clery Act derived).
const (
	benchmarkEnrollment    = 30000
	peerAveragePer10k      = 52.0
	topQuartilePer10k      = 31.0
	nationalAveragePer10k  = 68.0
	aggregateReductionRate = 0.5
)

// PlannedIntervention is one intervention selected for a location, before
// the stacking model runs.
type PlannedIntervention struct {
	Type         string
	Quantity     int
	LocationNote string
}

// Intervention is one fully costed line of an ROI result.
type Intervention struct {
	Priority           int        `json:"priority"`
	Type               string     `json:"type"`
	Name               string     `json:"name"`
	Quantity           int        `json:"quantity"`
	LocationNote       string     `json:"location_note"`
	UnitCost           int        `json:"unit_cost"`
	TotalCost          int        `json:"total_cost"`
	AnnualMaintenance  int        `json:"annual_maintenance"`
	CostTier           string     `json:"cost_tier"`
	LifespanYears      int        `json:"lifespan_years"`
	ReductionLow       float64    `json:"reduction_pct_low"`
	ReductionHigh      float64    `json:"reduction_pct_high"`
	ReductionMedian    float64    `json:"reduction_pct_median"`
	IncidentsPrevented int        `json:"incidents_prevented"`
	AnnualSavings      int        `json:"annual_savings"`
	Citations          []Citation `json:"citations"`
}

// Financials aggregates the plan's cost/savings picture.
type Financials struct {
	TotalInfrastructureCost int     `json:"total_infrastructure_cost"`
	TotalAnnualMaintenance  int     `json:"total_annual_maintenance"`
	TotalIncidentsPrevented int     `json:"total_incidents_prevented"`
	TotalAnnualSavings      int     `json:"total_annual_savings"`
	ROIPercentage           float64 `json:"roi_percentage"`
	ROIMultiplier           float64 `json:"roi_multiplier"`
	PaybackDays             int     `json:"payback_days"`
	PaybackLabel            string  `json:"payback_label"`
	FiveYearNetSavings      int     `json:"five_year_net_savings"`
}

// VsConsulting compares the plan against a traditional consulting
// engagement covering the same ground.
type VsConsulting struct {
	SystemTotal         int     `json:"system_total"`
	ConsultantTotal     int     `json:"consultant_total"`
	SavingsVsConsulting int     `json:"savings_vs_consulting"`
	SavingsPct          float64 `json:"savings_pct"`
}

// Benchmarks relates the location's incident rate to peer campuses.
type Benchmarks struct {
	Note                   string  `json:"note"`
	PeerAveragePer10k      float64 `json:"peer_average_incidents_per_10k"`
	TopQuartilePer10k      float64 `json:"top_quartile_per_10k"`
	NationalAveragePer10k  float64 `json:"national_average_per_10k"`
	Enrollment             int     `json:"enrollment"`
	CurrentRatePer10k      float64 `json:"current_rate_per_10k"`
	ProjectedRatePer10k    float64 `json:"projected_rate_with_interventions"`
}

// ROIResult is the full return-on-investment analysis for one location.
type ROIResult struct {
	LocationName       string         `json:"location_name"`
	AnnualIncidents    int            `json:"annual_incidents"`
	DominantCrime      string         `json:"dominant_crime"`
	CostPerIncident    int            `json:"cost_per_incident"`
	BaselineAnnualCost int            `json:"baseline_annual_cost"`
	Interventions      []Intervention `json:"interventions"`
	InterventionCount  int            `json:"intervention_count"`
	TotalCitationCount int            `json:"total_citation_count"`
	Financials         Financials     `json:"financials"`
	VsConsulting       VsConsulting   `json:"vs_consulting"`
	Benchmarks         Benchmarks     `json:"university_benchmarks"`
}

// Engine runs the diminishing-returns intervention stacking model.
type Engine struct {
	catalog *Catalog
}

// NewEngine builds an ROI engine over a catalog.
func NewEngine(catalog *Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// PlanFromProfile selects interventions for a profile's deficiencies.
// The rule order doubles as deployment priority unless the catalog's
// PrioritizeByImpact flag reorders by median reduction.
func (e *Engine) PlanFromProfile(p *Profile, detail *risk.Detail) []PlannedIntervention {
	var plan []PlannedIntervention

	if p.LightingGap {
		t := "led_light_pole"
		if p.NightDominant {
			t = "led_light_pole_motion"
		}
		// Proximities are nil when no asset inventory covers the point.
		note := "No light pole on record"
		if p.NearestLight != nil {
			note = fmt.Sprintf("Nearest pole: %.0fft away", p.NearestLight.DistanceFt)
		}
		plan = append(plan, PlannedIntervention{
			Type:         t,
			Quantity:     2,
			LocationNote: note,
		})
	}

	if p.CallBoxGap {
		note := "No call box on record"
		if p.NearestBox != nil {
			note = fmt.Sprintf("Current gap: %.0fft", p.NearestBox.DistanceFt)
		}
		plan = append(plan, PlannedIntervention{
			Type:         "emergency_call_box",
			Quantity:     1,
			LocationNote: note,
		})
	}

	theftDominant := detail != nil && detail.DominantCrime == incident.CategoryTheft
	if theftDominant || hasConcealment(p.Deficiencies) {
		plan = append(plan, PlannedIntervention{
			Type:         "vegetation_trim",
			Quantity:     1,
			LocationNote: "Sightline restoration",
		})
	}

	if p.Isolated {
		plan = append(plan, PlannedIntervention{
			Type:         "signage",
			Quantity:     2,
			LocationNote: "Safe route wayfinding + call box directional signs",
		})
	}

	if theftDominant && p.LightingGap {
		plan = append(plan, PlannedIntervention{
			Type:         "mirror_convex",
			Quantity:     2,
			LocationNote: "Blind corner elimination",
		})
	}

	if e.catalog.PrioritizeByImpact {
		sort.SliceStable(plan, func(i, j int) bool {
			ci := e.catalog.Interventions[plan[i].Type]
			cj := e.catalog.Interventions[plan[j].Type]
			return e.catalog.MedianReduction(ci.ResearchCategory) >
				e.catalog.MedianReduction(cj.ResearchCategory)
		})
	}
	return plan
}

// mentionsConcealment reports whether a deficiency description flags
// vegetation or concealment cover.
func mentionsConcealment(description string) bool {
	d := strings.ToLower(description)
	return strings.Contains(d, "concealment") || strings.Contains(d, "vegetation")
}

func hasConcealment(defs []Deficiency) bool {
	for _, d := range defs {
		if d.Category == DeficiencyCrimeType || d.Category == DeficiencySightline {
			if mentionsConcealment(d.Description) {
				return true
			}
		}
	}
	return false
}

// Calculate runs the stacking model over a plan. Each intervention acts
// only on the incidents left unaddressed by higher-priority ones, so the
// projected totals never double count.
func (e *Engine) Calculate(locationName string, annualIncidents int, dominantCrime incident.Category, plan []PlannedIntervention) *ROIResult {
	if annualIncidents < 1 {
		annualIncidents = 1
	}
	costPerIncident := e.catalog.IncidentCost(dominantCrime)

	result := &ROIResult{
		LocationName:       locationName,
		AnnualIncidents:    annualIncidents,
		DominantCrime:      string(dominantCrime),
		CostPerIncident:    costPerIncident,
		BaselineAnnualCost: annualIncidents * costPerIncident,
		Benchmarks:         benchmarks(annualIncidents),
	}
	if len(plan) == 0 {
		result.Financials.PaybackDays = PaybackNever
		result.Financials.PaybackLabel = paybackLabel(PaybackNever)
		return result
	}

	remaining := 1.0
	for i, planned := range plan {
		cost, ok := e.catalog.Interventions[planned.Type]
		if !ok {
			continue
		}
		low, high := e.catalog.ReductionRange(cost.ResearchCategory)
		median := e.catalog.MedianReduction(cost.ResearchCategory)
		fraction := median / 100

		prevented := int(math.Round(float64(annualIncidents) * remaining * fraction))
		remaining *= 1 - fraction

		result.Interventions = append(result.Interventions, Intervention{
			Priority:           i + 1,
			Type:               planned.Type,
			Name:               cost.Name,
			Quantity:           planned.Quantity,
			LocationNote:       planned.LocationNote,
			UnitCost:           cost.UnitCost,
			TotalCost:          cost.UnitCost * planned.Quantity,
			AnnualMaintenance:  cost.AnnualMaintenance * planned.Quantity,
			CostTier:           cost.CostTier,
			LifespanYears:      cost.LifespanYears,
			ReductionLow:       low,
			ReductionHigh:      high,
			ReductionMedian:    math.Round(median*10) / 10,
			IncidentsPrevented: prevented,
			AnnualSavings:      prevented * costPerIncident,
			Citations:          e.catalog.CitationsFor(cost.ResearchCategory),
		})
	}

	var totalCost, totalMaint, totalPrevented int
	for _, iv := range result.Interventions {
		totalCost += iv.TotalCost
		totalMaint += iv.AnnualMaintenance
		totalPrevented += iv.IncidentsPrevented
		result.TotalCitationCount += len(iv.Citations)
	}
	totalSavings := totalPrevented * costPerIncident

	fin := Financials{
		TotalInfrastructureCost: totalCost,
		TotalAnnualMaintenance:  totalMaint,
		TotalIncidentsPrevented: totalPrevented,
		TotalAnnualSavings:      totalSavings,
		FiveYearNetSavings:      totalSavings*5 - totalCost,
	}
	if totalCost > 0 {
		roiPct := float64(totalSavings-totalCost) / float64(totalCost) * 100
		fin.ROIPercentage = math.Round(roiPct*10) / 10
		fin.ROIMultiplier = math.Round(roiPct/100*10) / 10
	}
	if totalSavings > 0 {
		fin.PaybackDays = int(math.Round(float64(totalCost) / float64(totalSavings) * 365))
	} else {
		fin.PaybackDays = PaybackNever
	}
	fin.PaybackLabel = paybackLabel(fin.PaybackDays)
	result.Financials = fin

	consultantTotal := e.catalog.ConsultingEngagementCost + totalCost
	systemTotal := totalCost + e.catalog.SoftwareLicenseCost
	vs := VsConsulting{
		SystemTotal:         systemTotal,
		ConsultantTotal:     consultantTotal,
		SavingsVsConsulting: consultantTotal - systemTotal,
	}
	if consultantTotal > 0 {
		vs.SavingsPct = math.Round((1-float64(systemTotal)/float64(consultantTotal))*1000) / 10
	}
	result.VsConsulting = vs

	result.InterventionCount = len(result.Interventions)
	return result
}

func paybackLabel(days int) string {
	switch {
	case days >= PaybackNever:
		return "no payback"
	case days <= 30:
		return fmt.Sprintf("%d days", days)
	case days <= 365:
		return fmt.Sprintf("%d months", int(math.Round(float64(days)/30)))
	default:
		return fmt.Sprintf("%.1f years", float64(days)/365)
	}
}

func benchmarks(annualIncidents int) Benchmarks {
	rate := func(n float64) float64 {
		return math.Round(n/benchmarkEnrollment*10000*10) / 10
	}
	return Benchmarks{
		Note:                  "Based on FBI UCR and Clery Act campus crime statistics",
		PeerAveragePer10k:     peerAveragePer10k,
		TopQuartilePer10k:     topQuartilePer10k,
		NationalAveragePer10k: nationalAveragePer10k,
		Enrollment:            benchmarkEnrollment,
		CurrentRatePer10k:     rate(float64(annualIncidents)),
		ProjectedRatePer10k:   rate(float64(annualIncidents) * aggregateReductionRate),
	}
}
