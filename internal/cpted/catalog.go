// Package cpted detects environmental deficiencies at crime hotspots and
// turns them into costed, evidence-backed intervention plans.
package cpted

import (
	_ "embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/campuswatch/internal/incident"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Citation is one study backing an intervention category.
type Citation struct {
	Authors         string  `yaml:"authors" json:"authors"`
	Year            int     `yaml:"year" json:"year"`
	Title           string  `yaml:"title" json:"title"`
	Journal         string  `yaml:"journal" json:"journal"`
	Finding         string  `yaml:"finding" json:"finding"`
	ReductionLow    float64 `yaml:"reduction_low" json:"reduction_low"`
	ReductionHigh   float64 `yaml:"reduction_high" json:"reduction_high"`
	MedianReduction float64 `yaml:"median_reduction" json:"median_reduction"`
}

// InterventionCost is the catalog entry for one intervention type.
type InterventionCost struct {
	Name              string `yaml:"name" json:"name"`
	UnitCost          int    `yaml:"unit_cost" json:"unit_cost"`
	Unit              string `yaml:"unit" json:"unit"`
	Description       string `yaml:"description" json:"description"`
	CostTier          string `yaml:"cost_tier" json:"cost_tier"`
	LifespanYears     int    `yaml:"lifespan_years" json:"lifespan_years"`
	AnnualMaintenance int    `yaml:"annual_maintenance" json:"annual_maintenance"`
	ResearchCategory  string `yaml:"research_category" json:"research_category"`
}

// Catalog holds intervention costs, incident cost benchmarks, and the
// research citation table.
type Catalog struct {
	CostPerIncident          map[string]int              `yaml:"cost_per_incident"`
	ConsultingEngagementCost int                         `yaml:"consulting_engagement_cost"`
	SoftwareLicenseCost      int                         `yaml:"software_license_cost"`
	Interventions            map[string]InterventionCost `yaml:"interventions"`
	Citations                map[string][]Citation       `yaml:"citations"`

	// PrioritizeByImpact reorders a plan by median reduction before the
	// stacking model assigns priorities. Off by default: the rule order
	// encodes deployment practicality, not just impact.
	PrioritizeByImpact bool `yaml:"-"`
}

// LoadCatalog parses the embedded catalog.
func LoadCatalog() (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(catalogYAML, &c); err != nil {
		return nil, eris.Wrap(err, "cpted: parse intervention catalog")
	}
	if len(c.Interventions) == 0 || len(c.CostPerIncident) == 0 {
		return nil, eris.New("cpted: intervention catalog is empty")
	}
	return &c, nil
}

// IncidentCost returns the per-incident cost for a crime category, falling
// back to the default rate.
func (c *Catalog) IncidentCost(category incident.Category) int {
	if cost, ok := c.CostPerIncident[string(category)]; ok {
		return cost
	}
	return c.CostPerIncident["default"]
}

// CitationsFor returns the study list for a research category.
func (c *Catalog) CitationsFor(category string) []Citation {
	return c.Citations[category]
}

// MedianReduction averages the median reduction percentages of a research
// category's citations. Uncited categories get a conservative 20%.
func (c *Catalog) MedianReduction(category string) float64 {
	cites := c.Citations[category]
	if len(cites) == 0 {
		return 20.0
	}
	var sum float64
	for _, cite := range cites {
		sum += cite.MedianReduction
	}
	return sum / float64(len(cites))
}

// ReductionRange returns the widest low/high reduction interval across a
// category's citations.
func (c *Catalog) ReductionRange(category string) (float64, float64) {
	cites := c.Citations[category]
	if len(cites) == 0 {
		return 15, 30
	}
	low, high := cites[0].ReductionLow, cites[0].ReductionHigh
	for _, cite := range cites[1:] {
		if cite.ReductionLow < low {
			low = cite.ReductionLow
		}
		if cite.ReductionHigh > high {
			high = cite.ReductionHigh
		}
	}
	return low, high
}
