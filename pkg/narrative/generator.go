// Package narrative turns hotspot analysis data into a written CPTED
// infrastructure report via the Anthropic API, with a deterministic
// template fallback when the API is unavailable.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/campuswatch/internal/cpted"
	"github.com/sells-group/campuswatch/pkg/anthropic"
)

const systemPrompt = `You are a CPTED (Crime Prevention Through Environmental Design) expert
consulting for a university campus safety office.

Analyze the crime hotspot data and generate a professional infrastructure report for
campus administrators and facilities management.

Output format (strictly follow):
**Environmental Diagnosis**
[2-3 sentences: WHY this location is a hotspot in environmental terms, referencing the
satellite lighting data and road network analysis provided]

**Root Cause Factors**
[Bullet list of specific environmental deficiencies with data backing each one]

**Recommended Interventions**
[Numbered list. Each must include:
 What to do | Cost tier (Low/Medium/High) | Predicted incident reduction %]

**Priority Score**
[Critical / High / Medium with a 1 sentence justification referencing the data]

Reference the satellite luminance values and road surveillance scores when relevant.
Under 300 words. Write for a facilities director.`

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 1500
	temperature      = 0.3
)

// Generator produces the written section of a hotspot report.
type Generator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	limiter   *rate.Limiter
}

// Option configures the generator.
type Option func(*Generator)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(g *Generator) { g.model = model }
}

// WithMaxTokens overrides the response token budget.
func WithMaxTokens(n int64) Option {
	return func(g *Generator) { g.maxTokens = n }
}

// NewGenerator builds a Generator. A nil client selects the template
// fallback for every report.
func NewGenerator(client anthropic.Client, opts ...Option) *Generator {
	g := &Generator{
		client:    client,
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
		limiter:   rate.NewLimiter(1, 2),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate writes a CPTED report for the hotspot. API failures degrade to
// the template; the returned bool reports whether the model produced it.
func (g *Generator) Generate(ctx context.Context, report *cpted.HotspotReport) (string, bool) {
	if report == nil {
		return "", false
	}
	if g.client == nil {
		return templateReport(report), false
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return templateReport(report), false
	}

	temp := temperature
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		System:      anthropic.CachedSystemBlocks(systemPrompt),
		Messages:    []anthropic.Message{{Role: "user", Content: buildPrompt(report)}},
		Temperature: &temp,
	})
	if err != nil {
		zap.L().Warn("narrative: generation failed, using template",
			zap.String("location", report.LocationName),
			zap.Error(err),
		)
		return templateReport(report), false
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return templateReport(report), false
	}
	resp.Usage.LogCost(g.model, "narrative")
	return text.String(), true
}

func buildPrompt(r *cpted.HotspotReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this campus crime hotspot and generate a CPTED infrastructure report.\n\n")
	fmt.Fprintf(&b, "LOCATION: %s | COORDINATES: %.4f, %.4f\n\n", r.LocationName, r.Lat, r.Lon)

	b.WriteString("CRIME DATA:\n")
	if r.Risk != nil {
		fmt.Fprintf(&b, "- Risk: %s (%.1f/10) | Incidents: %d\n",
			r.Risk.RiskLevel, r.Risk.RiskScore, r.Risk.IncidentCount)
		fmt.Fprintf(&b, "- Dominant: %s | Night rate: %.0f%%\n",
			r.Risk.DominantCrime, r.Risk.NightRatio*100)
		fmt.Fprintf(&b, "- Pattern: %s\n", r.Risk.PatternSummary)
	} else {
		b.WriteString("- No incident history available\n")
	}

	if p := r.Profile; p != nil {
		if p.Luminance != nil {
			fmt.Fprintf(&b, "\nSATELLITE LIGHTING (VIIRS):\n- Luminance: %.2f nW/cm2/sr [%s] (%s)\n",
				p.Luminance.LuminanceNW, p.Luminance.Label, p.Luminance.Source)
		}
		if s := p.Sightline; s != nil {
			fmt.Fprintf(&b, "\nROAD NETWORK SIGHTLINE:\n")
			fmt.Fprintf(&b, "- Surveillance Score: %.1f/10 [%s]\n", s.SurveillanceScore, s.SurveillanceLabel)
			fmt.Fprintf(&b, "- Dominant Road Type: %s\n", s.DominantRoadType)
			fmt.Fprintf(&b, "- Road Count (300ft): %d\n", s.RoadCount)
			issues := "None"
			if len(s.Issues) > 0 {
				issues = strings.Join(s.Issues, "; ")
			}
			fmt.Fprintf(&b, "- Issues: %s\n", issues)
		}
		b.WriteString("\nINFRASTRUCTURE PROXIMITY:\n")
		if p.NearestLight != nil {
			fmt.Fprintf(&b, "- Nearest Light: %s (%.0fft)\n", p.NearestLight.Name, p.NearestLight.DistanceFt)
		}
		if p.NearestBox != nil {
			fmt.Fprintf(&b, "- Nearest Call Box: %s (%.0fft)\n", p.NearestBox.Name, p.NearestBox.DistanceFt)
		}
		if p.NearestPath != nil {
			fmt.Fprintf(&b, "- Nearest Corridor: %s (%.0fft)\n", p.NearestPath.Name, p.NearestPath.DistanceFt)
		}

		b.WriteString("\nIDENTIFIED DEFICIENCIES:\n")
		if len(p.Deficiencies) == 0 {
			b.WriteString("  - No major deficiencies detected\n")
		}
		for _, d := range p.Deficiencies {
			fmt.Fprintf(&b, "  - %s\n", d.Description)
		}
	}

	if r.PolicyContext != "" {
		fmt.Fprintf(&b, "\nCAMPUS POLICY CONTEXT:\n%s\n", r.PolicyContext)
	}

	b.WriteString("\nGenerate the CPTED infrastructure report now.\n")
	return b.String()
}

// templateReport renders the same sections from the structured data alone.
func templateReport(r *cpted.HotspotReport) string {
	var b strings.Builder

	b.WriteString("**Environmental Diagnosis**\n")
	switch {
	case r.Profile != nil && r.Profile.LightingGap && r.Profile.Isolated:
		fmt.Fprintf(&b, "%s combines poor lighting with low natural surveillance, the two strongest environmental predictors of campus crime concentration.\n", r.LocationName)
	case r.Profile != nil && r.Profile.LightingGap:
		fmt.Fprintf(&b, "%s is under-lit relative to campus standards, reducing both visibility and perceived guardianship after dark.\n", r.LocationName)
	case r.Profile != nil && r.Profile.Isolated:
		fmt.Fprintf(&b, "%s sits away from trafficked corridors, limiting the natural surveillance that suppresses opportunistic crime.\n", r.LocationName)
	default:
		fmt.Fprintf(&b, "%s shows elevated incident concentration relative to surrounding campus locations.\n", r.LocationName)
	}

	b.WriteString("\n**Root Cause Factors**\n")
	if r.Profile == nil || len(r.Profile.Deficiencies) == 0 {
		b.WriteString("- No major environmental deficiencies detected\n")
	} else {
		for _, d := range r.Profile.Deficiencies {
			fmt.Fprintf(&b, "- %s\n", d.Description)
		}
	}

	b.WriteString("\n**Recommended Interventions**\n")
	if r.ROI == nil || len(r.ROI.Interventions) == 0 {
		b.WriteString("1. Maintain current infrastructure; re-scan next semester.\n")
	} else {
		for i, iv := range r.ROI.Interventions {
			fmt.Fprintf(&b, "%d. %s x%d | Cost tier: %s | Predicted reduction: %.0f%%\n",
				i+1, iv.Name, iv.Quantity, iv.CostTier, iv.ReductionMedian)
		}
	}

	b.WriteString("\n**Priority Score**\n")
	score, deficiencies := 0.0, 0
	if r.Risk != nil {
		score = r.Risk.RiskScore
	}
	if r.Profile != nil {
		deficiencies = r.Profile.DeficiencyCount()
	}
	fmt.Fprintf(&b, "%s: risk score %.1f/10 with %d environmental deficiencies identified.\n",
		r.Priority, score, deficiencies)

	return b.String()
}
