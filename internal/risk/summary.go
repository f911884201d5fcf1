package risk

import (
	"fmt"
	"strings"
)

// patternSummary renders a compact plain-text description of the incident
// pattern. It is templated locally; no text-generation service is involved,
// so it is always available and deterministic.
func (s *Scorer) patternSummary(d *Detail) string {
	if d.IncidentCount == 0 {
		return fmt.Sprintf("No recorded incidents within %.2f mi.", s.cfg.RadiusMiles)
	}

	parts := []string{
		fmt.Sprintf("%d incidents within %.2f mi", d.IncidentCount, s.cfg.RadiusMiles),
	}
	if d.DominantCrime != "" {
		parts = append(parts, fmt.Sprintf("%s dominant (%d of %d)",
			d.DominantCrime, d.CategoryBreakdown[d.DominantCrime], d.IncidentCount))
	}
	parts = append(parts, fmt.Sprintf("%d%% at night", int(d.NightRatio*100+0.5)))
	if d.WeekendRatio >= 0.4 {
		parts = append(parts, fmt.Sprintf("%d%% on Fri-Sun", int(d.WeekendRatio*100+0.5)))
	}
	if d.PeakHour >= 0 {
		parts = append(parts, fmt.Sprintf("peak hour %02d:00", d.PeakHour))
	}
	return strings.Join(parts, "; ") + "."
}
