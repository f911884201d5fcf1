package scan

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/campuswatch/internal/incident"
)

// HourBucket is one hour-of-day cell in the temporal heatmap.
type HourBucket struct {
	Label string `json:"label"` // "HH:00"
	Hour  int    `json:"hour"`
	Count int    `json:"count"`
}

// DayBucket is one day-of-week cell in the temporal heatmap.
type DayBucket struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// TemporalHeatmap aggregates campus incidents by hour and weekday.
type TemporalHeatmap struct {
	TotalIncidents int          `json:"total_incidents"`
	ByHour         []HourBucket `json:"by_hour"`
	ByDay          []DayBucket  `json:"by_day"`
	PeakHours      []HourBucket `json:"peak_hours"` // top 3 by count
	NightPct       float64      `json:"night_pct"`
	HourMean       float64      `json:"hour_mean"`
	HourStdDev     float64      `json:"hour_std_dev"`
	Insight        string       `json:"insight"`
}

var weekdayOrder = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// TemporalHeatmap builds hour-of-day and day-of-week incident distributions
// for the campus region. Records without a usable hour contribute to day
// totals only.
func (o *Orchestrator) TemporalHeatmap() *TemporalHeatmap {
	records := o.store.InRegion(CampusBox)
	return buildHeatmap(records)
}

func buildHeatmap(records []incident.Record) *TemporalHeatmap {
	hourCounts := make([]int, 24)
	dayCounts := make(map[string]int)
	var hours []float64
	night := 0
	timed := 0

	for _, r := range records {
		if r.DayOfWeek != "" {
			dayCounts[r.DayOfWeek]++
		}
		if r.Hour < 0 {
			continue
		}
		h := r.Hour % 24
		hourCounts[h]++
		hours = append(hours, float64(h))
		timed++
		if r.IsNight() {
			night++
		}
	}

	hm := &TemporalHeatmap{TotalIncidents: len(records)}
	for h, c := range hourCounts {
		hm.ByHour = append(hm.ByHour, HourBucket{
			Label: fmt.Sprintf("%02d:00", h),
			Hour:  h,
			Count: c,
		})
	}
	for _, d := range weekdayOrder {
		if c, ok := dayCounts[d]; ok {
			hm.ByDay = append(hm.ByDay, DayBucket{Day: d, Count: c})
		}
	}

	peaks := make([]HourBucket, len(hm.ByHour))
	copy(peaks, hm.ByHour)
	sort.SliceStable(peaks, func(i, j int) bool { return peaks[i].Count > peaks[j].Count })
	for _, p := range peaks {
		if p.Count == 0 || len(hm.PeakHours) == 3 {
			break
		}
		hm.PeakHours = append(hm.PeakHours, p)
	}

	if timed > 0 {
		hm.NightPct = round1(float64(night) / float64(timed) * 100)
		hm.HourMean = round1(stat.Mean(hours, nil))
		if timed > 1 {
			hm.HourStdDev = round1(stat.StdDev(hours, nil))
		}
	}
	hm.Insight = heatmapInsight(hm)
	return hm
}

func heatmapInsight(hm *TemporalHeatmap) string {
	if len(hm.PeakHours) == 0 {
		return "No timestamped incidents in the campus region."
	}
	peak := hm.PeakHours[0]
	if hm.NightPct >= 50 {
		return fmt.Sprintf(
			"Incidents concentrate at night (%.0f%% between 20:00 and 06:00), peaking around %s. Patrol and lighting investments should prioritize the overnight window.",
			hm.NightPct, peak.Label,
		)
	}
	return fmt.Sprintf(
		"Incident activity peaks around %s with %.0f%% occurring at night. Daytime coverage remains the primary demand driver.",
		peak.Label, hm.NightPct,
	)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
