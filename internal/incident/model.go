// Package incident holds the campus incident log: record model, ingestion
// from CSV/SQLite/Postgres feeds, and geospatial/temporal filtering.
package incident

import "strings"

// Category classifies an incident. The set is closed; anything that does not
// map cleanly lands in CategoryOther.
type Category string

const (
	CategoryAssault    Category = "assault"
	CategoryTheft      Category = "theft"
	CategoryHarassment Category = "harassment"
	CategoryBurglary   Category = "burglary"
	CategoryVehicle    Category = "vehicle"
	CategoryDrug       Category = "drug"
	CategoryVandalism  Category = "vandalism"
	CategorySuspicious Category = "suspicious"
	CategoryOther      Category = "other"
)

// Record is a single incident log entry. Hour is -1 when the report carried
// no usable time; records without coordinates keep HasLocation false and are
// skipped by spatial queries rather than rejected at load.
type Record struct {
	Lat         float64  `json:"lat"`
	Lon         float64  `json:"lon"`
	HasLocation bool     `json:"has_location"`
	Hour        int      `json:"hour"`
	DayOfWeek   string   `json:"day_of_week"`
	Category    Category `json:"category"`
	Severity    int      `json:"severity"`
	Source      string   `json:"source"`
}

// IsNight reports whether the incident occurred in the 20:00–06:00 window.
func (r Record) IsNight() bool {
	return r.Hour >= 0 && (r.Hour >= 20 || r.Hour < 6)
}

// IsWeekend reports whether the incident fell on Friday, Saturday, or Sunday,
// the high-activity window for campus incidents.
func (r Record) IsWeekend() bool {
	switch r.DayOfWeek {
	case "Friday", "Saturday", "Sunday":
		return true
	}
	return false
}

// defaultSeverity is used when a feed row carries a category but no severity.
var defaultSeverity = map[Category]int{
	CategoryAssault:    5,
	CategoryBurglary:   4,
	CategoryTheft:      2,
	CategoryVandalism:  1,
	CategoryDrug:       2,
	CategoryVehicle:    4,
	CategoryHarassment: 3,
	CategorySuspicious: 1,
	CategoryOther:      1,
}

// ParseCategory normalizes a free-text offense description into a Category.
// Substring matching mirrors how upstream police-log exports describe
// offenses ("Larceny from motor vehicle", "Assault 3rd degree").
func ParseCategory(offense string) Category {
	s := strings.ToLower(strings.TrimSpace(offense))
	switch {
	case s == "":
		return CategoryOther
	case containsAny(s, "assault", "attack", "battery"):
		return CategoryAssault
	case containsAny(s, "theft", "larceny", "steal", "robbery"):
		return CategoryTheft
	case containsAny(s, "burglary", "breaking", "enter"):
		return CategoryBurglary
	case containsAny(s, "harassment", "stalking"):
		return CategoryHarassment
	case containsAny(s, "vandalism", "damage", "graffiti"):
		return CategoryVandalism
	case containsAny(s, "drug", "narcotic", "controlled"):
		return CategoryDrug
	case containsAny(s, "vehicle", "auto", "motor"):
		return CategoryVehicle
	case containsAny(s, "suspicious"):
		return CategorySuspicious
	default:
		// Exact category strings pass through unchanged.
		if _, ok := defaultSeverity[Category(s)]; ok {
			return Category(s)
		}
		return CategoryOther
	}
}

// SeverityOrDefault returns sev clamped to [1,5], or the category default
// when sev is zero.
func SeverityOrDefault(cat Category, sev int) int {
	if sev <= 0 {
		if d, ok := defaultSeverity[cat]; ok {
			return d
		}
		return 1
	}
	if sev > 5 {
		return 5
	}
	return sev
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
