// Package sightline scores natural surveillance at campus coordinates from
// the surrounding road network. Road class is a proxy for eyes-on-the-street:
// a primary road means constant traffic, an alley means concealment.
package sightline

import "strings"

// Classification maps a road class onto its surveillance contribution.
type Classification struct {
	Label        string  `yaml:"label" json:"label"`
	Surveillance float64 `yaml:"surveillance" json:"surveillance"` // 0-10
	WidthFt      float64 `yaml:"width_ft" json:"width_ft"`
}

// MTFCC road classification codes (Census TIGER/Line).
const (
	CodePrimaryRoad    = "S1100"
	CodeSecondaryRoad  = "S1200"
	CodeLocalRoad      = "S1400"
	CodeVehicularTrail = "S1500"
	CodeRamp           = "S1630"
	CodeServiceDrive   = "S1640"
	CodeWalkway        = "S1710"
	CodeStairway       = "S1720"
	CodeAlley          = "S1730"
	CodePrivateRoad    = "S1740"
	CodeParkingLotRoad = "S1780"
	CodeBikePath       = "S1820"
	CodeBridlePath     = "S1830"
)

// DefaultClassifications is the fixed MTFCC → surveillance table.
func DefaultClassifications() map[string]Classification {
	return map[string]Classification{
		CodePrimaryRoad:    {"Primary Road", 9, 80},
		CodeSecondaryRoad:  {"Secondary Road", 8, 60},
		CodeLocalRoad:      {"Local Road", 6, 30},
		CodeVehicularTrail: {"Vehicular Trail", 3, 15},
		CodeRamp:           {"Ramp", 4, 25},
		CodeServiceDrive:   {"Service Drive", 3, 20},
		CodeWalkway:        {"Pedestrian Walkway", 5, 10},
		CodeStairway:       {"Stairway", 2, 6},
		CodeAlley:          {"Alley", 2, 12},
		CodePrivateRoad:    {"Private Road", 3, 20},
		CodeParkingLotRoad: {"Parking Lot Road", 3, 25},
		CodeBikePath:       {"Bike Path", 4, 8},
		CodeBridlePath:     {"Bridle Path", 2, 8},
	}
}

// DefaultClassification covers unknown codes.
var DefaultClassification = Classification{Label: "Unknown Road", Surveillance: 4, WidthFt: 20}

var classifications = DefaultClassifications()

// Classify resolves an MTFCC code against the classification table.
func Classify(code string) Classification {
	if cls, ok := classifications[code]; ok {
		return cls
	}
	return DefaultClassification
}

// concealmentCodes are road classes that create concealment opportunities.
var concealmentCodes = map[string]bool{
	CodeAlley:          true,
	CodeParkingLotRoad: true,
	CodeServiceDrive:   true,
}

// CodeForHighwayTag maps an OSM highway tag to the nearest MTFCC code, so
// the Overpass source feeds the same classification table as TIGER data.
func CodeForHighwayTag(tag string) string {
	switch strings.ToLower(tag) {
	case "motorway", "trunk", "primary":
		return CodePrimaryRoad
	case "secondary", "tertiary":
		return CodeSecondaryRoad
	case "residential", "unclassified", "living_street":
		return CodeLocalRoad
	case "track":
		return CodeVehicularTrail
	case "motorway_link", "trunk_link", "primary_link", "secondary_link":
		return CodeRamp
	case "service":
		return CodeServiceDrive
	case "footway", "pedestrian", "path":
		return CodeWalkway
	case "steps":
		return CodeStairway
	case "alley":
		return CodeAlley
	case "cycleway":
		return CodeBikePath
	case "bridleway":
		return CodeBridlePath
	default:
		return ""
	}
}
