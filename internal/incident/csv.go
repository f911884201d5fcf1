package incident

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/campuswatch/internal/geo"
)

// CSVFeed reads incident records from a CSV export. Police-log exports vary
// wildly in header naming, so column detection is tolerant: the first header
// matching a known alias wins.
type CSVFeed struct {
	Path   string
	Source string // source tag stamped on each record; defaults to the file name
}

var (
	latAliases      = []string{"lat", "latitude", "y", "lat_dd"}
	lonAliases      = []string{"lon", "lng", "longitude", "x", "lon_dd", "long"}
	hourAliases     = []string{"hour", "time_hour"}
	dayAliases      = []string{"day_of_week", "day"}
	categoryAliases = []string{"category", "offense_type", "crime_type"}
	offenseAliases  = []string{"offense", "description"}
	severityAliases = []string{"severity", "crime_severity"}
)

// LoadRegion parses the CSV and returns records whose coordinates fall in the
// box, plus coordinate-less records (kept with HasLocation=false so temporal
// aggregates still count them).
func (f *CSVFeed) LoadRegion(ctx context.Context, box geo.BBox) ([]Record, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "incident: open csv %s", f.Path)
	}
	defer func() { _ = file.Close() }()

	source := f.Source
	if source == "" {
		source = f.Path
	}

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "incident: read csv header %s", f.Path)
	}
	cols := indexHeader(header)

	latIdx, latOK := cols.find(latAliases)
	lonIdx, lonOK := cols.find(lonAliases)
	hourIdx, hourOK := cols.find(hourAliases)
	dayIdx, dayOK := cols.find(dayAliases)
	catIdx, catOK := cols.find(categoryAliases)
	offIdx, offOK := cols.find(offenseAliases)
	sevIdx, sevOK := cols.find(severityAliases)

	var records []Record
	var malformed int
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			malformed++
			continue
		}

		rec := Record{Hour: -1, Source: source}

		if latOK && lonOK {
			lat, latErr := parseFloat(field(row, latIdx))
			lon, lonErr := parseFloat(field(row, lonIdx))
			if latErr == nil && lonErr == nil {
				rec.Lat, rec.Lon = lat, lon
				rec.HasLocation = true
			}
		}
		if rec.HasLocation && !box.Contains(rec.Lat, rec.Lon) {
			continue
		}

		if hourOK {
			if h, err := strconv.Atoi(strings.TrimSpace(field(row, hourIdx))); err == nil && h >= 0 && h < 24 {
				rec.Hour = h
			}
		}
		if dayOK {
			rec.DayOfWeek = normalizeDay(field(row, dayIdx))
		}

		switch {
		case catOK && strings.TrimSpace(field(row, catIdx)) != "":
			rec.Category = ParseCategory(field(row, catIdx))
		case offOK:
			rec.Category = ParseCategory(field(row, offIdx))
		default:
			rec.Category = CategoryOther
		}

		sev := 0
		if sevOK {
			sev, _ = strconv.Atoi(strings.TrimSpace(field(row, sevIdx)))
		}
		rec.Severity = SeverityOrDefault(rec.Category, sev)

		records = append(records, rec)
	}

	if malformed > 0 {
		zap.L().Warn("incident: skipped malformed csv rows",
			zap.String("file", f.Path),
			zap.Int("rows", malformed),
		)
	}
	return records, nil
}

type headerIndex map[string]int

func indexHeader(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func (h headerIndex) find(aliases []string) (int, bool) {
	for _, a := range aliases {
		if i, ok := h[a]; ok {
			return i, true
		}
	}
	return 0, false
}

func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// normalizeDay maps day spellings and abbreviations to full day names.
func normalizeDay(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monday", "mon":
		return "Monday"
	case "tuesday", "tue", "tues":
		return "Tuesday"
	case "wednesday", "wed":
		return "Wednesday"
	case "thursday", "thu", "thur", "thurs":
		return "Thursday"
	case "friday", "fri":
		return "Friday"
	case "saturday", "sat":
		return "Saturday"
	case "sunday", "sun":
		return "Sunday"
	}
	return ""
}
