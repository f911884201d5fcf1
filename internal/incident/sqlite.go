package incident

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/campuswatch/internal/geo"
)

// SQLiteFeed reads incidents from a local SQLite database, the portable
// hand-off format for integrated multi-source incident logs.
type SQLiteFeed struct {
	Path  string
	Table string // defaults to "incidents"
}

// LoadRegion queries records inside the bounding box. Rows with NULL
// coordinates are included with HasLocation=false.
func (f *SQLiteFeed) LoadRegion(ctx context.Context, box geo.BBox) ([]Record, error) {
	db, err := sql.Open("sqlite", f.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "incident: open sqlite %s", f.Path)
	}
	defer func() { _ = db.Close() }()

	table := f.Table
	if table == "" {
		table = "incidents"
	}

	rows, err := db.QueryContext(ctx, `
		SELECT lat, lon, hour, day_of_week, category, severity, source
		FROM `+table+`
		WHERE lat IS NULL
		   OR (lat BETWEEN ? AND ? AND lon BETWEEN ? AND ?)`,
		box.MinLat, box.MaxLat, box.MinLon, box.MaxLon,
	)
	if err != nil {
		return nil, eris.Wrap(err, "incident: query sqlite region")
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var (
			lat, lon sql.NullFloat64
			hour     sql.NullInt64
			day, cat sql.NullString
			sev      sql.NullInt64
			source   sql.NullString
		)
		if err := rows.Scan(&lat, &lon, &hour, &day, &cat, &sev, &source); err != nil {
			return nil, eris.Wrap(err, "incident: scan sqlite row")
		}
		rec := Record{Hour: -1}
		if lat.Valid && lon.Valid {
			rec.Lat, rec.Lon = lat.Float64, lon.Float64
			rec.HasLocation = true
		}
		if hour.Valid && hour.Int64 >= 0 && hour.Int64 < 24 {
			rec.Hour = int(hour.Int64)
		}
		rec.DayOfWeek = normalizeDay(day.String)
		rec.Category = ParseCategory(cat.String)
		rec.Severity = SeverityOrDefault(rec.Category, int(sev.Int64))
		rec.Source = source.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "incident: iterate sqlite rows")
	}
	return records, nil
}
