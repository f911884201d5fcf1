package incident

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/campuswatch/internal/geo"
)

// PgxQuerier is the slice of pgx used by the Postgres feed. *pgxpool.Pool and
// pgxmock both satisfy it.
type PgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresFeed reads incidents from a shared Postgres log, the deployment
// shape when the campus PD pipeline writes directly to a database.
type PostgresFeed struct {
	Pool PgxQuerier
}

const postgresRegionQuery = `
	SELECT lat, lon, hour, day_of_week, category, severity, source
	FROM incidents
	WHERE lat IS NULL
	   OR (lat BETWEEN $1 AND $2 AND lon BETWEEN $3 AND $4)`

// LoadRegion queries records inside the bounding box. Rows with NULL
// coordinates are included with HasLocation=false.
func (f *PostgresFeed) LoadRegion(ctx context.Context, box geo.BBox) ([]Record, error) {
	rows, err := f.Pool.Query(ctx, postgresRegionQuery,
		box.MinLat, box.MaxLat, box.MinLon, box.MaxLon)
	if err != nil {
		return nil, eris.Wrap(err, "incident: query postgres region")
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			lat, lon *float64
			hour     *int
			day, cat *string
			sev      *int
			source   *string
		)
		if err := rows.Scan(&lat, &lon, &hour, &day, &cat, &sev, &source); err != nil {
			return nil, eris.Wrap(err, "incident: scan postgres row")
		}
		rec := Record{Hour: -1}
		if lat != nil && lon != nil {
			rec.Lat, rec.Lon = *lat, *lon
			rec.HasLocation = true
		}
		if hour != nil && *hour >= 0 && *hour < 24 {
			rec.Hour = *hour
		}
		if day != nil {
			rec.DayOfWeek = normalizeDay(*day)
		}
		if cat != nil {
			rec.Category = ParseCategory(*cat)
		} else {
			rec.Category = CategoryOther
		}
		sevVal := 0
		if sev != nil {
			sevVal = *sev
		}
		rec.Severity = SeverityOrDefault(rec.Category, sevVal)
		if source != nil {
			rec.Source = *source
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "incident: iterate postgres rows")
	}
	return records, nil
}
