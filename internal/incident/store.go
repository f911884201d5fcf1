package incident

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/campuswatch/internal/geo"
)

// Feed supplies incident records for a bounding region. Implementations are
// format-agnostic: CSV file, SQLite database, Postgres. The store treats the
// result as a read-only snapshot; refresh cadence (TTL) is owned by the
// caller.
type Feed interface {
	LoadRegion(ctx context.Context, box geo.BBox) ([]Record, error)
}

// Store holds a loaded snapshot of incident records and answers radius
// queries against it. It is immutable after construction and safe for
// concurrent readers.
type Store struct {
	records []Record
}

// NewStore builds a store over a record snapshot.
func NewStore(records []Record) *Store {
	return &Store{records: records}
}

// FromFeed loads a region snapshot from a feed into a new store. An empty
// feed is not an error: scoring degrades to the zero-incident floor.
func FromFeed(ctx context.Context, feed Feed, box geo.BBox) (*Store, error) {
	records, err := feed.LoadRegion(ctx, box)
	if err != nil {
		return nil, eris.Wrap(err, "incident: load region")
	}
	located := 0
	for _, r := range records {
		if r.HasLocation {
			located++
		}
	}
	zap.L().Info("incident: loaded region snapshot",
		zap.Int("records", len(records)),
		zap.Int("located", located),
	)
	return NewStore(records), nil
}

// Len returns the total number of records in the snapshot.
func (s *Store) Len() int { return len(s.records) }

// All returns the full snapshot. Callers must not mutate the result.
func (s *Store) All() []Record { return s.records }

// IncidentsNear returns all records within radiusMiles of the point. A cheap
// bounding-box pass rejects the bulk of the snapshot before the exact
// haversine filter runs; records without coordinates are skipped.
func (s *Store) IncidentsNear(lat, lon, radiusMiles float64) ([]Record, error) {
	if err := geo.ValidateCoordinate(lat, lon); err != nil {
		return nil, err
	}
	if err := geo.ValidateRadius(radiusMiles); err != nil {
		return nil, err
	}

	box := geo.BoxAround(lat, lon, radiusMiles)
	var out []Record
	for _, r := range s.records {
		if !r.HasLocation || !box.Contains(r.Lat, r.Lon) {
			continue
		}
		if geo.Haversine(lat, lon, r.Lat, r.Lon) <= radiusMiles {
			out = append(out, r)
		}
	}
	return out, nil
}

// InRegion returns records with coordinates inside the box. Used by the
// temporal heatmap, which buckets the whole campus rather than a radius.
func (s *Store) InRegion(box geo.BBox) []Record {
	var out []Record
	for _, r := range s.records {
		if r.HasLocation && box.Contains(r.Lat, r.Lon) {
			out = append(out, r)
		}
	}
	return out
}
