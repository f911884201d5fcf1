package sightline

import (
	"context"
	"math"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	geopkg "github.com/sells-group/campuswatch/internal/geo"
)

// roadLine is one polyline part of a road feature, held in memory with a
// precomputed bounding box for fast radius queries.
type roadLine struct {
	name   string
	code   string
	line   *geom.LineString // XY as lon, lat
	bounds geopkg.BBox
}

// ShapefileSource serves road segments from a TIGER/Line roads shapefile
// loaded fully into memory at construction.
type ShapefileSource struct {
	lines []roadLine
}

// OpenShapefile reads the roads shapefile at path, keeping features that
// intersect box. The FULLNAME and MTFCC attributes drive naming and
// classification.
func OpenShapefile(path string, box geopkg.BBox) (*ShapefileSource, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "sightline: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}
	nameIdx, hasName := fieldIdx["fullname"]
	codeIdx, hasCode := fieldIdx["mtfcc"]

	src := &ShapefileSource{}
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		pl, ok := shape.(*shp.PolyLine)
		if !ok || pl == nil || pl.NumParts == 0 || len(pl.Points) == 0 {
			skipped++
			continue
		}

		name := "Unnamed"
		if hasName {
			if v := attribute(reader, nameIdx); v != "" {
				name = v
			}
		}
		var code string
		if hasCode {
			code = attribute(reader, codeIdx)
		}

		for _, rl := range splitParts(pl, name, code) {
			if boxesOverlap(rl.bounds, box) {
				src.lines = append(src.lines, rl)
			}
		}
	}
	if skipped > 0 {
		zap.L().Debug("sightline: skipped non-polyline shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	zap.L().Info("sightline: loaded road shapefile",
		zap.String("path", path),
		zap.Int("segments", len(src.lines)),
	)
	return src, nil
}

func attribute(reader *shp.Reader, idx int) string {
	return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
}

// splitParts expands one shapefile polyline into per-part roadLines.
func splitParts(pl *shp.PolyLine, name, code string) []roadLine {
	out := make([]roadLine, 0, pl.NumParts)
	for i := int32(0); i < pl.NumParts; i++ {
		start := pl.Parts[i]
		end := int32(len(pl.Points))
		if i+1 < pl.NumParts {
			end = pl.Parts[i+1]
		}
		if end-start < 2 {
			continue
		}

		flat := make([]float64, 0, (end-start)*2)
		b := geopkg.BBox{MinLat: 90, MaxLat: -90, MinLon: 180, MaxLon: -180}
		for j := start; j < end; j++ {
			p := pl.Points[j]
			flat = append(flat, p.X, p.Y)
			b.MinLat = math.Min(b.MinLat, p.Y)
			b.MaxLat = math.Max(b.MaxLat, p.Y)
			b.MinLon = math.Min(b.MinLon, p.X)
			b.MaxLon = math.Max(b.MaxLon, p.X)
		}
		out = append(out, roadLine{
			name:   name,
			code:   code,
			line:   geom.NewLineStringFlat(geom.XY, flat),
			bounds: b,
		})
	}
	return out
}

func boxesOverlap(a, b geopkg.BBox) bool {
	return a.MinLat <= b.MaxLat && a.MaxLat >= b.MinLat &&
		a.MinLon <= b.MaxLon && a.MaxLon >= b.MinLon
}

// SegmentsNear returns classified segments within radiusFt of the point.
func (s *ShapefileSource) SegmentsNear(_ context.Context, lat, lon, radiusFt float64) ([]Segment, error) {
	radiusMiles := radiusFt / geopkg.FeetPerMile
	query := geopkg.BoxAround(lat, lon, radiusMiles)

	var out []Segment
	for _, rl := range s.lines {
		if !boxesOverlap(rl.bounds, query) {
			continue
		}
		distFt := distanceToLineFt(lat, lon, rl.line)
		if distFt > radiusFt {
			continue
		}
		cls := Classify(rl.code)
		out = append(out, Segment{
			Name:         rl.name,
			Code:         rl.code,
			Label:        cls.Label,
			Surveillance: cls.Surveillance,
			WidthFt:      cls.WidthFt,
			DistanceFt:   math.Round(distFt),
		})
	}
	return out, nil
}

// distanceToLineFt computes the distance from a point to a polyline in feet
// using a local equirectangular projection. Accurate enough at the few
// hundred feet this package queries.
func distanceToLineFt(lat, lon float64, line *geom.LineString) float64 {
	coords := line.FlatCoords()
	cosLat := math.Cos(lat * math.Pi / 180)

	px, py := 0.0, 0.0
	best := math.MaxFloat64
	for i := 0; i+3 < len(coords); i += 2 {
		ax := (coords[i] - lon) * cosLat
		ay := coords[i+1] - lat
		bx := (coords[i+2] - lon) * cosLat
		by := coords[i+3] - lat
		d := pointSegmentDist(px, py, ax, ay, bx, by)
		if d < best {
			best = d
		}
	}
	// degrees to feet
	return best * 69 * geopkg.FeetPerMile
}

func pointSegmentDist(px, py, ax, ay, bx, by float64) float64 {
	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	t := 0.0
	if lenSq > 0 {
		t = ((px-ax)*dx + (py-ay)*dy) / lenSq
		t = math.Max(0, math.Min(1, t))
	}
	cx, cy := ax+t*dx, ay+t*dy
	return math.Hypot(px-cx, py-cy)
}
