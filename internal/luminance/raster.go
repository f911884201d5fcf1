package luminance

import (
	"bufio"
	"image"
	"image/color"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/image/tiff"
)

// WorldTIFF samples a single-band grayscale TIFF georeferenced by an ESRI
// world file (.tfw). The whole band is decoded once at load; sampling is a
// nearest-pixel lookup.
type WorldTIFF struct {
	img     image.Image
	bounds  image.Rectangle
	originX float64 // center of the top-left pixel
	originY float64
	pixelW  float64
	pixelH  float64 // negative: rows run north to south
	scale   float64 // nW/cm²/sr per digital number
	nodata  float64
}

// OpenWorldTIFF loads a TIFF plus its world file. scale converts raw pixel
// values to nW/cm²/sr (1.0 for pre-calibrated exports); nodata pixels sample
// as misses.
func OpenWorldTIFF(tiffPath, worldPath string, scale, nodata float64) (*WorldTIFF, error) {
	f, err := os.Open(tiffPath)
	if err != nil {
		return nil, eris.Wrapf(err, "luminance: open raster %s", tiffPath)
	}
	defer func() { _ = f.Close() }()

	img, err := tiff.Decode(f)
	if err != nil {
		return nil, eris.Wrapf(err, "luminance: decode raster %s", tiffPath)
	}

	params, err := readWorldFile(worldPath)
	if err != nil {
		return nil, err
	}
	if params[0] == 0 || params[3] == 0 {
		return nil, eris.Errorf("luminance: world file %s has zero pixel size", worldPath)
	}
	if scale <= 0 {
		scale = 1.0
	}

	w := &WorldTIFF{
		img:     img,
		bounds:  img.Bounds(),
		pixelW:  params[0],
		pixelH:  params[3],
		originX: params[4],
		originY: params[5],
		scale:   scale,
		nodata:  nodata,
	}
	zap.L().Info("luminance: raster loaded",
		zap.String("path", tiffPath),
		zap.Int("width", w.bounds.Dx()),
		zap.Int("height", w.bounds.Dy()),
	)
	return w, nil
}

// Sample returns the luminance at the pixel containing the coordinate, or
// false outside coverage or on a nodata pixel.
func (w *WorldTIFF) Sample(lat, lon float64) (float64, bool) {
	col := int(math.Round((lon - w.originX) / w.pixelW))
	row := int(math.Round((lat - w.originY) / w.pixelH))
	if col < 0 || row < 0 || col >= w.bounds.Dx() || row >= w.bounds.Dy() {
		return 0, false
	}

	px := w.img.At(w.bounds.Min.X+col, w.bounds.Min.Y+row)
	dn := float64(color.Gray16Model.Convert(px).(color.Gray16).Y)
	if w.nodata != 0 && math.Abs(dn-w.nodata) < 1e-3 {
		return 0, false
	}
	return dn * w.scale, true
}

// readWorldFile parses the six-line affine transform of a .tfw sidecar.
func readWorldFile(path string) ([6]float64, error) {
	var params [6]float64

	f, err := os.Open(path)
	if err != nil {
		return params, eris.Wrapf(err, "luminance: open world file %s", path)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for i := 0; i < 6; i++ {
		if !scanner.Scan() {
			return params, eris.Errorf("luminance: world file %s has %d lines, want 6", path, i)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(scanner.Text()), 64)
		if err != nil {
			return params, eris.Wrapf(err, "luminance: world file %s line %d", path, i+1)
		}
		params[i] = v
	}
	return params, nil
}

// ASCIIGrid samples an ESRI ASCII grid (.asc), the plain-text raster format
// used for clipped luminance extracts.
type ASCIIGrid struct {
	cols, rows int
	xllCenter  float64
	yllCenter  float64
	cellSize   float64
	nodata     float64
	values     []float64 // row-major, first row northernmost

	xIsCorner, yIsCorner bool
}

// OpenASCIIGrid parses an .asc raster into memory.
func OpenASCIIGrid(path string) (*ASCIIGrid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "luminance: open grid %s", path)
	}
	defer func() { _ = f.Close() }()

	g := &ASCIIGrid{nodata: -9999}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	headerDone := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		if !headerDone {
			key := strings.ToLower(fields[0])
			if isGridHeaderKey(key) {
				if len(fields) < 2 {
					return nil, eris.Errorf("luminance: grid %s header %q missing value", path, key)
				}
				v, err := strconv.ParseFloat(fields[1], 64)
				if err != nil {
					return nil, eris.Wrapf(err, "luminance: grid %s header %q", path, key)
				}
				g.setHeader(key, v)
				continue
			}
			if g.cols == 0 || g.rows == 0 || g.cellSize == 0 {
				return nil, eris.Errorf("luminance: grid %s data before complete header", path)
			}
			// Corner registration shifts to cell-center once cellsize is known.
			if g.xIsCorner {
				g.xllCenter += 0.5 * g.cellSize
			}
			if g.yIsCorner {
				g.yllCenter += 0.5 * g.cellSize
			}
			headerDone = true
		}

		for _, fv := range fields {
			v, err := strconv.ParseFloat(fv, 64)
			if err != nil {
				return nil, eris.Wrapf(err, "luminance: grid %s bad cell value", path)
			}
			g.values = append(g.values, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "luminance: read grid %s", path)
	}
	if len(g.values) != g.cols*g.rows {
		return nil, eris.Errorf("luminance: grid %s has %d cells, want %d",
			path, len(g.values), g.cols*g.rows)
	}
	return g, nil
}

func isGridHeaderKey(key string) bool {
	switch key {
	case "ncols", "nrows", "xllcorner", "yllcorner", "xllcenter", "yllcenter",
		"cellsize", "nodata_value":
		return true
	}
	return false
}

func (g *ASCIIGrid) setHeader(key string, v float64) {
	switch key {
	case "ncols":
		g.cols = int(v)
	case "nrows":
		g.rows = int(v)
	case "xllcorner":
		g.xllCenter = v
		g.xIsCorner = true
	case "xllcenter":
		g.xllCenter = v
	case "yllcorner":
		g.yllCenter = v
		g.yIsCorner = true
	case "yllcenter":
		g.yllCenter = v
	case "cellsize":
		g.cellSize = v
	case "nodata_value":
		g.nodata = v
	}
}

// Sample returns the cell value at the coordinate, or false outside the grid
// or on a nodata cell.
func (g *ASCIIGrid) Sample(lat, lon float64) (float64, bool) {
	col := int(math.Round((lon - g.xllCenter) / g.cellSize))
	// Row 0 is the northernmost row; yllCenter is the southernmost.
	row := (g.rows - 1) - int(math.Round((lat-g.yllCenter)/g.cellSize))
	if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
		return 0, false
	}
	v := g.values[row*g.cols+col]
	if math.Abs(v-g.nodata) < 1e-9 {
		return 0, false
	}
	return v, true
}
