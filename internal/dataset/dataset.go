// Package dataset fetches the external datasets the analysis runs on:
// TIGER/Line road shapefiles over HTTP and VIIRS nighttime-lights rasters
// over HTTP or FTP. Archives are cached on disk and re-extracted cheaply.
package dataset

import (
	"archive/zip"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultRoadsURL is the TIGER/Line roads archive for Boone County, MO.
const DefaultRoadsURL = "https://www2.census.gov/geo/tiger/TIGER2025/ROADS/tl_2025_29019_roads.zip"

// FetchRoads downloads and extracts a TIGER roads archive, returning the
// path to the extracted .shp file. A non-empty cached ZIP skips the
// network round trip.
func FetchRoads(ctx context.Context, url, destDir string) (string, error) {
	return fetchArchive(ctx, url, destDir, ".shp")
}

// FetchLuminanceRaster downloads a VIIRS nighttime-lights raster. FTP URLs
// go through the FTP fetcher; everything else is plain HTTP. ZIP archives
// are extracted and the .tif inside returned.
func FetchLuminanceRaster(ctx context.Context, url, destDir string) (string, error) {
	if strings.HasPrefix(url, "ftp://") {
		return fetchRasterFTP(ctx, url, destDir)
	}
	if strings.HasSuffix(url, ".zip") {
		return fetchArchive(ctx, url, destDir, ".tif")
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrap(err, "dataset: create dest dir")
	}
	dest := filepath.Join(destDir, fileNameFromURL(url))
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		zap.L().Debug("dataset: raster cached", zap.String("path", dest))
		return dest, nil
	}
	if err := downloadHTTP(ctx, url, dest); err != nil {
		return "", eris.Wrap(err, "dataset: download raster")
	}
	return dest, nil
}

func fetchArchive(ctx context.Context, url, destDir, wantExt string) (string, error) {
	log := zap.L().With(
		zap.String("component", "dataset"),
		zap.String("url", url),
	)

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrap(err, "dataset: create dest dir")
	}

	zipName := fileNameFromURL(url)
	zipPath := filepath.Join(destDir, zipName)
	if info, err := os.Stat(zipPath); err == nil && info.Size() > 0 {
		log.Debug("dataset: archive cached", zap.String("path", zipPath))
	} else {
		log.Info("dataset: downloading archive")
		if err := downloadHTTP(ctx, url, zipPath); err != nil {
			return "", eris.Wrap(err, "dataset: download archive")
		}
	}

	extractDir := filepath.Join(destDir, strings.TrimSuffix(zipName, ".zip"))
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return "", eris.Wrap(err, "dataset: create extract dir")
	}
	if err := extractZIP(zipPath, extractDir); err != nil {
		return "", eris.Wrap(err, "dataset: extract archive")
	}

	path, err := findFileByExt(extractDir, wantExt)
	if err != nil {
		return "", eris.Wrapf(err, "dataset: locate %s", wantExt)
	}
	return path, nil
}

func fileNameFromURL(url string) string {
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

func downloadHTTP(ctx context.Context, url, dest string) error {
	client := &http.Client{Timeout: 10 * time.Minute}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrap(err, "build request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return eris.Wrap(err, "download")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("download returned status %d", resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return eris.Wrap(err, "create file")
	}
	defer f.Close() //nolint:errcheck

	if _, err := io.Copy(f, resp.Body); err != nil {
		return eris.Wrap(err, "write file")
	}
	return nil
}

func extractZIP(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return eris.Wrap(err, "open zip")
	}
	defer r.Close() //nolint:errcheck

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		// Entries are flattened; archive paths are untrusted.
		destPath := filepath.Join(destDir, filepath.Base(f.Name))

		rc, err := f.Open()
		if err != nil {
			return eris.Wrapf(err, "open zip entry %s", f.Name)
		}

		outFile, err := os.Create(destPath)
		if err != nil {
			_ = rc.Close()
			return eris.Wrapf(err, "create %s", destPath)
		}

		if _, err := io.Copy(outFile, rc); err != nil {
			_ = outFile.Close()
			_ = rc.Close()
			return eris.Wrapf(err, "extract %s", f.Name)
		}
		_ = outFile.Close()
		_ = rc.Close()
	}
	return nil
}

func findFileByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "read directory")
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("no %s file found in %s", ext, dir)
}
