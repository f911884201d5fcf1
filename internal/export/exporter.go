// Package export writes campus scan reports in the formats administrators
// attach to budget proposals: JSON, CSV, XLSX, a text executive summary,
// and an HTML heatmap dashboard.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/campuswatch/internal/scan"
)

// Exporter writes report artifacts under a single output directory.
type Exporter struct {
	dir string
}

// NewExporter creates the output directory if needed.
func NewExporter(dir string) (*Exporter, error) {
	if dir == "" {
		dir = "reports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "export: create output dir")
	}
	return &Exporter{dir: dir}, nil
}

// Dir returns the output directory.
func (e *Exporter) Dir() string { return e.dir }

func (e *Exporter) stamp() string {
	return time.Now().Format("20060102_150405")
}

// Bundle lists the artifact paths produced by ExportAll.
type Bundle struct {
	JSON             string `json:"json"`
	InterventionsCSV string `json:"interventions_csv"`
	RiskScoresCSV    string `json:"risk_scores_csv"`
	Workbook         string `json:"workbook"`
	Summary          string `json:"summary"`
	Heatmap          string `json:"heatmap"`
}

// ExportAll writes every format for the report. Individual format failures
// abort the bundle; partial bundles are worse than a clean error.
func (e *Exporter) ExportAll(report *scan.CampusReport) (*Bundle, error) {
	if report == nil {
		return nil, eris.New("export: nil report")
	}
	ts := e.stamp()

	b := &Bundle{}
	var err error
	if b.JSON, err = e.ExportJSON(report, fmt.Sprintf("campus_report_%s.json", ts)); err != nil {
		return nil, err
	}
	if b.InterventionsCSV, err = e.ExportInterventionsCSV(report, fmt.Sprintf("interventions_%s.csv", ts)); err != nil {
		return nil, err
	}
	if b.RiskScoresCSV, err = e.ExportRiskScoresCSV(report, fmt.Sprintf("risk_scores_%s.csv", ts)); err != nil {
		return nil, err
	}
	if b.Workbook, err = e.ExportWorkbook(report, fmt.Sprintf("campus_report_%s.xlsx", ts)); err != nil {
		return nil, err
	}
	if b.Summary, err = e.ExportExecutiveSummary(report, fmt.Sprintf("executive_summary_%s.txt", ts)); err != nil {
		return nil, err
	}
	if b.Heatmap, err = e.ExportHeatmapHTML(report, fmt.Sprintf("heatmap_%s.html", ts)); err != nil {
		return nil, err
	}

	zap.L().Info("export: bundle complete",
		zap.String("dir", e.dir),
		zap.String("report_id", report.ReportID),
	)
	return b, nil
}

// ExportJSON writes the full report as indented JSON.
func (e *Exporter) ExportJSON(report *scan.CampusReport, filename string) (string, error) {
	path := filepath.Join(e.dir, filename)
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "export: marshal report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrap(err, "export: write json")
	}
	zap.L().Info("export: json written", zap.String("path", path))
	return path, nil
}
