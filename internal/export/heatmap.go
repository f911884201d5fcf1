package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/campuswatch/internal/scan"
)

// ExportHeatmapHTML renders the temporal heatmap and location risk chart
// as a standalone HTML dashboard.
func (e *Exporter) ExportHeatmapHTML(report *scan.CampusReport, filename string) (string, error) {
	path := filepath.Join(e.dir, filename)

	page := components.NewPage()
	page.PageTitle = "Campus Safety Heatmap"
	page.AddCharts(
		hourChart(report.Temporal),
		dayChart(report.Temporal),
		locationChart(report.AllLocations),
	)

	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrap(err, "export: create heatmap html")
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return "", eris.Wrap(err, "export: render heatmap")
	}

	zap.L().Info("export: heatmap html written", zap.String("path", path))
	return path, nil
}

func hourChart(hm *scan.TemporalHeatmap) *charts.Bar {
	bar := charts.NewBar()
	subtitle := ""
	if hm != nil {
		subtitle = hm.Insight
	}
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1100px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Incidents by Hour of Day", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	var labels []string
	var data []opts.BarData
	if hm != nil {
		for _, h := range hm.ByHour {
			labels = append(labels, h.Label)
			data = append(data, opts.BarData{Value: h.Count})
		}
	}
	bar.SetXAxis(labels).AddSeries("incidents", data)
	return bar
}

func dayChart(hm *scan.TemporalHeatmap) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1100px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Incidents by Day of Week"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	var labels []string
	var data []opts.BarData
	if hm != nil {
		for _, d := range hm.ByDay {
			labels = append(labels, d.Day)
			data = append(data, opts.BarData{Value: d.Count})
		}
	}
	bar.SetXAxis(labels).AddSeries("incidents", data)
	return bar
}

func locationChart(locations []scan.ScoredLocation) *charts.Scatter {
	maxScore := 1.0
	data := make([]opts.ScatterData, 0, len(locations))
	for _, loc := range locations {
		if loc.RiskScore > maxScore {
			maxScore = loc.RiskScore
		}
		data = append(data, opts.ScatterData{
			Name:  loc.LocationName,
			Value: []interface{}{loc.Lon, loc.Lat, loc.RiskScore},
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Campus Risk Map",
			Subtitle: fmt.Sprintf("locations=%d", len(data)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Longitude", Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Latitude", Scale: opts.Bool(true)}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxScore),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#35b779", "#fde725", "#fd9668", "#d7191c"}},
		}),
	)
	scatter.AddSeries("risk", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 14}))
	return scatter
}
