package export

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ProgressPoint is one progress sample of a plan execution.
type ProgressPoint struct {
	// Elapsed is the number of seconds since the plan started.
	Elapsed  float64 `json:"elapsed"`
	Progress float64 `json:"progress"`
	ETA      float64 `json:"eta"`
	Maneuver string  `json:"maneuver,omitempty"`
}

// WriteProgressChart renders progress and ETA against elapsed time as an
// HTML page. Unknown values (negative) are left as gaps.
func WriteProgressChart(w io.Writer, title string, points []ProgressPoint) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: true}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Elapsed (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Progress (%)", Min: 0, Max: 100}),
	)
	line.ExtendYAxis(opts.YAxis{Name: "ETA (s)"})

	xAxis := make([]string, len(points))
	progress := make([]opts.LineData, len(points))
	eta := make([]opts.LineData, len(points))
	for i, p := range points {
		xAxis[i] = fmt.Sprintf("%.0f", p.Elapsed)
		progress[i] = lineValue(p.Progress, p.Maneuver)
		eta[i] = lineValue(p.ETA, p.Maneuver)
	}
	line.SetXAxis(xAxis).
		AddSeries("Progress", progress).
		AddSeries("ETA", eta, charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}))

	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %v", err)
	}
	return nil
}

// ProgressChartHTML returns the rendered chart as a string.
func ProgressChartHTML(title string, points []ProgressPoint) (string, error) {
	var buf bytes.Buffer
	if err := WriteProgressChart(&buf, title, points); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func lineValue(v float64, name string) opts.LineData {
	if v < 0 || math.IsNaN(v) {
		return opts.LineData{Value: "-", Name: name}
	}
	return opts.LineData{Value: math.Round(v*100) / 100, Name: name}
}
