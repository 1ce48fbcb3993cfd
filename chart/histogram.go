// chart/histogram.go
package chart

import (
	"bytes"
	"fmt"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/gewnthar/flightbrief/models"
)

// ContentID is the inline attachment ID the email templates reference as
// cid:flight_chart.
const ContentID = "flight_chart"

const (
	chartWidth  = 800
	chartHeight = 400
	barSpacing  = 4
)

var barColor = drawing.ColorFromHex("1f77b4")

// RenderHistogram draws one bar per window, oldest on the left, using the
// windows' sparse labels on the x axis, and returns PNG bytes.
func RenderHistogram(title string, res models.AggregationResult) ([]byte, error) {
	if len(res.Windows) == 0 {
		return nil, fmt.Errorf("no windows to render")
	}

	bars := make([]gochart.Value, 0, len(res.Windows))
	for _, w := range res.Windows {
		bars = append(bars, gochart.Value{
			Value: float64(w.Count),
			Label: w.Label,
			Style: gochart.Style{FillColor: barColor, StrokeColor: barColor},
		})
	}

	barWidth := (chartWidth-100)/len(bars) - barSpacing
	if barWidth < 2 {
		barWidth = 2
	}

	// A fixed range keeps all-zero histograms renderable.
	top := float64(res.MaxCount())
	if top < 1 {
		top = 1
	}

	graph := gochart.BarChart{
		Title:      title,
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10}},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: 0, Max: top},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render chart %q: %w", title, err)
	}
	return buf.Bytes(), nil
}
