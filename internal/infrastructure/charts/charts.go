// Package charts renders dashboard charts as PNG images.
package charts

import (
	"fmt"
	"io"
	"math"

	"github.com/groweasy/analytics/internal/domain"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	defaultWidth  = 800
	defaultHeight = 500
	barWidth      = 40
	barSpacing    = 16
)

// Renderer draws charts with go-chart
type Renderer struct {
	Width  int
	Height int
}

// NewRenderer creates a renderer with the default canvas size
func NewRenderer() *Renderer {
	return &Renderer{Width: defaultWidth, Height: defaultHeight}
}

// pointStyle renders points only, no connecting line
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		StrokeColor: drawing.ColorTransparent,
		DotWidth:    4,
		DotColor:    col,
	}
}

// Scatter plots one point series per cluster label
func (r *Renderer) Scatter(w io.Writer, spec domain.ScatterSpec) error {
	if len(spec.X) == 0 || len(spec.X) != len(spec.Y) || len(spec.X) != len(spec.Labels) {
		return domain.ErrNoChartData
	}

	series := make([]chart.Series, 0, spec.K)
	for c := 0; c < spec.K; c++ {
		var xs, ys []float64
		for i, label := range spec.Labels {
			if label != c || math.IsNaN(spec.X[i]) || math.IsNaN(spec.Y[i]) {
				continue
			}
			xs = append(xs, spec.X[i])
			ys = append(ys, spec.Y[i])
		}
		if len(xs) == 0 {
			continue
		}
		series = append(series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("Cluster %d", c),
			XValues: xs,
			YValues: ys,
			Style:   pointStyle(chart.GetDefaultColor(c)),
		})
	}
	if len(series) == 0 {
		return domain.ErrNoChartData
	}

	ch := chart.Chart{
		Title:  spec.Title,
		Width:  r.Width,
		Height: r.Height,
		XAxis:  chart.XAxis{Name: spec.XLabel},
		YAxis:  chart.YAxis{Name: spec.YLabel},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render scatter: %w", err)
	}
	return nil
}

// Bars draws a single-series bar chart. The y range always includes zero.
func (r *Renderer) Bars(w io.Writer, spec domain.BarSpec) error {
	if len(spec.Bars) == 0 {
		return domain.ErrNoChartData
	}

	values := make([]chart.Value, len(spec.Bars))
	lo, hi := 0.0, 0.0
	for i, b := range spec.Bars {
		values[i] = chart.Value{Label: b.Label, Value: b.Value}
		lo = math.Min(lo, b.Value)
		hi = math.Max(hi, b.Value)
	}
	if hi == lo {
		hi = lo + 1
	}

	width := r.Width
	if need := len(values)*(barWidth+barSpacing) + 160; need > width {
		width = need
	}

	bc := chart.BarChart{
		Title:      spec.Title,
		Width:      width,
		Height:     r.Height,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: lo, Max: hi * 1.1}},
		Bars:       values,
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render bars: %w", err)
	}
	return nil
}
