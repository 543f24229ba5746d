package charts

import (
	"fmt"
	"io"
	"math"

	"github.com/forest-guardian/ndvi-dashboard/internal/samples"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	Green = "008000"

	ScatterTitle = "Scatter NDVI by Location"
	BarLabel     = "NDVI"

	defaultWidth  = 700
	defaultHeight = 400
)

type XY struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ScatterChart struct {
	Title      string `json:"title"`
	XAxisTitle string `json:"x_axis_title"`
	YAxisTitle string `json:"y_axis_title"`
	Color      string `json:"color"`
	Points     []XY   `json:"points"`
}

type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type BarChart struct {
	Title string `json:"title"`
	Color string `json:"color"`
	Bars  []Bar  `json:"bars"`
}

// Scatter plots latitude against NDVI, one marker per point.
func Scatter(points []samples.Point) ScatterChart {
	xy := make([]XY, len(points))
	for i, p := range points {
		xy[i] = XY{X: p.Latitude, Y: p.NDVI}
	}
	return ScatterChart{
		Title:      ScatterTitle,
		XAxisTitle: "Latitude",
		YAxisTitle: "NDVI",
		Color:      Green,
		Points:     xy,
	}
}

// BarTitle formats the selected value to two decimals.
func BarTitle(value float64) string {
	return fmt.Sprintf("NDVI of selected point: %.2f", value)
}

// SelectedBar renders a single bar for the selected point.
func SelectedBar(point samples.Point) BarChart {
	return BarChart{
		Title: BarTitle(point.NDVI),
		Color: Green,
		Bars:  []Bar{{Label: BarLabel, Value: point.NDVI}},
	}
}

// paddedRange widens [lo, hi] so go-chart never sees an empty range.
func paddedRange(lo, hi float64) *chart.ContinuousRange {
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = math.Max(math.Abs(lo)*0.01, 0.01)
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 0,
		StrokeColor: drawing.ColorTransparent,
		DotWidth:    6,
		DotColor:    col,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (c ScatterChart) RenderPNG(w io.Writer) error {
	if len(c.Points) == 0 {
		return fmt.Errorf("scatter chart has no points")
	}

	xs := make([]float64, len(c.Points))
	ys := make([]float64, len(c.Points))
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for i, p := range c.Points {
		if !finite(p.X) || !finite(p.Y) {
			return fmt.Errorf("scatter point %d is not finite: (%v, %v)", i, p.X, p.Y)
		}
		xs[i], ys[i] = p.X, p.Y
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	// go-chart needs at least two values per series
	if len(xs) == 1 {
		xs = append(xs, xs[0])
		ys = append(ys, ys[0])
	}

	ch := chart.Chart{
		Title:      c.Title,
		Width:      defaultWidth,
		Height:     defaultHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: c.XAxisTitle, Range: paddedRange(minX, maxX)},
		YAxis:      chart.YAxis{Name: c.YAxisTitle, Range: paddedRange(minY, maxY)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    c.YAxisTitle,
				XValues: xs,
				YValues: ys,
				Style:   pointStyle(drawing.ColorFromHex(c.Color)),
			},
		},
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render scatter chart: %w", err)
	}
	return nil
}

func (c BarChart) RenderPNG(w io.Writer) error {
	if len(c.Bars) == 0 {
		return fmt.Errorf("bar chart has no bars")
	}

	lo, hi := 0.0, 1.0
	values := make([]chart.Value, len(c.Bars))
	for i, b := range c.Bars {
		// go-chart never terminates on a NaN range
		if !finite(b.Value) {
			return fmt.Errorf("bar %q is not finite: %v", b.Label, b.Value)
		}
		lo, hi = math.Min(lo, b.Value), math.Max(hi, b.Value)
		values[i] = chart.Value{
			Label: b.Label,
			Value: b.Value,
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex(c.Color),
				StrokeColor: drawing.ColorFromHex(c.Color),
			},
		}
	}

	ch := chart.BarChart{
		Title:      c.Title,
		Width:      defaultWidth,
		Height:     defaultHeight,
		BarWidth:   120,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: lo, Max: hi}},
		Bars:       values,
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render bar chart: %w", err)
	}
	return nil
}
