package dashboard

import (
	"errors"
	"fmt"
	"image"

	"github.com/forest-guardian/ndvi-dashboard/internal/charts"
	"github.com/forest-guardian/ndvi-dashboard/internal/geo"
	"github.com/forest-guardian/ndvi-dashboard/internal/overlay"
	"github.com/forest-guardian/ndvi-dashboard/internal/properties"
	"github.com/forest-guardian/ndvi-dashboard/internal/raster"
	"github.com/forest-guardian/ndvi-dashboard/internal/samples"
	"github.com/paulmach/orb/geojson"
)

var ErrSelection = errors.New("selected point out of range")

const (
	DefaultZoom    = 10
	DefaultTiles   = "OpenStreetMap"
	DefaultOpacity = 0.6
)

type Options struct {
	Zoom    int
	Tiles   string
	Opacity float64
	// Bounds is properties.BoundsFull or properties.BoundsWindow.
	Bounds string
}

func DefaultOptions() Options {
	return Options{Zoom: DefaultZoom, Tiles: DefaultTiles, Opacity: DefaultOpacity, Bounds: properties.BoundsFull}
}

func OptionsFromProperties(p *properties.Properties) Options {
	return Options{
		Zoom:    p.Map.Zoom,
		Tiles:   p.Map.Tiles,
		Opacity: p.Overlay.Opacity,
		Bounds:  p.Overlay.Bounds,
	}
}

type Center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type ImageOverlay struct {
	// Bounds is [[south, west], [north, east]].
	Bounds  [2][2]float64 `json:"bounds"`
	Opacity float64       `json:"opacity"`
	Width   int           `json:"width"`
	Height  int           `json:"height"`
}

type Map struct {
	Center  Center       `json:"center"`
	Zoom    int          `json:"zoom"`
	Tiles   string       `json:"tiles"`
	Overlay ImageOverlay `json:"overlay"`
}

// Dashboard is the static part of a render: everything that does not depend
// on the selection.
type Dashboard struct {
	Window  *raster.Window
	Bounds  geo.Bounds
	Points  []samples.Point
	Map     Map
	Scatter charts.ScatterChart
	Stats   raster.Stats
}

// Build centres the map on the raster bounds and prepares the overlay,
// marker and scatter layers.
func Build(w *raster.Window, bounds geo.Bounds, points []samples.Point, opts Options) (*Dashboard, error) {
	if w == nil {
		return nil, fmt.Errorf("no raster window to render")
	}
	if len(points) == 0 {
		return nil, samples.ErrEmpty
	}

	overlayBounds := bounds
	if opts.Bounds == properties.BoundsWindow {
		overlayBounds = w.Footprint()
	}

	center := bounds.Center()
	return &Dashboard{
		Window: w,
		Bounds: bounds,
		Points: points,
		Map: Map{
			Center: Center{Lat: center.Lat(), Lon: center.Lon()},
			Zoom:   opts.Zoom,
			Tiles:  opts.Tiles,
			Overlay: ImageOverlay{
				Bounds:  overlayBounds.LeafletBounds(),
				Opacity: opts.Opacity,
				Width:   w.Cols,
				Height:  w.Rows,
			},
		},
		Scatter: charts.Scatter(points),
		Stats:   w.Stats(),
	}, nil
}

func (d *Dashboard) OverlayImage() image.Image {
	return overlay.Render(d.Window)
}

// Markers returns the cluster layer: coordinates only, no NDVI values.
func (d *Dashboard) Markers() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range d.Points {
		fc.Append(geojson.NewFeature(p.Location()))
	}
	return fc
}

// Render builds the bar chart for the point at index.
func (d *Dashboard) Render(index int) (charts.BarChart, error) {
	if index < 0 || index >= len(d.Points) {
		return charts.BarChart{}, fmt.Errorf("%w: %d not in [0,%d)", ErrSelection, index, len(d.Points))
	}
	return charts.SelectedBar(d.Points[index]), nil
}
