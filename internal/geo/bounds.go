package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Bounds is a geographic bounding box in the raster's coordinate system.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// FromGeoTransform computes the bounds covered by width x height pixels
// starting at the pixel origin of a GDAL geotransform.
func FromGeoTransform(gt [6]float64, width, height int) Bounds {
	xs := [4]float64{}
	ys := [4]float64{}
	corners := [4][2]float64{{0, 0}, {float64(width), 0}, {0, float64(height)}, {float64(width), float64(height)}}
	for i, c := range corners {
		xs[i] = gt[0] + c[0]*gt[1] + c[1]*gt[2]
		ys[i] = gt[3] + c[0]*gt[4] + c[1]*gt[5]
	}

	b := Bounds{North: ys[0], South: ys[0], East: xs[0], West: xs[0]}
	for i := 1; i < 4; i++ {
		b.West = math.Min(b.West, xs[i])
		b.East = math.Max(b.East, xs[i])
		b.South = math.Min(b.South, ys[i])
		b.North = math.Max(b.North, ys[i])
	}
	return b
}

// Center returns the exact average of the opposite edges.
func (b Bounds) Center() orb.Point {
	return orb.Point{(b.East + b.West) / 2, (b.North + b.South) / 2}
}

func (b Bounds) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.West, b.South}, Max: orb.Point{b.East, b.North}}
}

// LeafletBounds returns [[south, west], [north, east]].
func (b Bounds) LeafletBounds() [2][2]float64 {
	return [2][2]float64{{b.South, b.West}, {b.North, b.East}}
}

func (b Bounds) Contains(lat, lon float64) bool {
	return b.Bound().Contains(orb.Point{lon, lat})
}
