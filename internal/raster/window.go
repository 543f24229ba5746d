package raster

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"
	"github.com/forest-guardian/ndvi-dashboard/internal/geo"
)

// DefaultMaxWindow is the largest number of rows and columns read from the origin.
const DefaultMaxWindow = 500

var (
	// ErrPath is returned when the raster file is missing or unreadable.
	ErrPath = errors.New("raster path error")
	// ErrFormat is returned when the file is not a raster or has no band 1.
	ErrFormat = errors.New("raster format error")
)

var registerOnce sync.Once

func registerDrivers() {
	registerOnce.Do(godal.RegisterAll)
}

// Window is the first Rows x Cols pixels of band 1. Cells equal to the
// band's no-data sentinel hold NaN.
type Window struct {
	Rows         int
	Cols         int
	Data         [][]float64
	NoData       float64
	HasNoData    bool
	GeoTransform [6]float64
	// RasterWidth and RasterHeight are the full source dimensions.
	RasterWidth  int
	RasterHeight int
}

type options struct {
	maxSize int
}

type Option func(*options)

// WithMaxSize caps the window at size x size pixels.
func WithMaxSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.maxSize = size
		}
	}
}

func windowSize(width, height, max int) (int, int) {
	return min(max, width), min(max, height)
}

// maskNoData replaces every value equal to nodata with NaN. A NaN sentinel
// matches cells that are already NaN, so nothing changes.
func maskNoData(data []float64, nodata float64) int {
	if math.IsNaN(nodata) {
		return 0
	}
	masked := 0
	for i, v := range data {
		if v == nodata {
			data[i] = math.NaN()
			masked++
		}
	}
	return masked
}

func errLogger() godal.ErrorHandler {
	return func(ec godal.ErrorCategory, code int, msg string) error {
		if ec <= godal.CE_Warning {
			return nil
		}
		return errors.New(msg)
	}
}

// checkPath verifies a local file can be opened. GDAL virtual file system
// paths (/vsizip/, /vsicurl/, /vsimem/, ...) are left to GDAL.
func checkPath(path string) error {
	if strings.HasPrefix(path, "/vsi") {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

// ReadWindow opens path, reads the top-left window of band 1 and returns it
// with the bounds of the whole raster.
func ReadWindow(path string, opts ...Option) (*Window, geo.Bounds, error) {
	o := options{maxSize: DefaultMaxWindow}
	for _, opt := range opts {
		opt(&o)
	}

	if err := checkPath(path); err != nil {
		return nil, geo.Bounds{}, fmt.Errorf("%w: %v", ErrPath, err)
	}

	registerDrivers()
	ds, err := godal.Open(path, godal.RasterOnly(), godal.ErrLogger(errLogger()))
	if err != nil {
		return nil, geo.Bounds{}, fmt.Errorf("%w: failed to open %s: %v", ErrFormat, path, err)
	}
	defer ds.Close()

	bands := ds.Bands()
	if len(bands) == 0 {
		return nil, geo.Bounds{}, fmt.Errorf("%w: %s has no band 1", ErrFormat, path)
	}
	band := bands[0]

	width, height := ds.Structure().SizeX, ds.Structure().SizeY
	cols, rows := windowSize(width, height, o.maxSize)

	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, geo.Bounds{}, fmt.Errorf("%w: failed to read geotransform of %s: %v", ErrFormat, path, err)
	}

	buf := make([]float64, cols*rows)
	if err := band.Read(0, 0, buf, cols, rows); err != nil {
		return nil, geo.Bounds{}, fmt.Errorf("%w: failed to read band 1 of %s: %v", ErrFormat, path, err)
	}

	nodata, hasNoData := band.NoData()
	if hasNoData {
		maskNoData(buf, nodata)
	}

	data := make([][]float64, rows)
	for r := range data {
		data[r] = buf[r*cols : (r+1)*cols]
	}

	w := &Window{
		Rows:         rows,
		Cols:         cols,
		Data:         data,
		NoData:       nodata,
		HasNoData:    hasNoData,
		GeoTransform: gt,
		RasterWidth:  width,
		RasterHeight: height,
	}
	return w, geo.FromGeoTransform(gt, width, height), nil
}

// Footprint returns the bounds of the pixels actually held by the window.
func (w *Window) Footprint() geo.Bounds {
	return geo.FromGeoTransform(w.GeoTransform, w.Cols, w.Rows)
}

// Clipped reports whether the window is smaller than the source raster.
func (w *Window) Clipped() bool {
	return w.Cols < w.RasterWidth || w.Rows < w.RasterHeight
}
