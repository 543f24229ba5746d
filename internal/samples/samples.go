package samples

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/paulmach/orb"
)

var (
	ErrEmpty   = errors.New("sample table is empty")
	ErrInvalid = errors.New("invalid sample point")
)

// Point is one sampled NDVI measurement.
type Point struct {
	Latitude  float64 `csv:"latitude" json:"lat"`
	Longitude float64 `csv:"longitude" json:"lon"`
	NDVI      float64 `csv:"ndvi" json:"ndvi"`
}

func (p Point) Location() orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

// Default returns the demonstration table: three points around center.
func Default(center orb.Point) []Point {
	return []Point{
		{Latitude: center.Lat() + 0.01, Longitude: center.Lon() + 0.01, NDVI: 0.4},
		{Latitude: center.Lat() - 0.01, Longitude: center.Lon() - 0.01, NDVI: 0.6},
		{Latitude: center.Lat(), Longitude: center.Lon(), NDVI: 0.75},
	}
}

func Read(r io.Reader) ([]Point, error) {
	var points []Point
	if err := gocsv.Unmarshal(r, &points); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("failed to parse sample table: %w", err)
	}
	if len(points) == 0 {
		return nil, ErrEmpty
	}
	for i, p := range points {
		if err := p.validate(); err != nil {
			// header is line 1
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
	}
	return points, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (p Point) validate() error {
	switch {
	case !finite(p.Latitude):
		return fmt.Errorf("%w: latitude %v", ErrInvalid, p.Latitude)
	case !finite(p.Longitude):
		return fmt.Errorf("%w: longitude %v", ErrInvalid, p.Longitude)
	case !finite(p.NDVI):
		return fmt.Errorf("%w: ndvi %v", ErrInvalid, p.NDVI)
	}
	return nil
}

func Load(path string) ([]Point, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sample table: %w", err)
	}
	defer file.Close()

	points, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return points, nil
}

func Write(w io.Writer, points []Point) error {
	if err := gocsv.Marshal(&points, w); err != nil {
		return fmt.Errorf("failed to write sample table: %w", err)
	}
	return nil
}

// LoadOrDefault loads path when set, otherwise builds the default table.
func LoadOrDefault(path string, center orb.Point) ([]Point, error) {
	if path == "" {
		return Default(center), nil
	}
	return Load(path)
}
