package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromGeoTransform_NorthUp(t *testing.T) {
	gt := [6]float64{100.0, 0.001, 0, 15.0, 0, -0.001}

	b := FromGeoTransform(gt, 1000, 2000)

	assert.InDelta(t, 15.0, b.North, 1e-12)
	assert.InDelta(t, 13.0, b.South, 1e-12)
	assert.InDelta(t, 100.0, b.West, 1e-12)
	assert.InDelta(t, 101.0, b.East, 1e-12)
}

func TestFromGeoTransform_SouthUpIsNormalised(t *testing.T) {
	gt := [6]float64{10, 1, 0, -5, 0, 1}

	b := FromGeoTransform(gt, 4, 3)

	assert.Equal(t, Bounds{North: -2, South: -5, East: 14, West: 10}, b)
}

func TestCenter_ExactAverage(t *testing.T) {
	b := Bounds{North: 16.25, South: 15.75, East: 101.3, West: 100.9}

	c := b.Center()

	assert.Equal(t, (16.25+15.75)/2, c.Lat())
	assert.Equal(t, (101.3+100.9)/2, c.Lon())
}

func TestLeafletBounds(t *testing.T) {
	b := Bounds{North: 2, South: 1, East: 4, West: 3}
	assert.Equal(t, [2][2]float64{{1, 3}, {2, 4}}, b.LeafletBounds())
}

func TestContains(t *testing.T) {
	b := Bounds{North: 2, South: 1, East: 4, West: 3}
	assert.True(t, b.Contains(1.5, 3.5))
	assert.False(t, b.Contains(3.5, 1.5))
}
