package overlay

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/forest-guardian/ndvi-dashboard/internal/raster"
	"github.com/nfnt/resize"
)

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ValueToColor maps an NDVI value to the red/green ramp: red = 1-v,
// green = v. Values are clamped to [0,1]; NaN is fully transparent.
func ValueToColor(value float64) color.NRGBA {
	if math.IsNaN(value) {
		return color.NRGBA{}
	}
	v := clamp(value, 0, 1)
	return color.NRGBA{
		R: uint8(math.Round(255 * (1 - v))),
		G: uint8(math.Round(255 * v)),
		B: 0,
		A: 255,
	}
}

// Render colours every cell of the window, one image pixel per raster pixel.
func Render(w *raster.Window) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w.Cols, w.Rows))
	for y, row := range w.Data {
		for x, v := range row {
			img.SetNRGBA(x, y, ValueToColor(v))
		}
	}
	return img
}

// Preview shrinks img to fit within maxSize x maxSize, keeping the aspect
// ratio. Images already small enough are returned unchanged.
func Preview(img image.Image, maxSize uint) image.Image {
	if maxSize == 0 {
		return img
	}
	return resize.Thumbnail(maxSize, maxSize, img, resize.NearestNeighbor)
}

func EncodePNG(w io.Writer, img image.Image) error {
	dc := gg.NewContextForImage(img)
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode overlay: %w", err)
	}
	return nil
}

func SavePNG(path string, img image.Image) error {
	if err := gg.SavePNG(path, img); err != nil {
		return fmt.Errorf("failed to save overlay %s: %w", path, err)
	}
	return nil
}
