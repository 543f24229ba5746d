package cache

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/forest-guardian/ndvi-dashboard/internal/overlay"
)

// OverlayCache keeps encoded overlay PNGs keyed by the source raster's
// identity, so restarts against an unchanged file skip the colour pass.
type OverlayCache struct {
	files CacheService[[]byte]
}

// NewOverlayCache stores overlays under dir/overlay. Entries older than
// maxAge are rendered again; zero keeps them until the raster changes.
func NewOverlayCache(dir string, maxAge time.Duration) *OverlayCache {
	return &OverlayCache{files: NewFileCache[[]byte](dir, "overlay").WithMaxAge(maxAge)}
}

func (oc *OverlayCache) key(rasterPath string, maxWindow int, previewSize uint) (string, error) {
	info, err := os.Stat(rasterPath)
	if err != nil {
		return "", err
	}
	return oc.files.GenerateKey(rasterPath, info.Size(), info.ModTime().UnixNano(), maxWindow, previewSize), nil
}

// PNG returns the cached overlay for the raster, calling render and storing
// its encoding on a miss. The second return reports a cache hit.
func (oc *OverlayCache) PNG(rasterPath string, maxWindow int, previewSize uint, render func() image.Image) ([]byte, bool, error) {
	key, err := oc.key(rasterPath, maxWindow, previewSize)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build overlay cache key: %w", err)
	}

	if data, ok := oc.files.Get(key); ok {
		return data, true, nil
	}

	var buf bytes.Buffer
	if err := overlay.EncodePNG(&buf, overlay.Preview(render(), previewSize)); err != nil {
		return nil, false, err
	}
	data := buf.Bytes()

	if err := oc.files.Set(key, data); err != nil {
		return data, false, err
	}
	return data, false, nil
}
