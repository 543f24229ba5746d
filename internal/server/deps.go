package server

import (
	"github.com/forest-guardian/ndvi-dashboard/internal/cache"
	"github.com/forest-guardian/ndvi-dashboard/internal/dashboard"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// Dependencies holds everything the HTTP handlers need.
type Dependencies struct {
	Dashboard *dashboard.Dashboard
	Sessions  *dashboard.Sessions
	Store     *session.Store
	// Overlays is optional; without it every overlay request re-renders.
	Overlays   *cache.OverlayCache
	RasterPath string
	MaxWindow  int
}
