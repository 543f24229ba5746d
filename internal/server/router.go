package server

import (
	"time"

	"github.com/forest-guardian/ndvi-dashboard/internal/metrics"
	"github.com/forest-guardian/ndvi-dashboard/internal/properties"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// New builds the fiber app with all routes registered.
func New(p *properties.Properties, deps *Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:           time.Duration(p.Server.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(p.Server.WriteTimeout) * time.Second,
		AppName:               "NDVI Dashboard",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	SetupRoutes(app, deps)
	return app
}

// SetupRoutes registers the page, the JSON/PNG API and /metrics.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(requestid.New())
	app.Use(AccessLogMiddleware())

	app.Get("/", PageHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/health", HealthHandler(deps))
	v1.Get("/map", MapHandler(deps))
	v1.Get("/overlay.png", OverlayHandler(deps))
	v1.Get("/markers", MarkersHandler(deps))
	v1.Get("/points", PointsHandler(deps))
	v1.Get("/stats", StatsHandler(deps))
	v1.Get("/charts/scatter", ScatterHandler(deps))
	v1.Get("/charts/scatter.png", ScatterPNGHandler(deps))
	v1.Get("/charts/bar", BarHandler(deps))
	v1.Get("/charts/bar.png", BarPNGHandler(deps))
	v1.Get("/selection", GetSelectionHandler(deps))
	v1.Post("/selection", PostSelectionHandler(deps))
}
