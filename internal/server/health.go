package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"uptime": time.Since(startedAt).String(),
			"raster": deps.RasterPath,
		})
	}
}
