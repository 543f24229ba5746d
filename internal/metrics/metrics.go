package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ndvi",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ndvi",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	OverlayRenders = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ndvi",
		Subsystem: "overlay",
		Name:      "renders_total",
		Help:      "Overlay PNG requests by cache outcome",
	}, []string{"cache"})

	SelectionChanges = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ndvi",
		Subsystem: "dashboard",
		Name:      "selection_changes_total",
		Help:      "Total sample point selection changes",
	})

	RasterPixels = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ndvi",
		Subsystem: "raster",
		Name:      "window_pixels",
		Help:      "Pixels in the loaded raster window by validity",
	}, []string{"state"})
)

// ObserveWindow records the valid and missing pixel counts of the loaded window.
func ObserveWindow(valid, missing int) {
	RasterPixels.WithLabelValues("valid").Set(float64(valid))
	RasterPixels.WithLabelValues("missing").Set(float64(missing))
}

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}
