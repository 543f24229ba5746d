package server

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/forest-guardian/ndvi-dashboard/internal/charts"
	"github.com/forest-guardian/ndvi-dashboard/internal/dashboard"
	"github.com/forest-guardian/ndvi-dashboard/internal/metrics"
	"github.com/forest-guardian/ndvi-dashboard/internal/overlay"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// SelectionResponse is the bar chart for a session's current selection.
type SelectionResponse struct {
	Index int             `json:"index"`
	Bar   charts.BarChart `json:"bar"`
}

type selectionRequest struct {
	Index *int `json:"index"`
}

const selectedKey = "selected"

// currentSession restores the dashboard session from the request cookie.
// Nothing is stored until the selection changes, so clients without a cookie
// leave no state behind and fiber's expiry bounds what is kept.
func currentSession(c *fiber.Ctx, deps *Dependencies) (*dashboard.Session, *session.Session, error) {
	sess, err := deps.Store.Get(c)
	if err != nil {
		return nil, nil, err
	}
	selected, _ := sess.Get(selectedKey).(int)
	return deps.Sessions.Restore(selected), sess, nil
}

func saveSelection(sess *session.Session, index int) error {
	sess.Set(selectedKey, index)
	return sess.Save()
}

// barForRequest renders ?point=i when present, otherwise the session selection.
func barForRequest(c *fiber.Ctx, deps *Dependencies) (charts.BarChart, error) {
	if q := c.Query("point"); q != "" {
		idx, err := strconv.Atoi(q)
		if err != nil {
			return charts.BarChart{}, fmt.Errorf("%w: %q is not a number", dashboard.ErrSelection, q)
		}
		return deps.Dashboard.Render(idx)
	}
	s, _, err := currentSession(c, deps)
	if err != nil {
		return charts.BarChart{}, err
	}
	_, bar, err := s.Current()
	return bar, err
}

func renderError(c *fiber.Ctx, err error) error {
	if errors.Is(err, dashboard.ErrSelection) {
		return errBadRequest(c, err.Error())
	}
	return errInternal(c, err.Error())
}

func sendPNG(c *fiber.Ctx, data []byte) error {
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(data)
}

func MapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Dashboard.Map)
	}
}

func MarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := deps.Dashboard.Markers().MarshalJSON()
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(data)
	}
}

func PointsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Dashboard.Points)
	}
}

func StatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"bounds": deps.Dashboard.Bounds,
			"stats":  deps.Dashboard.Stats,
			"window": fiber.Map{
				"rows":    deps.Dashboard.Window.Rows,
				"cols":    deps.Dashboard.Window.Cols,
				"clipped": deps.Dashboard.Window.Clipped(),
			},
		})
	}
}

// OverlayHandler serves the colour-ramped window. ?max=N shrinks it to fit
// N x N pixels.
func OverlayHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		maxSize := c.QueryInt("max", 0)
		if maxSize < 0 {
			return errBadRequest(c, "max must not be negative")
		}

		if deps.Overlays != nil {
			data, hit, err := deps.Overlays.PNG(deps.RasterPath, deps.MaxWindow, uint(maxSize), deps.Dashboard.OverlayImage)
			if err != nil {
				slog.Warn("overlay cache unavailable", "error", err)
			}
			if data != nil {
				metrics.OverlayRenders.WithLabelValues(cacheLabel(hit)).Inc()
				return sendPNG(c, data)
			}
		}

		var buf bytes.Buffer
		if err := overlay.EncodePNG(&buf, overlay.Preview(deps.Dashboard.OverlayImage(), uint(maxSize))); err != nil {
			return errInternal(c, err.Error())
		}
		metrics.OverlayRenders.WithLabelValues("none").Inc()
		return sendPNG(c, buf.Bytes())
	}
}

func cacheLabel(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

func ScatterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Dashboard.Scatter)
	}
}

func ScatterPNGHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var buf bytes.Buffer
		if err := deps.Dashboard.Scatter.RenderPNG(&buf); err != nil {
			return errInternal(c, err.Error())
		}
		return sendPNG(c, buf.Bytes())
	}
}

func BarHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bar, err := barForRequest(c, deps)
		if err != nil {
			return renderError(c, err)
		}
		return c.JSON(bar)
	}
}

func BarPNGHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bar, err := barForRequest(c, deps)
		if err != nil {
			return renderError(c, err)
		}
		var buf bytes.Buffer
		if err := bar.RenderPNG(&buf); err != nil {
			return errInternal(c, err.Error())
		}
		c.Set(fiber.HeaderCacheControl, "no-store")
		return sendPNG(c, buf.Bytes())
	}
}

func GetSelectionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, _, err := currentSession(c, deps)
		if err != nil {
			return errInternal(c, err.Error())
		}
		idx, bar, err := s.Current()
		if err != nil {
			return renderError(c, err)
		}
		return c.JSON(SelectionResponse{Index: idx, Bar: bar})
	}
}

// PostSelectionHandler changes the session selection and returns the
// re-rendered bar chart.
func PostSelectionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req selectionRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid selection body")
		}
		if req.Index == nil {
			return errBadRequest(c, "index is required")
		}

		s, sess, err := currentSession(c, deps)
		if err != nil {
			return errInternal(c, err.Error())
		}
		bar, err := s.Select(*req.Index)
		if err != nil {
			return renderError(c, err)
		}
		if err := saveSelection(sess, *req.Index); err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(SelectionResponse{Index: *req.Index, Bar: bar})
	}
}
