package server_test

import (
	"encoding/json"
	"image/png"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forest-guardian/ndvi-dashboard/internal/cache"
	"github.com/forest-guardian/ndvi-dashboard/internal/charts"
	"github.com/forest-guardian/ndvi-dashboard/internal/dashboard"
	"github.com/forest-guardian/ndvi-dashboard/internal/geo"
	"github.com/forest-guardian/ndvi-dashboard/internal/raster"
	"github.com/forest-guardian/ndvi-dashboard/internal/samples"
	"github.com/forest-guardian/ndvi-dashboard/internal/server"
)

// ---- Test helpers ----

var testBounds = geo.Bounds{North: 15.0, South: 14.0, East: 101.0, West: 100.0}

func makeDeps(t *testing.T) *server.Dependencies {
	t.Helper()
	w := &raster.Window{
		Rows: 2, Cols: 2,
		Data:         [][]float64{{0.2, math.NaN()}, {0.5, 0.9}},
		GeoTransform: [6]float64{100.0, 0.5, 0, 15.0, 0, -0.5},
		RasterWidth:  2, RasterHeight: 2,
	}
	d, err := dashboard.Build(w, testBounds, samples.Default(testBounds.Center()), dashboard.DefaultOptions())
	require.NoError(t, err)

	return &server.Dependencies{
		Dashboard: d,
		Sessions:  dashboard.NewSessions(d),
		Store:     session.New(),
	}
}

func setupApp(deps *server.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	server.SetupRoutes(app, deps)
	return app
}

func do(t *testing.T, app *fiber.App, req *http.Request) *http.Response {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, body io.Reader, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(body).Decode(v))
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "session_id" {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func postSelection(index string, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest("POST", "/v1/selection", strings.NewReader(`{"index":`+index+`}`))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

// ---- Map and layers ----

func TestMap(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp := do(t, app, httptest.NewRequest("GET", "/v1/map", nil))
	require.Equal(t, 200, resp.StatusCode)

	var m dashboard.Map
	decode(t, resp.Body, &m)
	assert.Equal(t, 14.5, m.Center.Lat)
	assert.Equal(t, 100.5, m.Center.Lon)
	assert.Equal(t, 0.6, m.Overlay.Opacity)
	assert.Equal(t, [2][2]float64{{14.0, 100.0}, {15.0, 101.0}}, m.Overlay.Bounds)
}

func TestMarkers(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp := do(t, app, httptest.NewRequest("GET", "/v1/markers", nil))
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	decode(t, resp.Body, &fc)
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 3)
	for _, f := range fc.Features {
		assert.Len(t, f.Geometry.Coordinates, 2)
		assert.Empty(t, f.Properties)
	}
}

func TestOverlayPNG(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp := do(t, app, httptest.NewRequest("GET", "/v1/overlay.png", nil))
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	_, _, _, a := img.At(1, 0).RGBA()
	assert.Zero(t, a)
}

func TestOverlayPNG_NegativeMax(t *testing.T) {
	app := setupApp(makeDeps(t))
	resp := do(t, app, httptest.NewRequest("GET", "/v1/overlay.png?max=-3", nil))
	assert.Equal(t, 400, resp.StatusCode)
}

func TestOverlayPNG_Cached(t *testing.T) {
	dir := t.TempDir()
	rasterPath := filepath.Join(dir, "ndvi.tif")
	require.NoError(t, os.WriteFile(rasterPath, []byte("raster"), 0o644))

	deps := makeDeps(t)
	deps.Overlays = cache.NewOverlayCache(dir, 0)
	deps.RasterPath = rasterPath
	deps.MaxWindow = 500
	app := setupApp(deps)

	first := do(t, app, httptest.NewRequest("GET", "/v1/overlay.png", nil))
	firstBody, _ := io.ReadAll(first.Body)
	second := do(t, app, httptest.NewRequest("GET", "/v1/overlay.png", nil))
	secondBody, _ := io.ReadAll(second.Body)

	assert.Equal(t, 200, second.StatusCode)
	assert.Equal(t, firstBody, secondBody)
	entries, err := os.ReadDir(filepath.Join(dir, "overlay"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// ---- Charts ----

func TestScatter(t *testing.T) {
	deps := makeDeps(t)
	app := setupApp(deps)

	resp := do(t, app, httptest.NewRequest("GET", "/v1/charts/scatter", nil))
	require.Equal(t, 200, resp.StatusCode)

	var c charts.ScatterChart
	decode(t, resp.Body, &c)
	require.Len(t, c.Points, 3)
	for i, p := range deps.Dashboard.Points {
		assert.Equal(t, p.Latitude, c.Points[i].X)
		assert.Equal(t, p.NDVI, c.Points[i].Y)
	}
}

func TestScatterPNG(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp := do(t, app, httptest.NewRequest("GET", "/v1/charts/scatter.png", nil))
	require.Equal(t, 200, resp.StatusCode)
	_, err := png.Decode(resp.Body)
	assert.NoError(t, err)
}

func TestBar_ByQuery(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp := do(t, app, httptest.NewRequest("GET", "/v1/charts/bar?point=2", nil))
	require.Equal(t, 200, resp.StatusCode)

	var c charts.BarChart
	decode(t, resp.Body, &c)
	require.Len(t, c.Bars, 1)
	assert.Equal(t, 0.75, c.Bars[0].Value)
	assert.True(t, strings.HasSuffix(c.Title, "0.75"))
}

func TestBar_InvalidPoint(t *testing.T) {
	app := setupApp(makeDeps(t))

	for _, q := range []string{"3", "-1", "abc"} {
		resp := do(t, app, httptest.NewRequest("GET", "/v1/charts/bar?point="+q, nil))
		assert.Equal(t, 400, resp.StatusCode, "point=%s", q)

		var apiErr server.APIError
		decode(t, resp.Body, &apiErr)
		assert.Equal(t, "bad_request", apiErr.Code)
	}
}

func TestBarPNG(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp := do(t, app, httptest.NewRequest("GET", "/v1/charts/bar.png?point=1", nil))
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

// ---- Selection ----

func TestSelection_Flow(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp := do(t, app, httptest.NewRequest("GET", "/v1/selection", nil))
	require.Equal(t, 200, resp.StatusCode)
	assert.Empty(t, resp.Cookies())

	var sel server.SelectionResponse
	decode(t, resp.Body, &sel)
	assert.Zero(t, sel.Index)
	assert.Equal(t, "NDVI of selected point: 0.40", sel.Bar.Title)

	resp = do(t, app, postSelection("2", nil))
	require.Equal(t, 200, resp.StatusCode)
	cookie := sessionCookie(t, resp)
	decode(t, resp.Body, &sel)
	assert.Equal(t, 2, sel.Index)
	assert.Equal(t, 0.75, sel.Bar.Bars[0].Value)

	req := httptest.NewRequest("GET", "/v1/charts/bar", nil)
	req.AddCookie(cookie)
	resp = do(t, app, req)
	var bar charts.BarChart
	decode(t, resp.Body, &bar)
	assert.Equal(t, "NDVI of selected point: 0.75", bar.Title)

	resp = do(t, app, postSelection("1", cookie))
	require.Equal(t, 200, resp.StatusCode)
	req = httptest.NewRequest("GET", "/v1/selection", nil)
	req.AddCookie(cookie)
	resp = do(t, app, req)
	decode(t, resp.Body, &sel)
	assert.Equal(t, 1, sel.Index)

	// a new client starts from the first point again
	resp = do(t, app, httptest.NewRequest("GET", "/v1/selection", nil))
	decode(t, resp.Body, &sel)
	assert.Zero(t, sel.Index)
}

func TestSelection_Invalid(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp := do(t, app, postSelection("1", nil))
	require.Equal(t, 200, resp.StatusCode)
	cookie := sessionCookie(t, resp)

	resp = do(t, app, postSelection("5", cookie))
	assert.Equal(t, 400, resp.StatusCode)

	resp = do(t, app, postSelection("null", cookie))
	assert.Equal(t, 400, resp.StatusCode)

	req := httptest.NewRequest("GET", "/v1/selection", nil)
	req.AddCookie(cookie)
	resp = do(t, app, req)
	var sel server.SelectionResponse
	decode(t, resp.Body, &sel)
	assert.Equal(t, 1, sel.Index)
}

// countingStorage is an in-memory fiber.Storage that reports how many
// sessions it holds.
type countingStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newCountingStorage() *countingStorage {
	return &countingStorage{data: make(map[string][]byte)}
}

func (s *countingStorage) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *countingStorage) Set(key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), val...)
	return nil
}

func (s *countingStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *countingStorage) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string][]byte)
	return nil
}

func (s *countingStorage) Close() error { return nil }

func (s *countingStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

func TestSelection_CookielessRequestsKeepNoState(t *testing.T) {
	storage := newCountingStorage()
	deps := makeDeps(t)
	deps.Store = session.New(session.Config{Storage: storage})
	app := setupApp(deps)

	for i := 0; i < 50; i++ {
		for _, path := range []string{"/", "/v1/selection", "/v1/charts/bar"} {
			resp := do(t, app, httptest.NewRequest("GET", path, nil))
			require.Equal(t, 200, resp.StatusCode, path)
		}
	}
	assert.Zero(t, storage.Len())

	resp := do(t, app, postSelection("2", nil))
	require.Equal(t, 200, resp.StatusCode)
	cookie := sessionCookie(t, resp)
	assert.Equal(t, 1, storage.Len())

	// further changes reuse the same entry
	do(t, app, postSelection("1", cookie))
	assert.Equal(t, 1, storage.Len())
}

// ---- Page, stats and health ----

func TestPage(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp := do(t, app, httptest.NewRequest("GET", "/", nil))
	require.Equal(t, 200, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	html := string(body)
	assert.Contains(t, html, "NDVI Interactive Map")
	assert.Contains(t, html, "/v1/overlay.png")
	assert.Equal(t, 3, strings.Count(html, "<option "))
}

func TestStats(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp := do(t, app, httptest.NewRequest("GET", "/v1/stats", nil))
	require.Equal(t, 200, resp.StatusCode)

	var body struct {
		Bounds geo.Bounds   `json:"bounds"`
		Stats  raster.Stats `json:"stats"`
	}
	decode(t, resp.Body, &body)
	assert.Equal(t, testBounds, body.Bounds)
	assert.Equal(t, 3, body.Stats.Valid)
	assert.Equal(t, 1, body.Stats.Missing)
}

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp := do(t, app, httptest.NewRequest("GET", "/v1/health", nil))
	require.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	decode(t, resp.Body, &body)
	assert.Equal(t, "healthy", body["status"])
}
