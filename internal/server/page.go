package server

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"html/template"

	"github.com/forest-guardian/ndvi-dashboard/internal/samples"
	"github.com/gofiber/fiber/v2"
)

//go:embed assets/index.html
var indexHTML string

var pageTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"json": func(v any) (template.JS, error) {
		b, err := json.Marshal(v)
		return template.JS(b), err
	},
}).Parse(indexHTML))

type pageData struct {
	Title    string
	Map      any
	Points   []samples.Point
	Selected int
}

// PageHandler renders the dashboard page with the session's selection
// preselected in the point selector.
func PageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, _, err := currentSession(c, deps)
		if err != nil {
			return errInternal(c, err.Error())
		}

		var buf bytes.Buffer
		err = pageTemplate.Execute(&buf, pageData{
			Title:    "NDVI Interactive Map",
			Map:      deps.Dashboard.Map,
			Points:   deps.Dashboard.Points,
			Selected: s.Selected(),
		})
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Send(buf.Bytes())
	}
}
