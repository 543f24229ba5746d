package ui

import (
	"fmt"
	"path/filepath"

	"github.com/forest-guardian/ndvi-dashboard/internal/charts"
)

// ListPoints prints the sample table with its indices.
func (m *Menu) ListPoints() {
	green.Fprintln(m.out, "\nSample points:")
	for i, p := range m.dashboard.Points {
		marker := " "
		if i == m.session.Selected() {
			marker = "*"
		}
		fmt.Fprintf(m.out, "%s %d. lat %.6f  lon %.6f  ndvi %.2f\n", marker, i, p.Latitude, p.Longitude, p.NDVI)
	}
}

// SelectPoint asks for an index and changes the selection. The bar chart is
// written by the session observer.
func (m *Menu) SelectPoint() {
	m.ListPoints()
	idx, err := m.ReadInt("Enter the point index: ", 0, len(m.dashboard.Points)-1)
	if err != nil {
		m.PrintError(err.Error())
		return
	}
	if _, err := m.session.Select(idx); err != nil {
		m.PrintError(err.Error())
	}
}

func (m *Menu) onSelect(index int, bar charts.BarChart) {
	green.Fprintf(m.out, "\n%s\n", bar.Title)

	dir, err := CreateResultDirectory(m.outputDir, "selection")
	if err != nil {
		m.PrintError(err.Error())
		return
	}
	path := filepath.Join(dir, "bar.png")
	if err := writePNG(path, bar.RenderPNG); err != nil {
		m.PrintError(fmt.Sprintf("failed to write bar chart: %s", err.Error()))
		return
	}
	m.PrintSuccess(fmt.Sprintf("Bar chart for point %d written to %s", index, path))
}
