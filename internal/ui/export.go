package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/forest-guardian/ndvi-dashboard/internal/overlay"
	"github.com/schollz/progressbar/v3"
)

type exportStep struct {
	name  string
	write func(path string) error
}

func writePNG(path string, render func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (m *Menu) exportSteps() []exportStep {
	d := m.dashboard
	steps := []exportStep{
		{"overlay.png", func(path string) error { return overlay.SavePNG(path, d.OverlayImage()) }},
		{"scatter.png", func(path string) error { return writePNG(path, d.Scatter.RenderPNG) }},
		{"markers.geojson", func(path string) error {
			data, err := d.Markers().MarshalJSON()
			if err != nil {
				return err
			}
			return os.WriteFile(path, data, 0644)
		}},
	}
	for i := range d.Points {
		steps = append(steps, exportStep{fmt.Sprintf("bar_%d.png", i), func(path string) error {
			bar, err := d.Render(i)
			if err != nil {
				return err
			}
			return writePNG(path, bar.RenderPNG)
		}})
	}
	return steps
}

// ExportTo writes the overlay, the scatter chart, the marker layer and one
// bar chart per sample point into dir.
func (m *Menu) ExportTo(dir string) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create export folder: %w", err)
	}

	steps := m.exportSteps()
	bar := progressbar.NewOptions(len(steps),
		progressbar.OptionSetWriter(m.out),
		progressbar.OptionSetDescription("Exporting dashboard"),
		progressbar.OptionShowCount(),
	)
	for _, step := range steps {
		if err := step.write(filepath.Join(dir, step.name)); err != nil {
			return fmt.Errorf("failed to export %s: %w", step.name, err)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	return nil
}

func (m *Menu) Export() {
	dir, err := CreateResultDirectory(m.outputDir, "export")
	if err != nil {
		m.PrintError(err.Error())
		return
	}
	if err := m.ExportTo(dir); err != nil {
		m.PrintError(err.Error())
		return
	}
	m.PrintSuccess(fmt.Sprintf("Dashboard exported to %s", dir))
}
