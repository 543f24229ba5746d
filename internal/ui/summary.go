package ui

import "fmt"

// ShowSummary prints the raster bounds, centre, window size and statistics.
func (m *Menu) ShowSummary() {
	d := m.dashboard
	b := d.Bounds
	stats := d.Stats

	green.Fprintln(m.out, "\nRaster summary:")
	fmt.Fprintf(m.out, "  Bounds: N %.6f  S %.6f  E %.6f  W %.6f\n", b.North, b.South, b.East, b.West)
	fmt.Fprintf(m.out, "  Centre: %.6f, %.6f\n", d.Map.Center.Lat, d.Map.Center.Lon)
	fmt.Fprintf(m.out, "  Window: %d x %d of %d x %d\n", d.Window.Cols, d.Window.Rows, d.Window.RasterWidth, d.Window.RasterHeight)
	fmt.Fprintf(m.out, "  Valid pixels: %d  Missing: %d\n", stats.Valid, stats.Missing)
	if stats.Valid > 0 {
		fmt.Fprintf(m.out, "  NDVI min %.4f  max %.4f  mean %.4f\n", stats.Min, stats.Max, stats.Mean)
	}
	if d.Window.Clipped() {
		m.PrintWarning("The raster is larger than the window; only the top-left corner is shown.")
	}
}
