package raster

import "math"

type Stats struct {
	Valid   int     `json:"valid"`
	Missing int     `json:"missing"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
}

// Stats summarises the non-NaN cells. Min, Max and Mean are zero when no
// cell is valid.
func (w *Window) Stats() Stats {
	var s Stats
	sum := 0.0
	s.Min = math.Inf(1)
	s.Max = math.Inf(-1)
	for _, row := range w.Data {
		for _, v := range row {
			if math.IsNaN(v) {
				s.Missing++
				continue
			}
			s.Valid++
			sum += v
			s.Min = math.Min(s.Min, v)
			s.Max = math.Max(s.Max, v)
		}
	}
	if s.Valid == 0 {
		s.Min, s.Max = 0, 0
		return s
	}
	s.Mean = sum / float64(s.Valid)
	return s
}
