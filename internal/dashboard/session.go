package dashboard

import (
	"sync"

	"github.com/forest-guardian/ndvi-dashboard/internal/charts"
)

// Observer is notified with the re-rendered bar chart after a selection change.
type Observer func(index int, bar charts.BarChart)

// Session owns one user's selection. It starts at the first point.
type Session struct {
	dashboard *Dashboard

	mu        sync.Mutex
	selected  int
	observers []Observer
}

func NewSession(d *Dashboard) *Session {
	return &Session{dashboard: d}
}

func (s *Session) OnSelect(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *Session) Selected() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Current renders the bar chart for the current selection.
func (s *Session) Current() (int, charts.BarChart, error) {
	idx := s.Selected()
	bar, err := s.dashboard.Render(idx)
	return idx, bar, err
}

// Select changes the selection and notifies observers. An invalid index
// leaves the selection untouched.
func (s *Session) Select(index int) (charts.BarChart, error) {
	bar, err := s.dashboard.Render(index)
	if err != nil {
		return charts.BarChart{}, err
	}

	s.mu.Lock()
	s.selected = index
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	for _, o := range observers {
		o(index, bar)
	}
	return bar, nil
}
