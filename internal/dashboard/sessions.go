package dashboard

// Sessions builds Session values that share a set of observers. It holds no
// per-user state: the caller keeps the selected index wherever its own
// session lifetime is managed and restores a Session from it per request.
type Sessions struct {
	dashboard *Dashboard
	observers []Observer
}

func NewSessions(d *Dashboard, observers ...Observer) *Sessions {
	return &Sessions{dashboard: d, observers: observers}
}

// Restore returns a session positioned at selected. An index outside the
// sample table falls back to the first point.
func (s *Sessions) Restore(selected int) *Session {
	sess := NewSession(s.dashboard)
	if selected > 0 && selected < len(s.dashboard.Points) {
		sess.selected = selected
	}
	for _, o := range s.observers {
		sess.OnSelect(o)
	}
	return sess
}
