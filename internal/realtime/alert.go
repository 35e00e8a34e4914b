package realtime

import (
	"github.com/campuscanteen/canteen-service/pkg/models"
)

// AlertTracker decides when a notification snapshot should ring the
// client's local alert surface. The first snapshot of a subscription is a
// replay of existing history and must stay silent; after that, each
// snapshot alerts iff it contains an unread entry this subscription has not
// seen before. Used from a single subscription goroutine, so no locking.
type AlertTracker struct {
	initial bool
	seen    map[string]bool
}

func NewAlertTracker() *AlertTracker {
	return &AlertTracker{
		initial: true,
		seen:    make(map[string]bool),
	}
}

// Observe records a snapshot and reports whether it warrants an alert.
func (t *AlertTracker) Observe(notifications []models.Notification) bool {
	alert := false
	for _, n := range notifications {
		if !t.seen[n.ID] {
			t.seen[n.ID] = true
			if !n.Read && !t.initial {
				alert = true
			}
		}
	}
	t.initial = false
	return alert
}
