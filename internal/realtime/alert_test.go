package realtime

import (
	"testing"

	"github.com/campuscanteen/canteen-service/pkg/models"
)

func TestInitialSnapshotNeverAlerts(t *testing.T) {
	tracker := NewAlertTracker()

	alert := tracker.Observe([]models.Notification{
		{ID: "n-1", Read: false},
		{ID: "n-2", Read: false},
	})
	if alert {
		t.Error("Expected the replay of existing history to stay silent")
	}
}

func TestNewUnreadEntryAlertsOnce(t *testing.T) {
	tracker := NewAlertTracker()
	tracker.Observe([]models.Notification{{ID: "n-1", Read: true}})

	snapshot := []models.Notification{
		{ID: "n-2", Read: false},
		{ID: "n-1", Read: true},
	}
	if !tracker.Observe(snapshot) {
		t.Error("Expected alert for a fresh unread entry")
	}
	if tracker.Observe(snapshot) {
		t.Error("Expected replay of already-seen entries to stay silent")
	}
}

func TestReadEntriesDoNotAlert(t *testing.T) {
	tracker := NewAlertTracker()
	tracker.Observe(nil)

	alert := tracker.Observe([]models.Notification{{ID: "n-1", Read: true}})
	if alert {
		t.Error("Expected no alert for an entry that arrived already read")
	}
}

func TestMarkingReadDoesNotAlert(t *testing.T) {
	tracker := NewAlertTracker()
	tracker.Observe([]models.Notification{{ID: "n-1", Read: false}})

	// The same entry flipping to read is not news.
	alert := tracker.Observe([]models.Notification{{ID: "n-1", Read: true}})
	if alert {
		t.Error("Expected no alert when a seen entry is marked read")
	}
}

func TestEmptyInitialSnapshotThenNewEntry(t *testing.T) {
	tracker := NewAlertTracker()
	tracker.Observe(nil)

	if !tracker.Observe([]models.Notification{{ID: "n-1", Read: false}}) {
		t.Error("Expected alert for the first entry after an empty start")
	}
}
