package main

import "testing"

func TestSeedEntryDefaultsToAvailable(t *testing.T) {
	entry := seedEntry{Name: "Veg Thali", Price: 80}

	item := entry.menuItem()
	if !item.Available {
		t.Error("Expected an entry without an availability flag to seed as available")
	}
}

func TestSeedEntryExplicitUnavailable(t *testing.T) {
	off := false
	entry := seedEntry{Name: "Seasonal Special", Price: 120, Available: &off}

	if item := entry.menuItem(); item.Available {
		t.Error("Expected explicit available: false to be honored")
	}
}

func TestSeedEntryValidation(t *testing.T) {
	if (seedEntry{Name: "", Price: 80}).valid() {
		t.Error("Expected nameless entry to be invalid")
	}
	if (seedEntry{Name: "Veg Thali", Price: -1}).valid() {
		t.Error("Expected negative price to be invalid")
	}
	if !(seedEntry{Name: "Veg Thali", Price: 0}).valid() {
		t.Error("Expected free item to be valid")
	}
}
