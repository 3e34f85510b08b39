package store

import (
	"testing"
	"time"

	"github.com/dukerupert/choreify/internal/model"
)

func TestCalendarSyncUpsert(t *testing.T) {
	cs := NewCalendarSyncStore(openTestDB(t))

	due := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	rec := model.CalendarSyncRecord{ChoreID: "c1", CalendarEventID: "cal_c1", LastSynced: time.Now(), Title: "Dishes", DueDate: &due}
	if err := cs.Upsert(rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	rec.Title = "Dishes tonight"
	rec.DueDate = nil
	if err := cs.Upsert(rec); err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	got, err := cs.Get("c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Dishes tonight" || got.DueDate != nil {
		t.Errorf("record = %+v", got)
	}

	all, _ := cs.List()
	if len(all) != 1 {
		t.Errorf("records = %d, want 1", len(all))
	}

	if err := cs.Delete("c1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := cs.Get("c1"); got != nil {
		t.Error("record should be gone")
	}
}
