package chore

import (
	"testing"
	"time"

	"github.com/dukerupert/choreify/internal/model"
)

func dueAt(t time.Time) *time.Time { return &t }

func TestComputeStatus(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	by := "u1"

	tests := []struct {
		name  string
		chore model.Chore
		want  Status
	}{
		{"no due date", model.Chore{}, StatusOpen},
		{"due later", model.Chore{DueDate: dueAt(now.AddDate(0, 0, 3))}, StatusOpen},
		{"due later today", model.Chore{DueDate: dueAt(now.Add(2 * time.Hour))}, StatusDueToday},
		{"overdue", model.Chore{DueDate: dueAt(now.AddDate(0, 0, -1))}, StatusOverdue},
		{"completed past due", model.Chore{DueDate: dueAt(now.AddDate(0, 0, -1)), Completed: true, CompletedAt: &now, CompletedBy: &by}, StatusCompleted},
		{"pending approval", model.Chore{Completed: true, CompletedAt: &now, CompletedBy: &by, PendingApproval: true}, StatusPendingApproval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeStatus(tt.chore, now); got != tt.want {
				t.Errorf("ComputeStatus = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNextDue(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	weekly := model.Chore{Recurring: model.RecurrenceWeekly, DueDate: dueAt(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))}
	next := NextDue(weekly, now)
	if next == nil {
		t.Fatal("expected next due date for weekly chore")
	}
	want := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}

	monthly := model.Chore{Recurring: model.RecurrenceMonthly, DueDate: dueAt(time.Date(2025, 1, 31, 9, 0, 0, 0, time.UTC))}
	next = NextDue(monthly, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	if next == nil || !next.Equal(time.Date(2025, 2, 28, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("monthly next = %v, want 2025-02-28 09:00", next)
	}

	oneOff := model.Chore{Recurring: model.RecurrenceNone, DueDate: dueAt(now)}
	if NextDue(oneOff, now) != nil {
		t.Error("one-off chore should have no next due date")
	}
	if NextDue(model.Chore{Recurring: model.RecurrenceDaily}, now) != nil {
		t.Error("chore without due date should have no next due date")
	}
}

func TestAnnotateAll(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	got := AnnotateAll([]model.Chore{
		{ID: "a", DueDate: dueAt(now.AddDate(0, 0, -2))},
		{ID: "b"},
	}, now)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if !got[0].Overdue || got[0].Status != StatusOverdue {
		t.Errorf("a = %+v, want overdue", got[0])
	}
	if got[1].Overdue || got[1].Status != StatusOpen {
		t.Errorf("b = %+v, want open", got[1])
	}
}
