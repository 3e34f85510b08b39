package chore

import (
	"time"

	"github.com/dukerupert/choreify/internal/model"
	"github.com/dukerupert/choreify/internal/recurrence"
)

type Status string

const (
	StatusOpen            Status = "open"
	StatusDueToday        Status = "due_today"
	StatusOverdue         Status = "overdue"
	StatusPendingApproval Status = "pending_approval"
	StatusCompleted       Status = "completed"
)

// ChoreWithStatus is a chore annotated with its derived state. None of these
// fields are stored.
type ChoreWithStatus struct {
	model.Chore
	Status  Status     `json:"status"`
	Overdue bool       `json:"overdue"`
	NextDue *time.Time `json:"nextDue,omitempty"`
}

// ComputeStatus derives the display status of c at now.
func ComputeStatus(c model.Chore, now time.Time) Status {
	switch {
	case c.PendingApproval:
		return StatusPendingApproval
	case c.Completed:
		return StatusCompleted
	case c.IsOverdue(now):
		return StatusOverdue
	case c.IsDueOn(now):
		return StatusDueToday
	}
	return StatusOpen
}

// NextDue returns the first occurrence of a recurring chore's due date after
// now. It is nil for one-off chores and chores without a due date.
func NextDue(c model.Chore, now time.Time) *time.Time {
	if c.DueDate == nil {
		return nil
	}
	rule, ok := recurrence.FromRecurring(c.Recurring)
	if !ok {
		return nil
	}
	next := rule.Next(*c.DueDate, now)
	if next.IsZero() {
		return nil
	}
	return &next
}

func Annotate(c model.Chore, now time.Time) ChoreWithStatus {
	return ChoreWithStatus{
		Chore:   c,
		Status:  ComputeStatus(c, now),
		Overdue: c.IsOverdue(now),
		NextDue: NextDue(c, now),
	}
}

func AnnotateAll(chores []model.Chore, now time.Time) []ChoreWithStatus {
	out := make([]ChoreWithStatus, 0, len(chores))
	for _, c := range chores {
		out = append(out, Annotate(c, now))
	}
	return out
}
