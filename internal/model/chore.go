package model

import "time"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

func (r Recurrence) IsValid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// Chore is a unit of household work. CompletedAt and CompletedBy are set if and
// only if Completed is true; PendingApproval implies Completed.
type Chore struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DueDate         *time.Time `json:"dueDate"`
	AssignedTo      string     `json:"assignedTo"`
	Priority        Priority   `json:"priority"`
	Recurring       Recurrence `json:"recurring"`
	CategoryID      *string    `json:"categoryId"`
	CreatedBy       string     `json:"createdBy"`
	CreatedAt       time.Time  `json:"createdAt"`
	Completed       bool       `json:"completed"`
	CompletedAt     *time.Time `json:"completedAt"`
	CompletedBy     *string    `json:"completedBy"`
	PendingApproval bool       `json:"pendingApproval"`
}

// IsOverdue reports whether the chore is incomplete and past its due date.
func (c Chore) IsOverdue(now time.Time) bool {
	return !c.Completed && c.DueDate != nil && c.DueDate.Before(now)
}

// IsDueOn reports whether the chore is incomplete and due on the same calendar
// day as day, compared in day's location.
func (c Chore) IsDueOn(day time.Time) bool {
	if c.Completed || c.DueDate == nil {
		return false
	}
	due := c.DueDate.In(day.Location())
	y1, m1, d1 := due.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Syncable reports whether the chore belongs on an external calendar.
func (c Chore) Syncable() bool {
	return !c.Completed && c.DueDate != nil
}
