package model

import "time"

// CalendarEvent is an entry on the household calendar. Events mirrored from
// chores carry the chore id in SourceRef.
type CalendarEvent struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
	AllDay         bool      `json:"allDay"`
	ColorID        string    `json:"colorId"`
	RecurrenceRule string    `json:"recurrenceRule"`
	SourceRef      string    `json:"sourceRef"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// CalendarSyncRecord maps a chore to the event created for it on the
// connected calendar.
type CalendarSyncRecord struct {
	ChoreID         string     `json:"choreId"`
	CalendarEventID string     `json:"calendarEventId"`
	LastSynced      time.Time  `json:"lastSynced"`
	Title           string     `json:"title"`
	DueDate         *time.Time `json:"dueDate"`
}
