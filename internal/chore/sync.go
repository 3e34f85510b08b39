package chore

import (
	"time"

	"github.com/dukerupert/choreify/internal/model"
)

// CalendarSync receives due-date-relevant chore changes. Implementations must
// not block and must not report failures back to the chore operation.
type CalendarSync interface {
	ChoreCreated(c model.Chore)
	ChoreUpdated(c model.Chore)
	ChoreRemoved(choreID string)
}

type noopSync struct{}

func (noopSync) ChoreCreated(model.Chore) {}
func (noopSync) ChoreUpdated(model.Chore) {}
func (noopSync) ChoreRemoved(string)      {}

type syncAction int

const (
	syncNone syncAction = iota
	syncCreate
	syncUpdate
	syncDelete
)

// calendarAction decides what a transition from before to after means for the
// chore's calendar event. A nil before is a creation, a nil after a deletion.
func calendarAction(before, after *model.Chore) syncAction {
	switch {
	case after == nil:
		return syncDelete
	case before == nil:
		if after.Syncable() {
			return syncCreate
		}
		return syncNone
	case !after.Syncable():
		if before.Syncable() {
			return syncDelete
		}
		return syncNone
	case !before.Syncable():
		return syncCreate
	case eventChanged(*before, *after):
		return syncUpdate
	}
	return syncNone
}

func eventChanged(a, b model.Chore) bool {
	return a.Title != b.Title ||
		a.Description != b.Description ||
		a.AssignedTo != b.AssignedTo ||
		a.Priority != b.Priority ||
		a.Recurring != b.Recurring ||
		!sameTime(a.DueDate, b.DueDate)
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func (s *Service) dispatch(before, after *model.Chore) {
	switch calendarAction(before, after) {
	case syncCreate:
		s.sync.ChoreCreated(*after)
	case syncUpdate:
		s.sync.ChoreUpdated(*after)
	case syncDelete:
		id := ""
		if after != nil {
			id = after.ID
		} else if before != nil {
			id = before.ID
		}
		s.sync.ChoreRemoved(id)
	}
}
