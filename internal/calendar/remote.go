package calendar

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/choreify/internal/model"
	"github.com/dukerupert/choreify/internal/recurrence"
	"github.com/dukerupert/choreify/internal/store"
)

// Remote is a calendar provider. Event ids are provider-assigned.
type Remote interface {
	Authorize(ctx context.Context, provider, authCode string) error
	Revoke(ctx context.Context) error
	CreateEvent(ctx context.Context, choreID string, ev Event) (string, error)
	UpdateEvent(ctx context.Context, eventID string, ev Event) error
	DeleteEvent(ctx context.Context, eventID string) error
}

// SimulatedRemote stands in for a hosted calendar. Each call waits delay, and
// event ids are derived from the chore id.
type SimulatedRemote struct {
	delay time.Duration

	mu     sync.Mutex
	events map[string]Event
}

func NewSimulatedRemote(delay time.Duration) *SimulatedRemote {
	return &SimulatedRemote{delay: delay, events: make(map[string]Event)}
}

func (r *SimulatedRemote) wait(ctx context.Context) error {
	if r.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(r.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (r *SimulatedRemote) Authorize(ctx context.Context, provider, authCode string) error {
	if authCode == "" {
		return fmt.Errorf("authorize %s: missing auth code", provider)
	}
	return r.wait(ctx)
}

func (r *SimulatedRemote) Revoke(ctx context.Context) error {
	return r.wait(ctx)
}

func (r *SimulatedRemote) CreateEvent(ctx context.Context, choreID string, ev Event) (string, error) {
	if err := r.wait(ctx); err != nil {
		return "", err
	}
	id := "cal_" + choreID
	r.mu.Lock()
	r.events[id] = ev
	r.mu.Unlock()
	return id, nil
}

func (r *SimulatedRemote) UpdateEvent(ctx context.Context, eventID string, ev Event) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	r.events[eventID] = ev
	r.mu.Unlock()
	return nil
}

func (r *SimulatedRemote) DeleteEvent(ctx context.Context, eventID string) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.events, eventID)
	r.mu.Unlock()
	return nil
}

// Event returns a stored event by id.
func (r *SimulatedRemote) Event(id string) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[id]
	return ev, ok
}

// LocalRemote writes chore events into the household calendar table.
type LocalRemote struct {
	events *store.EventStore
}

func NewLocalRemote(events *store.EventStore) *LocalRemote {
	return &LocalRemote{events: events}
}

// SourceRef is the source_ref of the local event mirrored from a chore.
func SourceRef(choreID string) string {
	return "chore:" + choreID
}

func (r *LocalRemote) Authorize(ctx context.Context, provider, authCode string) error { return nil }
func (r *LocalRemote) Revoke(ctx context.Context) error                               { return nil }

func toCalendarEvent(ev Event) (model.CalendarEvent, error) {
	start, end, err := ev.dates()
	if err != nil {
		return model.CalendarEvent{}, err
	}
	ce := model.CalendarEvent{
		Title:       ev.Summary,
		Description: ev.Description,
		StartTime:   start,
		EndTime:     end,
		AllDay:      ev.AllDay,
		ColorID:     ev.ColorID,
	}
	if len(ev.Recurrence) > 0 {
		rule, err := recurrence.Parse(ev.Recurrence[0])
		if err != nil {
			return model.CalendarEvent{}, fmt.Errorf("parse recurrence: %w", err)
		}
		ce.RecurrenceRule = rule.String()
	}
	return ce, nil
}

// CreateEvent reuses an event already mirrored from the chore.
func (r *LocalRemote) CreateEvent(ctx context.Context, choreID string, ev Event) (string, error) {
	ce, err := toCalendarEvent(ev)
	if err != nil {
		return "", err
	}
	existing, err := r.events.GetBySourceRef(SourceRef(choreID))
	if err != nil {
		return "", err
	}
	if existing != nil {
		ce.ID = existing.ID
		if _, err := r.events.Update(ce); err != nil {
			return "", err
		}
		return strconv.FormatInt(existing.ID, 10), nil
	}

	ce.SourceRef = SourceRef(choreID)
	created, err := r.events.Create(ce)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(created.ID, 10), nil
}

func parseEventID(id string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid event id %q", id)
	}
	return n, nil
}

func (r *LocalRemote) UpdateEvent(ctx context.Context, eventID string, ev Event) error {
	id, err := parseEventID(eventID)
	if err != nil {
		return err
	}
	ce, err := toCalendarEvent(ev)
	if err != nil {
		return err
	}
	existing, err := r.events.GetByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("calendar event %d not found", id)
	}
	ce.ID = id
	_, err = r.events.Update(ce)
	return err
}

func (r *LocalRemote) DeleteEvent(ctx context.Context, eventID string) error {
	id, err := parseEventID(eventID)
	if err != nil {
		return err
	}
	return r.events.Delete(id)
}
