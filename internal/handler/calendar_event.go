package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/choreify/internal/apperr"
	"github.com/dukerupert/choreify/internal/calendar"
	"github.com/dukerupert/choreify/internal/model"
	"github.com/dukerupert/choreify/internal/notify"
	"github.com/dukerupert/choreify/internal/store"
)

// CalendarEventHandler reads the built-in household calendar that chores are
// mirrored to when the local provider is configured. Events are written only
// by the calendar adapter.
type CalendarEventHandler struct {
	base
	events *store.EventStore
}

func NewCalendarEventHandler(es *store.EventStore, sink notify.Sink, logger *slog.Logger) *CalendarEventHandler {
	return &CalendarEventHandler{base: newBase(nil, sink, logger), events: es}
}

// List returns the events overlapping [start, end). With ?chore=<id> it
// returns the single event mirrored from that chore instead.
func (h *CalendarEventHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if choreID := q.Get("chore"); choreID != "" {
		e, err := h.events.GetBySourceRef(calendar.SourceRef(choreID))
		if err != nil {
			h.fail(w, r, err, "failed to load event")
			return
		}
		events := []model.CalendarEvent{}
		if e != nil {
			events = append(events, *e)
		}
		writeJSON(w, http.StatusOK, events)
		return
	}

	start, end, err := parseRange(q.Get("start"), q.Get("end"))
	if err != nil {
		h.fail(w, r, err, "failed to list events")
		return
	}

	events, err := h.events.ListByDateRange(start, end)
	if err != nil {
		h.fail(w, r, err, "failed to list events")
		return
	}
	if events == nil {
		events = []model.CalendarEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *CalendarEventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}

	e, err := h.events.GetByID(id)
	if err != nil {
		h.fail(w, r, err, "failed to get event")
		return
	}
	if e == nil {
		h.fail(w, r, fmt.Errorf("event %d: %w", id, apperr.ErrNotFound), "failed to get event")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// parseRange reads a start/end pair given as RFC 3339 timestamps or plain
// dates. A plain end date covers that whole day.
func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start and end query parameters are required", apperr.ErrValidation)
	}
	start, _, err := parseFlexibleTime(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start must be RFC3339 or YYYY-MM-DD", apperr.ErrValidation)
	}
	end, dateOnly, err := parseFlexibleTime(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end must be RFC3339 or YYYY-MM-DD", apperr.ErrValidation)
	}
	if dateOnly {
		end = end.AddDate(0, 0, 1)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end must be after start", apperr.ErrValidation)
	}
	return start, end, nil
}

func parseFlexibleTime(s string) (t time.Time, dateOnly bool, err error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	t, err = time.Parse(time.DateOnly, s)
	return t, true, err
}
