package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/choreify/internal/model"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

func scanEvent(row scanner) (*model.CalendarEvent, error) {
	var e model.CalendarEvent
	var allDay int
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.StartTime, &e.EndTime, &allDay,
		&e.ColorID, &e.RecurrenceRule, &e.SourceRef, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.AllDay = allDay != 0
	e.StartTime = e.StartTime.UTC()
	e.EndTime = e.EndTime.UTC()
	return &e, nil
}

const eventCols = `id, title, description, start_time, end_time, all_day, color_id, recurrence_rule, source_ref, created_at, updated_at`

func (s *EventStore) Create(e model.CalendarEvent) (*model.CalendarEvent, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO calendar_events (title, description, start_time, end_time, all_day, color_id, recurrence_rule, source_ref, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Title, e.Description, e.StartTime.UTC(), e.EndTime.UTC(), boolInt(e.AllDay),
		e.ColorID, e.RecurrenceRule, e.SourceRef, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert calendar event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *EventStore) GetByID(id int64) (*model.CalendarEvent, error) {
	row := s.db.QueryRow(`SELECT `+eventCols+` FROM calendar_events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query calendar event: %w", err)
	}
	return e, nil
}

// GetBySourceRef returns the event mirrored from the given source, or nil.
func (s *EventStore) GetBySourceRef(ref string) (*model.CalendarEvent, error) {
	row := s.db.QueryRow(`SELECT `+eventCols+` FROM calendar_events WHERE source_ref = ? ORDER BY id LIMIT 1`, ref)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query calendar event by source: %w", err)
	}
	return e, nil
}

func (s *EventStore) ListByDateRange(start, end time.Time) ([]model.CalendarEvent, error) {
	rows, err := s.db.Query(
		`SELECT `+eventCols+` FROM calendar_events
		 WHERE start_time < ? AND end_time > ?
		 ORDER BY all_day DESC, start_time ASC`,
		end.UTC(), start.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query calendar events: %w", err)
	}
	defer rows.Close()

	var events []model.CalendarEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calendar event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (s *EventStore) Update(e model.CalendarEvent) (*model.CalendarEvent, error) {
	_, err := s.db.Exec(
		`UPDATE calendar_events
		 SET title = ?, description = ?, start_time = ?, end_time = ?, all_day = ?, color_id = ?, recurrence_rule = ?, updated_at = ?
		 WHERE id = ?`,
		e.Title, e.Description, e.StartTime.UTC(), e.EndTime.UTC(), boolInt(e.AllDay),
		e.ColorID, e.RecurrenceRule, time.Now().UTC(), e.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update calendar event: %w", err)
	}
	return s.GetByID(e.ID)
}

func (s *EventStore) Delete(id int64) error {
	_, err := s.db.Exec("DELETE FROM calendar_events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	return nil
}
