package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/choreify/internal/model"
)

// CalendarSyncStore persists the chore to remote calendar event mapping.
type CalendarSyncStore struct {
	db *sql.DB
}

func NewCalendarSyncStore(db *sql.DB) *CalendarSyncStore {
	return &CalendarSyncStore{db: db}
}

func scanSyncRecord(row scanner) (*model.CalendarSyncRecord, error) {
	var r model.CalendarSyncRecord
	var due sql.NullTime
	if err := row.Scan(&r.ChoreID, &r.CalendarEventID, &r.LastSynced, &r.Title, &due); err != nil {
		return nil, err
	}
	r.LastSynced = r.LastSynced.UTC()
	r.DueDate = timePtr(due)
	return &r, nil
}

const syncCols = `chore_id, calendar_event_id, last_synced, title, due_date`

func (s *CalendarSyncStore) Upsert(r model.CalendarSyncRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO calendar_sync (`+syncCols+`) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(chore_id) DO UPDATE SET calendar_event_id = excluded.calendar_event_id,
		   last_synced = excluded.last_synced, title = excluded.title, due_date = excluded.due_date`,
		r.ChoreID, r.CalendarEventID, r.LastSynced.UTC(), r.Title, nullTime(r.DueDate),
	)
	if err != nil {
		return fmt.Errorf("upsert calendar sync record: %w", err)
	}
	return nil
}

func (s *CalendarSyncStore) Get(choreID string) (*model.CalendarSyncRecord, error) {
	row := s.db.QueryRow(`SELECT `+syncCols+` FROM calendar_sync WHERE chore_id = ?`, choreID)
	r, err := scanSyncRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get calendar sync record: %w", err)
	}
	return r, nil
}

func (s *CalendarSyncStore) List() ([]model.CalendarSyncRecord, error) {
	rows, err := s.db.Query(`SELECT ` + syncCols + ` FROM calendar_sync ORDER BY chore_id`)
	if err != nil {
		return nil, fmt.Errorf("list calendar sync records: %w", err)
	}
	defer rows.Close()

	var records []model.CalendarSyncRecord
	for rows.Next() {
		r, err := scanSyncRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calendar sync record: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

func (s *CalendarSyncStore) Delete(choreID string) error {
	if _, err := s.db.Exec(`DELETE FROM calendar_sync WHERE chore_id = ?`, choreID); err != nil {
		return fmt.Errorf("delete calendar sync record: %w", err)
	}
	return nil
}

func (s *CalendarSyncStore) DeleteAll() error {
	if _, err := s.db.Exec(`DELETE FROM calendar_sync`); err != nil {
		return fmt.Errorf("clear calendar sync records: %w", err)
	}
	return nil
}
