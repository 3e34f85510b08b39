package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dukerupert/choreify/internal/model"
)

type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

func scanActivity(row scanner) (*model.Activity, error) {
	var a model.Activity
	var data string

	err := row.Scan(&a.ID, &a.Type, &a.UserID, &a.UserName, &a.UserAvatar, &data, &a.Timestamp)
	if err != nil {
		return nil, err
	}
	a.Timestamp = a.Timestamp.UTC()
	a.Data, err = model.DecodeActivityData(a.Type, []byte(data))
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const activityCols = `id, type, user_id, user_name, user_avatar, data, timestamp`

// Append records an activity and evicts the oldest entries beyond keep.
func (s *ActivityStore) Append(a model.Activity, keep int) error {
	data, err := json.Marshal(a.Data)
	if err != nil {
		return fmt.Errorf("marshal activity data: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO activities (`+activityCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Type, a.UserID, a.UserName, a.UserAvatar, string(data), a.Timestamp.UTC(),
	); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}

	if _, err := tx.Exec(
		`DELETE FROM activities WHERE seq NOT IN (SELECT seq FROM activities ORDER BY seq DESC LIMIT ?)`,
		keep,
	); err != nil {
		return fmt.Errorf("trim activities: %w", err)
	}

	return tx.Commit()
}

// ListRecent returns up to limit activities, newest first. A limit <= 0
// returns all of them.
func (s *ActivityStore) ListRecent(limit int) ([]model.Activity, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT `+activityCols+` FROM activities ORDER BY timestamp DESC, seq DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var activities []model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

func (s *ActivityStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM activities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count activities: %w", err)
	}
	return n, nil
}
