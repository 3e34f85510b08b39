package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

const (
	KeyLeaderboardEnabled   = "leaderboard_enabled"
	KeyLeaderboardTimeFrame = "leaderboard_time_frame"
	KeyApprovalRequired     = "approval_required"
	KeyCalendarConnected    = "calendar_connected"
	KeyCalendarProvider     = "calendar_provider"
	KeyCalendarLastSynced   = "calendar_last_synced"
)

var leaderboardKeys = []string{
	KeyLeaderboardEnabled,
	KeyLeaderboardTimeFrame,
}

var calendarKeys = []string{
	KeyCalendarConnected,
	KeyCalendarProvider,
	KeyCalendarLastSynced,
}

type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("setting %q not found", key)
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

// GetOr returns the stored value for key, or def when the key is unset.
func (s *SettingsStore) GetOr(key, def string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

// GetBool parses a stored boolean. Unset or unparseable values yield def.
func (s *SettingsStore) GetBool(key string, def bool) (bool, error) {
	v, err := s.GetOr(key, strconv.FormatBool(def))
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, nil
	}
	return b, nil
}

func (s *SettingsStore) GetAll() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("get all settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

func (s *SettingsStore) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

func (s *SettingsStore) SetBool(key string, value bool) error {
	return s.Set(key, strconv.FormatBool(value))
}

func (s *SettingsStore) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	return nil
}

func (s *SettingsStore) GetLeaderboardSettings() (map[string]string, error) {
	return s.getGroup("leaderboard", leaderboardKeys)
}

func (s *SettingsStore) GetCalendarSettings() (map[string]string, error) {
	return s.getGroup("calendar", calendarKeys)
}

func (s *SettingsStore) getGroup(name string, keys []string) (map[string]string, error) {
	settings := make(map[string]string)
	for _, key := range keys {
		var value string
		err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get %s setting %q: %w", name, key, err)
		}
		settings[key] = value
	}
	return settings, nil
}
