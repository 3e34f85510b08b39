package model

import "time"

// Comment is a note attached to one chore. The user fields are a snapshot of
// the author at post time.
type Comment struct {
	ID         string     `json:"id"`
	ChoreID    string     `json:"choreId"`
	UserID     string     `json:"userId"`
	UserName   string     `json:"userName"`
	UserAvatar string     `json:"userAvatar"`
	Text       string     `json:"text"`
	Timestamp  time.Time  `json:"timestamp"`
	Edited     bool       `json:"edited"`
	EditedAt   *time.Time `json:"editedAt,omitempty"`
}
