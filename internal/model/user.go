package model

import "time"

type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Avatar      string    `json:"avatar"`
	HouseholdID string    `json:"householdId"`
	CreatedAt   time.Time `json:"createdAt"`
}
