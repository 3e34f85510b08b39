package model

type TimeFrame string

const (
	TimeFrameWeek  TimeFrame = "week"
	TimeFrameMonth TimeFrame = "month"
)

func (t TimeFrame) IsValid() bool {
	return t == TimeFrameWeek || t == TimeFrameMonth
}

type ScoredChore struct {
	Chore
	Points int `json:"points"`
}

// LeaderboardEntry aggregates one member's completed chores inside the
// leaderboard window.
type LeaderboardEntry struct {
	UserID        string        `json:"userId"`
	Name          string        `json:"name"`
	TotalPoints   int           `json:"totalPoints"`
	ChoreCount    int           `json:"choreCount"`
	OnTimeCount   int           `json:"onTimeCount"`
	LateCount     int           `json:"lateCount"`
	AveragePoints int           `json:"averagePoints"`
	OnTimeRate    int           `json:"onTimeRate"`
	Rank          int           `json:"rank"`
	Chores        []ScoredChore `json:"chores"`
}

type LeaderboardSettings struct {
	Enabled   bool      `json:"enabled"`
	TimeFrame TimeFrame `json:"timeFrame"`
}
