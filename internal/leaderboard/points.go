// Package leaderboard scores completed chores and ranks household members.
package leaderboard

import (
	"math"
	"sort"
	"time"

	"github.com/dukerupert/choreify/internal/model"
)

const (
	basePoints    = 10.0
	onTimeBonus   = 5.0
	latePenalty   = 2.0 // per day late
	lateFloor     = 5.0
	earlyPerDay   = 2.0
	earlyBonusCap = 10.0
	hoursPerDay   = 24.0
)

func priorityMultiplier(p model.Priority) float64 {
	switch p {
	case model.PriorityHigh:
		return 1.5
	case model.PriorityMedium:
		return 1.2
	}
	return 1.0
}

// CalculatePoints scores one chore. Incomplete chores score zero.
//
// A chore finished before its due date earns both the flat on-time bonus and
// the per-day early bonus.
func CalculatePoints(c model.Chore) int {
	if !c.Completed {
		return 0
	}

	points := basePoints * priorityMultiplier(c.Priority)

	if c.DueDate != nil && c.CompletedAt != nil {
		due, done := *c.DueDate, *c.CompletedAt
		if !done.After(due) {
			points += onTimeBonus
		} else {
			daysLate := math.Ceil(done.Sub(due).Hours() / hoursPerDay)
			points = math.Max(points-daysLate*latePenalty, lateFloor)
		}

		daysEarly := math.Ceil(due.Sub(done).Hours() / hoursPerDay)
		if daysEarly > 0 {
			points += math.Min(daysEarly*earlyPerDay, earlyBonusCap)
		}
	}

	return int(math.Round(points))
}

// WindowStart returns the start of the scoring window ending at now. Unknown
// time frames use the month window.
func WindowStart(tf model.TimeFrame, now time.Time) time.Time {
	if tf == model.TimeFrameWeek {
		return now.AddDate(0, 0, -7)
	}
	return now.AddDate(0, -1, 0)
}

// Compute ranks members by the points they earned inside the window. Ties on
// total points go to the member with more chores, then to the lower user id.
func Compute(chores []model.Chore, tf model.TimeFrame, now time.Time) []model.LeaderboardEntry {
	start := WindowStart(tf, now)

	byUser := make(map[string]*model.LeaderboardEntry)
	var order []string

	for _, c := range chores {
		if !c.Completed || c.CompletedAt == nil || c.CompletedAt.Before(start) {
			continue
		}
		if c.CompletedBy == nil || *c.CompletedBy == "" || c.AssignedTo == "" {
			continue
		}

		uid := *c.CompletedBy
		e, ok := byUser[uid]
		if !ok {
			e = &model.LeaderboardEntry{UserID: uid, Name: c.AssignedTo, Chores: []model.ScoredChore{}}
			byUser[uid] = e
			order = append(order, uid)
		}

		pts := CalculatePoints(c)
		e.TotalPoints += pts
		e.ChoreCount++
		e.Chores = append(e.Chores, model.ScoredChore{Chore: c, Points: pts})

		if c.DueDate != nil {
			if c.CompletedAt.After(*c.DueDate) {
				e.LateCount++
			} else {
				e.OnTimeCount++
			}
		}
	}

	entries := make([]model.LeaderboardEntry, 0, len(order))
	for _, uid := range order {
		e := byUser[uid]
		e.AveragePoints = int(math.Round(float64(e.TotalPoints) / float64(e.ChoreCount)))
		e.OnTimeRate = int(math.Round(100 * float64(e.OnTimeCount) / float64(e.ChoreCount)))
		entries = append(entries, *e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if a.ChoreCount != b.ChoreCount {
			return a.ChoreCount > b.ChoreCount
		}
		return a.UserID < b.UserID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
