package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/choreify/internal/apperr"
	"github.com/dukerupert/choreify/internal/model"
	"github.com/dukerupert/choreify/internal/store"
)

// Service ranks the household from the current chore snapshot. Nothing is
// cached; every call recomputes.
type Service struct {
	chores   *store.ChoreStore
	settings *store.SettingsStore
	now      func() time.Time
}

func NewService(chores *store.ChoreStore, settings *store.SettingsStore) *Service {
	return &Service{chores: chores, settings: settings, now: time.Now}
}

func (s *Service) Settings(ctx context.Context) (model.LeaderboardSettings, error) {
	enabled, err := s.settings.GetBool(store.KeyLeaderboardEnabled, true)
	if err != nil {
		return model.LeaderboardSettings{}, err
	}
	v, err := s.settings.GetOr(store.KeyLeaderboardTimeFrame, string(model.TimeFrameWeek))
	if err != nil {
		return model.LeaderboardSettings{}, err
	}
	tf := model.TimeFrame(v)
	if !tf.IsValid() {
		tf = model.TimeFrameWeek
	}
	return model.LeaderboardSettings{Enabled: enabled, TimeFrame: tf}, nil
}

func (s *Service) SetEnabled(ctx context.Context, enabled bool) error {
	return s.settings.SetBool(store.KeyLeaderboardEnabled, enabled)
}

func (s *Service) SetTimeFrame(ctx context.Context, tf model.TimeFrame) error {
	if !tf.IsValid() {
		return fmt.Errorf("%w: unknown time frame %q", apperr.ErrValidation, tf)
	}
	return s.settings.Set(store.KeyLeaderboardTimeFrame, string(tf))
}

// Leaderboard returns the ranked entries, or an empty list when the
// leaderboard is turned off.
func (s *Service) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	cfg, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return []model.LeaderboardEntry{}, nil
	}
	chores, err := s.chores.List()
	if err != nil {
		return nil, fmt.Errorf("load chores: %w", err)
	}
	return Compute(chores, cfg.TimeFrame, s.now()), nil
}

func (s *Service) entry(ctx context.Context, userID string) (*model.LeaderboardEntry, error) {
	entries, err := s.Leaderboard(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].UserID == userID {
			return &entries[i], nil
		}
	}
	return nil, nil
}

// UserRank reports the 1-based rank of userID. ok is false when the user has
// no scored chores in the window.
func (s *Service) UserRank(ctx context.Context, userID string) (rank int, ok bool, err error) {
	e, err := s.entry(ctx, userID)
	if err != nil || e == nil {
		return 0, false, err
	}
	return e.Rank, true, nil
}

func (s *Service) UserPoints(ctx context.Context, userID string) (int, error) {
	e, err := s.entry(ctx, userID)
	if err != nil || e == nil {
		return 0, err
	}
	return e.TotalPoints, nil
}
