package push

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/choreify/internal/model"
	"github.com/dukerupert/choreify/internal/store"
)

// Scheduler periodically reminds assignees of chores due today.
type Scheduler struct {
	mu       sync.RWMutex
	service  *Service
	push     *store.PushStore
	chores   *store.ChoreStore
	users    *store.UserStore
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewScheduler(svc *Service, pushStore *store.PushStore, choreStore *store.ChoreStore, userStore *store.UserStore, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service:  svc,
		push:     pushStore,
		chores:   choreStore,
		users:    userStore,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Run checks once immediately and then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		s.Run(ctx)
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.now()
	chores, err := s.chores.List()
	if err != nil {
		s.logger.Error("list chores", "error", err)
		return
	}
	users, err := s.users.List()
	if err != nil {
		s.logger.Error("list users", "error", err)
		return
	}
	byName := make(map[string]string, len(users))
	for _, u := range users {
		byName[strings.ToLower(u.Name)] = u.ID
	}

	day := now.Format("2006-01-02")
	for _, c := range chores {
		if !c.IsDueOn(now) {
			continue
		}
		refID := c.ID + ":" + day
		sent, err := s.push.WasSent(model.NotifTypeChoreDue, refID)
		if err != nil {
			s.logger.Error("check sent notification", "error", err)
			continue
		}
		if sent {
			continue
		}

		payload := Payload{
			Title: "Chore due today",
			Body:  fmt.Sprintf("%s is due today", c.Title),
			URL:   "/chores/" + c.ID,
			Tag:   "chore-due-" + c.ID,
		}

		// Unassigned chores, or assignees without an account, go to everyone.
		if uid, ok := byName[strings.ToLower(c.AssignedTo)]; ok && c.AssignedTo != "" {
			s.service.SendToUser(ctx, uid, payload)
		} else {
			s.service.SendToAll(ctx, payload)
		}

		if err := s.push.RecordSent(model.NotifTypeChoreDue, refID); err != nil {
			s.logger.Error("record sent notification", "error", err)
		}
	}

	if err := s.push.CleanupSent(now.AddDate(0, 0, -30)); err != nil {
		s.logger.Error("cleanup notification log", "error", err)
	}
}
