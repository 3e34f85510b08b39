package chore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/choreify/internal/apperr"
	"github.com/dukerupert/choreify/internal/auth"
	"github.com/dukerupert/choreify/internal/model"
	"github.com/dukerupert/choreify/internal/notify"
	"github.com/dukerupert/choreify/internal/store"
)

// CreateInput holds the caller-supplied fields of a new chore.
type CreateInput struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	DueDate     *time.Time       `json:"dueDate"`
	AssignedTo  string           `json:"assignedTo"`
	Priority    model.Priority   `json:"priority"`
	Recurring   model.Recurrence `json:"recurring"`
	CategoryID  *string          `json:"categoryId"`
}

// Patch lists the editable fields; nil fields are left unchanged. A due date
// or category can only be removed through the Clear flags.
type Patch struct {
	Title         *string           `json:"title"`
	Description   *string           `json:"description"`
	DueDate       *time.Time        `json:"dueDate"`
	ClearDueDate  bool              `json:"clearDueDate"`
	AssignedTo    *string           `json:"assignedTo"`
	Priority      *model.Priority   `json:"priority"`
	Recurring     *model.Recurrence `json:"recurring"`
	CategoryID    *string           `json:"categoryId"`
	ClearCategory bool              `json:"clearCategory"`
}

// Service owns the chore records. Every change to completion state goes
// through it so the completion fields stay consistent.
type Service struct {
	chores *store.ChoreStore
	sync   CalendarSync
	notify notify.Sink
	logger *slog.Logger
	now    func() time.Time
}

func NewService(chores *store.ChoreStore, sync CalendarSync, sink notify.Sink, logger *slog.Logger) *Service {
	if sync == nil {
		sync = noopSync{}
	}
	if sink == nil {
		sink = notify.Discard{}
	}
	return &Service{
		chores: chores,
		sync:   sync,
		notify: sink,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Chore, error) {
	user, ok := auth.CurrentUser(ctx)
	if !ok {
		return nil, apperr.ErrUnauthenticated
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", apperr.ErrValidation)
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if in.Recurring == "" {
		in.Recurring = model.RecurrenceNone
	}
	if err := validateEnums(in.Priority, in.Recurring); err != nil {
		return nil, err
	}

	c := model.Chore{
		ID:          uuid.NewString(),
		Title:       title,
		Description: in.Description,
		DueDate:     utcPtr(in.DueDate),
		AssignedTo:  in.AssignedTo,
		Priority:    in.Priority,
		Recurring:   in.Recurring,
		CategoryID:  in.CategoryID,
		CreatedBy:   user.ID,
		CreatedAt:   s.now().UTC(),
	}

	created, err := s.chores.Create(c)
	if err != nil {
		return nil, fmt.Errorf("create chore: %w", err)
	}

	s.logger.Info("chore created", "chore_id", created.ID, "user_id", user.ID)
	s.dispatch(nil, created)
	s.notify.Notify(ctx, "Chore added successfully!", notify.LevelSuccess)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, p Patch) (*model.Chore, error) {
	before, err := s.mustGet(id)
	if err != nil {
		return nil, err
	}

	next := *before
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title is required", apperr.ErrValidation)
		}
		next.Title = title
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.ClearDueDate {
		next.DueDate = nil
	} else if p.DueDate != nil {
		next.DueDate = utcPtr(p.DueDate)
	}
	if p.AssignedTo != nil {
		next.AssignedTo = *p.AssignedTo
	}
	if p.Priority != nil {
		next.Priority = *p.Priority
	}
	if p.Recurring != nil {
		next.Recurring = *p.Recurring
	}
	if p.ClearCategory {
		next.CategoryID = nil
	} else if p.CategoryID != nil {
		next.CategoryID = p.CategoryID
	}
	if err := validateEnums(next.Priority, next.Recurring); err != nil {
		return nil, err
	}

	updated, err := s.chores.Update(next)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}

	s.dispatch(before, updated)
	s.notify.Notify(ctx, "Chore updated successfully!", notify.LevelSuccess)
	return updated, nil
}

// SetCompletion marks a chore done or not done. Completing records the current
// user and time and keeps pendingApproval unless clearPendingApproval is set.
// Clearing the flag on a chore awaiting approval finalizes it and keeps the
// original completer and time. Un-completing clears all completion fields.
func (s *Service) SetCompletion(ctx context.Context, id string, completed, clearPendingApproval bool) (*model.Chore, error) {
	before, err := s.mustGet(id)
	if err != nil {
		return nil, err
	}

	var updated *model.Chore
	if completed {
		user, ok := auth.CurrentUser(ctx)
		if !ok {
			return nil, apperr.ErrUnauthenticated
		}
		at, by := s.now().UTC(), user.ID
		if before.PendingApproval && clearPendingApproval && before.CompletedAt != nil && before.CompletedBy != nil {
			at, by = *before.CompletedAt, *before.CompletedBy
		}
		pending := before.PendingApproval && !clearPendingApproval
		updated, err = s.chores.SetCompletion(id, &at, &by, pending)
	} else {
		updated, err = s.chores.SetCompletion(id, nil, nil, false)
	}
	if err != nil {
		return nil, fmt.Errorf("set completion: %w", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("chore %s: %w", id, apperr.ErrNotFound)
	}

	s.logger.Info("chore completion changed", "chore_id", id, "completed", completed, "pending_approval", updated.PendingApproval)
	s.dispatch(before, updated)
	if completed {
		s.notify.Notify(ctx, "Chore completed! Great job!", notify.LevelSuccess)
	} else {
		s.notify.Notify(ctx, "Chore marked as incomplete", notify.LevelInfo)
	}
	return updated, nil
}

// RequestApproval completes the chore and flags it for peer approval in a
// single write.
func (s *Service) RequestApproval(ctx context.Context, id string) (*model.Chore, error) {
	user, ok := auth.CurrentUser(ctx)
	if !ok {
		return nil, apperr.ErrUnauthenticated
	}
	before, err := s.mustGet(id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	updated, err := s.chores.SetCompletion(id, &now, &user.ID, true)
	if err != nil {
		return nil, fmt.Errorf("request approval: %w", err)
	}

	s.dispatch(before, updated)
	s.notify.Notify(ctx, "Chore submitted for approval", notify.LevelInfo)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	before, err := s.chores.GetByID(id)
	if err != nil {
		return fmt.Errorf("get chore: %w", err)
	}
	if err := s.chores.Delete(id); err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}

	s.logger.Info("chore deleted", "chore_id", id)
	if before != nil {
		s.dispatch(before, nil)
	}
	s.notify.Notify(ctx, "Chore deleted", notify.LevelInfo)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.Chore, error) {
	return s.mustGet(id)
}

func (s *Service) List(ctx context.Context) ([]model.Chore, error) {
	return s.chores.List()
}

func (s *Service) ListByStatus(ctx context.Context, completed bool) ([]model.Chore, error) {
	return s.chores.ListByCompleted(completed)
}

func (s *Service) ListByAssignee(ctx context.Context, assignee string) ([]model.Chore, error) {
	return s.chores.ListByAssignee(assignee)
}

// ListOverdue returns incomplete chores whose due date is before now.
func (s *Service) ListOverdue(ctx context.Context, now time.Time) ([]model.Chore, error) {
	return s.filter(func(c model.Chore) bool { return c.IsOverdue(now) })
}

// ListDueToday returns incomplete chores due on now's calendar day.
func (s *Service) ListDueToday(ctx context.Context, now time.Time) ([]model.Chore, error) {
	return s.filter(func(c model.Chore) bool { return c.IsDueOn(now) })
}

// filter projects over one snapshot of the chore set.
func (s *Service) filter(keep func(model.Chore) bool) ([]model.Chore, error) {
	all, err := s.chores.List()
	if err != nil {
		return nil, err
	}
	out := make([]model.Chore, 0, len(all))
	for _, c := range all {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Service) mustGet(id string) (*model.Chore, error) {
	c, err := s.chores.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("chore %s: %w", id, apperr.ErrNotFound)
	}
	return c, nil
}

func validateEnums(p model.Priority, r model.Recurrence) error {
	if !p.IsValid() {
		return fmt.Errorf("%w: unknown priority %q", apperr.ErrValidation, p)
	}
	if !r.IsValid() {
		return fmt.Errorf("%w: unknown recurrence %q", apperr.ErrValidation, r)
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
