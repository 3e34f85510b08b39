// Package collab records the social side of chores: comments, the activity
// feed, approval events and swap offers.
package collab

import (
	"context"
	"errors"
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

// DefaultActivityLimit is used when RecentActivities is asked for a
// non-positive number of entries.
const DefaultActivityLimit = 20

type Engine struct {
	comments   *store.CommentStore
	activities *store.ActivityStore
	swaps      *store.SwapStore
	notify     notify.Sink
	logger     *slog.Logger
	now        func() time.Time
}

func NewEngine(comments *store.CommentStore, activities *store.ActivityStore, swaps *store.SwapStore, sink notify.Sink, logger *slog.Logger) *Engine {
	if sink == nil {
		sink = notify.Discard{}
	}
	return &Engine{
		comments:   comments,
		activities: activities,
		swaps:      swaps,
		notify:     sink,
		logger:     logger,
		now:        time.Now,
	}
}

// RecordActivity appends an activity for the current user and trims the feed
// to model.MaxActivities entries.
func (e *Engine) RecordActivity(ctx context.Context, data model.ActivityData) (*model.Activity, error) {
	user, ok := auth.CurrentUser(ctx)
	if !ok {
		return nil, apperr.ErrUnauthenticated
	}
	a := model.Activity{
		ID:         uuid.NewString(),
		Type:       data.Type(),
		UserID:     user.ID,
		UserName:   user.Name,
		UserAvatar: user.Avatar,
		Data:       data,
		Timestamp:  e.now().UTC(),
	}
	if err := e.activities.Append(a, model.MaxActivities); err != nil {
		return nil, fmt.Errorf("record activity: %w", err)
	}
	e.logger.Debug("activity recorded", "type", a.Type, "chore_id", data.Ref().ChoreID, "user_id", user.ID)
	return &a, nil
}

// RecentActivities returns the newest activities first.
func (e *Engine) RecentActivities(ctx context.Context, limit int) ([]model.Activity, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	return e.activities.ListRecent(limit)
}

func ref(choreID, choreName string) model.ChoreRef {
	if choreName == "" {
		choreName = choreID
	}
	return model.ChoreRef{ChoreID: choreID, ChoreName: choreName}
}

// AddComment attaches text to a chore. Blank text is rejected and nothing is
// recorded.
func (e *Engine) AddComment(ctx context.Context, choreID, text, choreName string) (*model.Comment, error) {
	user, ok := auth.CurrentUser(ctx)
	if !ok {
		return nil, apperr.ErrUnauthenticated
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text is required", apperr.ErrValidation)
	}

	c, err := e.comments.Create(model.Comment{
		ID:         uuid.NewString(),
		ChoreID:    choreID,
		UserID:     user.ID,
		UserName:   user.Name,
		UserAvatar: user.Avatar,
		Text:       text,
		Timestamp:  e.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	if _, err := e.RecordActivity(ctx, model.CommentActivity{ChoreRef: ref(choreID, choreName), CommentID: c.ID}); err != nil {
		return nil, err
	}
	return c, nil
}

// authored loads a comment and checks that the current user wrote it.
func (e *Engine) authored(ctx context.Context, id string) (*model.Comment, error) {
	user, ok := auth.CurrentUser(ctx)
	if !ok {
		return nil, apperr.ErrUnauthenticated
	}
	c, err := e.comments.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("comment %s: %w", id, apperr.ErrNotFound)
	}
	if c.UserID != user.ID {
		return nil, fmt.Errorf("comment %s: %w", id, apperr.ErrForbidden)
	}
	return c, nil
}

func (e *Engine) UpdateComment(ctx context.Context, id, text string) (*model.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text is required", apperr.ErrValidation)
	}
	if _, err := e.authored(ctx, id); err != nil {
		return nil, err
	}
	c, err := e.comments.UpdateText(id, text, e.now().UTC())
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (e *Engine) DeleteComment(ctx context.Context, id string) error {
	if _, err := e.authored(ctx, id); err != nil {
		return err
	}
	return e.comments.Delete(id)
}

// CommentsByChore returns a chore's comments oldest first.
func (e *Engine) CommentsByChore(ctx context.Context, choreID string) ([]model.Comment, error) {
	return e.comments.ListByChore(choreID)
}

// MarkForApproval records that a completion awaits review. The chore itself
// must already be completed and flagged.
func (e *Engine) MarkForApproval(ctx context.Context, choreID, choreName string) error {
	if _, err := e.RecordActivity(ctx, model.PendingApprovalActivity{ChoreRef: ref(choreID, choreName)}); err != nil {
		return err
	}
	e.notify.Notify(ctx, "Chore marked as completed, awaiting approval", notify.LevelInfo)
	return nil
}

func (e *Engine) ApproveChore(ctx context.Context, choreID, choreName, completedBy string) error {
	if _, err := e.RecordActivity(ctx, model.ApprovedActivity{ChoreRef: ref(choreID, choreName), CompletedBy: completedBy}); err != nil {
		return err
	}
	e.notify.Notify(ctx, "Chore approved successfully", notify.LevelSuccess)
	return nil
}

func (e *Engine) RejectChore(ctx context.Context, choreID, choreName, completedBy string) error {
	if _, err := e.RecordActivity(ctx, model.RejectedActivity{ChoreRef: ref(choreID, choreName), CompletedBy: completedBy}); err != nil {
		return err
	}
	e.notify.Notify(ctx, "Chore marked as incomplete, needs more work", notify.LevelWarning)
	return nil
}

// PutChoreUpForGrabs offers a chore to the household. ok is false, with no
// state change, when the chore already has an available offer.
func (e *Engine) PutChoreUpForGrabs(ctx context.Context, choreID, choreName string) (*model.SwapOffer, bool, error) {
	user, ok := auth.CurrentUser(ctx)
	if !ok {
		return nil, false, apperr.ErrUnauthenticated
	}
	r := ref(choreID, choreName)

	offer, err := e.swaps.Create(model.SwapOffer{
		ID:            uuid.NewString(),
		ChoreID:       choreID,
		ChoreName:     r.ChoreName,
		OfferedBy:     user.ID,
		OfferedByName: user.Name,
		OfferedAt:     e.now().UTC(),
		Status:        model.SwapAvailable,
	})
	if errors.Is(err, store.ErrActiveOffer) {
		e.logger.Info("chore already up for grabs", "chore_id", choreID)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("create swap offer: %w", err)
	}

	if _, err := e.RecordActivity(ctx, model.UpForGrabsActivity{ChoreRef: r}); err != nil {
		return nil, false, err
	}
	e.notify.Notify(ctx, fmt.Sprintf("%q is now up for grabs", r.ChoreName), notify.LevelInfo)
	return offer, true, nil
}

// offerFor loads an offer and fills in the chore reference from it when the
// caller left it blank.
func (e *Engine) offerFor(offerID, choreID, choreName string) (*model.SwapOffer, model.ChoreRef, error) {
	offer, err := e.swaps.GetByID(offerID)
	if err != nil {
		return nil, model.ChoreRef{}, fmt.Errorf("get swap offer: %w", err)
	}
	if offer == nil {
		return nil, model.ChoreRef{}, fmt.Errorf("swap offer %s: %w", offerID, apperr.ErrNotFound)
	}
	if choreID == "" {
		choreID = offer.ChoreID
	}
	if choreName == "" {
		choreName = offer.ChoreName
	}
	return offer, ref(choreID, choreName), nil
}

// ClaimChore moves an available offer to claimed by the current user. The
// caller reassigns the chore.
func (e *Engine) ClaimChore(ctx context.Context, offerID, choreID, choreName string) (*model.SwapOffer, error) {
	user, ok := auth.CurrentUser(ctx)
	if !ok {
		return nil, apperr.ErrUnauthenticated
	}
	offer, r, err := e.offerFor(offerID, choreID, choreName)
	if err != nil {
		return nil, err
	}

	claimed, err := e.swaps.Claim(offerID, user.ID, user.Name, e.now().UTC())
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, fmt.Errorf("swap offer %s is %s: %w", offerID, offer.Status, apperr.ErrOfferClosed)
	}

	if _, err := e.RecordActivity(ctx, model.ClaimedActivity{ChoreRef: r, OfferedBy: offer.OfferedByName}); err != nil {
		return nil, err
	}
	e.notify.Notify(ctx, fmt.Sprintf("You claimed %q", r.ChoreName), notify.LevelSuccess)
	return e.swaps.GetByID(offerID)
}

func (e *Engine) CancelSwap(ctx context.Context, offerID, choreID, choreName string) (*model.SwapOffer, error) {
	offer, r, err := e.offerFor(offerID, choreID, choreName)
	if err != nil {
		return nil, err
	}

	cancelled, err := e.swaps.Cancel(offerID, e.now().UTC())
	if err != nil {
		return nil, err
	}
	if !cancelled {
		return nil, fmt.Errorf("swap offer %s is %s: %w", offerID, offer.Status, apperr.ErrOfferClosed)
	}

	if _, err := e.RecordActivity(ctx, model.SwapCancelledActivity{ChoreRef: r}); err != nil {
		return nil, err
	}
	e.notify.Notify(ctx, fmt.Sprintf("%q is no longer up for grabs", r.ChoreName), notify.LevelInfo)
	return e.swaps.GetByID(offerID)
}

// ChoreSwapStatus returns the chore's most recent offer that was not
// cancelled, or nil.
func (e *Engine) ChoreSwapStatus(ctx context.Context, choreID string) (*model.SwapOffer, error) {
	return e.swaps.LatestActive(choreID)
}

// AvailableChores lists open offers, newest first.
func (e *Engine) AvailableChores(ctx context.Context) ([]model.SwapOffer, error) {
	return e.swaps.ListAvailable()
}

// GetOffer returns the offer or apperr.ErrNotFound.
func (e *Engine) GetOffer(ctx context.Context, id string) (*model.SwapOffer, error) {
	offer, _, err := e.offerFor(id, "", "")
	return offer, err
}
