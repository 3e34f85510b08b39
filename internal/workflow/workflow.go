// Package workflow runs the multi-step chore protocols: completion with
// optional peer approval, and swapping chores between members.
package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/choreify/internal/apperr"
	"github.com/dukerupert/choreify/internal/auth"
	"github.com/dukerupert/choreify/internal/chore"
	"github.com/dukerupert/choreify/internal/collab"
	"github.com/dukerupert/choreify/internal/lockmap"
	"github.com/dukerupert/choreify/internal/model"
	"github.com/dukerupert/choreify/internal/store"
)

// Coordinator pairs chore state changes with their activity records. Each
// protocol step holds the chore's lock so concurrent requests see the result
// of the previous step.
type Coordinator struct {
	chores   *chore.Service
	collab   *collab.Engine
	settings *store.SettingsStore
	logger   *slog.Logger

	locks lockmap.Map
}

func NewCoordinator(chores *chore.Service, engine *collab.Engine, settings *store.SettingsStore, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		chores:   chores,
		collab:   engine,
		settings: settings,
		logger:   logger,
	}
}

func (c *Coordinator) lock(choreID string) func() {
	return c.locks.Lock(choreID)
}

func (c *Coordinator) ApprovalRequired(ctx context.Context) (bool, error) {
	return c.settings.GetBool(store.KeyApprovalRequired, false)
}

func (c *Coordinator) SetApprovalRequired(ctx context.Context, required bool) error {
	return c.settings.SetBool(store.KeyApprovalRequired, required)
}

// Complete finishes a chore. When the household requires approval the chore
// is held as pending until another member approves or rejects it.
func (c *Coordinator) Complete(ctx context.Context, id string) (*model.Chore, error) {
	defer c.lock(id)()

	current, err := c.chores.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Completed {
		return nil, fmt.Errorf("chore %s is already completed: %w", id, apperr.ErrConflict)
	}

	required, err := c.ApprovalRequired(ctx)
	if err != nil {
		return nil, err
	}

	if required {
		updated, err := c.chores.RequestApproval(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := c.collab.MarkForApproval(ctx, id, updated.Title); err != nil {
			return nil, err
		}
		if err := c.withdrawOffer(ctx, updated); err != nil {
			return nil, err
		}
		return updated, nil
	}

	updated, err := c.chores.SetCompletion(ctx, id, true, false)
	if err != nil {
		return nil, err
	}
	if _, err := c.collab.RecordActivity(ctx, model.CompletedActivity{
		ChoreRef: model.ChoreRef{ChoreID: id, ChoreName: updated.Title},
	}); err != nil {
		return nil, err
	}
	if err := c.withdrawOffer(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// withdrawOffer cancels the chore's available swap offer, if any. A finished
// chore cannot stay up for grabs.
func (c *Coordinator) withdrawOffer(ctx context.Context, ch *model.Chore) error {
	offer, err := c.collab.ChoreSwapStatus(ctx, ch.ID)
	if err != nil {
		return err
	}
	if offer == nil || offer.Status != model.SwapAvailable {
		return nil
	}
	if _, err := c.collab.CancelSwap(ctx, offer.ID, ch.ID, ch.Title); err != nil {
		return err
	}
	c.logger.Info("swap offer withdrawn on completion", "chore_id", ch.ID, "offer_id", offer.ID)
	return nil
}

func (c *Coordinator) Uncomplete(ctx context.Context, id string) (*model.Chore, error) {
	defer c.lock(id)()
	return c.chores.SetCompletion(ctx, id, false, false)
}

// pending loads a chore that must be awaiting approval.
func (c *Coordinator) pending(ctx context.Context, id string) (*model.Chore, error) {
	current, err := c.chores.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.PendingApproval {
		return nil, fmt.Errorf("chore %s is not awaiting approval: %w", id, apperr.ErrConflict)
	}
	return current, nil
}

func completer(ch *model.Chore) string {
	if ch.CompletedBy == nil {
		return ""
	}
	return *ch.CompletedBy
}

func (c *Coordinator) Approve(ctx context.Context, id string) (*model.Chore, error) {
	defer c.lock(id)()

	current, err := c.pending(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := c.chores.SetCompletion(ctx, id, true, true)
	if err != nil {
		return nil, err
	}
	if err := c.collab.ApproveChore(ctx, id, current.Title, completer(current)); err != nil {
		return nil, err
	}
	c.logger.Info("chore approved", "chore_id", id, "approver", auth.UserID(ctx))
	return updated, nil
}

func (c *Coordinator) Reject(ctx context.Context, id string) (*model.Chore, error) {
	defer c.lock(id)()

	current, err := c.pending(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := c.chores.SetCompletion(ctx, id, false, false)
	if err != nil {
		return nil, err
	}
	if err := c.collab.RejectChore(ctx, id, current.Title, completer(current)); err != nil {
		return nil, err
	}
	c.logger.Info("chore rejected", "chore_id", id, "reviewer", auth.UserID(ctx))
	return updated, nil
}

// Offer puts an open chore up for grabs. When an offer is already available
// ok is false and the existing offer is returned.
func (c *Coordinator) Offer(ctx context.Context, id string) (offer *model.SwapOffer, ok bool, err error) {
	defer c.lock(id)()

	current, err := c.chores.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if current.Completed {
		return nil, false, fmt.Errorf("chore %s is completed: %w", id, apperr.ErrConflict)
	}

	offer, ok, err = c.collab.PutChoreUpForGrabs(ctx, id, current.Title)
	if err != nil || ok {
		return offer, ok, err
	}
	existing, err := c.collab.ChoreSwapStatus(ctx, id)
	return existing, false, err
}

// Claim takes an available offer and reassigns the chore to the claimant.
func (c *Coordinator) Claim(ctx context.Context, offerID string) (*model.SwapOffer, *model.Chore, error) {
	user, ok := auth.CurrentUser(ctx)
	if !ok {
		return nil, nil, apperr.ErrUnauthenticated
	}
	offer, err := c.collab.GetOffer(ctx, offerID)
	if err != nil {
		return nil, nil, err
	}
	defer c.lock(offer.ChoreID)()

	current, err := c.chores.Get(ctx, offer.ChoreID)
	if err != nil {
		return nil, nil, err
	}
	if current.Completed {
		return nil, nil, fmt.Errorf("chore %s is completed: %w", offer.ChoreID, apperr.ErrConflict)
	}

	claimed, err := c.collab.ClaimChore(ctx, offerID, offer.ChoreID, offer.ChoreName)
	if err != nil {
		return nil, nil, err
	}
	name := user.Name
	updated, err := c.chores.Update(ctx, offer.ChoreID, chore.Patch{AssignedTo: &name})
	if err != nil {
		return nil, nil, err
	}
	return claimed, updated, nil
}

func (c *Coordinator) CancelOffer(ctx context.Context, offerID string) (*model.SwapOffer, error) {
	offer, err := c.collab.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	defer c.lock(offer.ChoreID)()
	return c.collab.CancelSwap(ctx, offerID, offer.ChoreID, offer.ChoreName)
}
