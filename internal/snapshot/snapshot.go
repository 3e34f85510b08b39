// Package snapshot exports the household's chore data as one JSON document
// and loads such a document back.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dukerupert/choreify/internal/apperr"
	"github.com/dukerupert/choreify/internal/model"
	"github.com/dukerupert/choreify/internal/store"
)

// Version is written into every document. Import refuses other versions.
const Version = 1

// Document holds everything except user accounts and push subscriptions.
// Activities are newest first, as the feed shows them.
type Document struct {
	Version      int                        `json:"version"`
	ExportedAt   time.Time                  `json:"exportedAt"`
	Chores       []model.Chore              `json:"chores"`
	Comments     []model.Comment            `json:"comments"`
	Activities   []model.Activity           `json:"activities"`
	SwapOffers   []model.SwapOffer          `json:"swapOffers"`
	Categories   []model.Category           `json:"categories"`
	Settings     map[string]string          `json:"settings"`
	CalendarSync []model.CalendarSyncRecord `json:"calendarSync"`
}

type Service struct {
	db         *sql.DB
	chores     *store.ChoreStore
	comments   *store.CommentStore
	activities *store.ActivityStore
	swaps      *store.SwapStore
	categories *store.CategoryStore
	settings   *store.SettingsStore
	records    *store.CalendarSyncStore
	now        func() time.Time
}

func New(db *sql.DB) *Service {
	return &Service{
		db:         db,
		chores:     store.NewChoreStore(db),
		comments:   store.NewCommentStore(db),
		activities: store.NewActivityStore(db),
		swaps:      store.NewSwapStore(db),
		categories: store.NewCategoryStore(db),
		settings:   store.NewSettingsStore(db),
		records:    store.NewCalendarSyncStore(db),
		now:        time.Now,
	}
}

func (s *Service) Export(ctx context.Context) (*Document, error) {
	doc := &Document{Version: Version, ExportedAt: s.now().UTC()}

	var err error
	if doc.Chores, err = s.chores.List(); err != nil {
		return nil, err
	}
	if doc.Comments, err = s.comments.List(); err != nil {
		return nil, err
	}
	if doc.Activities, err = s.activities.ListRecent(0); err != nil {
		return nil, err
	}
	if doc.SwapOffers, err = s.swaps.List(); err != nil {
		return nil, err
	}
	if doc.Categories, err = s.categories.List(); err != nil {
		return nil, err
	}
	if doc.Settings, err = s.settings.GetAll(); err != nil {
		return nil, err
	}
	if doc.CalendarSync, err = s.records.List(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Write encodes the current data to w.
func (s *Service) Write(ctx context.Context, w io.Writer) error {
	doc, err := s.Export(ctx)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Read decodes and validates a document without importing it.
func Read(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %v", apperr.ErrValidation, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the invariants the database would otherwise reject halfway
// through an import.
func (d *Document) Validate() error {
	if d.Version != Version {
		return fmt.Errorf("%w: unsupported snapshot version %d", apperr.ErrValidation, d.Version)
	}
	chores := make(map[string]bool, len(d.Chores))
	for _, c := range d.Chores {
		if c.ID == "" || c.Title == "" {
			return fmt.Errorf("%w: chore without id or title", apperr.ErrValidation)
		}
		if !c.Priority.IsValid() || !c.Recurring.IsValid() {
			return fmt.Errorf("%w: chore %s has an unknown priority or recurrence", apperr.ErrValidation, c.ID)
		}
		if c.Completed != (c.CompletedAt != nil) || c.Completed != (c.CompletedBy != nil) {
			return fmt.Errorf("%w: chore %s has inconsistent completion fields", apperr.ErrValidation, c.ID)
		}
		if c.PendingApproval && !c.Completed {
			return fmt.Errorf("%w: chore %s is pending approval but not completed", apperr.ErrValidation, c.ID)
		}
		chores[c.ID] = true
	}
	for _, c := range d.Comments {
		if !chores[c.ChoreID] {
			return fmt.Errorf("%w: comment %s refers to unknown chore %s", apperr.ErrValidation, c.ID, c.ChoreID)
		}
	}
	available := make(map[string]bool)
	for _, o := range d.SwapOffers {
		if !chores[o.ChoreID] {
			return fmt.Errorf("%w: swap offer %s refers to unknown chore %s", apperr.ErrValidation, o.ID, o.ChoreID)
		}
		if o.Status != model.SwapAvailable {
			continue
		}
		if available[o.ChoreID] {
			return fmt.Errorf("%w: chore %s has more than one available offer", apperr.ErrValidation, o.ChoreID)
		}
		available[o.ChoreID] = true
	}
	if len(d.Activities) > model.MaxActivities {
		return fmt.Errorf("%w: %d activities exceed the feed limit of %d", apperr.ErrValidation, len(d.Activities), model.MaxActivities)
	}
	return nil
}

// Import replaces the current data with doc. User accounts are kept.
func (s *Service) Import(ctx context.Context, doc *Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := s.clear(ctx); err != nil {
		return err
	}

	for _, c := range doc.Categories {
		if _, err := s.categories.Create(c); err != nil {
			return err
		}
	}
	for _, c := range doc.Chores {
		if _, err := s.chores.Create(c); err != nil {
			return err
		}
	}
	for _, c := range doc.Comments {
		if _, err := s.comments.Create(c); err != nil {
			return err
		}
	}
	for _, o := range doc.SwapOffers {
		if _, err := s.swaps.Create(o); err != nil {
			return fmt.Errorf("import swap offer %s: %w", o.ID, err)
		}
	}
	// oldest first so insertion order matches the feed order
	for i := len(doc.Activities) - 1; i >= 0; i-- {
		if err := s.activities.Append(doc.Activities[i], model.MaxActivities); err != nil {
			return err
		}
	}
	for k, v := range doc.Settings {
		if err := s.settings.Set(k, v); err != nil {
			return err
		}
	}
	for _, r := range doc.CalendarSync {
		if err := s.records.Upsert(r); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// chores cascade to comments and swap offers
	for _, table := range []string{"activities", "chores", "categories", "settings", "calendar_sync"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}
