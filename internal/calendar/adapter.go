package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/choreify/internal/apperr"
	"github.com/dukerupert/choreify/internal/lockmap"
	"github.com/dukerupert/choreify/internal/model"
	"github.com/dukerupert/choreify/internal/notify"
	"github.com/dukerupert/choreify/internal/store"
)

// ChoreSyncStatus reports whether a chore has an event on the calendar.
type ChoreSyncStatus struct {
	Synced          bool       `json:"synced"`
	LastSynced      *time.Time `json:"lastSynced"`
	CalendarEventID *string    `json:"calendarEventId"`
}

type Status struct {
	Connected    bool       `json:"connected"`
	Provider     string     `json:"provider,omitempty"`
	LastSynced   *time.Time `json:"lastSynced"`
	SyncedChores int        `json:"syncedChores"`
}

// SyncResult counts the remote calls made by a full sync.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}

// Adapter keeps the chore to event mapping and decides between creating and
// updating remote events. Calls for one chore are serialised.
type Adapter struct {
	remote   Remote
	records  *store.CalendarSyncStore
	settings *store.SettingsStore
	chores   *store.ChoreStore
	notify   notify.Sink
	logger   *slog.Logger
	baseURL  string
	now      func() time.Time

	locks lockmap.Map
}

func NewAdapter(remote Remote, records *store.CalendarSyncStore, settings *store.SettingsStore, chores *store.ChoreStore, sink notify.Sink, baseURL string, logger *slog.Logger) *Adapter {
	if sink == nil {
		sink = notify.Discard{}
	}
	return &Adapter{
		remote:   remote,
		records:  records,
		settings: settings,
		chores:   chores,
		notify:   sink,
		logger:   logger,
		baseURL:  baseURL,
		now:      time.Now,
	}
}

func (a *Adapter) lock(choreID string) func() {
	return a.locks.Lock(choreID)
}

func (a *Adapter) Connected() (bool, error) {
	return a.settings.GetBool(store.KeyCalendarConnected, false)
}

func (a *Adapter) touch() error {
	return a.settings.Set(store.KeyCalendarLastSynced, a.now().UTC().Format(time.RFC3339))
}

// CreateEvent puts the chore on the calendar and returns the event id. A
// chore that already has an event is updated instead. Nothing happens while
// disconnected or when the chore has no due date.
func (a *Adapter) CreateEvent(ctx context.Context, c model.Chore) (string, error) {
	defer a.lock(c.ID)()
	return a.upsert(ctx, c)
}

func (a *Adapter) upsert(ctx context.Context, c model.Chore) (string, error) {
	connected, err := a.Connected()
	if err != nil || !connected || c.DueDate == nil {
		return "", err
	}

	rec, err := a.records.Get(c.ID)
	if err != nil {
		return "", err
	}

	ev := FormatChore(c, a.baseURL)
	var eventID string
	if rec != nil {
		eventID = rec.CalendarEventID
		if err := a.remote.UpdateEvent(ctx, eventID, ev); err != nil {
			return "", fmt.Errorf("update remote event: %w", err)
		}
	} else {
		eventID, err = a.remote.CreateEvent(ctx, c.ID, ev)
		if err != nil {
			return "", fmt.Errorf("create remote event: %w", err)
		}
	}

	due := c.DueDate.UTC()
	err = a.records.Upsert(model.CalendarSyncRecord{
		ChoreID:         c.ID,
		CalendarEventID: eventID,
		LastSynced:      a.now().UTC(),
		Title:           c.Title,
		DueDate:         &due,
	})
	if err != nil {
		return "", err
	}
	return eventID, nil
}

// UpdateEvent refreshes the chore's event, creating it when missing.
func (a *Adapter) UpdateEvent(ctx context.Context, c model.Chore) (bool, error) {
	defer a.lock(c.ID)()
	id, err := a.upsert(ctx, c)
	if err != nil {
		return false, err
	}
	return id != "", nil
}

// DeleteEvent removes the chore's event. A chore without an event counts as
// deleted.
func (a *Adapter) DeleteEvent(ctx context.Context, choreID string) (bool, error) {
	defer a.lock(choreID)()
	return a.remove(ctx, choreID)
}

func (a *Adapter) remove(ctx context.Context, choreID string) (bool, error) {
	connected, err := a.Connected()
	if err != nil || !connected {
		return false, err
	}
	rec, err := a.records.Get(choreID)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return true, nil
	}
	if err := a.remote.DeleteEvent(ctx, rec.CalendarEventID); err != nil {
		return false, fmt.Errorf("delete remote event: %w", err)
	}
	if err := a.records.Delete(choreID); err != nil {
		return false, err
	}
	return true, nil
}

func providerName(p string) string {
	if p == "" {
		return ""
	}
	return strings.ToUpper(p[:1]) + p[1:]
}

// Connect authorizes the provider and runs a full sync.
func (a *Adapter) Connect(ctx context.Context, provider, authCode string) (SyncResult, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return SyncResult{}, fmt.Errorf("%w: provider is required", apperr.ErrValidation)
	}

	if err := a.remote.Authorize(ctx, provider, authCode); err != nil {
		a.notify.Notify(ctx, "Failed to connect to calendar: "+err.Error(), notify.LevelError)
		return SyncResult{}, fmt.Errorf("authorize calendar: %w", err)
	}
	if err := a.settings.SetBool(store.KeyCalendarConnected, true); err != nil {
		return SyncResult{}, err
	}
	if err := a.settings.Set(store.KeyCalendarProvider, provider); err != nil {
		return SyncResult{}, err
	}
	if err := a.touch(); err != nil {
		return SyncResult{}, err
	}

	a.logger.Info("calendar connected", "provider", provider)
	a.notify.Notify(ctx, fmt.Sprintf("Successfully connected to %s Calendar", providerName(provider)), notify.LevelSuccess)
	return a.SyncAll(ctx)
}

// Disconnect forgets the provider and every sync record. Remote events are
// left in place.
func (a *Adapter) Disconnect(ctx context.Context) error {
	if err := a.remote.Revoke(ctx); err != nil {
		a.notify.Notify(ctx, "Failed to disconnect calendar: "+err.Error(), notify.LevelError)
		return fmt.Errorf("revoke calendar: %w", err)
	}
	if err := a.settings.SetBool(store.KeyCalendarConnected, false); err != nil {
		return err
	}
	if err := a.settings.Delete(store.KeyCalendarProvider); err != nil {
		return err
	}
	if err := a.records.DeleteAll(); err != nil {
		return err
	}

	a.logger.Info("calendar disconnected")
	a.notify.Notify(ctx, "Calendar disconnected successfully", notify.LevelInfo)
	return nil
}

// SyncAll reconciles the calendar with every chore: syncable chores get an
// event, and records for chores that are gone or no longer syncable are
// removed.
func (a *Adapter) SyncAll(ctx context.Context) (SyncResult, error) {
	var res SyncResult
	connected, err := a.Connected()
	if err != nil {
		return res, err
	}
	if !connected {
		return res, fmt.Errorf("%w: calendar is not connected", apperr.ErrConflict)
	}

	chores, err := a.chores.List()
	if err != nil {
		return res, fmt.Errorf("load chores: %w", err)
	}
	records, err := a.records.List()
	if err != nil {
		return res, err
	}
	known := make(map[string]bool, len(records))
	for _, r := range records {
		known[r.ChoreID] = true
	}

	keep := make(map[string]bool)
	for _, c := range chores {
		if !c.Syncable() {
			continue
		}
		keep[c.ID] = true
		if _, err := a.CreateEvent(ctx, c); err != nil {
			a.notify.Notify(ctx, "Failed to sync with calendar: "+err.Error(), notify.LevelError)
			return res, err
		}
		if known[c.ID] {
			res.Updated++
		} else {
			res.Created++
		}
	}

	for _, r := range records {
		if keep[r.ChoreID] {
			continue
		}
		if _, err := a.DeleteEvent(ctx, r.ChoreID); err != nil {
			a.notify.Notify(ctx, "Failed to sync with calendar: "+err.Error(), notify.LevelError)
			return res, err
		}
		res.Deleted++
	}

	if err := a.touch(); err != nil {
		return res, err
	}
	a.logger.Info("calendar synced", "created", res.Created, "updated", res.Updated, "deleted", res.Deleted)
	a.notify.Notify(ctx, "Chores synchronized with calendar", notify.LevelSuccess)
	return res, nil
}

func (a *Adapter) ChoreStatus(ctx context.Context, choreID string) (ChoreSyncStatus, error) {
	rec, err := a.records.Get(choreID)
	if err != nil || rec == nil {
		return ChoreSyncStatus{}, err
	}
	last := rec.LastSynced
	id := rec.CalendarEventID
	return ChoreSyncStatus{Synced: true, LastSynced: &last, CalendarEventID: &id}, nil
}

func (a *Adapter) Status(ctx context.Context) (Status, error) {
	cfg, err := a.settings.GetCalendarSettings()
	if err != nil {
		return Status{}, err
	}
	records, err := a.records.List()
	if err != nil {
		return Status{}, err
	}

	st := Status{
		Connected:    cfg[store.KeyCalendarConnected] == "true",
		Provider:     cfg[store.KeyCalendarProvider],
		SyncedChores: len(records),
	}
	if v, ok := cfg[store.KeyCalendarLastSynced]; ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			st.LastSynced = &t
		}
	}
	return st, nil
}
