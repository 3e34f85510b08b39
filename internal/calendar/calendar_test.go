package calendar

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/choreify/internal/apperr"
	"github.com/dukerupert/choreify/internal/database"
	"github.com/dukerupert/choreify/internal/model"
	"github.com/dukerupert/choreify/internal/notify"
	"github.com/dukerupert/choreify/internal/store"
)

// fakeRemote counts calls and can be told to fail.
type fakeRemote struct {
	mu      sync.Mutex
	creates int
	updates int
	deletes int
	failing int // number of upcoming calls to fail
}

var errRemote = errors.New("remote unavailable")

func (f *fakeRemote) step() error {
	if f.failing > 0 {
		f.failing--
		return errRemote
	}
	return nil
}

func (f *fakeRemote) Authorize(ctx context.Context, provider, authCode string) error { return nil }
func (f *fakeRemote) Revoke(ctx context.Context) error                               { return nil }

func (f *fakeRemote) CreateEvent(ctx context.Context, choreID string, ev Event) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.step(); err != nil {
		return "", err
	}
	f.creates++
	return "ev-" + choreID, nil
}

func (f *fakeRemote) UpdateEvent(ctx context.Context, eventID string, ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.step(); err != nil {
		return err
	}
	f.updates++
	return nil
}

func (f *fakeRemote) DeleteEvent(ctx context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.step(); err != nil {
		return err
	}
	f.deletes++
	return nil
}

func (f *fakeRemote) counts() (int, int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates, f.updates, f.deletes
}

type testEnv struct {
	adapter *Adapter
	chores  *store.ChoreStore
	records *store.CalendarSyncStore
	events  *store.EventStore
	rec     *notify.Recorder
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setup(t *testing.T, remote Remote) testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := testEnv{
		chores:  store.NewChoreStore(db),
		records: store.NewCalendarSyncStore(db),
		events:  store.NewEventStore(db),
		rec:     &notify.Recorder{},
	}
	if remote == nil {
		remote = NewLocalRemote(env.events)
	}
	env.adapter = NewAdapter(remote, env.records, store.NewSettingsStore(db), env.chores, env.rec, "http://localhost:8080", discardLogger())
	return env
}

func dueChore(id string, due time.Time) model.Chore {
	return model.Chore{
		ID: id, Title: "Chore " + id, AssignedTo: "Alex",
		Priority: model.PriorityHigh, Recurring: model.RecurrenceNone,
		DueDate: &due, CreatedBy: "u1", CreatedAt: due.AddDate(0, 0, -3),
	}
}

func TestFormatChore(t *testing.T) {
	due := time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC)
	c := dueChore("c1", due)
	c.Title = "Take out trash"
	c.Description = "Blue bin too"
	c.Recurring = model.RecurrenceWeekly

	ev := FormatChore(c, "https://chores.example/")
	if ev.Summary != "[Choreify] Take out trash" {
		t.Errorf("summary = %q", ev.Summary)
	}
	if ev.Start != "2025-03-10" || ev.End != "2025-03-11" || !ev.AllDay {
		t.Errorf("dates = %s..%s allDay=%v", ev.Start, ev.End, ev.AllDay)
	}
	if ev.ColorID != "4" {
		t.Errorf("colorId = %q, want 4", ev.ColorID)
	}
	if len(ev.Reminders) != 1 || ev.Reminders[0].Minutes != 1440 || ev.Reminders[0].Method != "popup" {
		t.Errorf("reminders = %+v", ev.Reminders)
	}
	if len(ev.Recurrence) != 1 || ev.Recurrence[0] != "RRULE:FREQ=WEEKLY" {
		t.Errorf("recurrence = %v", ev.Recurrence)
	}
	for _, want := range []string{"Blue bin too", "Priority: high", "Assigned to: Alex", "https://chores.example/dashboard?chore=c1"} {
		if !strings.Contains(ev.Description, want) {
			t.Errorf("description %q missing %q", ev.Description, want)
		}
	}
}

func TestColorIDForPriority(t *testing.T) {
	for p, want := range map[model.Priority]string{
		model.PriorityHigh: "4", model.PriorityMedium: "5", model.PriorityLow: "2", "": "1",
	} {
		if got := ColorIDForPriority(p); got != want {
			t.Errorf("ColorIDForPriority(%q) = %q, want %q", p, got, want)
		}
	}
}

func TestDisconnectedIsNoop(t *testing.T) {
	remote := &fakeRemote{}
	env := setup(t, remote)
	ctx := context.Background()

	id, err := env.adapter.CreateEvent(ctx, dueChore("c1", time.Now()))
	if err != nil || id != "" {
		t.Errorf("create while disconnected = %q, %v", id, err)
	}
	if ok, err := env.adapter.DeleteEvent(ctx, "c1"); err != nil || ok {
		t.Errorf("delete while disconnected = %v, %v", ok, err)
	}
	if c, u, d := remote.counts(); c+u+d != 0 {
		t.Errorf("remote calls = %d/%d/%d, want none", c, u, d)
	}
	if _, err := env.adapter.SyncAll(ctx); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("sync while disconnected: err = %v, want ErrConflict", err)
	}
}

func TestAdapterIdempotent(t *testing.T) {
	remote := &fakeRemote{}
	env := setup(t, remote)
	ctx := context.Background()
	if _, err := env.adapter.Connect(ctx, "google", "code"); err != nil {
		t.Fatalf("connect: %v", err)
	}

	c := dueChore("c1", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))

	id, err := env.adapter.CreateEvent(ctx, c)
	if err != nil || id != "ev-c1" {
		t.Fatalf("create = %q, %v", id, err)
	}
	// Creating again updates the same event.
	again, err := env.adapter.CreateEvent(ctx, c)
	if err != nil || again != id {
		t.Fatalf("second create = %q, %v", again, err)
	}
	if cr, up, _ := remote.counts(); cr != 1 || up != 1 {
		t.Errorf("creates/updates = %d/%d, want 1/1", cr, up)
	}

	// Updating a chore without a record creates one.
	other := dueChore("c2", time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC))
	if ok, err := env.adapter.UpdateEvent(ctx, other); err != nil || !ok {
		t.Fatalf("update unknown = %v, %v", ok, err)
	}
	if cr, _, _ := remote.counts(); cr != 2 {
		t.Errorf("creates = %d, want 2", cr)
	}

	// Chores without a due date are ignored.
	noDue := dueChore("c3", time.Now())
	noDue.DueDate = nil
	if ok, err := env.adapter.UpdateEvent(ctx, noDue); err != nil || ok {
		t.Errorf("update without due date = %v, %v", ok, err)
	}

	st, err := env.adapter.ChoreStatus(ctx, "c1")
	if err != nil || !st.Synced || st.CalendarEventID == nil || *st.CalendarEventID != "ev-c1" {
		t.Errorf("status = %+v, %v", st, err)
	}

	if ok, err := env.adapter.DeleteEvent(ctx, "c1"); err != nil || !ok {
		t.Fatalf("delete = %v, %v", ok, err)
	}
	if ok, err := env.adapter.DeleteEvent(ctx, "c1"); err != nil || !ok {
		t.Errorf("second delete = %v, %v", ok, err)
	}
	if _, _, del := remote.counts(); del != 1 {
		t.Errorf("deletes = %d, want 1", del)
	}
	if st, _ := env.adapter.ChoreStatus(ctx, "c1"); st.Synced {
		t.Error("deleted chore should not be synced")
	}
}

func TestSyncAllReconciles(t *testing.T) {
	remote := &fakeRemote{}
	env := setup(t, remote)
	ctx := context.Background()
	due := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	by := "u1"

	env.chores.Create(dueChore("a", due))
	done := dueChore("b", due)
	done.Completed, done.CompletedAt, done.CompletedBy = true, &due, &by
	env.chores.Create(done)

	// A stale record for a chore that no longer exists.
	env.records.Upsert(model.CalendarSyncRecord{ChoreID: "ghost", CalendarEventID: "ev-ghost", LastSynced: due})

	res, err := env.adapter.Connect(ctx, "apple", "code")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if res.Created != 1 || res.Updated != 0 || res.Deleted != 1 {
		t.Errorf("result = %+v, want 1 created, 1 deleted", res)
	}

	st, err := env.adapter.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !st.Connected || st.Provider != "apple" || st.SyncedChores != 1 || st.LastSynced == nil {
		t.Errorf("status = %+v", st)
	}
	if got := env.rec.Last(); got.Message != "Chores synchronized with calendar" {
		t.Errorf("notification = %q", got.Message)
	}

	if err := env.adapter.Disconnect(ctx); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	st, _ = env.adapter.Status(ctx)
	if st.Connected || st.Provider != "" || st.SyncedChores != 0 {
		t.Errorf("status after disconnect = %+v", st)
	}
}

func TestConnectRequiresProvider(t *testing.T) {
	env := setup(t, &fakeRemote{})
	if _, err := env.adapter.Connect(context.Background(), " ", "code"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestLocalRemote(t *testing.T) {
	env := setup(t, nil)
	ctx := context.Background()
	if _, err := env.adapter.Connect(ctx, "household", "local"); err != nil {
		t.Fatalf("connect: %v", err)
	}

	c := dueChore("c1", time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC))
	c.Recurring = model.RecurrenceMonthly
	id, err := env.adapter.CreateEvent(ctx, c)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ev, err := env.events.GetBySourceRef("chore:c1")
	if err != nil || ev == nil {
		t.Fatalf("mirrored event = %v, %v", ev, err)
	}
	if ev.Title != "[Choreify] Chore c1" || !ev.AllDay || ev.RecurrenceRule != "FREQ=MONTHLY" {
		t.Errorf("event = %+v", ev)
	}
	if !ev.StartTime.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)) || !ev.EndTime.Equal(time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("span = %v..%v", ev.StartTime, ev.EndTime)
	}

	c.Title = "Renamed"
	if _, err := env.adapter.UpdateEvent(ctx, c); err != nil {
		t.Fatalf("update: %v", err)
	}
	ev, _ = env.events.GetBySourceRef("chore:c1")
	if ev.Title != "[Choreify] Renamed" {
		t.Errorf("title = %q", ev.Title)
	}

	if _, err := env.adapter.DeleteEvent(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := env.events.GetBySourceRef("chore:c1"); got != nil {
		t.Errorf("event %s still present", id)
	}
}

func TestSimulatedRemote(t *testing.T) {
	r := NewSimulatedRemote(0)
	ctx := context.Background()

	id, err := r.CreateEvent(ctx, "c9", Event{Summary: "x"})
	if err != nil || id != "cal_c9" {
		t.Fatalf("create = %q, %v", id, err)
	}
	if _, ok := r.Event(id); !ok {
		t.Error("event not stored")
	}
	if err := r.DeleteEvent(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := r.Event(id); ok {
		t.Error("event not deleted")
	}
	if err := r.Authorize(ctx, "google", ""); err == nil {
		t.Error("expected error for empty auth code")
	}

	slow := NewSimulatedRemote(time.Hour)
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := slow.CreateEvent(cctx, "c1", Event{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestAdapterReleasesChoreLocks(t *testing.T) {
	env := setup(t, &fakeRemote{})
	ctx := context.Background()
	if _, err := env.adapter.Connect(ctx, "google", "code"); err != nil {
		t.Fatalf("connect: %v", err)
	}

	c := dueChore("c1", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	if _, err := env.adapter.CreateEvent(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.adapter.DeleteEvent(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := env.adapter.locks.Len(); n != 0 {
		t.Errorf("held locks = %d, want 0", n)
	}
}
