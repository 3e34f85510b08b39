package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/choreify/internal/database"
	"github.com/dukerupert/choreify/internal/model"
	"github.com/dukerupert/choreify/internal/store"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newApp(t *testing.T) (*appContext, *bytes.Buffer) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	var out bytes.Buffer
	return &appContext{
		db:     db,
		out:    &out,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    func() time.Time { return now },
	}, &out
}

func addChore(t *testing.T, app *appContext, c model.Chore) {
	t.Helper()
	if c.Priority == "" {
		c.Priority = model.PriorityMedium
	}
	if c.Recurring == "" {
		c.Recurring = model.RecurrenceNone
	}
	c.CreatedBy = "u1"
	c.CreatedAt = now.Add(-72 * time.Hour)
	if _, err := store.NewChoreStore(app.db).Create(c); err != nil {
		t.Fatalf("create chore: %v", err)
	}
}

func TestOverdueCmd(t *testing.T) {
	app, out := newApp(t)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)
	addChore(t, app, model.Chore{ID: "c1", Title: "Dishes", AssignedTo: "Alex", DueDate: &past})
	addChore(t, app, model.Chore{ID: "c2", Title: "Vacuum", AssignedTo: "Sam", DueDate: &past})
	addChore(t, app, model.Chore{ID: "c3", Title: "Laundry", AssignedTo: "Alex", DueDate: &future})

	if err := (&OverdueCmd{}).Run(app); err != nil {
		t.Fatalf("overdue: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Dishes") || !strings.Contains(got, "Vacuum") || strings.Contains(got, "Laundry") {
		t.Errorf("output:\n%s", got)
	}
	if !strings.Contains(got, "2 overdue") {
		t.Errorf("missing count:\n%s", got)
	}

	out.Reset()
	if err := (&OverdueCmd{Assignee: "Sam"}).Run(app); err != nil {
		t.Fatalf("overdue: %v", err)
	}
	if got := out.String(); strings.Contains(got, "Dishes") || !strings.Contains(got, "1 overdue") {
		t.Errorf("filtered output:\n%s", got)
	}
}

func TestLeaderboardCmdEmpty(t *testing.T) {
	app, out := newApp(t)
	if err := (&LeaderboardCmd{}).Run(app); err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if !strings.Contains(out.String(), "No completed chores") {
		t.Errorf("output = %q", out.String())
	}

	if err := store.NewSettingsStore(app.db).SetBool(store.KeyLeaderboardEnabled, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	out.Reset()
	if err := (&LeaderboardCmd{}).Run(app); err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if !strings.Contains(out.String(), "disabled") {
		t.Errorf("output = %q", out.String())
	}
}

func TestActivityCmdRejectsBadLimit(t *testing.T) {
	app, _ := newApp(t)
	if err := (&ActivityCmd{Limit: 0}).Run(app); err == nil {
		t.Error("expected error for zero limit")
	}
	if err := (&ActivityCmd{Limit: 5}).Run(app); err != nil {
		t.Errorf("activity: %v", err)
	}
}

func TestExportImport(t *testing.T) {
	src, _ := newApp(t)
	addChore(t, src, model.Chore{ID: "c1", Title: "Dishes", AssignedTo: "Alex"})

	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := (&ExportCmd{Output: path}).Run(src); err != nil {
		t.Fatalf("export: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("snapshot file: %v", err)
	}

	dst, out := newApp(t)
	if err := (&ImportCmd{File: path}).Run(dst); err == nil {
		t.Fatal("import without --yes should refuse")
	}
	if err := (&ImportCmd{File: path, Yes: true}).Run(dst); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out.String(), "Imported 1 chores") {
		t.Errorf("output = %q", out.String())
	}

	chores, err := store.NewChoreStore(dst.db).List()
	if err != nil || len(chores) != 1 || chores[0].Title != "Dishes" {
		t.Errorf("imported chores = %+v, %v", chores, err)
	}
}
