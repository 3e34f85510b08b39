package collab

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dukerupert/choreify/internal/apperr"
	"github.com/dukerupert/choreify/internal/auth"
	"github.com/dukerupert/choreify/internal/database"
	"github.com/dukerupert/choreify/internal/model"
	"github.com/dukerupert/choreify/internal/notify"
	"github.com/dukerupert/choreify/internal/store"
)

var (
	alex = auth.User{ID: "u1", Name: "Alex", Avatar: "a.png"}
	sam  = auth.User{ID: "u2", Name: "Sam"}
)

type testEnv struct {
	engine *Engine
	chores *store.ChoreStore
	rec    *notify.Recorder
}

func setup(t *testing.T) testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	rec := &notify.Recorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := NewEngine(store.NewCommentStore(db), store.NewActivityStore(db), store.NewSwapStore(db), rec, logger)

	clock := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return testEnv{engine: e, chores: store.NewChoreStore(db), rec: rec}
}

func (env testEnv) addChore(t *testing.T, id string) {
	t.Helper()
	_, err := env.chores.Create(model.Chore{
		ID: id, Title: "Chore " + id, AssignedTo: "Alex",
		Priority: model.PriorityMedium, Recurring: model.RecurrenceNone,
		CreatedBy: "u1", CreatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
}

func as(u auth.User) context.Context {
	return auth.WithUser(context.Background(), u)
}

func TestAddComment(t *testing.T) {
	env := setup(t)
	env.addChore(t, "c1")

	c, err := env.engine.AddComment(as(alex), "c1", "Done the kitchen half", "Clean kitchen")
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if c.UserID != "u1" || c.UserName != "Alex" || c.UserAvatar != "a.png" {
		t.Errorf("author = %+v", c)
	}

	acts, _ := env.engine.RecentActivities(context.Background(), 0)
	if len(acts) != 1 {
		t.Fatalf("activities = %d, want 1", len(acts))
	}
	data, ok := acts[0].Data.(model.CommentActivity)
	if !ok {
		t.Fatalf("data = %T, want CommentActivity", acts[0].Data)
	}
	if data.CommentID != c.ID || data.ChoreName != "Clean kitchen" {
		t.Errorf("data = %+v", data)
	}
}

func TestAddCommentChoreNameFallback(t *testing.T) {
	env := setup(t)
	env.addChore(t, "c1")

	if _, err := env.engine.AddComment(as(alex), "c1", "hi", ""); err != nil {
		t.Fatalf("add comment: %v", err)
	}
	acts, _ := env.engine.RecentActivities(context.Background(), 1)
	if ref := acts[0].Data.Ref(); ref.ChoreName != "c1" {
		t.Errorf("choreName = %q, want chore id", ref.ChoreName)
	}
}

func TestAddCommentBlank(t *testing.T) {
	env := setup(t)
	env.addChore(t, "c1")

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := env.engine.AddComment(as(alex), "c1", text, "x"); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("text %q: err = %v, want ErrValidation", text, err)
		}
	}
	acts, _ := env.engine.RecentActivities(context.Background(), 0)
	if len(acts) != 0 {
		t.Errorf("activities = %d, want none", len(acts))
	}
	comments, _ := env.engine.CommentsByChore(context.Background(), "c1")
	if len(comments) != 0 {
		t.Errorf("comments = %d, want none", len(comments))
	}
}

func TestCommentAuthorship(t *testing.T) {
	env := setup(t)
	env.addChore(t, "c1")
	c, _ := env.engine.AddComment(as(alex), "c1", "first", "x")

	if _, err := env.engine.UpdateComment(as(sam), c.ID, "hijack"); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("update by other: err = %v, want ErrForbidden", err)
	}
	if err := env.engine.DeleteComment(as(sam), c.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("delete by other: err = %v, want ErrForbidden", err)
	}
	if _, err := env.engine.UpdateComment(as(alex), "missing", "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("update missing: err = %v, want ErrNotFound", err)
	}
	if _, err := env.engine.UpdateComment(as(alex), c.ID, " "); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("blank update: err = %v, want ErrValidation", err)
	}

	edited, err := env.engine.UpdateComment(as(alex), c.ID, "first, edited")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !edited.Edited || edited.EditedAt == nil || edited.Text != "first, edited" {
		t.Errorf("edited = %+v", edited)
	}

	if err := env.engine.DeleteComment(as(alex), c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	comments, _ := env.engine.CommentsByChore(context.Background(), "c1")
	if len(comments) != 0 {
		t.Errorf("comments = %d, want 0", len(comments))
	}
}

func TestCommentsByChoreOrder(t *testing.T) {
	env := setup(t)
	env.addChore(t, "c1")
	env.addChore(t, "c2")

	env.engine.AddComment(as(alex), "c1", "one", "")
	env.engine.AddComment(as(sam), "c2", "other chore", "")
	env.engine.AddComment(as(sam), "c1", "two", "")

	comments, err := env.engine.CommentsByChore(context.Background(), "c1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(comments) != 2 || comments[0].Text != "one" || comments[1].Text != "two" {
		t.Errorf("comments = %+v", comments)
	}
}

func TestApprovalActivities(t *testing.T) {
	env := setup(t)
	ctx := as(sam)

	if err := env.engine.MarkForApproval(as(alex), "c1", "Dishes"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if got := env.rec.Last(); got.Level != notify.LevelInfo {
		t.Errorf("mark level = %q, want info", got.Level)
	}
	if err := env.engine.ApproveChore(ctx, "c1", "Dishes", "Alex"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got := env.rec.Last(); got.Level != notify.LevelSuccess {
		t.Errorf("approve level = %q, want success", got.Level)
	}
	if err := env.engine.RejectChore(ctx, "c1", "Dishes", "Alex"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got := env.rec.Last(); got.Level != notify.LevelWarning {
		t.Errorf("reject level = %q, want warning", got.Level)
	}

	acts, _ := env.engine.RecentActivities(context.Background(), 10)
	want := []model.ActivityType{model.ActivityRejected, model.ActivityApproved, model.ActivityPendingApproval}
	if len(acts) != len(want) {
		t.Fatalf("activities = %d, want %d", len(acts), len(want))
	}
	for i, w := range want {
		if acts[i].Type != w {
			t.Errorf("activity %d = %q, want %q", i, acts[i].Type, w)
		}
	}
	if d := acts[1].Data.(model.ApprovedActivity); d.CompletedBy != "Alex" {
		t.Errorf("approved completedBy = %q", d.CompletedBy)
	}
}

func TestActivityCap(t *testing.T) {
	env := setup(t)
	for i := 0; i < model.MaxActivities+5; i++ {
		if _, err := env.engine.RecordActivity(as(alex), model.CompletedActivity{ChoreRef: model.ChoreRef{ChoreID: fmt.Sprint(i)}}); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	acts, _ := env.engine.RecentActivities(context.Background(), 1000)
	if len(acts) != model.MaxActivities {
		t.Fatalf("activities = %d, want %d", len(acts), model.MaxActivities)
	}
	if got := acts[0].Data.Ref().ChoreID; got != fmt.Sprint(model.MaxActivities+4) {
		t.Errorf("newest = %s", got)
	}
	if got := acts[len(acts)-1].Data.Ref().ChoreID; got != "5" {
		t.Errorf("oldest kept = %s, want 5", got)
	}

	def, _ := env.engine.RecentActivities(context.Background(), -3)
	if len(def) != DefaultActivityLimit {
		t.Errorf("default limit = %d, want %d", len(def), DefaultActivityLimit)
	}
}

func TestRecordActivityRequiresUser(t *testing.T) {
	env := setup(t)
	_, err := env.engine.RecordActivity(context.Background(), model.CompletedActivity{})
	if !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestSwapLifecycle(t *testing.T) {
	env := setup(t)
	env.addChore(t, "c1")

	offer, ok, err := env.engine.PutChoreUpForGrabs(as(alex), "c1", "Mow lawn")
	if err != nil || !ok {
		t.Fatalf("offer: ok=%v err=%v", ok, err)
	}
	if offer.Status != model.SwapAvailable || offer.OfferedByName != "Alex" {
		t.Errorf("offer = %+v", offer)
	}

	// A second offer while one is available is refused without side effects.
	again, ok, err := env.engine.PutChoreUpForGrabs(as(sam), "c1", "Mow lawn")
	if err != nil || ok || again != nil {
		t.Errorf("second offer: offer=%v ok=%v err=%v", again, ok, err)
	}
	avail, _ := env.engine.AvailableChores(context.Background())
	if len(avail) != 1 {
		t.Errorf("available = %d, want 1", len(avail))
	}

	claimed, err := env.engine.ClaimChore(as(sam), offer.ID, "c1", "Mow lawn")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.Status != model.SwapClaimed || claimed.ClaimedBy == nil || *claimed.ClaimedBy != "u2" {
		t.Errorf("claimed = %+v", claimed)
	}

	acts, _ := env.engine.RecentActivities(context.Background(), 1)
	if d, ok := acts[0].Data.(model.ClaimedActivity); !ok || d.OfferedBy != "Alex" {
		t.Errorf("claimed activity = %+v", acts[0].Data)
	}

	if _, err := env.engine.ClaimChore(as(alex), offer.ID, "c1", "Mow lawn"); !errors.Is(err, apperr.ErrOfferClosed) {
		t.Errorf("double claim: err = %v, want ErrOfferClosed", err)
	}
	if _, err := env.engine.CancelSwap(as(alex), offer.ID, "c1", "Mow lawn"); !errors.Is(err, apperr.ErrOfferClosed) {
		t.Errorf("cancel claimed: err = %v, want ErrOfferClosed", err)
	}

	status, _ := env.engine.ChoreSwapStatus(context.Background(), "c1")
	if status == nil || status.ID != offer.ID {
		t.Errorf("swap status = %+v, want claimed offer", status)
	}

	// Once claimed the chore can be offered again, and the new offer wins.
	reoffer, ok, err := env.engine.PutChoreUpForGrabs(as(sam), "c1", "Mow lawn")
	if err != nil || !ok {
		t.Fatalf("re-offer: ok=%v err=%v", ok, err)
	}
	status, _ = env.engine.ChoreSwapStatus(context.Background(), "c1")
	if status == nil || status.ID != reoffer.ID || status.Status != model.SwapAvailable {
		t.Errorf("swap status = %+v, want the new available offer %s", status, reoffer.ID)
	}
}

func TestCancelSwap(t *testing.T) {
	env := setup(t)
	env.addChore(t, "c1")

	offer, _, _ := env.engine.PutChoreUpForGrabs(as(alex), "c1", "")
	cancelled, err := env.engine.CancelSwap(as(alex), offer.ID, "", "")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != model.SwapCancelled || cancelled.CancelledAt == nil {
		t.Errorf("cancelled = %+v", cancelled)
	}

	status, _ := env.engine.ChoreSwapStatus(context.Background(), "c1")
	if status != nil {
		t.Errorf("swap status = %+v, want nil after cancel", status)
	}
	avail, _ := env.engine.AvailableChores(context.Background())
	if len(avail) != 0 {
		t.Errorf("available = %d, want 0", len(avail))
	}

	acts, _ := env.engine.RecentActivities(context.Background(), 1)
	if acts[0].Type != model.ActivitySwapCancelled || acts[0].Data.Ref().ChoreID != "c1" {
		t.Errorf("activity = %+v", acts[0])
	}

	if _, err := env.engine.ClaimChore(as(sam), "missing", "", ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("claim missing: err = %v, want ErrNotFound", err)
	}
}
