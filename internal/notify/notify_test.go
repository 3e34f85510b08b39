package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/dukerupert/choreify/internal/auth"
	"github.com/dukerupert/choreify/internal/websocket"
)

func TestMultiFansOut(t *testing.T) {
	var a, b Recorder
	Multi{&a, &b, Discard{}}.Notify(context.Background(), "Chore deleted", LevelInfo)

	for _, r := range []*Recorder{&a, &b} {
		if got := r.Last(); got.Message != "Chore deleted" || got.Level != LevelInfo {
			t.Errorf("entry = %+v", got)
		}
	}
}

func TestLogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)))
	ctx := auth.WithUser(context.Background(), auth.User{ID: "u1", Name: "Alex"})

	sink.Notify(ctx, "Chore rejected", LevelWarning)
	sink.Notify(ctx, "Chore added successfully!", LevelSuccess)

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "user_id=u1") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, `message="Chore added successfully!"`) {
		t.Errorf("output = %q", out)
	}
}

func TestHubSinkTargetsActingUser(t *testing.T) {
	hub := websocket.NewHub(slog.Default())
	sink := NewHubSink(hub)

	// With no connected clients this must not block or panic.
	ctx := auth.WithUser(context.Background(), auth.User{ID: "u1"})
	sink.Notify(ctx, "Chore completed! Great job!", LevelSuccess)
	sink.Notify(context.Background(), "sync finished", LevelInfo)

	msg := websocket.NewNotification("Chore completed! Great job!", string(LevelSuccess))
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"level":"success"`) {
		t.Errorf("message json = %s", b)
	}
}
