// Package notify delivers leveled user-facing messages about the outcome of
// household actions.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/choreify/internal/auth"
	"github.com/dukerupert/choreify/internal/push"
	"github.com/dukerupert/choreify/internal/websocket"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

type Sink interface {
	Notify(ctx context.Context, message string, level Level)
}

// Multi fans a notification out to every sink in order.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, message string, level Level) {
	for _, s := range m {
		s.Notify(ctx, message, level)
	}
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(context.Context, string, Level) {}

type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(ctx context.Context, message string, level Level) {
	lvl := slog.LevelInfo
	switch level {
	case LevelError:
		lvl = slog.LevelError
	case LevelWarning:
		lvl = slog.LevelWarn
	}
	s.logger.Log(ctx, lvl, "notification", "message", message, "level", string(level), "user_id", auth.UserID(ctx))
}

// HubSink sends the message over the websocket hub to the acting user, or to
// everyone when no user is known.
type HubSink struct {
	hub *websocket.Hub
}

func NewHubSink(hub *websocket.Hub) *HubSink {
	return &HubSink{hub: hub}
}

func (s *HubSink) Notify(ctx context.Context, message string, level Level) {
	msg := websocket.NewNotification(message, string(level))
	if u, ok := auth.CurrentUser(ctx); ok {
		s.hub.SendTo(u.ID, msg)
		return
	}
	s.hub.Broadcast(msg)
}

// PushSink mirrors info-level messages to the acting user's devices as web
// push notifications. Delivery runs in the background.
type PushSink struct {
	svc     *push.Service
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewPushSink(svc *push.Service) *PushSink {
	return &PushSink{svc: svc, timeout: 10 * time.Second}
}

func (s *PushSink) Notify(ctx context.Context, message string, level Level) {
	if level != LevelInfo {
		return
	}
	u, ok := auth.CurrentUser(ctx)
	if !ok {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		s.svc.SendToUser(ctx, u.ID, push.Payload{Title: "Choreify", Body: message, Tag: "choreify"})
	}()
}

// Wait blocks until in-flight deliveries finish.
func (s *PushSink) Wait() {
	s.wg.Wait()
}

// Entry is one recorded notification.
type Entry struct {
	Message string
	Level   Level
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Notify(_ context.Context, message string, level Level) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Message: message, Level: level})
	r.mu.Unlock()
}

func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Last returns the most recent entry, or the zero Entry.
func (r *Recorder) Last() Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return Entry{}
	}
	return r.entries[len(r.entries)-1]
}
