package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/choreify/internal/auth"
	"github.com/dukerupert/choreify/internal/backup"
	"github.com/dukerupert/choreify/internal/calendar"
	"github.com/dukerupert/choreify/internal/chore"
	"github.com/dukerupert/choreify/internal/collab"
	"github.com/dukerupert/choreify/internal/config"
	"github.com/dukerupert/choreify/internal/database"
	"github.com/dukerupert/choreify/internal/handler"
	"github.com/dukerupert/choreify/internal/leaderboard"
	"github.com/dukerupert/choreify/internal/middleware"
	"github.com/dukerupert/choreify/internal/notify"
	"github.com/dukerupert/choreify/internal/push"
	"github.com/dukerupert/choreify/internal/snapshot"
	"github.com/dukerupert/choreify/internal/store"
	ws "github.com/dukerupert/choreify/internal/websocket"
	"github.com/dukerupert/choreify/internal/workflow"
)

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	tokens         *auth.Tokens
	authH          *handler.AuthHandler
	choreH         *handler.ChoreHandler
	collabH        *handler.CollabHandler
	leaderboardH   *handler.LeaderboardHandler
	calendarH      *handler.CalendarHandler
	calendarEventH *handler.CalendarEventHandler
	categoryH      *handler.CategoryHandler
	settingsH      *handler.SettingsHandler
	pushH          *handler.PushHandler
	dataH          *handler.DataHandler
	rateLimiter    *middleware.RateLimiter
	calendarWorker *calendar.Worker
	backupManager  *backup.Manager
	pushSink       *notify.PushSink
	pushScheduler  *push.Scheduler
	logger         *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	choreStore := store.NewChoreStore(db)
	commentStore := store.NewCommentStore(db)
	activityStore := store.NewActivityStore(db)
	swapStore := store.NewSwapStore(db)
	settingsStore := store.NewSettingsStore(db)
	categoryStore := store.NewCategoryStore(db)
	eventStore := store.NewEventStore(db)
	syncStore := store.NewCalendarSyncStore(db)
	userStore := store.NewUserStore(db)
	pushStore := store.NewPushStore(db)
	backupStore := store.NewBackupStore(db)

	s := &Server{
		db:          db,
		hub:         hub,
		tokens:      auth.NewTokens(cfg.TokenSecret, cfg.TokenTTL),
		rateLimiter: middleware.NewRateLimiter(10, time.Minute),
		logger:      logger,
	}

	sinks := notify.Multi{
		notify.NewLogSink(logger.With("component", "notify")),
		notify.NewHubSink(hub),
	}

	var pushService *push.Service
	if cfg.Push.Enabled() {
		pushService = push.NewService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey, cfg.Push.Subject, pushStore, logger.With("component", "push"))
		s.pushSink = notify.NewPushSink(pushService)
		sinks = append(sinks, s.pushSink)
		s.pushScheduler = push.NewScheduler(pushService, pushStore, choreStore, userStore, cfg.Push.CheckInterval, logger.With("component", "push_scheduler"))
	}

	var remote calendar.Remote
	switch cfg.Calendar.Provider {
	case "local":
		remote = calendar.NewLocalRemote(eventStore)
	default:
		remote = calendar.NewSimulatedRemote(cfg.Calendar.Delay)
	}
	adapter := calendar.NewAdapter(remote, syncStore, settingsStore, choreStore, sinks, cfg.BaseURL, logger.With("component", "calendar"))
	s.calendarWorker = calendar.NewWorker(adapter, calendar.WorkerConfig{
		QueueSize:  cfg.Calendar.QueueSize,
		RatePerSec: cfg.Calendar.RatePerSec,
		MaxRetries: cfg.Calendar.MaxRetries,
	}, logger.With("component", "calendar_worker"))

	choreSvc := chore.NewService(choreStore, s.calendarWorker, sinks, logger.With("component", "chore"))
	engine := collab.NewEngine(commentStore, activityStore, swapStore, sinks, logger.With("component", "collab"))
	flow := workflow.NewCoordinator(choreSvc, engine, settingsStore, logger.With("component", "workflow"))
	board := leaderboard.NewService(choreStore, settingsStore)
	snaps := snapshot.New(db)

	s.backupManager = backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.Backup.Endpoint,
			Bucket:    cfg.Backup.Bucket,
			Region:    cfg.Backup.Region,
			AccessKey: cfg.Backup.AccessKey,
			SecretKey: cfg.Backup.SecretKey,
		},
		Passphrase: cfg.Backup.Passphrase,
		Interval:   cfg.Backup.Interval,
	}, snaps, backupStore, logger.With("component", "backup"))

	s.authH = handler.NewAuthHandler(userStore, s.tokens, logger)
	s.choreH = handler.NewChoreHandler(choreSvc, flow, hub, sinks, logger)
	s.collabH = handler.NewCollabHandler(engine, choreSvc, flow, hub, sinks, logger)
	s.leaderboardH = handler.NewLeaderboardHandler(board, hub, sinks, logger)
	s.calendarH = handler.NewCalendarHandler(adapter, hub, sinks, logger)
	s.calendarEventH = handler.NewCalendarEventHandler(eventStore, sinks, logger)
	s.categoryH = handler.NewCategoryHandler(categoryStore, hub, sinks, logger)
	s.settingsH = handler.NewSettingsHandler(flow, hub, sinks, logger)
	s.pushH = handler.NewPushHandler(pushStore, pushService, sinks, logger)
	s.dataH = handler.NewDataHandler(snaps, s.backupManager, hub, sinks, logger)

	return s
}

// Tokens returns the token issuer shared with the login handler.
func (s *Server) Tokens() *auth.Tokens {
	return s.tokens
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// Background runs the calendar worker, the backup schedule and, when push is
// configured, the due-chore reminder until ctx is done.
func (s *Server) Background(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.calendarWorker.Run(ctx) })
	g.Go(func() error { return s.backupManager.Run(ctx) })
	if s.pushScheduler != nil {
		g.Go(func() error { return s.pushScheduler.Run(ctx) })
	}
	g.Go(func() error {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				s.rateLimiter.Cleanup(30 * time.Minute)
			}
		}
	})

	err := g.Wait()
	if s.pushSink != nil {
		s.pushSink.Wait()
	}
	return err
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes, wrapped with RequireAuth
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	outerMux.Handle("/", middleware.RequireAuth(s.tokens)(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	version, err := database.SchemaVersion(s.db)
	if err != nil {
		s.logger.Warn("health check schema version", "error", err)
	}
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "schema": version})
}

func (s *Server) presenceHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{"online": s.hub.OnlineUsers()})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	return middleware.RateLimit(s.rateLimiter, middleware.RealIP)(h).ServeHTTP
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/me", s.authH.Me)

	// Chores
	mux.HandleFunc("POST /api/chores", s.choreH.Create)
	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.HandleFunc("GET /api/chores/overdue", s.choreH.Overdue)
	mux.HandleFunc("GET /api/chores/today", s.choreH.Today)
	mux.HandleFunc("GET /api/chores/{id}", s.choreH.Get)
	mux.HandleFunc("PUT /api/chores/{id}", s.choreH.Update)
	mux.HandleFunc("DELETE /api/chores/{id}", s.choreH.Delete)
	mux.HandleFunc("POST /api/chores/{id}/complete", s.choreH.Complete)
	mux.HandleFunc("POST /api/chores/{id}/uncomplete", s.choreH.Uncomplete)
	mux.HandleFunc("POST /api/chores/{id}/approve", s.choreH.Approve)
	mux.HandleFunc("POST /api/chores/{id}/reject", s.choreH.Reject)
	mux.HandleFunc("POST /api/chores/{id}/offer", s.choreH.Offer)

	// Comments and activity
	mux.HandleFunc("GET /api/chores/{id}/comments", s.collabH.ListComments)
	mux.HandleFunc("POST /api/chores/{id}/comments", s.collabH.AddComment)
	mux.HandleFunc("PUT /api/comments/{id}", s.collabH.UpdateComment)
	mux.HandleFunc("DELETE /api/comments/{id}", s.collabH.DeleteComment)
	mux.HandleFunc("GET /api/activities", s.collabH.Activities)

	// Swaps
	mux.HandleFunc("GET /api/chores/{id}/swap", s.collabH.SwapStatus)
	mux.HandleFunc("GET /api/swaps", s.collabH.ListSwaps)
	mux.HandleFunc("POST /api/swaps/{id}/claim", s.collabH.Claim)
	mux.HandleFunc("POST /api/swaps/{id}/cancel", s.collabH.Cancel)

	// Leaderboard and settings
	mux.HandleFunc("GET /api/leaderboard", s.leaderboardH.Get)
	mux.HandleFunc("GET /api/leaderboard/me", s.leaderboardH.Me)
	mux.HandleFunc("GET /api/settings/leaderboard", s.leaderboardH.GetSettings)
	mux.HandleFunc("PUT /api/settings/leaderboard", s.leaderboardH.UpdateSettings)
	mux.HandleFunc("GET /api/settings/approval", s.settingsH.GetApproval)
	mux.HandleFunc("PUT /api/settings/approval", s.settingsH.UpdateApproval)

	// Calendar
	mux.HandleFunc("GET /api/calendar", s.calendarH.Status)
	mux.HandleFunc("POST /api/calendar/connect", s.calendarH.Connect)
	mux.HandleFunc("POST /api/calendar/disconnect", s.calendarH.Disconnect)
	mux.HandleFunc("POST /api/calendar/sync", s.calendarH.Sync)
	mux.HandleFunc("GET /api/chores/{id}/calendar", s.calendarH.ChoreStatus)
	mux.HandleFunc("GET /api/calendar/events", s.calendarEventH.List)
	mux.HandleFunc("GET /api/calendar/events/{id}", s.calendarEventH.Get)

	// Categories
	mux.HandleFunc("GET /api/categories", s.categoryH.List)
	mux.HandleFunc("POST /api/categories", s.categoryH.Create)
	mux.HandleFunc("GET /api/categories/suggest", s.categoryH.Suggest)
	mux.HandleFunc("PUT /api/categories/{id}", s.categoryH.Update)
	mux.HandleFunc("DELETE /api/categories/{id}", s.categoryH.Delete)

	// Push notifications
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)

	// Snapshot and backups
	mux.HandleFunc("GET /api/snapshot", s.dataH.Snapshot)
	mux.HandleFunc("POST /api/snapshot", s.dataH.Import)
	mux.HandleFunc("GET /api/backup", s.dataH.BackupStatus)
	mux.HandleFunc("POST /api/backup", s.dataH.RunBackup)
	mux.HandleFunc("GET /api/backups", s.dataH.ListBackups)
	mux.HandleFunc("POST /api/backups/{id}/restore", s.dataH.Restore)

	// WebSocket
	mux.HandleFunc("GET /api/presence", s.presenceHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
