package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/choreify/internal/config"
	"github.com/dukerupert/choreify/internal/database"
	"github.com/dukerupert/choreify/internal/logging"
	"github.com/dukerupert/choreify/internal/model"
	"github.com/dukerupert/choreify/internal/server"
	"github.com/dukerupert/choreify/internal/store"
)

const demoPassword = "choreify"

func main() {
	if err := run(); err != nil {
		slog.Error("choreify exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if cfg.SeedDemo {
		if err := seedDemo(db, logger); err != nil {
			return err
		}
	}

	srv := server.New(db, cfg, logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Background(ctx) })
	g.Go(func() error {
		logger.Info("choreify running", "addr", cfg.BaseURL, "calendar", cfg.Calendar.Provider,
			"push", cfg.Push.Enabled(), "backup", cfg.Backup.Enabled())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// seedDemo creates the demo household on an empty database so the API can be
// tried without a signup flow.
func seedDemo(db *sql.DB, logger *slog.Logger) error {
	users := store.NewUserStore(db)
	existing, err := users.List()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	demo := []model.User{
		{ID: "1", Name: "John Smith", Email: "john@example.com"},
		{ID: "2", Name: "Jane Smith", Email: "jane@example.com"},
		{ID: "3", Name: "Alex Smith", Email: "alex@example.com"},
	}
	for _, u := range demo {
		u.HouseholdID = "smith"
		u.Avatar = "https://api.dicebear.com/7.x/avataaars/svg?seed=" + u.Email[:4]
		if _, err := users.Create(u, demoPassword); err != nil {
			return fmt.Errorf("seed demo user %s: %w", u.Email, err)
		}
	}
	logger.Warn("seeded demo household", "users", len(demo), "password", demoPassword)
	return nil
}
