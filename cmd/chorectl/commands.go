package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dukerupert/choreify/internal/chore"
	"github.com/dukerupert/choreify/internal/leaderboard"
	"github.com/dukerupert/choreify/internal/snapshot"
	"github.com/dukerupert/choreify/internal/store"
)

type appContext struct {
	db     *sql.DB
	out    io.Writer
	logger *slog.Logger
	now    func() time.Time
}

func (a *appContext) clock() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now()
}

type LeaderboardCmd struct{}

func (c *LeaderboardCmd) Run(app *appContext) error {
	svc := leaderboard.NewService(store.NewChoreStore(app.db), store.NewSettingsStore(app.db))
	ctx := context.Background()

	cfg, err := svc.Settings(ctx)
	if err != nil {
		return err
	}
	if !cfg.Enabled {
		fmt.Fprintln(app.out, "Leaderboard is disabled.")
		return nil
	}

	entries, err := svc.Leaderboard(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(app.out, "No completed chores this %s.\n", cfg.TimeFrame)
		return nil
	}

	tw := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tMEMBER\tPOINTS\tCHORES\tON TIME")
	for _, e := range entries {
		name := e.Name
		if name == "" {
			name = e.UserID
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d%%\n", e.Rank, name, e.TotalPoints, e.ChoreCount, e.OnTimeRate)
	}
	return tw.Flush()
}

type OverdueCmd struct {
	Assignee string `help:"Only show chores assigned to this member." short:"a"`
}

func (c *OverdueCmd) Run(app *appContext) error {
	svc := chore.NewService(store.NewChoreStore(app.db), nil, nil, app.logger)
	now := app.clock()

	chores, err := svc.ListOverdue(context.Background(), now)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tASSIGNEE\tDUE\tPRIORITY")
	n := 0
	for _, ch := range chores {
		if c.Assignee != "" && ch.AssignedTo != c.Assignee {
			continue
		}
		due := ""
		if ch.DueDate != nil {
			due = ch.DueDate.Local().Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", ch.ID, ch.Title, ch.AssignedTo, due, ch.Priority)
		n++
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(app.out, "%d overdue\n", n)
	return nil
}

type ActivityCmd struct {
	Limit int `help:"Number of entries to show." default:"20" short:"n"`
}

func (c *ActivityCmd) Run(app *appContext) error {
	if c.Limit < 1 {
		return fmt.Errorf("limit must be positive, got %d", c.Limit)
	}
	acts, err := store.NewActivityStore(app.db).ListRecent(c.Limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tWHO\tWHAT\tCHORE")
	for _, a := range acts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			a.Timestamp.Local().Format("2006-01-02 15:04"), a.UserName, a.Type, a.Data.Ref().ChoreName)
	}
	return tw.Flush()
}

type ExportCmd struct {
	Output string `help:"Write to this file instead of stdout." short:"o" type:"path"`
}

func (c *ExportCmd) Run(app *appContext) error {
	w := app.out
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return fmt.Errorf("create %s: %w", c.Output, err)
		}
		defer f.Close()
		w = f
	}
	if err := snapshot.New(app.db).Write(context.Background(), w); err != nil {
		return err
	}
	if c.Output != "" {
		app.logger.Info("snapshot written", "path", c.Output)
	}
	return nil
}

type ImportCmd struct {
	File string `arg:"" help:"Snapshot file to import." type:"existingfile"`
	Yes  bool   `help:"Do not ask for confirmation." short:"y"`
}

func (c *ImportCmd) Run(app *appContext) error {
	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := snapshot.Read(f)
	if err != nil {
		return err
	}
	if !c.Yes {
		return fmt.Errorf("import replaces all household data (%d chores in file); rerun with --yes", len(doc.Chores))
	}
	if err := snapshot.New(app.db).Import(context.Background(), doc); err != nil {
		return err
	}
	fmt.Fprintf(app.out, "Imported %d chores, %d comments, %d activities.\n", len(doc.Chores), len(doc.Comments), len(doc.Activities))
	return nil
}
