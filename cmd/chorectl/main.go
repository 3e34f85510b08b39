package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/dukerupert/choreify/internal/database"
	"github.com/dukerupert/choreify/internal/logging"
)

var CLI struct {
	DB       string `help:"SQLite database path." type:"path" default:"choreify.db" env:"CHOREIFY_DB_PATH"`
	LogLevel string `help:"Log level." default:"warn" enum:"debug,info,warn,error"`

	Leaderboard LeaderboardCmd `cmd:"" help:"Show the household leaderboard."`
	Overdue     OverdueCmd     `cmd:"" help:"List overdue chores."`
	Activity    ActivityCmd    `cmd:"" help:"Show the recent activity feed."`
	Export      ExportCmd      `cmd:"" help:"Write a snapshot of all household data."`
	Import      ImportCmd      `cmd:"" help:"Replace all household data with a snapshot."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("chorectl"),
		kong.Description("Inspect and maintain a Choreify database"),
		kong.UsageOnError(),
	)

	db, err := database.Open(CLI.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	app := &appContext{
		db:     db,
		out:    os.Stdout,
		logger: logging.New(os.Stderr, CLI.LogLevel, "text"),
	}
	if err := ctx.Run(app); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		db.Close()
		os.Exit(1)
	}
}
