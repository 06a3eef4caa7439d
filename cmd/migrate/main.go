package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/samirrijal/orgdirectory/internal/adapters/postgres"
	"github.com/samirrijal/orgdirectory/internal/pkg/config"
	"github.com/samirrijal/orgdirectory/internal/pkg/logging"
	"github.com/samirrijal/orgdirectory/migrations"
)

func main() {
	if len(os.Args) < 2 {
		slog.Error("usage: migrate <up|down [steps]|status>")
		os.Exit(2)
	}

	cfg, err := config.Load("orgdirectory-migrate")
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), time.Duration(cfg.Database.ConnectWait)*time.Second)
	if err != nil {
		slog.Error("database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		n, err := migrations.Up(ctx, db.Pool)
		if err != nil {
			slog.Error("migrate up", "applied", n, "error", err)
			os.Exit(1)
		}
		slog.Info("migrations applied", "count", n)

	case "down":
		steps := 1
		if len(os.Args) > 2 {
			steps, err = strconv.Atoi(os.Args[2])
			if err != nil || steps < 1 {
				slog.Error("steps must be a positive integer", "value", os.Args[2])
				os.Exit(2)
			}
		}
		n, err := migrations.Down(ctx, db.Pool, steps)
		if err != nil {
			slog.Error("migrate down", "reverted", n, "error", err)
			os.Exit(1)
		}
		slog.Info("migrations reverted", "count", n)

	case "status":
		all, err := migrations.Load()
		if err != nil {
			slog.Error("load migrations", "error", err)
			os.Exit(1)
		}
		applied, err := migrations.Applied(ctx, db.Pool)
		if err != nil {
			slog.Error("read schema_migrations", "error", err)
			os.Exit(1)
		}
		for _, m := range all {
			slog.Info("migration", "version", m.Version, "name", m.Name, "applied", applied[m.Version])
		}

	default:
		slog.Error("unknown command", "command", os.Args[1])
		os.Exit(2)
	}
}
