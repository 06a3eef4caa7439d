package main

import (
	"context"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/orgdirectory/internal/app"
	"github.com/samirrijal/orgdirectory/internal/pkg/config"
	"github.com/samirrijal/orgdirectory/internal/pkg/logging"
	"github.com/samirrijal/orgdirectory/internal/workflows"
)

func main() {
	cfg, err := config.Load("orgdirectory-worker")
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("startup", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    log.NewStructuredLogger(logger),
	})
	if err != nil {
		slog.Error("temporal client", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.ImportDirectoryWorkflow)
	w.RegisterActivity(&workflows.ImportActivities{
		Buildings:     a.Buildings,
		Activities:    a.Activities,
		Organizations: a.Organizations,
	})

	slog.Info("import worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		slog.Error("worker", "error", err)
		os.Exit(1)
	}
}
