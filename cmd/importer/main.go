package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"
	"gopkg.in/yaml.v2"

	"github.com/samirrijal/orgdirectory/internal/pkg/config"
	"github.com/samirrijal/orgdirectory/internal/pkg/logging"
	"github.com/samirrijal/orgdirectory/internal/workflows"
)

func main() {
	cfg, err := config.Load("orgdirectory-importer")
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	manifestPath := "configs/seed.yaml"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}

	manifest, err := readManifest(manifestPath)
	if err != nil {
		slog.Error("manifest", "path", manifestPath, "error", err)
		os.Exit(1)
	}
	if err := manifest.Validate(); err != nil {
		slog.Error("manifest", "path", manifestPath, "error", err)
		os.Exit(1)
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        workflowID(manifestPath),
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflows.ImportDirectoryWorkflow, manifest)
	if err != nil {
		slog.Error("start import", "error", err)
		os.Exit(1)
	}
	slog.Info("import started", "workflow_id", run.GetID(), "run_id", run.GetRunID())

	var result workflows.ImportResult
	if err := run.Get(ctx, &result); err != nil {
		slog.Error("import failed", "workflow_id", run.GetID(), "error", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}

func readManifest(path string) (workflows.Manifest, error) {
	var m workflows.Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := yaml.UnmarshalStrict(data, &m); err != nil {
		return m, fmt.Errorf("parse: %w", err)
	}
	return m, nil
}

func workflowID(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return fmt.Sprintf("directory-import-%s-%d", name, time.Now().Unix())
}
