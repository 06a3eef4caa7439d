package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/orgdirectory/internal/adapters/http"
	"github.com/samirrijal/orgdirectory/internal/app"
	"github.com/samirrijal/orgdirectory/internal/pkg/config"
	"github.com/samirrijal/orgdirectory/internal/pkg/logging"
	"github.com/samirrijal/orgdirectory/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("orgdirectory-api")
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("startup", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	go a.WatchPool(ctx, 15*time.Second)

	deps := &http.Dependencies{
		Buildings:     a.Buildings,
		Activities:    a.Activities,
		Organizations: a.Organizations,
		Stats:         a.Stats,
		NATS:          a.NATSConn(),
		DB:            a.DB,
		Cache:         a.Cache,
		APIKey:        cfg.Server.APIKey,
	}
	if deps.APIKey == "" {
		slog.Warn("server.api_key is empty, API key check disabled")
	}

	server := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		AppName:      "Organization Directory API",
	})
	server.Use(recover.New())
	server.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, X-API-Key",
		MaxAge:       3600,
	}))

	http.SetupRoutes(server, deps, http.RouterOptions{RateLimit: cfg.Server.RateLimit})

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := server.Listen(addr); err != nil {
			slog.Error("listen", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
