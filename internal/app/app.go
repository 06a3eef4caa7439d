// Package app wires configuration, adapters and services for the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/orgdirectory/internal/adapters/nats"
	"github.com/samirrijal/orgdirectory/internal/adapters/nominatim"
	"github.com/samirrijal/orgdirectory/internal/adapters/postgres"
	"github.com/samirrijal/orgdirectory/internal/adapters/valkey"
	"github.com/samirrijal/orgdirectory/internal/core/ports"
	"github.com/samirrijal/orgdirectory/internal/core/usecases"
	"github.com/samirrijal/orgdirectory/internal/pkg/config"
	"github.com/samirrijal/orgdirectory/internal/pkg/metrics"
)

// App holds the connected adapters and the services built on them.
// Cache and Publisher are nil when their backends are unreachable.
type App struct {
	DB        *postgres.DB
	Cache     *valkey.Cache
	Publisher *natsadapter.Publisher

	Buildings     *usecases.BuildingService
	Activities    *usecases.ActivityService
	Organizations *usecases.OrganizationService
	Stats         *usecases.StatsService
}

// New connects to PostgreSQL (required), Valkey and NATS (optional) and
// builds the directory services.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := postgres.New(ctx, cfg.Database.DSN(), time.Duration(cfg.Database.ConnectWait)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	a := &App{DB: db}

	// Interface values stay nil unless the backend is up, so services
	// see a true nil rather than a nil pointer.
	var cache ports.CacheService
	if c, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.KeyPrefix); err != nil {
		slog.Warn("valkey unavailable, caching disabled", "error", err)
	} else {
		a.Cache = c
		cache = c
	}

	var events ports.EventPublisher
	if p, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, events disabled", "error", err)
	} else {
		a.Publisher = p
		events = p
	}

	geocoder := nominatim.New(nominatim.Config{
		BaseURL:    cfg.Geocoder.BaseURL,
		UserAgent:  cfg.Geocoder.UserAgent,
		Timeout:    cfg.Geocoder.TimeoutDuration(),
		MaxRetries: uint64(cfg.Geocoder.MaxRetries),
		CacheTTL:   cfg.Geocoder.CacheTTL,
	}, cache)

	a.Buildings = usecases.NewBuildingService(postgres.NewBuildingRepo(db), geocoder, cache, events)
	a.Activities = usecases.NewActivityService(postgres.NewActivityRepo(db), cache, events, usecases.DepthPolicy{
		Default: cfg.Directory.ActivityDepth,
		Max:     cfg.Directory.MaxActivityDepth,
	})
	a.Organizations = usecases.NewOrganizationService(
		postgres.NewOrganizationRepo(db),
		postgres.NewBuildingRepo(db),
		a.Activities,
		geocoder,
		events,
		cfg.Directory.CityRadiusKm,
	)
	a.Stats = usecases.NewStatsService(postgres.NewStatsRepo(db))
	return a, nil
}

// NATSConn returns the publisher's connection, or nil when NATS is down.
func (a *App) NATSConn() *nats.Conn {
	if a.Publisher == nil {
		return nil
	}
	return a.Publisher.Conn()
}

// WatchPool refreshes the database pool gauges until ctx is done.
func (a *App) WatchPool(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		metrics.UpdateDBPoolMetrics(a.DB.Pool.Stat())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Close releases every connection.
func (a *App) Close() {
	if a.Publisher != nil {
		a.Publisher.Close()
	}
	if a.Cache != nil {
		a.Cache.Close()
	}
	a.DB.Close()
}
