package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/orgdirectory/internal/adapters/postgres"
	"github.com/samirrijal/orgdirectory/internal/adapters/valkey"
	"github.com/samirrijal/orgdirectory/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Buildings     *usecases.BuildingService
	Activities    *usecases.ActivityService
	Organizations *usecases.OrganizationService
	Stats         *usecases.StatsService
	NATS          *nats.Conn
	DB            *postgres.DB
	Cache         *valkey.Cache
	// APIKey, when non-empty, must be sent in the X-API-Key header.
	APIKey string
}
