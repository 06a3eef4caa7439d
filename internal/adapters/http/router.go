package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/orgdirectory/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// legacySunset is when the unversioned aliases stop being served.
var legacySunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// RouterOptions tunes cross-cutting middleware.
type RouterOptions struct {
	// RateLimit is the number of requests per minute per IP. Zero disables limiting.
	RateLimit int
}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies, opts RouterOptions) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	if opts.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opts.RateLimit,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
			},
		}))
	}

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, no key)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	SetupDocs(app)

	v1 := app.Group("/v1", APIKeyMiddleware(deps.APIKey))
	registerDirectory(v1, deps)
	v1.Get("/stats", timeout.NewWithContext(StatsHandler(deps), requestTimeout))

	// Unversioned aliases kept for existing clients.
	deprecated := DeprecationMiddleware([]DeprecatedRoute{
		{Path: "/buildings", SunsetDate: legacySunset, Alternative: "/v1/buildings"},
		{Path: "/buildings/:id", SunsetDate: legacySunset, Alternative: "/v1/buildings/:id"},
		{Path: "/buildings/:id/organizations", SunsetDate: legacySunset, Alternative: "/v1/buildings/:id/organizations"},
		{Path: "/activities", SunsetDate: legacySunset, Alternative: "/v1/activities"},
		{Path: "/activities/:id", SunsetDate: legacySunset, Alternative: "/v1/activities/:id"},
		{Path: "/organizations", SunsetDate: legacySunset, Alternative: "/v1/organizations"},
		{Path: "/organizations/search", SunsetDate: legacySunset, Alternative: "/v1/organizations/search"},
		{Path: "/organizations/:id", SunsetDate: legacySunset, Alternative: "/v1/organizations/:id"},
	})
	registerDirectory(app, deps, deprecated, APIKeyMiddleware(deps.APIKey))

	app.Post("/graphql", APIKeyMiddleware(deps.APIKey), GraphQLHandler(deps))

	if deps.NATS != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
	}
}

// registerDirectory mounts the directory resources on r, running pre before
// each handler. Static segments are registered before :id so
// /organizations/search wins.
func registerDirectory(r fiber.Router, deps *Dependencies, pre ...fiber.Handler) {
	t := func(h fiber.Handler) []fiber.Handler {
		chain := make([]fiber.Handler, 0, len(pre)+1)
		chain = append(chain, pre...)
		return append(chain, timeout.NewWithContext(h, requestTimeout))
	}

	r.Post("/buildings", t(CreateBuildingHandler(deps))...)
	r.Get("/buildings", t(ListBuildingsHandler(deps))...)
	r.Get("/buildings/:id", t(GetBuildingHandler(deps))...)
	r.Get("/buildings/:id/organizations", t(BuildingOrganizationsHandler(deps))...)

	r.Post("/activities", t(CreateActivityHandler(deps))...)
	r.Get("/activities", t(ListActivitiesHandler(deps))...)
	r.Get("/activities/:id", t(GetActivityHandler(deps))...)

	r.Post("/organizations", t(CreateOrganizationHandler(deps))...)
	r.Get("/organizations", t(ListOrganizationsHandler(deps))...)
	r.Get("/organizations/search", t(SearchOrganizationsHandler(deps))...)
	r.Get("/organizations/:id", t(GetOrganizationHandler(deps))...)
}
