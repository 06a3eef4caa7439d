package http

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Version is reported by the health endpoint; set at build time with -ldflags.
var Version = "dev"

const readyTimeout = 3 * time.Second

var errNotConfigured = errors.New("not configured")

// HealthHandler reports liveness, uptime and build version.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
			"version": Version,
		})
	}
}

// readinessCheck probes one backend. Only required checks can make the
// service unready; optional backends (events, cache) degrade instead.
type readinessCheck struct {
	name     string
	required bool
	probe    func(ctx context.Context) error
}

func readinessChecks(deps *Dependencies) []readinessCheck {
	return []readinessCheck{
		{name: "database", required: true, probe: func(ctx context.Context) error {
			if deps.DB == nil {
				return errNotConfigured
			}
			return deps.DB.Pool.Ping(ctx)
		}},
		{name: "nats", probe: func(context.Context) error {
			if deps.NATS == nil {
				return errNotConfigured
			}
			if !deps.NATS.IsConnected() {
				return errors.New("disconnected")
			}
			return nil
		}},
		{name: "cache", probe: func(ctx context.Context) error {
			if deps.Cache == nil {
				return errNotConfigured
			}
			return deps.Cache.Ping(ctx)
		}},
	}
}

// ReadyHandler probes every backend concurrently. It answers 503 when the
// database is unreachable; a missing or broken cache or NATS is reported
// but keeps the service ready.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	checks := readinessChecks(deps)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
		defer cancel()

		results := make([]error, len(checks))
		var wg sync.WaitGroup
		for i, chk := range checks {
			wg.Add(1)
			go func(i int, chk readinessCheck) {
				defer wg.Done()
				results[i] = chk.probe(ctx)
			}(i, chk)
		}
		wg.Wait()

		report := make(map[string]string, len(checks))
		ready := true
		for i, chk := range checks {
			switch err := results[i]; {
			case err == nil:
				report[chk.name] = "ok"
			case errors.Is(err, errNotConfigured):
				report[chk.name] = err.Error()
			default:
				report[chk.name] = "error: " + err.Error()
			}
			if results[i] != nil && chk.required {
				ready = false
			}
		}

		if !ready {
			LoggerFromCtx(c.UserContext()).Warn("not ready", "checks", report)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "checks": report})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": report})
	}
}
