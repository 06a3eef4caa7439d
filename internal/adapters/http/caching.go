package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Handlers that set their own header win.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if c.GetRespHeader(fiber.HeaderCacheControl) != "" {
			return err
		}

		if ttl := cacheControlFor(strings.TrimPrefix(c.Path(), "/v1")); ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}
		return err
	}
}

// cacheControlFor picks a Cache-Control value for an unversioned path.
func cacheControlFor(path string) string {
	switch {
	case path == "/health" || path == "/ready":
		return "public, max-age=10"
	case path == "/metrics":
		return "no-cache"
	case strings.HasPrefix(path, "/organizations/search"):
		return "public, max-age=60"
	case strings.HasPrefix(path, "/activities"):
		return "public, max-age=300" // taxonomy changes rarely
	case strings.HasPrefix(path, "/buildings"):
		return "public, max-age=600"
	case strings.HasPrefix(path, "/organizations"):
		return "public, max-age=120"
	case strings.HasPrefix(path, "/docs"):
		return "public, max-age=3600"
	}
	return ""
}
