package middleware

import (
	"strings"

	"cottage-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CORSConfig decides which browser origins may call the ledger API.
// AllowedSuffix matches the owner and admin portals (e.g. ".cottages.example");
// DevPassword lets a developer's local build in through the dev-password header.
type CORSConfig struct {
	AllowedSuffix string
	DevPassword   string
}

const (
	devPasswordHeader = "dev-password"
	corsAllowHeaders  = "Content-Type, " + devPasswordHeader + ", " + traceIDHeader
	corsAllowMethods  = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
)

// CORS admits portal origins with credentials so the session cookie travels.
// Requests without an Origin (cron, curl, server-to-server) pass untouched.
func CORS(cfg CORSConfig) fiber.Handler {
	suffix := strings.ToLower(cfg.AllowedSuffix)
	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" {
			return c.Next()
		}
		if c.Method() == fiber.MethodOptions && isLocalOrigin(origin) {
			allowOrigin(c, origin)
			return c.SendStatus(fiber.StatusNoContent)
		}
		portal := suffix != "" && strings.HasSuffix(strings.ToLower(origin), suffix)
		dev := cfg.DevPassword != "" && c.Get(devPasswordHeader) == cfg.DevPassword
		if !portal && !dev {
			return response.Error(c, "Origin "+origin+" may not call the cottage ledger", fiber.StatusForbidden, nil)
		}
		allowOrigin(c, origin)
		return c.Next()
	}
}

func isLocalOrigin(origin string) bool {
	return strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")
}

// allowOrigin exposes X-Trace-Id so portals can quote it in support tickets.
func allowOrigin(c *fiber.Ctx, origin string) {
	c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
	c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
	c.Set(fiber.HeaderAccessControlAllowHeaders, corsAllowHeaders)
	c.Set(fiber.HeaderAccessControlAllowMethods, corsAllowMethods)
	c.Set(fiber.HeaderAccessControlExposeHeaders, traceIDHeader)
}
