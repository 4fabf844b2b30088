package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// RouteLogger writes one line when a ledger request starts and one when it
// finishes. Failures and 5xx responses finish at warn level.
func RouteLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method, path := c.Method(), c.Path()
		logger := RequestLogger(c)
		logger.Debug().Str("method", method).Str("path", path).Msg("ledger request started")

		err := c.Next()
		status := c.Response().StatusCode()
		ev := logger.Info()
		if err != nil || status >= fiber.StatusInternalServerError {
			ev = logger.Warn().Err(err)
		}
		ev.Str("method", method).
			Str("path", path).
			Int("status", status).
			Dur("took", time.Since(start)).
			Msg("ledger request finished")
		return err
	}
}
