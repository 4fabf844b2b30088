package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	traceIDHeader = "X-Trace-Id"
	traceIDLocal  = "trace_id"
	noTraceID     = "no-trace-id"
)

// Tracing gives every ledger request a trace id. A portal may pass its own
// (a UUID in X-Trace-Id) so one booking attempt can be followed from the
// browser through submit, approval and the owner notification.
func Tracing() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := c.Get(traceIDHeader)
		if _, err := uuid.Parse(traceID); err != nil {
			traceID = uuid.New().String()
		}
		c.Locals(traceIDLocal, traceID)
		c.Set(traceIDHeader, traceID)
		return c.Next()
	}
}

// GetTraceID returns the request's trace id, or "" before Tracing ran.
func GetTraceID(c *fiber.Ctx) string {
	if id, ok := c.Locals(traceIDLocal).(string); ok {
		return id
	}
	return ""
}

// RequestLogger returns the global logger tagged with the trace id and,
// when a session is present, the acting user's id and role.
func RequestLogger(c *fiber.Ctx) zerolog.Logger {
	traceID := GetTraceID(c)
	if traceID == "" {
		traceID = noTraceID
	}
	lc := log.With().Str("trace_id", traceID)
	if m, ok := GetUser(c).(map[string]interface{}); ok {
		if id, _ := m["user_id"].(string); id != "" {
			lc = lc.Str("user_id", id)
		}
		if role, _ := m["role"].(string); role != "" {
			lc = lc.Str("role", role)
		}
	}
	return lc.Logger()
}
