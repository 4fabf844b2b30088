package middleware

import (
	"cottage-ledger/internal/pkg/constants"
	"cottage-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthorizePermission gates a route on a named permission from
// constants.PermissionRoles (submit_bookings, decide_bookings, ...).
// The owner/admin split lives in that table, not in the routes.
func AuthorizePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		role := getRoleFromUser(user)
		if role == "" {
			return response.Error(c, "Session carries no owner or admin role", fiber.StatusInternalServerError, nil)
		}
		if len(constants.PermissionRoles[permission]) == 0 {
			return response.Error(c, "Permission configuration error", fiber.StatusInternalServerError, map[string]interface{}{"permission": permission})
		}
		if !constants.AllowedRole(permission, role) {
			logger := RequestLogger(c)
			logger.Info().Str("permission", permission).Msg("ledger permission denied")
			return response.Forbidden(c)
		}
		return c.Next()
	}
}

func getRoleFromUser(user interface{}) string {
	m, ok := user.(map[string]interface{})
	if !ok {
		return ""
	}
	r, _ := m["role"].(string)
	return r
}
