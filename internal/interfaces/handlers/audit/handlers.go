package audit

import (
	"strconv"

	auditsvc "cottage-ledger/internal/application/audit"
	"cottage-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *auditsvc.Service
}

// GET /api/v1/admin/audit-trail?owner_id=&booking_id=&limit=
func (h *Handlers) Trail(c *fiber.Ctx) error {
	var f auditsvc.Filter
	if raw := c.Query("owner_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return response.BadRequest(c, "Invalid UUID format for owner_id", nil)
		}
		f.OwnerID = &id
	}
	if raw := c.Query("booking_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return response.BadRequest(c, "Invalid UUID format for booking_id", nil)
		}
		f.BookingID = &id
	}
	f.Limit, _ = strconv.Atoi(c.Query("limit"))

	entries, err := h.Service.Trail(c.UserContext(), f)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Audit trail fetched successfully", entries, fiber.Map{"count": len(entries)})
}
