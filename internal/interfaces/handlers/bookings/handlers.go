package bookings

import (
	"strings"

	bookingsvc "cottage-ledger/internal/application/bookings"
	"cottage-ledger/internal/domain"
	"cottage-ledger/internal/middleware"
	"cottage-ledger/internal/pkg/response"
	"cottage-ledger/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *bookingsvc.Service
}

func actor(c *fiber.Ctx) (bookingsvc.Actor, bool) {
	id, role, ok := middleware.Identity(c)
	return bookingsvc.Actor{ID: id, Role: role}, ok
}

func pathUUID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

type createBookingRequest struct {
	CottageID string `json:"cottage_id" validate:"required,uuid"`
	CheckIn   string `json:"check_in" validate:"required,date"`
	CheckOut  string `json:"check_out" validate:"required,date"`
}

// POST /api/v1/owner/bookings
func (h *Handlers) Create(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body createBookingRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	if err := validation.Struct(body); err != nil {
		return response.FromError(c, err)
	}
	checkIn, _ := domain.ParseDate(body.CheckIn)
	checkOut, _ := domain.ParseDate(body.CheckOut)

	b, err := h.Service.Create(c.UserContext(), bookingsvc.CreateInput{
		OwnerID:   a.ID,
		CottageID: uuid.MustParse(body.CottageID),
		CheckIn:   checkIn,
		CheckOut:  checkOut,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Booking request submitted", b, nil)
}

// GET /api/v1/owner/bookings?status=pending
func (h *Handlers) ListMine(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var status *domain.BookingStatus
	if raw := c.Query("status"); raw != "" {
		st, err := domain.ParseBookingStatus(raw)
		if err != nil {
			return response.BadRequest(c, err.Error(), nil)
		}
		status = &st
	}
	list, err := h.Service.ListForOwner(c.UserContext(), a.ID, status)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Bookings fetched successfully", list, fiber.Map{"count": len(list)})
}

// GET /api/v1/owner/bookings/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid UUID format for booking id", nil)
	}
	b, err := h.Service.Get(c.UserContext(), id, a)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Booking fetched successfully", b, nil)
}

// GET /api/v1/owner/bookings/:id/receipt
func (h *Handlers) Receipt(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid UUID format for booking id", nil)
	}
	r, err := h.Service.Receipt(c.UserContext(), id, a)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Receipt fetched successfully", r, nil)
}

type editBookingRequest struct {
	CheckIn  string `json:"check_in" validate:"required,date"`
	CheckOut string `json:"check_out" validate:"required,date"`
}

// PUT /api/v1/owner/bookings/:id
func (h *Handlers) EditDates(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid UUID format for booking id", nil)
	}
	var body editBookingRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	if err := validation.Struct(body); err != nil {
		return response.FromError(c, err)
	}
	checkIn, _ := domain.ParseDate(body.CheckIn)
	checkOut, _ := domain.ParseDate(body.CheckOut)

	b, err := h.Service.EditDates(c.UserContext(), bookingsvc.EditInput{BookingID: id, CheckIn: checkIn, CheckOut: checkOut}, a)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Booking dates updated", b, nil)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

// POST /api/v1/owner/bookings/:id/cancel
func (h *Handlers) Cancel(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid UUID format for booking id", nil)
	}
	var body reasonRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return response.BadRequest(c, "Invalid request body", nil)
		}
	}
	b, err := h.Service.Cancel(c.UserContext(), id, a, body.Reason)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Booking cancelled and credits refunded", b, nil)
}

// GET /api/v1/admin/approval-queue
func (h *Handlers) ApprovalQueue(c *fiber.Ctx) error {
	list, err := h.Service.ApprovalQueue(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Approval queue fetched successfully", list, fiber.Map{"count": len(list)})
}

type decisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Notes    string `json:"notes" validate:"max=2000"`
}

// POST /api/v1/admin/bookings/:id/decision
func (h *Handlers) Decide(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid UUID format for booking id", nil)
	}
	var body decisionRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	body.Decision = strings.ToLower(strings.TrimSpace(body.Decision))
	if err := validation.Struct(body); err != nil {
		return response.FromError(c, err)
	}
	b, err := h.Service.Decide(c.UserContext(), id, domain.BookingAction(body.Decision), body.Notes, a)
	if err != nil {
		return response.FromError(c, err)
	}
	msg := "Booking approved"
	if b.Status == domain.BookingRejected {
		msg = "Booking rejected and credits refunded"
	}
	return response.Success(c, msg, b, nil)
}

// POST /api/v1/admin/bookings/:id/revoke
func (h *Handlers) Revoke(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid UUID format for booking id", nil)
	}
	var body reasonRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	b, err := h.Service.Revoke(c.UserContext(), id, a, body.Reason)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Booking revoked and credits refunded", b, nil)
}

// GET /api/v1/admin/bookings/:id/events
func (h *Handlers) Events(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid UUID format for booking id", nil)
	}
	events, err := h.Service.Events(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Booking events fetched successfully", events, nil)
}

// GET /api/v1/admin/maintenance-blocks/:block_id/bookings
func (h *Handlers) MaintenanceConflicts(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "block_id")
	if !ok {
		return response.BadRequest(c, "Invalid UUID format for block_id", nil)
	}
	list, err := h.Service.ConflictsForMaintenance(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Affected bookings fetched successfully", list, fiber.Map{"count": len(list)})
}

// POST /api/v1/admin/maintenance-blocks/:block_id/revoke-bookings
func (h *Handlers) RevokeForMaintenance(c *fiber.Ctx) error {
	a, ok := actor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := pathUUID(c, "block_id")
	if !ok {
		return response.BadRequest(c, "Invalid UUID format for block_id", nil)
	}
	var body reasonRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	report, err := h.Service.RevokeForMaintenance(c.UserContext(), id, a, body.Reason)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Maintenance revocation finished", report, nil)
}

// GET /api/v1/admin/rejected-bookings
func (h *Handlers) ClosedBookings(c *fiber.Ctx) error {
	list, err := h.Service.ListByStatus(c.UserContext(), []domain.BookingStatus{domain.BookingRejected, domain.BookingCancelled}, true)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Rejected and revoked bookings fetched successfully", list, fiber.Map{"count": len(list)})
}

// GET /api/v1/admin/bookings-calendar
func (h *Handlers) Calendar(c *fiber.Ctx) error {
	list, err := h.Service.ListByStatus(c.UserContext(), domain.ActiveStatuses, false)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Bookings calendar fetched successfully", list, fiber.Map{"count": len(list)})
}
