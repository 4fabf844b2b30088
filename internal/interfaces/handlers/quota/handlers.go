package quota

import (
	"strconv"

	"cottage-ledger/internal/application/ledger"
	"cottage-ledger/internal/domain"
	"cottage-ledger/internal/middleware"
	"cottage-ledger/internal/pkg/response"
	"cottage-ledger/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Ledger              *ledger.Service
	DefaultWeekdayQuota int
	DefaultWeekendQuota int
}

const defaultHistoryLimit = 50

func limitParam(c *fiber.Ctx) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return defaultHistoryLimit
	}
	return n
}

func ownerParam(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("owner_id"))
	return id, err == nil
}

func adminID(c *fiber.Ctx) *uuid.UUID {
	id, _, ok := middleware.Identity(c)
	if !ok {
		return nil
	}
	return &id
}

// GET /api/v1/owner/quota-status
func (h *Handlers) MyStatus(c *fiber.Ctx) error {
	id, _, ok := middleware.Identity(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	st, err := h.Ledger.Status(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Quota status fetched successfully", st, nil)
}

// GET /api/v1/owner/transactions?limit=50
func (h *Handlers) MyTransactions(c *fiber.Ctx) error {
	id, _, ok := middleware.Identity(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	txs, err := h.Ledger.History(c.UserContext(), id, limitParam(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Transactions fetched successfully", txs, fiber.Map{"count": len(txs)})
}

type openAccountRequest struct {
	OwnerID      string `json:"owner_id" validate:"required,uuid"`
	PropertyID   string `json:"property_id" validate:"required,uuid"`
	Email        string `json:"email" validate:"required,email"`
	FullName     string `json:"full_name" validate:"max=255"`
	WeekdayQuota *int   `json:"weekday_quota" validate:"omitempty,min=0"`
	WeekendQuota *int   `json:"weekend_quota" validate:"omitempty,min=0"`
}

// POST /api/v1/admin/owners
func (h *Handlers) OpenAccount(c *fiber.Ctx) error {
	var body openAccountRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	if err := validation.Struct(body); err != nil {
		return response.FromError(c, err)
	}
	in := ledger.OpenAccountInput{
		OwnerID:      uuid.MustParse(body.OwnerID),
		PropertyID:   uuid.MustParse(body.PropertyID),
		Email:        body.Email,
		FullName:     body.FullName,
		WeekdayQuota: h.DefaultWeekdayQuota,
		WeekendQuota: h.DefaultWeekendQuota,
		ActorID:      adminID(c),
	}
	if body.WeekdayQuota != nil {
		in.WeekdayQuota = *body.WeekdayQuota
	}
	if body.WeekendQuota != nil {
		in.WeekendQuota = *body.WeekendQuota
	}
	acc, err := h.Ledger.OpenAccount(c.UserContext(), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Owner account opened", acc, nil)
}

type setQuotaRequest struct {
	WeekdayQuota *int `json:"weekday_quota" validate:"required,min=0"`
	WeekendQuota *int `json:"weekend_quota" validate:"required,min=0"`
}

// PUT /api/v1/admin/owners/:owner_id/quota
func (h *Handlers) SetQuota(c *fiber.Ctx) error {
	ownerID, ok := ownerParam(c)
	if !ok {
		return response.BadRequest(c, "Invalid UUID format for owner_id", nil)
	}
	var body setQuotaRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	if err := validation.Struct(body); err != nil {
		return response.FromError(c, err)
	}
	acc, err := h.Ledger.SetQuota(c.UserContext(), ownerID, *body.WeekdayQuota, *body.WeekendQuota)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Quota updated; balances change at the next reset", acc, nil)
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active suspended"`
}

// PATCH /api/v1/admin/owners/:owner_id/status
func (h *Handlers) SetStatus(c *fiber.Ctx) error {
	ownerID, ok := ownerParam(c)
	if !ok {
		return response.BadRequest(c, "Invalid UUID format for owner_id", nil)
	}
	var body setStatusRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	if err := validation.Struct(body); err != nil {
		return response.FromError(c, err)
	}
	acc, err := h.Ledger.SetStatus(c.UserContext(), ownerID, domain.AccountStatus(body.Status))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Owner status updated", acc, nil)
}

// DELETE /api/v1/admin/owners/:owner_id
func (h *Handlers) CloseAccount(c *fiber.Ctx) error {
	ownerID, ok := ownerParam(c)
	if !ok {
		return response.BadRequest(c, "Invalid UUID format for owner_id", nil)
	}
	if err := h.Ledger.CloseAccount(c.UserContext(), ownerID); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Owner account closed", fiber.Map{"owner_id": ownerID}, nil)
}

type adjustRequest struct {
	WeekdayDelta int    `json:"weekday_delta"`
	WeekendDelta int    `json:"weekend_delta"`
	Reason       string `json:"reason" validate:"required,max=500"`
}

// POST /api/v1/admin/owners/:owner_id/adjust-quota
func (h *Handlers) Adjust(c *fiber.Ctx) error {
	ownerID, ok := ownerParam(c)
	if !ok {
		return response.BadRequest(c, "Invalid UUID format for owner_id", nil)
	}
	var body adjustRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	if err := validation.Struct(body); err != nil {
		return response.FromError(c, err)
	}
	t, err := h.Ledger.Adjust(c.UserContext(), ownerID, body.WeekdayDelta, body.WeekendDelta, body.Reason, adminID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	st, err := h.Ledger.Status(c.UserContext(), ownerID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Quota adjusted", fiber.Map{"transaction": t, "quota_status": st}, nil)
}

// GET /api/v1/admin/owners/:owner_id/quota-status
func (h *Handlers) OwnerStatus(c *fiber.Ctx) error {
	ownerID, ok := ownerParam(c)
	if !ok {
		return response.BadRequest(c, "Invalid UUID format for owner_id", nil)
	}
	st, err := h.Ledger.Status(c.UserContext(), ownerID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Quota status fetched successfully", st, nil)
}

// GET /api/v1/admin/owners/:owner_id/ledger/verify
func (h *Handlers) Verify(c *fiber.Ctx) error {
	ownerID, ok := ownerParam(c)
	if !ok {
		return response.BadRequest(c, "Invalid UUID format for owner_id", nil)
	}
	v, err := h.Ledger.Verify(c.UserContext(), ownerID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Ledger verified", v, nil)
}

// GET /api/v1/admin/ledger/reconcile
func (h *Handlers) Reconcile(c *fiber.Ctx) error {
	report, err := h.Ledger.Reconcile(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Ledger reconciled", report, nil)
}

// GET /api/v1/admin/quota-adjustments?limit=50
func (h *Handlers) Adjustments(c *fiber.Ctx) error {
	txs, err := h.Ledger.Adjustments(c.UserContext(), limitParam(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Adjustments fetched successfully", txs, fiber.Map{"count": len(txs)})
}

// POST /api/v1/admin/reset-all-quotas
func (h *Handlers) ResetAll(c *fiber.Ctx) error {
	report, err := h.Ledger.ResetAll(c.UserContext(), adminID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Annual quota reset finished", report, nil)
}
