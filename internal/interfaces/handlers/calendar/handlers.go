package calendar

import (
	"strconv"
	"time"

	"cottage-ledger/internal/application/availability"
	calendarsvc "cottage-ledger/internal/application/calendar"
	"cottage-ledger/internal/application/pricing"
	"cottage-ledger/internal/domain"
	"cottage-ledger/internal/pkg/response"
	"cottage-ledger/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// maxWindowNights bounds the date window a single request may ask for.
const maxWindowNights = 366

type Handlers struct {
	Pricing   *pricing.Service
	Inventory *availability.Service
	Calendar  *calendarsvc.Service
}

// window reads ?from and ?to. A non-empty message describes why the window is rejected.
func window(c *fiber.Ctx) (from, to time.Time, msg string) {
	from, err := domain.ParseDate(c.Query("from"))
	if err != nil {
		return from, to, "from must be a date in YYYY-MM-DD format"
	}
	to, err = domain.ParseDate(c.Query("to"))
	if err != nil {
		return from, to, "to must be a date in YYYY-MM-DD format"
	}
	if r, err := domain.NewDateRange(from, to); err == nil && r.Nights() > maxWindowNights {
		return from, to, "Date window is limited to " + strconv.Itoa(maxWindowNights) + " nights"
	}
	return from, to, ""
}

type costRequest struct {
	CottageID string `json:"cottage_id" validate:"omitempty,uuid"`
	CheckIn   string `json:"check_in" validate:"required,date"`
	CheckOut  string `json:"check_out" validate:"required,date"`
}

// POST /api/v1/owner/calculate-cost
func (h *Handlers) CalculateCost(c *fiber.Ctx) error {
	var body costRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	if err := validation.Struct(body); err != nil {
		return response.FromError(c, err)
	}
	var cottageID uuid.UUID
	if body.CottageID != "" {
		cottageID = uuid.MustParse(body.CottageID)
	}
	checkIn, _ := domain.ParseDate(body.CheckIn)
	checkOut, _ := domain.ParseDate(body.CheckOut)

	q, err := h.Pricing.Price(c.UserContext(), cottageID, checkIn, checkOut)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Cost calculated successfully", q, nil)
}

// GET /api/v1/owner/cottages/:cottage_id/availability?from=2025-03-01&to=2025-04-01
func (h *Handlers) Availability(c *fiber.Ctx) error {
	cottageID, err := uuid.Parse(c.Params("cottage_id"))
	if err != nil {
		return response.BadRequest(c, "Invalid UUID format for cottage_id", nil)
	}
	from, to, msg := window(c)
	if msg != "" {
		return response.BadRequest(c, msg, nil)
	}

	days, err := h.Inventory.Days(c.UserContext(), cottageID, from, to)
	if err != nil {
		return response.FromError(c, err)
	}
	free := 0
	for _, d := range days {
		if d.Available {
			free++
		}
	}
	return response.Success(c, "Availability fetched successfully", days, fiber.Map{"nights": len(days), "available": free})
}

// GET /api/v1/admin/inventory-health?from=2025-03-01&to=2025-03-08&property_id=
func (h *Handlers) InventoryHealth(c *fiber.Ctx) error {
	from, to, msg := window(c)
	if msg != "" {
		return response.BadRequest(c, msg, nil)
	}
	var propertyID *uuid.UUID
	if raw := c.Query("property_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return response.BadRequest(c, "Invalid UUID format for property_id", nil)
		}
		propertyID = &id
	}
	cells, err := h.Inventory.Grid(c.UserContext(), propertyID, from, to)
	if err != nil {
		return response.FromError(c, err)
	}
	counts := fiber.Map{}
	for _, cell := range cells {
		n, _ := counts[cell.Status].(int)
		counts[cell.Status] = n + 1
	}
	return response.Success(c, "Inventory health fetched successfully", cells, counts)
}

// GET /api/v1/owner/holidays?year=2025
func (h *Handlers) Holidays(c *fiber.Ctx) error {
	year, _ := strconv.Atoi(c.Query("year"))
	list, err := h.Calendar.Holidays(c.UserContext(), year)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Holidays fetched successfully", list, nil)
}

// GET /api/v1/owner/peak-seasons
func (h *Handlers) PeakSeasons(c *fiber.Ctx) error {
	list, err := h.Calendar.PeakSeasons(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Peak seasons fetched successfully", list, nil)
}
