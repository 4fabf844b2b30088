package bookings

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	bookingsvc "cottage-ledger/internal/application/bookings"
	"cottage-ledger/internal/application/ledger"
	"cottage-ledger/internal/domain"
	"cottage-ledger/internal/infrastructure/lock"
	"cottage-ledger/internal/pkg/constants"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type env struct {
	h         *Handlers
	db        *gorm.DB
	ownerID   uuid.UUID
	cottageID uuid.UUID
	adminID   uuid.UUID
}

func setupBookingHandlers(t *testing.T, weekday, weekend int) *env {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&domain.OwnerAccount{}, &domain.QuotaTransaction{}, &domain.Escrow{},
		&domain.Booking{}, &domain.BookingEvent{}, &domain.Cottage{},
		&domain.Holiday{}, &domain.PeakSeason{}, &domain.MaintenanceBlock{},
	))

	propertyID := uuid.New()
	cottage := &domain.Cottage{PropertyID: propertyID, Code: "C-1", IsActive: true}
	require.NoError(t, db.Create(cottage).Error)

	led := &ledger.Service{DB: db, Locks: lock.NewMemoryLocker()}
	ownerID := uuid.New()
	_, err = led.OpenAccount(context.Background(), ledger.OpenAccountInput{
		OwnerID: ownerID, PropertyID: propertyID, Email: "owner@example.com",
		WeekdayQuota: weekday, WeekendQuota: weekend,
	})
	require.NoError(t, err)

	return &env{
		h:         &Handlers{Service: &bookingsvc.Service{DB: db, Ledger: led}},
		db:        db,
		ownerID:   ownerID,
		cottageID: cottage.CottageID,
		adminID:   uuid.New(),
	}
}

func (e *env) app(userID uuid.UUID, role string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{
			"user_id": userID.String(),
			"role":    role,
		})
		return c.Next()
	})
	app.Post("/bookings", e.h.Create)
	app.Get("/bookings", e.h.ListMine)
	app.Get("/bookings/:id", e.h.Get)
	app.Get("/bookings/:id/receipt", e.h.Receipt)
	app.Put("/bookings/:id", e.h.EditDates)
	app.Post("/bookings/:id/cancel", e.h.Cancel)
	app.Get("/approval-queue", e.h.ApprovalQueue)
	app.Post("/admin/bookings/:id/decision", e.h.Decide)
	app.Post("/admin/bookings/:id/revoke", e.h.Revoke)
	app.Get("/admin/bookings/:id/events", e.h.Events)
	app.Get("/maintenance-blocks/:block_id/bookings", e.h.MaintenanceConflicts)
	app.Post("/maintenance-blocks/:block_id/revoke-bookings", e.h.RevokeForMaintenance)
	app.Get("/rejected-bookings", e.h.ClosedBookings)
	app.Get("/bookings-calendar", e.h.Calendar)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func date(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func errMsg(out map[string]interface{}) string {
	e, _ := out["error"].(map[string]interface{})
	m, _ := e["message"].(string)
	return m
}

func (e *env) createBody(in, out string) string {
	return `{"cottage_id":"` + e.cottageID.String() + `","check_in":"` + in + `","check_out":"` + out + `"}`
}

func TestCreateAndDecide(t *testing.T) {
	e := setupBookingHandlers(t, 5, 2)
	owner := e.app(e.ownerID, constants.Owner)
	admin := e.app(e.adminID, constants.Admin)

	code, out := do(t, owner, "POST", "/bookings", e.createBody("2025-03-10", "2025-03-12"))
	require.Equal(t, fiber.StatusCreated, code, out)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, float64(2), data["weekday_credits_used"])
	id := data["booking_id"].(string)

	code, out = do(t, admin, "GET", "/approval-queue", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Len(t, out["data"], 1)

	code, out = do(t, admin, "POST", "/admin/bookings/"+id+"/decision", `{"decision":"approve","notes":"ok"}`)
	require.Equal(t, fiber.StatusOK, code, out)
	assert.Equal(t, "Booking approved", out["message"])

	code, out = do(t, admin, "POST", "/admin/bookings/"+id+"/decision", `{"decision":"reject"}`)
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "Cannot reject a booking that is confirmed", errMsg(out))

	code, out = do(t, admin, "GET", "/admin/bookings/"+id+"/events", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Len(t, out["data"], 2)
}

func TestCreate_Errors(t *testing.T) {
	e := setupBookingHandlers(t, 1, 2)
	owner := e.app(e.ownerID, constants.Owner)

	code, out := do(t, owner, "POST", "/bookings", `{"cottage_id":"nope"}`)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Validation failed", errMsg(out))

	code, out = do(t, owner, "POST", "/bookings", e.createBody("2025-03-10", "2025-03-10"))
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, domain.ErrInvalidDateRange.Error(), errMsg(out))

	code, out = do(t, owner, "POST", "/bookings", e.createBody("2025-03-10", "2025-03-13"))
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Equal(t, "Insufficient weekday credits. Required: 3, Available: 1", errMsg(out))
	details := out["error"].(map[string]interface{})["details"].(map[string]interface{})
	assert.Equal(t, float64(3), details["required_weekday"])

	var n int64
	require.NoError(t, e.db.Model(&domain.Booking{}).Count(&n).Error)
	assert.Zero(t, n)

	code, _ = do(t, owner, "POST", "/bookings", e.createBody("2025-03-10", "2025-03-11"))
	require.Equal(t, fiber.StatusCreated, code)
	code, out = do(t, owner, "POST", "/bookings", e.createBody("2025-03-08", "2025-03-11"))
	assert.Equal(t, fiber.StatusConflict, code)
	assert.NotEmpty(t, out["error"].(map[string]interface{})["details"].(map[string]interface{})["conflicts"])
}

func TestOwnerCannotTouchOthersBooking(t *testing.T) {
	e := setupBookingHandlers(t, 5, 2)
	owner := e.app(e.ownerID, constants.Owner)
	stranger := e.app(uuid.New(), constants.Owner)

	_, out := do(t, owner, "POST", "/bookings", e.createBody("2025-03-10", "2025-03-12"))
	id := out["data"].(map[string]interface{})["booking_id"].(string)

	code, _ := do(t, stranger, "GET", "/bookings/"+id, "")
	assert.Equal(t, fiber.StatusForbidden, code)
	code, _ = do(t, stranger, "POST", "/bookings/"+id+"/cancel", "")
	assert.Equal(t, fiber.StatusForbidden, code)
	code, _ = do(t, stranger, "PUT", "/bookings/"+id, `{"check_in":"2025-03-20","check_out":"2025-03-21"}`)
	assert.Equal(t, fiber.StatusForbidden, code)

	code, _ = do(t, owner, "GET", "/bookings/not-a-uuid", "")
	assert.Equal(t, fiber.StatusBadRequest, code)
	code, _ = do(t, owner, "GET", "/bookings/"+uuid.New().String(), "")
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestEditCancelAndReceipt(t *testing.T) {
	e := setupBookingHandlers(t, 5, 2)
	owner := e.app(e.ownerID, constants.Owner)

	_, out := do(t, owner, "POST", "/bookings", e.createBody("2025-03-10", "2025-03-12"))
	id := out["data"].(map[string]interface{})["booking_id"].(string)

	code, out := do(t, owner, "PUT", "/bookings/"+id, `{"check_in":"2025-03-14","check_out":"2025-03-16"}`)
	require.Equal(t, fiber.StatusOK, code, out)
	assert.Equal(t, float64(1), out["data"].(map[string]interface{})["weekend_credits_used"])

	code, out = do(t, owner, "GET", "/bookings/"+id+"/receipt", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "C-1", out["data"].(map[string]interface{})["cottage_code"])

	code, out = do(t, owner, "GET", "/bookings?status=pending", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Len(t, out["data"], 1)
	code, _ = do(t, owner, "GET", "/bookings?status=bogus", "")
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, out = do(t, owner, "POST", "/bookings/"+id+"/cancel", `{"reason":"plans changed"}`)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "cancelled", out["data"].(map[string]interface{})["status"])
}

func TestRevokeAndMaintenance(t *testing.T) {
	e := setupBookingHandlers(t, 5, 2)
	owner := e.app(e.ownerID, constants.Owner)
	admin := e.app(e.adminID, constants.Admin)

	_, out := do(t, owner, "POST", "/bookings", e.createBody("2025-03-10", "2025-03-12"))
	id := out["data"].(map[string]interface{})["booking_id"].(string)

	code, out := do(t, admin, "POST", "/admin/bookings/"+id+"/revoke", `{"reason":""}`)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, domain.ErrReasonRequired.Error(), errMsg(out))

	block := &domain.MaintenanceBlock{CottageID: e.cottageID, StartDate: date("2025-03-11"), EndDate: date("2025-03-11"), Reason: "boiler"}
	require.NoError(t, e.db.Create(block).Error)

	code, out = do(t, admin, "GET", "/maintenance-blocks/"+block.BlockID.String()+"/bookings", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Len(t, out["data"], 1)

	code, out = do(t, admin, "POST", "/maintenance-blocks/"+block.BlockID.String()+"/revoke-bookings", `{"reason":"boiler"}`)
	require.Equal(t, fiber.StatusOK, code, out)
	report := out["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{id}, report["revoked"])

	code, _ = do(t, admin, "POST", "/maintenance-blocks/"+uuid.New().String()+"/revoke-bookings", `{"reason":"x"}`)
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestAdminBookingViews(t *testing.T) {
	e := setupBookingHandlers(t, 10, 4)
	owner := e.app(e.ownerID, constants.Owner)
	admin := e.app(e.adminID, constants.Admin)

	ids := make([]string, 0, 3)
	for _, stay := range [][2]string{{"2025-03-03", "2025-03-05"}, {"2025-03-10", "2025-03-12"}, {"2025-03-17", "2025-03-19"}} {
		code, out := do(t, owner, "POST", "/bookings", `{"cottage_id":"`+e.cottageID.String()+`","check_in":"`+stay[0]+`","check_out":"`+stay[1]+`"}`)
		require.Equal(t, fiber.StatusCreated, code, out)
		ids = append(ids, out["data"].(map[string]interface{})["booking_id"].(string))
	}
	code, out := do(t, admin, "POST", "/admin/bookings/"+ids[0]+"/decision", `{"decision":"reject","notes":"closed week"}`)
	require.Equal(t, fiber.StatusOK, code, out)
	code, out = do(t, admin, "POST", "/admin/bookings/"+ids[1]+"/decision", `{"decision":"approve"}`)
	require.Equal(t, fiber.StatusOK, code, out)

	code, out = do(t, admin, "GET", "/rejected-bookings", "")
	require.Equal(t, fiber.StatusOK, code)
	closed := out["data"].([]interface{})
	require.Len(t, closed, 1)
	row := closed[0].(map[string]interface{})
	assert.Equal(t, ids[0], row["booking_id"])
	assert.Equal(t, "C-1", row["cottage_code"])
	assert.Equal(t, "closed week", row["decision_notes"])

	code, out = do(t, admin, "GET", "/bookings-calendar", "")
	require.Equal(t, fiber.StatusOK, code)
	active := out["data"].([]interface{})
	require.Len(t, active, 2)
	assert.Equal(t, ids[1], active[0].(map[string]interface{})["booking_id"])
	assert.Equal(t, "confirmed", active[0].(map[string]interface{})["status"])
	assert.Equal(t, ids[2], active[1].(map[string]interface{})["booking_id"])
	assert.Equal(t, float64(2), out["metadata"].(map[string]interface{})["count"])
}
