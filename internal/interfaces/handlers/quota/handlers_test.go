package quota

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

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

func setupQuotaTest(t *testing.T) *Handlers {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.OwnerAccount{}, &domain.QuotaTransaction{}, &domain.Escrow{}))
	return &Handlers{
		Ledger:              &ledger.Service{DB: db, Locks: lock.NewMemoryLocker()},
		DefaultWeekdayQuota: 12,
		DefaultWeekendQuota: 6,
	}
}

func newApp(h *Handlers, userID uuid.UUID, role string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"user_id": userID.String(), "role": role})
		return c.Next()
	})
	app.Get("/owner/quota-status", h.MyStatus)
	app.Get("/owner/transactions", h.MyTransactions)
	app.Post("/owners", h.OpenAccount)
	app.Put("/owners/:owner_id/quota", h.SetQuota)
	app.Patch("/owners/:owner_id/status", h.SetStatus)
	app.Delete("/owners/:owner_id", h.CloseAccount)
	app.Post("/owners/:owner_id/adjust-quota", h.Adjust)
	app.Get("/owners/:owner_id/quota-status", h.OwnerStatus)
	app.Get("/owners/:owner_id/ledger/verify", h.Verify)
	app.Get("/ledger/reconcile", h.Reconcile)
	app.Get("/quota-adjustments", h.Adjustments)
	app.Post("/reset-all-quotas", h.ResetAll)
	return app
}

func call(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func TestOwnerLifecycle(t *testing.T) {
	h := setupQuotaTest(t)
	admin := newApp(h, uuid.New(), constants.Admin)
	ownerID := uuid.New()
	owner := newApp(h, ownerID, constants.Owner)

	body := `{"owner_id":"` + ownerID.String() + `","property_id":"` + uuid.New().String() + `","email":"owner@example.com","full_name":"Ann Owner"}`
	code, out := call(t, admin, "POST", "/owners", body)
	require.Equal(t, fiber.StatusCreated, code, out)
	assert.Equal(t, float64(12), out["data"].(map[string]interface{})["weekday_balance"])

	code, _ = call(t, admin, "POST", "/owners", body)
	assert.Equal(t, fiber.StatusConflict, code)

	code, out = call(t, admin, "POST", "/owners/"+ownerID.String()+"/adjust-quota", `{"weekday_delta":-2,"weekend_delta":1,"reason":"goodwill"}`)
	require.Equal(t, fiber.StatusOK, code, out)
	st := out["data"].(map[string]interface{})["quota_status"].(map[string]interface{})
	assert.Equal(t, float64(10), st["balance"].(map[string]interface{})["weekday"])

	code, out = call(t, admin, "POST", "/owners/"+ownerID.String()+"/adjust-quota", `{"weekday_delta":0,"weekend_delta":0,"reason":"noop"}`)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, out = call(t, owner, "GET", "/owner/quota-status", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, float64(7), out["data"].(map[string]interface{})["balance"].(map[string]interface{})["weekend"])

	code, out = call(t, owner, "GET", "/owner/transactions?limit=1", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Len(t, out["data"], 1)

	code, out = call(t, admin, "GET", "/owners/"+ownerID.String()+"/ledger/verify", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, true, out["data"].(map[string]interface{})["consistent"])

	code, out = call(t, admin, "GET", "/quota-adjustments", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Len(t, out["data"], 1)

	code, out = call(t, admin, "POST", "/reset-all-quotas", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, float64(1), out["data"].(map[string]interface{})["succeeded"])

	code, out = call(t, admin, "GET", "/ledger/reconcile", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Empty(t, out["data"].(map[string]interface{})["inconsistent"])

	code, _ = call(t, admin, "PUT", "/owners/"+ownerID.String()+"/quota", `{"weekday_quota":20,"weekend_quota":8}`)
	assert.Equal(t, fiber.StatusOK, code)
	code, _ = call(t, admin, "PATCH", "/owners/"+ownerID.String()+"/status", `{"status":"frozen"}`)
	assert.Equal(t, fiber.StatusBadRequest, code)
	code, _ = call(t, admin, "PATCH", "/owners/"+ownerID.String()+"/status", `{"status":"suspended"}`)
	assert.Equal(t, fiber.StatusOK, code)

	code, _ = call(t, admin, "DELETE", "/owners/"+ownerID.String(), "")
	assert.Equal(t, fiber.StatusOK, code)
	code, _ = call(t, admin, "GET", "/owners/"+ownerID.String()+"/quota-status", "")
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestOpenAccount_Validation(t *testing.T) {
	h := setupQuotaTest(t)
	admin := newApp(h, uuid.New(), constants.Admin)

	code, out := call(t, admin, "POST", "/owners", `{"owner_id":"x","email":"bad"}`)
	assert.Equal(t, fiber.StatusBadRequest, code)
	details := out["error"].(map[string]interface{})["details"].(map[string]interface{})
	assert.Contains(t, details, "owner_id")
	assert.Contains(t, details, "property_id")
	assert.Contains(t, details, "email")

	code, _ = call(t, admin, "GET", "/owners/nope/quota-status", "")
	assert.Equal(t, fiber.StatusBadRequest, code)
}
