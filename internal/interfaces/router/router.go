package router

import (
	"errors"

	auditsvc "cottage-ledger/internal/application/audit"
	"cottage-ledger/internal/application/availability"
	bookingsvc "cottage-ledger/internal/application/bookings"
	calendarsvc "cottage-ledger/internal/application/calendar"
	healthsvc "cottage-ledger/internal/application/health"
	"cottage-ledger/internal/application/ledger"
	"cottage-ledger/internal/application/notifications"
	"cottage-ledger/internal/application/pricing"
	"cottage-ledger/internal/config"
	"cottage-ledger/internal/infrastructure/database"
	"cottage-ledger/internal/infrastructure/lock"
	audithandler "cottage-ledger/internal/interfaces/handlers/audit"
	bookinghandler "cottage-ledger/internal/interfaces/handlers/bookings"
	calendarhandler "cottage-ledger/internal/interfaces/handlers/calendar"
	healthhandler "cottage-ledger/internal/interfaces/handlers/health"
	quotahandler "cottage-ledger/internal/interfaces/handlers/quota"
	"cottage-ledger/internal/middleware"
	"cottage-ledger/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Deps are the connections the app is built on. Notifier may be nil.
type Deps struct {
	DB       *gorm.DB
	Rdb      *redis.Client
	Notifier notifications.Notifier
	// Notifiers names the configured backends for the health report.
	Notifiers []string
}

// CreateApp opens Postgres and Redis from cfg, builds the notifier chain and
// returns the wired app. Closing the Kafka producer is hooked to app shutdown.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, nil, errors.New("database url is not configured")
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, nil, err
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	rdb := redis.NewClient(opt)

	deps := Deps{DB: db, Rdb: rdb}
	var chain notifications.Multi
	if cfg.SendinblueAPIKey != "" {
		chain = append(chain, &notifications.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom})
		deps.Notifiers = append(deps.Notifiers, "brevo")
	}
	var kafka *notifications.KafkaNotifier
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err = notifications.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic, nil)
		if err != nil {
			return nil, nil, nil, err
		}
		chain = append(chain, kafka)
		deps.Notifiers = append(deps.Notifiers, "kafka")
	}
	if len(chain) > 0 {
		deps.Notifier = chain
	}

	app := Build(cfg, deps)
	if kafka != nil {
		app.Hooks().OnShutdown(func() error {
			log.Info().Msg("closing kafka producer")
			return kafka.Close()
		})
	}
	return app, db, rdb, nil
}

// Build wires middleware, services and routes over existing connections.
func Build(cfg *config.Config, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	db, rdb := deps.DB, deps.Rdb
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	if rdb != nil {
		app.Use(middleware.SessionWithClient(rdb))
	}
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	var locker lock.Locker = lock.NewMemoryLocker()
	lockBackend := "memory"
	if cfg.LockBackend == "redis" && rdb != nil {
		locker = &lock.RedisLocker{Rdb: rdb, TTL: cfg.LockTTL}
		lockBackend = "redis"
	}
	if lockBackend == "memory" && cfg.Env == "production" {
		log.Warn().Msg("memory lock backend in production: cottage locks are not shared across instances")
	}

	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.Nop{}
	}

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		DB:             &gormDBPinger{db: db},
		HealthAdminKey: cfg.HealthAdminKey,
		Options:        healthsvc.Options{LockBackend: lockBackend, Notifiers: deps.Notifiers},
	}
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	ledgerSvc := &ledger.Service{DB: db, Locks: locker}
	bookings := &bookingsvc.Service{DB: db, Ledger: ledgerSvc, Notifier: notifier}

	qh := &quotahandler.Handlers{
		Ledger:              ledgerSvc,
		DefaultWeekdayQuota: cfg.DefaultWeekdayQuota,
		DefaultWeekendQuota: cfg.DefaultWeekendQuota,
	}
	bh := &bookinghandler.Handlers{Service: bookings}
	ch := &calendarhandler.Handlers{
		Pricing:   &pricing.Service{DB: db},
		Inventory: &availability.Service{DB: db},
		Calendar:  &calendarsvc.Service{DB: db},
	}
	ah := &audithandler.Handlers{Service: &auditsvc.Service{DB: db}}

	og := app.Group("/api/v1/owner", middleware.RequireAuth())
	og.Get("/quota-status", middleware.AuthorizePermission(constants.ViewQuota), qh.MyStatus)
	og.Get("/transactions", middleware.AuthorizePermission(constants.ViewQuota), qh.MyTransactions)
	og.Post("/calculate-cost", middleware.AuthorizePermission(constants.BookCottage), ch.CalculateCost)
	og.Get("/cottages/:cottage_id/availability", middleware.AuthorizePermission(constants.BookCottage), ch.Availability)
	og.Get("/holidays", middleware.AuthorizePermission(constants.BookCottage), ch.Holidays)
	og.Get("/peak-seasons", middleware.AuthorizePermission(constants.BookCottage), ch.PeakSeasons)
	og.Post("/bookings", middleware.AuthorizePermission(constants.BookCottage), bh.Create)
	og.Get("/bookings", middleware.AuthorizePermission(constants.ManageBookings), bh.ListMine)
	og.Get("/bookings/:id", middleware.AuthorizePermission(constants.ManageBookings), bh.Get)
	og.Get("/bookings/:id/receipt", middleware.AuthorizePermission(constants.ManageBookings), bh.Receipt)
	og.Put("/bookings/:id", middleware.AuthorizePermission(constants.ManageBookings), bh.EditDates)
	og.Post("/bookings/:id/cancel", middleware.AuthorizePermission(constants.ManageBookings), bh.Cancel)

	ag := app.Group("/api/v1/admin", middleware.RequireAuth())
	ag.Post("/owners", middleware.AuthorizePermission(constants.ManageOwners), qh.OpenAccount)
	ag.Put("/owners/:owner_id/quota", middleware.AuthorizePermission(constants.ManageOwners), qh.SetQuota)
	ag.Patch("/owners/:owner_id/status", middleware.AuthorizePermission(constants.ManageOwners), qh.SetStatus)
	ag.Delete("/owners/:owner_id", middleware.AuthorizePermission(constants.ManageOwners), qh.CloseAccount)
	ag.Post("/owners/:owner_id/adjust-quota", middleware.AuthorizePermission(constants.AdjustQuotas), qh.Adjust)
	ag.Get("/owners/:owner_id/quota-status", middleware.AuthorizePermission(constants.ViewLedgerAudit), qh.OwnerStatus)
	ag.Get("/owners/:owner_id/ledger/verify", middleware.AuthorizePermission(constants.ViewLedgerAudit), qh.Verify)
	ag.Get("/ledger/reconcile", middleware.AuthorizePermission(constants.ViewLedgerAudit), qh.Reconcile)
	ag.Get("/quota-adjustments", middleware.AuthorizePermission(constants.ViewLedgerAudit), qh.Adjustments)
	ag.Post("/reset-all-quotas", middleware.AuthorizePermission(constants.ResetQuotas), qh.ResetAll)
	ag.Get("/approval-queue", middleware.AuthorizePermission(constants.DecideBookings), bh.ApprovalQueue)
	ag.Get("/rejected-bookings", middleware.AuthorizePermission(constants.DecideBookings), bh.ClosedBookings)
	ag.Get("/bookings-calendar", middleware.AuthorizePermission(constants.DecideBookings), bh.Calendar)
	ag.Get("/inventory-health", middleware.AuthorizePermission(constants.ViewInventory), ch.InventoryHealth)
	ag.Post("/bookings/:id/decision", middleware.AuthorizePermission(constants.DecideBookings), bh.Decide)
	ag.Post("/bookings/:id/revoke", middleware.AuthorizePermission(constants.RevokeBookings), bh.Revoke)
	ag.Get("/bookings/:id/events", middleware.AuthorizePermission(constants.ViewLedgerAudit), bh.Events)
	ag.Get("/maintenance-blocks/:block_id/bookings", middleware.AuthorizePermission(constants.RevokeBookings), bh.MaintenanceConflicts)
	ag.Post("/maintenance-blocks/:block_id/revoke-bookings", middleware.AuthorizePermission(constants.RevokeBookings), bh.RevokeForMaintenance)
	ag.Get("/audit-trail", middleware.AuthorizePermission(constants.ViewLedgerAudit), ah.Trail)

	return app
}
