// Package bootstrap assembles the cottage ledger for hosts that cannot run
// cmd/api: the serverless handler in api/ imports it instead of internal/.
package bootstrap

import (
	"os"

	"cottage-ledger/internal/config"
	"cottage-ledger/internal/interfaces/router"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ConfigureLogging applies LOG_LEVEL and, outside production, switches the
// global logger to the human-readable console writer.
func ConfigureLogging(cfg *config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// New loads configuration and builds the ledger app for a single serverless
// instance. Instances share nothing in memory, so booking locks only hold
// across them when LOCK_BACKEND resolves to redis.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	ConfigureLogging(cfg)
	app, _, _, err := router.CreateApp(cfg)
	return app, err
}
