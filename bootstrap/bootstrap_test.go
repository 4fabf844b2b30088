package bootstrap

import (
	"testing"

	"cottage-ledger/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestConfigureLogging(t *testing.T) {
	prevLevel, prevLogger := zerolog.GlobalLevel(), log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(prevLevel)
		log.Logger = prevLogger
	})

	ConfigureLogging(&config.Config{Env: "production", LogLevel: "warn"})
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	ConfigureLogging(&config.Config{Env: "production", LogLevel: "loud"})
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}
