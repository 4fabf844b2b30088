package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	DatabaseURL         string
	RedisURL            string
	FrontendURLEndsWith string
	DevPassword         string
	HealthAdminKey      string
	LogLevel            string
	LockBackend         string        // "memory" or "redis"; redis whenever REDIS_URL is set unless overridden
	LockTTL             time.Duration // lease on redis locks
	SendinblueAPIKey    string        // SENDINBLUE_API_KEY for booking notifications (Brevo)
	MailFrom            string
	KafkaBrokers        []string
	KafkaTopic          string
	DefaultWeekdayQuota int
	DefaultWeekendQuota int
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOCK_TTL", "30s")
	v.SetDefault("MAIL_FROM", "noreply@cottage-ledger.local")
	v.SetDefault("KAFKA_TOPIC", "booking-events")
	v.SetDefault("DEFAULT_WEEKDAY_QUOTA", 12)
	v.SetDefault("DEFAULT_WEEKEND_QUOTA", 6)

	env := v.GetString("APP_ENV")
	dbURL := v.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = v.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = v.GetString("DATABASE_URL_TEST")
	}

	return &Config{
		Env:                 env,
		Port:                v.GetString("PORT"),
		DatabaseURL:         dbURL,
		RedisURL:            v.GetString("REDIS_URL"),
		FrontendURLEndsWith: v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         v.GetString("DEV_PASSWORD"),
		HealthAdminKey:      v.GetString("HEALTH_ADMIN_KEY"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LockBackend:         lockBackend(v.GetString("LOCK_BACKEND"), v.GetString("REDIS_URL")),
		LockTTL:             v.GetDuration("LOCK_TTL"),
		SendinblueAPIKey:    v.GetString("SENDINBLUE_API_KEY"),
		MailFrom:            v.GetString("MAIL_FROM"),
		KafkaBrokers:        splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:          v.GetString("KAFKA_TOPIC"),
		DefaultWeekdayQuota: v.GetInt("DEFAULT_WEEKDAY_QUOTA"),
		DefaultWeekendQuota: v.GetInt("DEFAULT_WEEKEND_QUOTA"),
	}, nil
}

// lockBackend defaults to redis whenever REDIS_URL is set. Memory locks
// cover one process only.
func lockBackend(explicit, redisURL string) string {
	if b := strings.ToLower(strings.TrimSpace(explicit)); b != "" {
		return b
	}
	if redisURL != "" {
		return "redis"
	}
	return "memory"
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
