package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrMissingAPIBaseURL = errors.New("API_BASE_URL is required")

type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	APIBaseURL         string
	APITimeout         time.Duration
	PaymentCallbackURL string
	JWTSecret          string

	SessionCookie string
	SessionTTL    time.Duration
	AnonymousTTL  time.Duration
	MongoURI      string
	DBName        string

	RedisAddr     string
	RedisPassword string
	CatalogTTL    time.Duration

	BreakerMaxFailures uint32
	BreakerCooldown    time.Duration
}

// Production reports whether the app runs with production logging and gin release mode.
func (c Config) Production() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	return FromEnv()
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:               getEnvOrDefault("PORT", "8080"),
		AppEnv:             getEnvOrDefault("APP_ENV", "development"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		APIBaseURL:         strings.TrimRight(getEnvOrDefault("API_BASE_URL", ""), "/"),
		APITimeout:         getDurationEnv("API_TIMEOUT", 10, time.Second),
		PaymentCallbackURL: getEnvOrDefault("PAYMENT_CALLBACK_URL", ""),
		JWTSecret:          getEnvOrDefault("JWT_SECRET", ""),
		SessionCookie:      getEnvOrDefault("SESSION_COOKIE", "sf_session"),
		SessionTTL:         getDurationEnv("SESSION_TTL", 7, 24*time.Hour),
		AnonymousTTL:       getDurationEnv("SESSION_ANON_TTL", 30, time.Minute),
		MongoURI:           getEnvOrDefault("MONGO_URI", ""),
		DBName:             getEnvOrDefault("DB_NAME", "storefront"),
		RedisAddr:          getEnvOrDefault("REDIS_ADDR", ""),
		RedisPassword:      getEnvOrDefault("REDIS_PASSWORD", ""),
		CatalogTTL:         getDurationEnv("CATALOG_TTL", 2, time.Minute),
		BreakerMaxFailures: uint32(getIntEnv("BREAKER_MAX_FAILURES", 5)),
		BreakerCooldown:    getDurationEnv("BREAKER_COOLDOWN", 30, time.Second),
	}

	if cfg.APIBaseURL == "" {
		return Config{}, ErrMissingAPIBaseURL
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue)) * unit
}
