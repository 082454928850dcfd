package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	RedisAddr    string
	RedisDB      int
	KafkaBrokers []string

	IngestInterval       time.Duration
	OutboxPollInterval   time.Duration
	DefaultRewardPercent string

	EnableStandingsCache   bool
	EnableScheduledIngest  bool
	EnableBillingStubCalls bool
}

func Load() (Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "coliseum"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RedisDB:      envInt("REDIS_DB", 0),
		KafkaBrokers: envList("KAFKA_BROKERS"),

		IngestInterval:       envDuration("INGEST_INTERVAL", 5*time.Minute),
		OutboxPollInterval:   envDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		DefaultRewardPercent: envString("REFERRAL_REWARD_PERCENT", "5"),

		EnableStandingsCache:   envBool("ENABLE_STANDINGS_CACHE", true),
		EnableScheduledIngest:  envBool("ENABLE_SCHEDULED_INGEST", true),
		EnableBillingStubCalls: envBool("ENABLE_BILLING_STUB_CALLS", true),
	}, nil
}

func envList(name string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func envString(name string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
