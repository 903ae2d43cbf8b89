// Package config centralizes the environment variables both binaries load.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config aggregates every parameter the API and the recompute worker need.
type Config struct {
	HTTPAddress string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RecomputeQueueKey string
	CounterKeyPrefix  string

	RateLimitEnabled       bool
	RateLimitMaxActions    int
	RateLimitWindowSeconds int
	RateLimitKeyPrefix     string

	AutoMigrate bool

	WorkerMetricsAddress string
	ResultsToken         string
}

func Load() (Config, error) {
	// Local development reads a .env when present; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddress:            getEnv("HTTP_ADDRESS", ":8080"),
		PostgresHost:           getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:           getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:           getEnv("POSTGRES_USER", "voting"),
		PostgresPassword:       getEnv("POSTGRES_PASSWORD", "voting"),
		PostgresDB:             getEnv("POSTGRES_DB", "event_votes"),
		PostgresSSLMode:        getEnv("POSTGRES_SSLMODE", "disable"),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RecomputeQueueKey:      getEnv("REDIS_RECOMPUTE_QUEUE", "recompute:events"),
		CounterKeyPrefix:       getEnv("REDIS_COUNTER_PREFIX", "counter"),
		RateLimitEnabled:       getEnv("RATE_LIMIT_ENABLED", "true") == "true",
		RateLimitMaxActions:    getEnvAsInt("RATE_LIMIT_MAX", 30),
		RateLimitWindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW", 60),
		RateLimitKeyPrefix:     getEnv("RATE_LIMIT_PREFIX", "ratelimit"),
		AutoMigrate:            getEnvAsBool("DB_AUTO_MIGRATE", true),
		WorkerMetricsAddress:   getEnv("WORKER_METRICS_ADDRESS", ":9090"),
		ResultsToken:           os.Getenv("RESULTS_TOKEN"),
	}

	dbStr := getEnv("REDIS_DB", "0")
	dbInt, err := strconv.Atoi(dbStr)
	if err != nil {
		return Config{}, fmt.Errorf("config: invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = dbInt

	return cfg, nil
}

func (c Config) PostgresDSN() string {
	// DSN format shared by GORM and migration tooling.
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
		c.PostgresSSLMode,
	)
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getEnvAsBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	switch value {
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return true
	}
}
