package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// generateWorkerID creates a unique worker ID using hostname and PID
func generateWorkerID() string {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "seo-nexus"
	}
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// Storage
	MongoDBURL  string
	MongoDBName string
	RedisURL    string

	// JWT (tokens are issued by the external auth service)
	JWTSecret string

	// Telegram defaults; settings rows override at event time
	TelegramBotToken string
	TelegramChatID   string
	TelegramBaseURL  string

	// Email send provider
	EmailAPIURL string
	EmailAPIKey string

	// Monitoring workers
	WorkerID               string
	SchedulerEnabled       bool
	AvailabilityTickSec    int
	ProbeConcurrency       int
	ProbeTimeoutSec        int
	ExpirationCheckHourUTC int

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "seo_nexus"),
		RedisURL:    getEnv("REDIS_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		TelegramBaseURL:  getEnv("TELEGRAM_BASE_URL", "https://api.telegram.org"),

		EmailAPIURL: getEnv("EMAIL_API_URL", "https://api.resend.com/emails"),
		EmailAPIKey: getEnv("EMAIL_API_KEY", ""),

		WorkerID:               getEnv("WORKER_ID", generateWorkerID()),
		SchedulerEnabled:       getEnvBool("SCHEDULER_ENABLED", true),
		AvailabilityTickSec:    getEnvInt("AVAILABILITY_TICK_SEC", 60),
		ProbeConcurrency:       getEnvInt("PROBE_CONCURRENCY", 20),
		ProbeTimeoutSec:        getEnvInt("PROBE_TIMEOUT_SEC", 15),
		ExpirationCheckHourUTC: getEnvInt("EXPIRATION_CHECK_HOUR_UTC", 1),

		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}

	if cfg.MongoDBURL == "" {
		return nil, fmt.Errorf("MONGODB_URL is required")
	}
	return cfg, nil
}

// AvailabilityTick returns the scheduler wake interval.
func (c *Config) AvailabilityTick() time.Duration {
	return time.Duration(c.AvailabilityTickSec) * time.Second
}

// ProbeTimeout returns the per-probe deadline.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSec) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
