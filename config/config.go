package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	MongoURI         string
	MongoDatabase    string
	SecretKey        string
	TokenTTL         time.Duration
	CORSOrigins      []string
	RedisURL         string
	RedisChannel     string
	RabbitMQURL      string
	RabbitMQExchange string
	LogLevel         string
	LogFormat        string
	ReportTimezone   string
	LateOrderScan    string
	LateOrderMinutes int
	LoginRatePerMin  int
	RequestTimeout   time.Duration
	BcryptCost       int
}

// Load reads .env when present and then the process environment.
func Load() *Config {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	return &Config{
		Port:             getEnv("PORT", "8000"),
		MongoURI:         getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:    getEnv("MONGODB_DATABASE", "pizzeria"),
		SecretKey:        getEnv("SECRET_KEY", "pizzeria_secret_key"),
		TokenTTL:         time.Duration(getEnvAsInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
		CORSOrigins:      getEnvAsList("CORS_ORIGINS", []string{"*"}),
		RedisURL:         getEnv("REDIS_URL", ""),
		RedisChannel:     getEnv("REDIS_CHANNEL", "pizzeria:order-events"),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange: getEnv("RABBITMQ_EXCHANGE", "orders.events"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		ReportTimezone:   getEnv("REPORT_TIMEZONE", "UTC"),
		LateOrderScan:    getEnv("LATE_ORDER_SCAN", "@every 1m"),
		LateOrderMinutes: getEnvAsInt("LATE_ORDER_MIN_MINUTES", 30),
		LoginRatePerMin:  getEnvAsInt("LOGIN_RATE_PER_MINUTE", 10),
		RequestTimeout:   time.Duration(getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second,
		BcryptCost:       getEnvAsInt("BCRYPT_COST", 10),
	}
}

// Location resolves ReportTimezone, falling back to UTC on unknown names.
// "Local" is refused too: reports are grouped by MongoDB, which only accepts
// IANA names and offsets.
func (c *Config) Location() *time.Location {
	if c.ReportTimezone == "" || c.ReportTimezone == "Local" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
