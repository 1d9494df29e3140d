package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DraftBackendMemory   = "memory"
	DraftBackendPostgres = "postgres"
	DraftBackendRedis    = "redis"
)

type Config struct {
	Addr               string
	Environment        string
	LogLevel           string
	DatabaseURL        string
	JWTSecret          string
	TokenTTL           time.Duration
	RunMigrations      bool
	MigrationsDir      string
	DraftBackend       string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	DraftTTL           time.Duration
	RulesPath          string
	DefaultDueWindow   time.Duration
	MaxBodyBytes       int64
	RateLimitPerMinute int
	DraftSweepInterval time.Duration
	ExportEndpoint     string
	ExportAccessKey    string
	ExportSecretKey    string
	ExportBucket       string
	ExportUseSSL       bool
	MetricsEnabled     bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Addr:               getEnv("APP_ADDR", ":8080"),
		Environment:        getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		TokenTTL:           getEnvDuration("TOKEN_TTL", 12*time.Hour),
		RunMigrations:      getEnvBool("RUN_MIGRATIONS", true),
		MigrationsDir:      getEnv("MIGRATIONS_DIR", "migrations"),
		DraftBackend:       getEnv("DRAFT_BACKEND", DraftBackendMemory),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		DraftTTL:           getEnvDuration("DRAFT_TTL", 0),
		RulesPath:          getEnv("RULES_PATH", ""),
		DefaultDueWindow:   getEnvDuration("DEFAULT_DUE_WINDOW", 30*24*time.Hour),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		DraftSweepInterval: getEnvDuration("DRAFT_SWEEP_INTERVAL", time.Hour),
		ExportEndpoint:     getEnv("EXPORT_ENDPOINT", ""),
		ExportAccessKey:    getEnv("EXPORT_ACCESS_KEY", ""),
		ExportSecretKey:    getEnv("EXPORT_SECRET_KEY", ""),
		ExportBucket:       getEnv("EXPORT_BUCKET", ""),
		ExportUseSSL:       getEnvBool("EXPORT_USE_SSL", true),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required in production")
		}
	}
	switch c.DraftBackend {
	case DraftBackendMemory:
	case DraftBackendPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL must be set when DRAFT_BACKEND is postgres")
		}
	case DraftBackendRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return fmt.Errorf("REDIS_ADDR must be set when DRAFT_BACKEND is redis")
		}
	default:
		return fmt.Errorf("DRAFT_BACKEND must be one of memory, postgres, redis")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.ExportBucket != "" && strings.TrimSpace(c.ExportEndpoint) == "" {
		return fmt.Errorf("EXPORT_ENDPOINT must be set when EXPORT_BUCKET is configured")
	}
	return nil
}
