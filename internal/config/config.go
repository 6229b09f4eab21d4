package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/spinozarabel/headstart-admission/internal/domain"
)

// Config aggregates runtime configuration for the orchestrator.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Commerce CommerceConfig
	LMS      LMSConfig
	Webhook  WebhookConfig
	Sweep    SweepConfig

	// InstitutionDomain is the email domain that marks a continuing
	// account holder (e.g. "headstart.edu.in").
	InstitutionDomain string

	Categories domain.CategorySettings
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds ticket store DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines operator authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	OperatorPasswordHash  string
}

// CommerceConfig holds credentials for the commerce (payments) REST API.
type CommerceConfig struct {
	BaseURL        string
	Key            string
	Secret         string
	ProductID      int64
	TimeoutSeconds int
}

// LMSConfig holds credentials for the LMS webservice API.
type LMSConfig struct {
	BaseURL        string
	Token          string
	TimeoutSeconds int
}

// WebhookConfig gates and verifies inbound commerce webhooks.
type WebhookConfig struct {
	Secret        string
	TrustedIP     string
	TrustedSource string
}

// SweepConfig controls the periodic reconciliation jobs.
type SweepConfig struct {
	Interval        time.Duration
	LeaseTTLSeconds int
}

// Load reads configuration from environment variables, applying defaults
// where possible. Category settings maps are parsed from newline-delimited
// "category=>value" blocks; a ticket category the maps do not cover fails its
// workflow step with a reported error rather than a crash.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	productID, err := strconv.ParseInt(getEnv("COMMERCE_ADMISSION_PRODUCT_ID", "581"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid COMMERCE_ADMISSION_PRODUCT_ID: %w", err)
	}

	sweepInterval, err := time.ParseDuration(getEnv("SWEEP_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "headstart-admission"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			OperatorPasswordHash:  os.Getenv("AUTH_OPERATOR_PASSWORD_HASH"),
		},
		Commerce: CommerceConfig{
			BaseURL:        getEnv("COMMERCE_BASE_URL", "https://sritoni.org/hset-payments/"),
			Key:            os.Getenv("COMMERCE_KEY"),
			Secret:         os.Getenv("COMMERCE_SECRET"),
			ProductID:      productID,
			TimeoutSeconds: getEnvAsInt("COMMERCE_TIMEOUT_SECONDS", 15),
		},
		LMS: LMSConfig{
			BaseURL:        os.Getenv("LMS_BASE_URL"),
			Token:          os.Getenv("LMS_TOKEN"),
			TimeoutSeconds: getEnvAsInt("LMS_TIMEOUT_SECONDS", 15),
		},
		Webhook: WebhookConfig{
			Secret:        os.Getenv("WEBHOOK_SECRET"),
			TrustedIP:     getEnv("WEBHOOK_TRUSTED_IP", "68.183.189.119"),
			TrustedSource: getEnv("WEBHOOK_TRUSTED_SOURCE", "https://sritoni.org/hset-payments/"),
		},
		Sweep: SweepConfig{
			Interval:        sweepInterval,
			LeaseTTLSeconds: getEnvAsInt("SWEEP_LEASE_TTL_SECONDS", 900),
		},
		InstitutionDomain: getEnv("INSTITUTION_EMAIL_DOMAIN", "headstart.edu.in"),
		Categories: domain.CategorySettings{
			Fees:         parseCategoryMap(os.Getenv("CATEGORY_FEES")),
			Descriptions: parseCategoryMap(os.Getenv("CATEGORY_PAYMENT_DESCRIPTIONS")),
			Cohorts:      parseCategoryMap(os.Getenv("CATEGORY_COHORT_IDS")),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// parseCategoryMap parses a newline-delimited block of "category=>value"
// pairs into a map. Blank lines and lines without the separator are skipped.
func parseCategoryMap(raw string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, "=>")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}
		out[key] = value
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
