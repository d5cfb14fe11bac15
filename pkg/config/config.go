package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	Env        string `envconfig:"APP_ENV" default:"development"`
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Typesense  TypesenseConfig
	OTEL       OTELConfig
	Auth       AuthConfig
	Identity   IdentityConfig
	Settlement SettlementConfig
	Sweeper    SweeperConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `envconfig:"SERVER_PORT" default:"8080"`

	// AllowedOrigins is a comma-separated CORS allow list
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD"`
	Database string `envconfig:"DB_NAME" default:"health_camp"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL    string `envconfig:"TYPESENSE_URL" default:"http://localhost:8108"`
	APIKey string `envconfig:"TYPESENSE_API_KEY" default:"xyz"`
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string `envconfig:"OTEL_SERVICE_NAME" default:"health-camp"`
	ServiceVersion string `envconfig:"OTEL_SERVICE_VERSION" default:"1.0.0"`
	Endpoint       string `envconfig:"OTEL_ENDPOINT"`
	Enabled        bool   `envconfig:"OTEL_ENABLED" default:"false"`
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	JWTSecret string `envconfig:"JWT_SECRET"`
}

// IdentityConfig holds signup and phone registry settings
type IdentityConfig struct {
	// PhoneCountryCode is prepended to national numbers so they share a registry key
	// with their international form. Empty disables the rewrite.
	PhoneCountryCode string `envconfig:"PHONE_DEFAULT_COUNTRY_CODE" default:"91"`
}

// SettlementConfig holds commission and ledger policy switches
type SettlementConfig struct {
	// OrganizerCommission enables commission on organizer event bookings (entry fee based).
	OrganizerCommission bool `envconfig:"SETTLEMENT_ORGANIZER_COMMISSION" default:"false"`

	// ReactivateOnPayment clears service_stop when a provider is marked PAID.
	ReactivateOnPayment bool `envconfig:"LEDGER_REACTIVATE_ON_PAYMENT" default:"true"`

	EventWindow   time.Duration `envconfig:"EVENT_RATE_WINDOW" default:"24h"`
	DashboardTTL  time.Duration `envconfig:"DASHBOARD_CACHE_TTL" default:"60s"`
	MaxCASRetries int           `envconfig:"LEDGER_MAX_CAS_RETRIES" default:"5"`
}

// SweeperConfig holds cron schedules for the background sweeps
type SweeperConfig struct {
	Enabled         bool          `envconfig:"SWEEP_ENABLED" default:"true"`
	BalanceSchedule string        `envconfig:"SWEEP_BALANCE_SCHEDULE" default:"0 0 * * 0"`
	VisitSchedule   string        `envconfig:"SWEEP_VISIT_SCHEDULE" default:"0 0 * * *"`
	ExpirySchedule  string        `envconfig:"SWEEP_EXPIRY_SCHEDULE" default:"0 0 * * *"`
	LockTTL         time.Duration `envconfig:"SWEEP_LOCK_TTL" default:"10m"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	return &cfg, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
