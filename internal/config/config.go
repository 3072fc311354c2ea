package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/filedrop-io/filedrop/pkg/config"
	"github.com/filedrop-io/filedrop/pkg/database"

	"github.com/filedrop-io/filedrop/internal/storage"
)

const defaultJWTSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the filedrop server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// Session tokens
	JWTSecret     string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	SessionExpiry time.Duration `env:"SESSION_EXPIRY" envDefault:"720h"`

	// Shared secret gating the API route branch
	APIKey string `env:"API_KEY" envDefault:""`

	// Google OAuth
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID" envDefault:""`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET" envDefault:""`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL" envDefault:""`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"filedrop"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"filedrop_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"filedrop"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis (sign-in throttle)
	RedisHost        string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort        int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword    string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB          int           `env:"REDIS_DB" envDefault:"0"`
	ThrottleAttempts int           `env:"SIGNIN_THROTTLE_ATTEMPTS" envDefault:"10"`
	ThrottleWindow   time.Duration `env:"SIGNIN_THROTTLE_WINDOW" envDefault:"15m"`
	ThrottleEnabled  bool          `env:"SIGNIN_THROTTLE_ENABLED" envDefault:"true"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"true"`

	// FTP blob store
	FTP storage.FTPConfig

	// Per-IP request rate limit
	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// Tracing
	TracingEnabled    bool    `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint   string  `env:"TRACING_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampleRate float64 `env:"TRACING_SAMPLE_RATE" envDefault:"0.1"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}

	// Outside development, secrets must be explicitly set and strong.
	if cfg.Environment != "development" {
		if cfg.JWTSecret == defaultJWTSecret {
			return nil, fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", cfg.Environment)
		}
		if len(cfg.JWTSecret) < 32 {
			return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(cfg.JWTSecret))
		}
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("API_KEY must be explicitly set via environment variable in %q mode", cfg.Environment)
		}
	}

	return cfg, nil
}

// IsProduction reports whether the server runs in production mode. It
// controls the secure cookie variant among other hardening.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Postgres returns the connection settings for the database pool.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:     c.PostgresHost,
		Port:     c.PostgresPort,
		User:     c.PostgresUser,
		Password: c.PostgresPass,
		DBName:   c.PostgresDB,
		SSLMode:  c.PostgresSSL,
	}
}

// Redis returns the connection settings for the throttle store.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}
