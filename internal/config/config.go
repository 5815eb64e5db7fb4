package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/terra-clan/recruitment-portal/internal/gateway"
	"github.com/terra-clan/recruitment-portal/internal/storage"
)

// Config holds all configuration for recruitment-portal
type Config struct {
	Server      ServerConfig
	Session     SessionConfig
	Redis       RedisConfig
	Database    DatabaseConfig
	Catalog     CatalogConfig
	Institution InstitutionConfig
	Sheets      SheetsConfig
	Intake      IntakeConfig
	Cleanup     CleanupConfig
	LogLevel    slog.Level
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// SessionConfig selects where session markers are kept
type SessionConfig struct {
	Backend    storage.Backend
	CookieName string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Prefix   string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	DSN           string
	MigrationsDir string
	MaxConns      int
}

// CatalogConfig holds domain catalog configuration
type CatalogConfig struct {
	File string
}

// InstitutionConfig holds the accepted email domain
type InstitutionConfig struct {
	EmailDomain string
}

// SheetsConfig holds the non-secret spreadsheet settings.
// Credentials are read on every submission, see Credentials.
type SheetsConfig struct {
	Range string
}

// IntakeConfig holds intake form configuration
type IntakeConfig struct {
	SubmitTimeout time.Duration
	SubmitURL     string
	IdleTTL       time.Duration
}

// CleanupConfig holds cleanup worker configuration
type CleanupConfig struct {
	Interval time.Duration
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Session: SessionConfig{
			Backend:    storage.Backend(strings.ToLower(getEnv("SESSION_BACKEND", string(storage.BackendMemory)))),
			CookieName: getEnv("SESSION_COOKIE_NAME", "portal_client"),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "portal:"),
		},
		Database: DatabaseConfig{
			DSN:           getEnv("DATABASE_DSN", ""),
			MigrationsDir: getEnv("DATABASE_MIGRATIONS_DIR", ""),
			MaxConns:      getEnvAsInt("DATABASE_MAX_CONNS", 10),
		},
		Catalog: CatalogConfig{
			File: getEnv("CATALOG_FILE", ""),
		},
		Institution: InstitutionConfig{
			EmailDomain: getEnv("INSTITUTION_EMAIL_DOMAIN", "vit.edu.in"),
		},
		Sheets: SheetsConfig{
			Range: getEnv("GOOGLE_SHEET_RANGE", gateway.DefaultRange),
		},
		Intake: IntakeConfig{
			SubmitTimeout: getEnvAsDuration("INTAKE_SUBMIT_TIMEOUT", 20*time.Second),
			SubmitURL:     getEnv("INTAKE_SUBMIT_URL", ""),
			IdleTTL:       getEnvAsDuration("INTAKE_IDLE_TTL", 2*time.Hour),
		},
		Cleanup: CleanupConfig{
			Interval: getEnvAsDuration("CLEANUP_INTERVAL", 5*time.Minute),
		},
		LogLevel: getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Session.Backend {
	case storage.BackendMemory:
	case storage.BackendRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("redis address is required for the redis session backend")
		}
	case storage.BackendPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database DSN is required for the postgres session backend")
		}
	default:
		return fmt.Errorf("unknown session backend: %q", c.Session.Backend)
	}

	if c.Session.CookieName == "" {
		return fmt.Errorf("session cookie name is required")
	}

	if strings.TrimSpace(c.Institution.EmailDomain) == "" {
		return fmt.Errorf("institution email domain is required")
	}

	if c.Intake.SubmitTimeout <= 0 {
		return fmt.Errorf("invalid submit timeout: %s", c.Intake.SubmitTimeout)
	}

	return nil
}

// Credentials returns the spreadsheet credentials as currently set in the
// environment. It is meant to be called per submission, so rotated secrets
// take effect without a restart.
func (c *Config) Credentials() gateway.Credentials {
	return gateway.Credentials{
		ClientEmail:   os.Getenv("GOOGLE_CLIENT_EMAIL"),
		PrivateKey:    os.Getenv("GOOGLE_PRIVATE_KEY"),
		SpreadsheetID: os.Getenv("GOOGLE_SHEET_ID"),
		Range:         c.Sheets.Range,
	}
}

// StorageOptions returns the session store settings
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend: c.Session.Backend,
		Redis: storage.RedisConfig{
			Address:  c.Redis.Address,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			Prefix:   c.Redis.Prefix,
		},
		Postgres: storage.PostgresConfig{
			DSN:      c.Database.DSN,
			MaxConns: int32(c.Database.MaxConns),
		},
		MigrationsDir: c.Database.MigrationsDir,
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	if value, exists := os.LookupEnv(key); exists {
		var level slog.Level
		if err := level.UnmarshalText([]byte(value)); err == nil {
			return level
		}
	}
	return defaultValue
}
