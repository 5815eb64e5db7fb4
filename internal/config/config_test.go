package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/recruitment-portal/internal/gateway"
	"github.com/terra-clan/recruitment-portal/internal/storage"
)

// inTempDir runs the test from an empty directory so no stray .env is read
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, storage.BackendMemory, cfg.Session.Backend)
	assert.Equal(t, "portal_client", cfg.Session.CookieName)
	assert.Equal(t, "vit.edu.in", cfg.Institution.EmailDomain)
	assert.Equal(t, gateway.DefaultRange, cfg.Sheets.Range)
	assert.Equal(t, 20*time.Second, cfg.Intake.SubmitTimeout)
	assert.Equal(t, 2*time.Hour, cfg.Intake.IdleTTL)
	assert.Equal(t, 5*time.Minute, cfg.Cleanup.Interval)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadFromEnvironment(t *testing.T) {
	inTempDir(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SESSION_BACKEND", "Redis")
	t.Setenv("REDIS_ADDRESS", "cache:6379")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://apply.example.org, https://admin.example.org")
	t.Setenv("INTAKE_SUBMIT_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("INTAKE_IDLE_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, storage.BackendRedis, cfg.Session.Backend)
	assert.Equal(t, []string{"https://apply.example.org", "https://admin.example.org"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.Intake.SubmitTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 2*time.Hour, cfg.Intake.IdleTTL, "unparsable values fall back to the default")

	opts := cfg.StorageOptions()
	assert.Equal(t, storage.BackendRedis, opts.Backend)
	assert.Equal(t, "cache:6379", opts.Redis.Address)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SERVER_PORT=7070\nINSTITUTION_EMAIL_DOMAIN=example.edu\n"), 0o600))
	t.Setenv("INSTITUTION_EMAIL_DOMAIN", "override.edu")
	t.Cleanup(func() { os.Unsetenv("SERVER_PORT") })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "override.edu", cfg.Institution.EmailDomain, "real variables win over .env")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:      ServerConfig{Port: 8080},
			Session:     SessionConfig{Backend: storage.BackendMemory, CookieName: "portal_client"},
			Institution: InstitutionConfig{EmailDomain: "vit.edu.in"},
			Intake:      IntakeConfig{SubmitTimeout: time.Second},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"unknown backend", func(c *Config) { c.Session.Backend = "etcd" }},
		{"postgres without dsn", func(c *Config) { c.Session.Backend = storage.BackendPostgres }},
		{"redis without address", func(c *Config) { c.Session.Backend = storage.BackendRedis }},
		{"empty cookie name", func(c *Config) { c.Session.CookieName = "" }},
		{"empty email domain", func(c *Config) { c.Institution.EmailDomain = " " }},
		{"zero submit timeout", func(c *Config) { c.Intake.SubmitTimeout = 0 }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestCredentialsAreReadPerCall(t *testing.T) {
	cfg := &Config{Sheets: SheetsConfig{Range: "Applications!A:Z"}}

	t.Setenv("GOOGLE_SHEET_ID", "")
	assert.Empty(t, cfg.Credentials().SpreadsheetID)

	t.Setenv("GOOGLE_SHEET_ID", "sheet-1")
	t.Setenv("GOOGLE_CLIENT_EMAIL", "svc@example.iam.gserviceaccount.com")
	t.Setenv("GOOGLE_PRIVATE_KEY", "key")

	creds := cfg.Credentials()
	assert.Equal(t, "sheet-1", creds.SpreadsheetID)
	assert.Equal(t, "svc@example.iam.gserviceaccount.com", creds.ClientEmail)
	assert.Equal(t, "key", creds.PrivateKey)
	assert.Equal(t, "Applications!A:Z", creds.Range)
}
