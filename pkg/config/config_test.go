package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ADMIN_API_TOKENS", "secret-1")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("TYPESENSE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "http://localhost:8108", cfg.Typesense.URL)
	assert.Equal(t, 30*time.Second, cfg.Reports.GenerationTimeout)
	assert.Equal(t, []string{"secret-1"}, cfg.Auth.AdminTokens)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ADMIN_API_TOKENS", " a , b ,")
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REPORT_GENERATION_TIMEOUT", "5s")
	t.Setenv("ALLOWED_ORIGINS", "https://admin.example.com,https://ops.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Reports.GenerationTimeout)
	assert.Equal(t, []string{"a", "b"}, cfg.Auth.AdminTokens)
	assert.Len(t, cfg.Server.AllowedOrigins, 2)
}

func TestLoad_RequiresTokensUnlessAuthDisabled(t *testing.T) {
	t.Setenv("ADMIN_API_TOKENS", "")
	t.Setenv("AUTH_DISABLED", "")

	_, err := Load()
	assert.ErrorContains(t, err, "ADMIN_API_TOKENS")

	t.Setenv("AUTH_DISABLED", "true")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Auth.Disabled)
}

func TestValidate_RejectsUnknownDriver(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 8080},
		Auth:    AuthConfig{Disabled: true},
		Storage: StorageConfig{Driver: "mongo"},
		Reports: ReportsConfig{GenerationTimeout: time.Second},
	}

	assert.ErrorContains(t, cfg.Validate(), "STORAGE_DRIVER")
}

func TestDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "storeguard", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=storeguard sslmode=disable", db.DatabaseDSN())
}
