package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadFromEnv()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 9090, cfg.Server.MetricsPort)
	assert.Equal(t, "pos_payments", cfg.Database.Database)
	assert.Equal(t, "sandbox", cfg.Gateways.Environment)
	assert.Equal(t, 3, cfg.Gateways.MaxAttempts)
	assert.Equal(t, 15*time.Second, cfg.Gateways.CallTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Gateways.ConfigCacheTTL)
	assert.Equal(t, "local", cfg.Secrets.Backend)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("GATEWAY_ENVIRONMENT", "production")
	t.Setenv("GATEWAY_MAX_ATTEMPTS", "5")
	t.Setenv("GATEWAY_TIMEOUT", "30s")
	t.Setenv("CONFIG_CACHE_TTL", "1m")

	cfg, err := LoadFromEnv()

	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "production", cfg.Gateways.Environment)
	assert.Equal(t, 5, cfg.Gateways.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Gateways.CallTimeout)
	assert.Equal(t, time.Minute, cfg.Gateways.ConfigCacheTTL)
}

func TestLoadFromEnv_RequiresPassword(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")

	_, err := LoadFromEnv()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
}

func TestLoadFromEnv_RejectsBadEnvironment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GATEWAY_ENVIRONMENT", "staging")

	_, err := LoadFromEnv()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "GATEWAY_ENVIRONMENT")
}

func TestLoadFromEnv_VaultRequiresAddress(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SECRETS_BACKEND", "vault")

	_, err := LoadFromEnv()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "VAULT_ADDR")
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	c := DatabaseConfig{
		Host: "db", Port: 5432, User: "app", Password: "pw",
		Database: "pos_payments", SSLMode: "disable",
	}

	assert.Equal(t,
		"host=db port=5432 user=app password=pw dbname=pos_payments sslmode=disable",
		c.ConnectionString())
}

func TestLoadFromEnv_MalformedIntFallsBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "not-a-number")

	cfg, err := LoadFromEnv()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}
