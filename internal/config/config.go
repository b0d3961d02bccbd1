// Package config loads application configuration from environment variables.
// Gateway credentials are NOT here: those live in the gateway_config table
// behind the config store, so they can change without a redeploy.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Gateways GatewaysConfig
	Secrets  SecretsConfig
	Logger   LoggerConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	MetricsPort     int
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// GatewaysConfig holds settings shared by the three wallet gateways.
type GatewaysConfig struct {
	// "production" or "sandbox"; picks each adapter's base URL.
	Environment string

	// Per-call HTTP timeout.
	CallTimeout time.Duration

	// Bounded retry attempts for transient failures.
	MaxAttempts int

	// Config store cache TTL.
	ConfigCacheTTL time.Duration
}

// SecretsConfig selects the encrypted-value backend.
type SecretsConfig struct {
	// "local", "vault", or "aws".
	Backend string

	// local
	LocalPath string

	// vault
	VaultAddress    string
	VaultToken      string
	VaultAuthMethod string
	VaultRoleID     string
	VaultSecretID   string

	// aws
	AWSRegion  string
	AWSProfile string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level       string
	Development bool
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			MetricsPort:     getEnvAsInt("METRICS_PORT", 9090),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "pos_payments"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		},
		Gateways: GatewaysConfig{
			Environment:    getEnv("GATEWAY_ENVIRONMENT", "sandbox"),
			CallTimeout:    getEnvAsDuration("GATEWAY_TIMEOUT", 15*time.Second),
			MaxAttempts:    getEnvAsInt("GATEWAY_MAX_ATTEMPTS", 3),
			ConfigCacheTTL: getEnvAsDuration("CONFIG_CACHE_TTL", 5*time.Minute),
		},
		Secrets: SecretsConfig{
			Backend:         getEnv("SECRETS_BACKEND", "local"),
			LocalPath:       getEnv("SECRETS_LOCAL_PATH", "./secrets"),
			VaultAddress:    getEnv("VAULT_ADDR", ""),
			VaultToken:      getEnv("VAULT_TOKEN", ""),
			VaultAuthMethod: getEnv("VAULT_AUTH_METHOD", "token"),
			VaultRoleID:     getEnv("VAULT_ROLE_ID", ""),
			VaultSecretID:   getEnv("VAULT_SECRET_ID", ""),
			AWSRegion:       getEnv("AWS_REGION", "eu-central-1"),
			AWSProfile:      getEnv("AWS_PROFILE", ""),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	switch cfg.Gateways.Environment {
	case "production", "sandbox":
	default:
		return nil, fmt.Errorf("GATEWAY_ENVIRONMENT must be production or sandbox, got %q", cfg.Gateways.Environment)
	}
	switch cfg.Secrets.Backend {
	case "local", "vault", "aws":
	default:
		return nil, fmt.Errorf("SECRETS_BACKEND must be local, vault, or aws, got %q", cfg.Secrets.Backend)
	}
	if cfg.Secrets.Backend == "vault" && cfg.Secrets.VaultAddress == "" {
		return nil, fmt.Errorf("VAULT_ADDR is required for the vault secrets backend")
	}

	return cfg, nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
