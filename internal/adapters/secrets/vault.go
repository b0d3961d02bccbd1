// Package secrets implements the SecretManager port against HashiCorp Vault,
// AWS Secrets Manager, and a file-backed store for development. Secret paths
// follow "pos-gateway/{gateway}/{key}". Adapters do not cache: the config
// store above them already holds a TTL cache, and a second cache layer would
// make Reload lie.
package secrets

import (
	"context"
	"fmt"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// VaultConfig contains configuration for the HashiCorp Vault backend.
type VaultConfig struct {
	// Vault server address, e.g. "https://vault.internal:8200".
	Address string

	// Authentication method: "token" or "approle".
	AuthMethod string

	Token    string
	RoleID   string
	SecretID string

	// KV secrets engine mount path (default "secret") and version.
	MountPath string
	KVVersion string

	TLSSkipVerify bool
}

// DefaultVaultConfig returns Vault defaults for a KV v2 mount.
func DefaultVaultConfig(address string) *VaultConfig {
	return &VaultConfig{
		Address:    address,
		AuthMethod: "token",
		MountPath:  "secret",
		KVVersion:  "v2",
	}
}

// VaultManager implements ports.SecretManager on a Vault KV engine.
type VaultManager struct {
	client *vault.Client
	config *VaultConfig
	logger *zap.Logger
}

// NewVaultManager creates and authenticates a Vault-backed secret manager.
func NewVaultManager(ctx context.Context, cfg *VaultConfig, logger *zap.Logger) (*VaultManager, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSSkipVerify {
		if err := vaultConfig.ConfigureTLS(&vault.TLSConfig{Insecure: true}); err != nil {
			return nil, fmt.Errorf("configure vault TLS: %w", err)
		}
	}

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}

	switch cfg.AuthMethod {
	case "token":
		if cfg.Token == "" {
			return nil, fmt.Errorf("token is required for token auth")
		}
		client.SetToken(cfg.Token)

	case "approle":
		if cfg.RoleID == "" || cfg.SecretID == "" {
			return nil, fmt.Errorf("role_id and secret_id are required for approle auth")
		}
		resp, err := client.Logical().WriteWithContext(ctx, "auth/approle/login", map[string]interface{}{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		})
		if err != nil {
			return nil, fmt.Errorf("approle login: %w", err)
		}
		if resp == nil || resp.Auth == nil {
			return nil, fmt.Errorf("approle login returned no auth info")
		}
		client.SetToken(resp.Auth.ClientToken)

	default:
		return nil, fmt.Errorf("unsupported vault auth method: %s", cfg.AuthMethod)
	}

	logger.Info("vault secret manager initialized",
		zap.String("address", cfg.Address),
		zap.String("auth_method", cfg.AuthMethod),
		zap.String("mount_path", cfg.MountPath),
	)

	return &VaultManager{client: client, config: cfg, logger: logger}, nil
}

// GetSecret retrieves the value stored under a path.
func (m *VaultManager) GetSecret(ctx context.Context, path string) (string, error) {
	secret, err := m.client.Logical().ReadWithContext(ctx, m.dataPath(path))
	if err != nil {
		return "", fmt.Errorf("read secret %s: %w", path, err)
	}
	if secret == nil {
		return "", fmt.Errorf("secret not found: %s", path)
	}

	data := secret.Data
	if m.config.KVVersion == "v2" {
		wrapped, ok := secret.Data["data"].(map[string]interface{})
		if !ok {
			return "", fmt.Errorf("unexpected secret format at %s", path)
		}
		data = wrapped
	}

	value, ok := data["value"].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("secret value missing at %s", path)
	}
	return value, nil
}

// PutSecret creates or updates a secret.
func (m *VaultManager) PutSecret(ctx context.Context, path, value string) error {
	payload := map[string]interface{}{"value": value}
	if m.config.KVVersion == "v2" {
		payload = map[string]interface{}{"data": payload}
	}

	if _, err := m.client.Logical().WriteWithContext(ctx, m.dataPath(path), payload); err != nil {
		return fmt.Errorf("write secret %s: %w", path, err)
	}

	m.logger.Info("secret written", zap.String("path", path))
	return nil
}

// DeleteSecret permanently removes a secret.
func (m *VaultManager) DeleteSecret(ctx context.Context, path string) error {
	fullPath := fmt.Sprintf("%s/%s", m.config.MountPath, path)
	if m.config.KVVersion == "v2" {
		// KV v2 permanent delete goes through the metadata path.
		fullPath = fmt.Sprintf("%s/metadata/%s", m.config.MountPath, path)
	}

	if _, err := m.client.Logical().DeleteWithContext(ctx, fullPath); err != nil {
		return fmt.Errorf("delete secret %s: %w", path, err)
	}

	m.logger.Warn("secret deleted", zap.String("path", path))
	return nil
}

func (m *VaultManager) dataPath(path string) string {
	if m.config.KVVersion == "v2" {
		return fmt.Sprintf("%s/data/%s", m.config.MountPath, path)
	}
	return fmt.Sprintf("%s/%s", m.config.MountPath, path)
}
