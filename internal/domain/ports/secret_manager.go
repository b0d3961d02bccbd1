package ports

import "context"

// SecretManager stores encrypted configuration values outside the relational
// store. Backends: HashiCorp Vault, AWS Secrets Manager, or a local
// file-backed store for development.
type SecretManager interface {
	// GetSecret retrieves a secret by its path. Path layout is
	// "pos-gateway/{gateway}/{key}".
	GetSecret(ctx context.Context, path string) (string, error)

	// PutSecret creates or updates a secret.
	PutSecret(ctx context.Context, path, value string) error

	// DeleteSecret removes a secret. Used by ResetToDefaults.
	DeleteSecret(ctx context.Context, path string) error
}
