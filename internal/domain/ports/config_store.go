package ports

import (
	"context"

	"github.com/uzpos/payment-service/internal/domain"
)

// ConfigStore serves gateway credentials and settings. Reads go through a
// short-lived in-process cache; writes do not invalidate it, so callers that
// just wrote configuration either tolerate one TTL window of staleness or
// force a reload.
type ConfigStore interface {
	// Value returns one configuration value with encrypted entries resolved
	// through the secret manager. Missing keys return an empty string.
	Value(ctx context.Context, kind domain.GatewayKind, key string) (string, error)

	// GetAll lists a gateway's configuration with encrypted values masked.
	GetAll(ctx context.Context, kind domain.GatewayKind) ([]domain.ConfigItem, error)

	// Set creates or updates a configuration entry. Encrypted values are
	// stored in the secret manager; the row keeps only a reference.
	Set(ctx context.Context, kind domain.GatewayKind, key, value, description string, encrypt bool) error

	// Validate checks the gateway's required-key schema.
	Validate(ctx context.Context, kind domain.GatewayKind) (*domain.ConfigValidation, error)

	// ResetToDefaults reseeds the gateway's keys with placeholder values.
	ResetToDefaults(ctx context.Context, kind domain.GatewayKind) error

	// Reload drops the cached snapshot for a gateway so the next read hits
	// the persistent store.
	Reload(kind domain.GatewayKind)
}

// ConfigRepository is the persistence layer under the ConfigStore service.
type ConfigRepository interface {
	List(ctx context.Context, db DBTX, kind domain.GatewayKind) ([]domain.ConfigItem, error)
	Upsert(ctx context.Context, db DBTX, item domain.ConfigItem) error
	DeleteAll(ctx context.Context, db DBTX, kind domain.GatewayKind) error
}
