package postgres

import (
	"context"

	"github.com/uzpos/payment-service/internal/domain"
	"github.com/uzpos/payment-service/internal/domain/ports"
)

// ConfigRepository implements ports.ConfigRepository.
type ConfigRepository struct{}

// NewConfigRepository creates a gateway-config repository.
func NewConfigRepository() *ConfigRepository {
	return &ConfigRepository{}
}

// List returns all configuration entries for one gateway.
func (r *ConfigRepository) List(ctx context.Context, db ports.DBTX, kind domain.GatewayKind) ([]domain.ConfigItem, error) {
	rows, err := db.Query(ctx, `
		SELECT gateway, key, value, is_encrypted, is_active, description, updated_at
		FROM gateway_config
		WHERE gateway = $1
		ORDER BY key`,
		string(kind),
	)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "list gateway config", err)
	}
	defer rows.Close()

	var items []domain.ConfigItem
	for rows.Next() {
		var item domain.ConfigItem
		var gateway string
		if err := rows.Scan(&gateway, &item.Key, &item.Value, &item.IsEncrypted,
			&item.IsActive, &item.Description, &item.UpdatedAt); err != nil {
			return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "scan gateway config", err)
		}
		item.Gateway = domain.GatewayKind(gateway)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "list gateway config", err)
	}

	return items, nil
}

// Upsert creates or replaces one configuration entry.
func (r *ConfigRepository) Upsert(ctx context.Context, db ports.DBTX, item domain.ConfigItem) error {
	_, err := db.Exec(ctx, `
		INSERT INTO gateway_config (gateway, key, value, is_encrypted, is_active, description, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (gateway, key) DO UPDATE SET
			value = EXCLUDED.value,
			is_encrypted = EXCLUDED.is_encrypted,
			is_active = EXCLUDED.is_active,
			description = EXCLUDED.description,
			updated_at = now()`,
		string(item.Gateway), item.Key, item.Value, item.IsEncrypted,
		item.IsActive, item.Description,
	)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "upsert gateway config", err)
	}
	return nil
}

// DeleteAll removes every entry for one gateway. Used by reset-to-defaults
// before reseeding.
func (r *ConfigRepository) DeleteAll(ctx context.Context, db ports.DBTX, kind domain.GatewayKind) error {
	_, err := db.Exec(ctx, `DELETE FROM gateway_config WHERE gateway = $1`, string(kind))
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "delete gateway config", err)
	}
	return nil
}
