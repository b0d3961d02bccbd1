package postgres

import (
	"context"
	"encoding/json"

	"github.com/uzpos/payment-service/internal/domain"
)

// AuditRepository implements ports.AuditLogger against an append-only table.
// There is deliberately no update or delete method here.
type AuditRepository struct {
	db *Adapter
}

// NewAuditRepository creates an audit repository writing through the pool.
func NewAuditRepository(db *Adapter) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append writes one audit entry. Audit writes happen outside the payment's
// database transaction so a rolled-back payment still leaves its trail.
func (r *AuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	details := []byte("{}")
	if entry.Details != nil {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			return domain.WrapError(domain.ErrorCodeInternalError, "marshal audit details", err)
		}
		details = b
	}

	_, err := r.db.Pool().Exec(ctx, `
		INSERT INTO wallet_audit_log (
			id, transaction_id, gateway, action, details, response_time_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.TransactionID, string(entry.Gateway), string(entry.Action),
		details, entry.ResponseTimeMillis, entry.CreatedAt,
	)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "append audit entry", err)
	}
	return nil
}
