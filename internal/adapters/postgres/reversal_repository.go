package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/uzpos/payment-service/internal/domain"
	"github.com/uzpos/payment-service/internal/domain/ports"
)

// ReversalRepository implements ports.ReversalRepository.
type ReversalRepository struct{}

// NewReversalRepository creates a reversal repository.
func NewReversalRepository() *ReversalRepository {
	return &ReversalRepository{}
}

// Create inserts a reversal sub-record. The unique index on transaction_id
// rejects a second reversal attempt for the same payment.
func (r *ReversalRepository) Create(ctx context.Context, db ports.DBTX, rev *domain.Reversal) error {
	_, err := db.Exec(ctx, `
		INSERT INTO wallet_reversals (
			id, transaction_id, order_id, reason, requested_by, status,
			error_code, error_message, request_payload, response_payload,
			created_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rev.ID, rev.TransactionID, rev.OrderID, rev.Reason, rev.RequestedBy,
		string(rev.Status), rev.ErrorCode, rev.ErrorMessage,
		rev.RequestPayload, rev.ResponsePayload, rev.CreatedAt, rev.CompletedAt,
	)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "create reversal", err)
	}
	return nil
}

// Complete records the outcome of a reversal attempt.
func (r *ReversalRepository) Complete(ctx context.Context, db ports.DBTX, id uuid.UUID, status domain.SubRecordStatus, errCode, errMsg string, responsePayload []byte) error {
	tag, err := db.Exec(ctx, `
		UPDATE wallet_reversals
		SET status = $2, error_code = $3, error_message = $4,
		    response_payload = $5, completed_at = now()
		WHERE id = $1`,
		id, string(status), errCode, errMsg, responsePayload,
	)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "complete reversal", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewDomainError(domain.ErrorCodeTxnNotFound, "reversal not found")
	}
	return nil
}

// GetByTransactionID retrieves the reversal for a transaction, if any.
func (r *ReversalRepository) GetByTransactionID(ctx context.Context, db ports.DBTX, transactionID uuid.UUID) (*domain.Reversal, error) {
	var rev domain.Reversal
	var status string

	err := db.QueryRow(ctx, `
		SELECT id, transaction_id, order_id, reason, requested_by, status,
		       error_code, error_message, request_payload, response_payload,
		       created_at, completed_at
		FROM wallet_reversals WHERE transaction_id = $1`,
		transactionID,
	).Scan(
		&rev.ID, &rev.TransactionID, &rev.OrderID, &rev.Reason, &rev.RequestedBy,
		&status, &rev.ErrorCode, &rev.ErrorMessage,
		&rev.RequestPayload, &rev.ResponsePayload, &rev.CreatedAt, &rev.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewDomainError(domain.ErrorCodeTxnNotFound, "reversal not found")
		}
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "get reversal", err)
	}

	rev.Status = domain.SubRecordStatus(status)
	return &rev, nil
}
