package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/uzpos/payment-service/internal/domain"
	"github.com/uzpos/payment-service/internal/domain/ports"
)

// FiscalizationRepository implements ports.FiscalizationRepository.
type FiscalizationRepository struct{}

// NewFiscalizationRepository creates a fiscalization repository.
func NewFiscalizationRepository() *FiscalizationRepository {
	return &FiscalizationRepository{}
}

// Create inserts a fiscalization sub-record.
func (r *FiscalizationRepository) Create(ctx context.Context, db ports.DBTX, f *domain.Fiscalization) error {
	_, err := db.Exec(ctx, `
		INSERT INTO wallet_fiscalizations (
			id, transaction_id, fiscal_url, status, error_code, error_message,
			request_payload, response_payload, created_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		f.ID, f.TransactionID, f.FiscalURL, string(f.Status),
		f.ErrorCode, f.ErrorMessage, f.RequestPayload, f.ResponsePayload,
		f.CreatedAt, f.CompletedAt,
	)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "create fiscalization", err)
	}
	return nil
}

// Complete records the outcome of a fiscal-receipt submission.
func (r *FiscalizationRepository) Complete(ctx context.Context, db ports.DBTX, id uuid.UUID, status domain.SubRecordStatus, errCode, errMsg string, responsePayload []byte) error {
	tag, err := db.Exec(ctx, `
		UPDATE wallet_fiscalizations
		SET status = $2, error_code = $3, error_message = $4,
		    response_payload = $5, completed_at = now()
		WHERE id = $1`,
		id, string(status), errCode, errMsg, responsePayload,
	)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "complete fiscalization", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewDomainError(domain.ErrorCodeTxnNotFound, "fiscalization not found")
	}
	return nil
}

// GetByTransactionID retrieves the latest fiscalization for a transaction.
func (r *FiscalizationRepository) GetByTransactionID(ctx context.Context, db ports.DBTX, transactionID uuid.UUID) (*domain.Fiscalization, error) {
	var f domain.Fiscalization
	var status string

	err := db.QueryRow(ctx, `
		SELECT id, transaction_id, fiscal_url, status, error_code, error_message,
		       request_payload, response_payload, created_at, completed_at
		FROM wallet_fiscalizations
		WHERE transaction_id = $1
		ORDER BY created_at DESC
		LIMIT 1`,
		transactionID,
	).Scan(
		&f.ID, &f.TransactionID, &f.FiscalURL, &status,
		&f.ErrorCode, &f.ErrorMessage, &f.RequestPayload, &f.ResponsePayload,
		&f.CreatedAt, &f.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewDomainError(domain.ErrorCodeTxnNotFound, "fiscalization not found")
		}
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "get fiscalization", err)
	}

	f.Status = domain.SubRecordStatus(status)
	return &f, nil
}
