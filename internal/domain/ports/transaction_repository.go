package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/uzpos/payment-service/internal/domain"
)

// StatusUpdate carries the fields written alongside a status transition.
// Nil pointers leave the column untouched.
type StatusUpdate struct {
	GatewayTxnID       *string
	GatewayPaymentID   *string
	ErrorCode          *string
	ErrorMessage       *string
	RetryCount         *int
	TimeoutOccurred    *bool
	ResponsePayload    []byte
	ResponseTimeMillis *int64
	HTTPStatus         *int
	Metadata           map[string]string
	Completed          bool // also writes completed_at
}

// TransactionRepository is the single source of truth for payment attempts.
type TransactionRepository interface {
	// Create inserts a new transaction row in status pending.
	Create(ctx context.Context, db DBTX, t *domain.Transaction) error

	// GetByID retrieves a transaction by its internal id.
	GetByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Transaction, error)

	// GetByOrderID retrieves a transaction by its merchant order id.
	GetByOrderID(ctx context.Context, db DBTX, orderID string) (*domain.Transaction, error)

	// OrderIDExists reports whether an order id is already taken. Used by the
	// identifier generator's local collision check; the unique index on
	// order_id is the storage-layer backstop.
	OrderIDExists(ctx context.Context, db DBTX, orderID string) (bool, error)

	// UpdateStatus advances a transaction from one status to another. The
	// update is conditional on the current status (WHERE status = from) and
	// returns domain.ErrTxnInvalidState when no row matched, which is the
	// optimistic-concurrency guard against regressing or double-advancing.
	UpdateStatus(ctx context.Context, db DBTX, id uuid.UUID, from, to domain.TransactionStatus, upd StatusUpdate) error

	// LinkSale links a successful transaction to a POS sale record. The update
	// is conditional on status success.
	LinkSale(ctx context.Context, db DBTX, id uuid.UUID, saleID int64) error

	// List returns transactions matching the filter, newest first.
	List(ctx context.Context, db DBTX, f domain.TransactionFilter) ([]*domain.Transaction, error)
}

// ReversalRepository persists reversal sub-records.
type ReversalRepository interface {
	Create(ctx context.Context, db DBTX, r *domain.Reversal) error
	Complete(ctx context.Context, db DBTX, id uuid.UUID, status domain.SubRecordStatus, errCode, errMsg string, responsePayload []byte) error
	GetByTransactionID(ctx context.Context, db DBTX, transactionID uuid.UUID) (*domain.Reversal, error)
}

// FiscalizationRepository persists fiscal-receipt submission sub-records.
type FiscalizationRepository interface {
	Create(ctx context.Context, db DBTX, f *domain.Fiscalization) error
	Complete(ctx context.Context, db DBTX, id uuid.UUID, status domain.SubRecordStatus, errCode, errMsg string, responsePayload []byte) error
	GetByTransactionID(ctx context.Context, db DBTX, transactionID uuid.UUID) (*domain.Fiscalization, error)
}
