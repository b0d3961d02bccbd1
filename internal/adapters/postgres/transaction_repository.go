package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/uzpos/payment-service/internal/domain"
	"github.com/uzpos/payment-service/internal/domain/ports"
)

// transactionColumns is the scan order shared by every SELECT in this file.
const transactionColumns = `
	id, order_id, gateway, gateway_txn_id, gateway_payment_id, amount_minor,
	status, error_code, error_message, retry_count, timeout_occurred,
	employee_id, terminal_id, sale_id, request_payload, response_payload,
	auth_header, auth_timestamp, response_time_ms, http_status, metadata,
	initiated_at, completed_at`

// TransactionRepository implements ports.TransactionRepository with raw SQL.
type TransactionRepository struct{}

// NewTransactionRepository creates a transaction repository.
func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{}
}

// Create inserts a new transaction row. A unique index on order_id is the
// storage-layer backstop behind the generator's collision check.
func (r *TransactionRepository) Create(ctx context.Context, db ports.DBTX, t *domain.Transaction) error {
	metadata, err := marshalMetadata(t.Metadata)
	if err != nil {
		return err
	}

	_, err = db.Exec(ctx, `
		INSERT INTO wallet_transactions (
			id, order_id, gateway, gateway_txn_id, gateway_payment_id,
			amount_minor, status, error_code, error_message, retry_count,
			timeout_occurred, employee_id, terminal_id, sale_id,
			request_payload, response_payload, auth_header, auth_timestamp,
			response_time_ms, http_status, metadata, initiated_at, completed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23
		)`,
		t.ID, t.OrderID, string(t.Gateway), t.GatewayTxnID, t.GatewayPaymentID,
		t.AmountMinor, string(t.Status), t.ErrorCode, t.ErrorMessage, t.RetryCount,
		t.TimeoutOccurred, t.EmployeeID, t.TerminalID, t.SaleID,
		t.RequestPayload, t.ResponsePayload, t.AuthHeader, t.AuthTimestamp,
		t.ResponseTimeMillis, t.HTTPStatus, metadata, t.InitiatedAt, t.CompletedAt,
	)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "create transaction", err)
	}

	return nil
}

// GetByID retrieves a transaction by its internal id.
func (r *TransactionRepository) GetByID(ctx context.Context, db ports.DBTX, id uuid.UUID) (*domain.Transaction, error) {
	row := db.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM wallet_transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

// GetByOrderID retrieves a transaction by its merchant order id.
func (r *TransactionRepository) GetByOrderID(ctx context.Context, db ports.DBTX, orderID string) (*domain.Transaction, error) {
	row := db.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM wallet_transactions WHERE order_id = $1`, orderID)
	return scanTransaction(row)
}

// OrderIDExists reports whether an order id is already taken.
func (r *TransactionRepository) OrderIDExists(ctx context.Context, db ports.DBTX, orderID string) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM wallet_transactions WHERE order_id = $1)`, orderID).Scan(&exists)
	if err != nil {
		return false, domain.WrapError(domain.ErrorCodeDatabaseError, "check order id", err)
	}
	return exists, nil
}

// UpdateStatus advances a transaction from one status to another. The WHERE
// clause carries the expected current status, so a concurrent writer that got
// there first makes this a no-op and the caller sees ErrTxnInvalidState.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, db ports.DBTX, id uuid.UUID, from, to domain.TransactionStatus, upd ports.StatusUpdate) error {
	if !domain.CanTransition(from, to) {
		return domain.NewDomainError(domain.ErrorCodeTxnInvalidState,
			fmt.Sprintf("illegal status transition %s -> %s", from, to))
	}

	set := []string{"status = $3"}
	args := []any{id, string(from), string(to)}

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.GatewayTxnID != nil {
		add("gateway_txn_id", *upd.GatewayTxnID)
	}
	if upd.GatewayPaymentID != nil {
		add("gateway_payment_id", *upd.GatewayPaymentID)
	}
	if upd.ErrorCode != nil {
		add("error_code", *upd.ErrorCode)
	}
	if upd.ErrorMessage != nil {
		add("error_message", *upd.ErrorMessage)
	}
	if upd.RetryCount != nil {
		add("retry_count", *upd.RetryCount)
	}
	if upd.TimeoutOccurred != nil {
		add("timeout_occurred", *upd.TimeoutOccurred)
	}
	if upd.ResponsePayload != nil {
		add("response_payload", upd.ResponsePayload)
	}
	if upd.ResponseTimeMillis != nil {
		add("response_time_ms", *upd.ResponseTimeMillis)
	}
	if upd.HTTPStatus != nil {
		add("http_status", *upd.HTTPStatus)
	}
	if upd.Metadata != nil {
		metadata, err := marshalMetadata(upd.Metadata)
		if err != nil {
			return err
		}
		add("metadata", metadata)
	}
	if upd.Completed {
		set = append(set, "completed_at = now()")
	}

	sql := fmt.Sprintf(
		`UPDATE wallet_transactions SET %s WHERE id = $1 AND status = $2`,
		strings.Join(set, ", "))

	tag, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "update transaction status", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewDomainError(domain.ErrorCodeTxnInvalidState,
			fmt.Sprintf("transaction %s is not in status %s", id, from)).
			WithDetail("expected_status", string(from))
	}

	return nil
}

// LinkSale attaches a POS sale to a successful transaction.
func (r *TransactionRepository) LinkSale(ctx context.Context, db ports.DBTX, id uuid.UUID, saleID int64) error {
	tag, err := db.Exec(ctx,
		`UPDATE wallet_transactions SET sale_id = $2 WHERE id = $1 AND status = $3`,
		id, saleID, string(domain.StatusSuccess))
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "link sale", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewDomainError(domain.ErrorCodeTxnInvalidState,
			fmt.Sprintf("transaction %s is not in status success", id))
	}
	return nil
}

// List returns transactions matching the filter, newest first.
func (r *TransactionRepository) List(ctx context.Context, db ports.DBTX, f domain.TransactionFilter) ([]*domain.Transaction, error) {
	where := []string{"1 = 1"}
	args := []any{}

	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if f.Gateway != "" {
		add("gateway = $%d", string(f.Gateway))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.EmployeeID != "" {
		add("employee_id = $%d", f.EmployeeID)
	}
	if f.TerminalID != "" {
		add("terminal_id = $%d", f.TerminalID)
	}
	if !f.From.IsZero() {
		add("initiated_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("initiated_at < $%d", f.To)
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit, f.Offset)

	sql := fmt.Sprintf(
		`SELECT %s FROM wallet_transactions WHERE %s ORDER BY initiated_at DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "list transactions", err)
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "list transactions", err)
	}

	return transactions, nil
}

// scanTransaction reads one row in transactionColumns order.
func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t        domain.Transaction
		gateway  string
		status   string
		metadata []byte
	)

	err := row.Scan(
		&t.ID, &t.OrderID, &gateway, &t.GatewayTxnID, &t.GatewayPaymentID,
		&t.AmountMinor, &status, &t.ErrorCode, &t.ErrorMessage, &t.RetryCount,
		&t.TimeoutOccurred, &t.EmployeeID, &t.TerminalID, &t.SaleID,
		&t.RequestPayload, &t.ResponsePayload, &t.AuthHeader, &t.AuthTimestamp,
		&t.ResponseTimeMillis, &t.HTTPStatus, &metadata,
		&t.InitiatedAt, &t.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewDomainError(domain.ErrorCodeTxnNotFound, "transaction not found")
		}
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "scan transaction", err)
	}

	t.Gateway = domain.GatewayKind(gateway)
	t.Status = domain.TransactionStatus(status)
	t.AmountMajor = domain.ToMajorUnits(t.AmountMinor)

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &t.Metadata); err != nil {
			return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "unmarshal transaction metadata", err)
		}
	}

	return &t, nil
}

func marshalMetadata(m map[string]string) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInternalError, "marshal metadata", err)
	}
	return b, nil
}
