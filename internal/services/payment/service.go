// Package payment orchestrates the payment lifecycle against the wallet
// gateways: create with bounded retry, reversal, fiscalization, status
// polling, and the inbound query surface. Every status write goes through the
// repository's conditional update, so the forward-only state machine holds
// even under concurrent writers.
package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/uzpos/payment-service/internal/domain"
	"github.com/uzpos/payment-service/internal/domain/ports"
	"github.com/uzpos/payment-service/pkg/observability"
	"github.com/uzpos/payment-service/pkg/resilience"
	"github.com/uzpos/payment-service/pkg/timeutil"
)

// CreatePaymentRequest is the inbound create-payment operation.
type CreatePaymentRequest struct {
	Gateway    string
	ScanCode   string
	Amount     decimal.Decimal // major units (som)
	EmployeeID string
	TerminalID string
}

// registration pairs a gateway's codec with its transport.
type registration struct {
	gateway ports.WalletGateway
	caller  ports.GatewayCaller
}

// Service is the payment orchestrator.
type Service struct {
	db       ports.Database
	txRepo   ports.TransactionRepository
	revRepo  ports.ReversalRepository
	fiscRepo ports.FiscalizationRepository
	audit    ports.AuditLogger
	orderIDs *OrderIDGenerator
	retry    resilience.RetryPolicy
	logger   ports.Logger

	gateways map[domain.GatewayKind]registration
}

// NewService creates the payment orchestrator. Gateways are attached with
// RegisterGateway before serving traffic.
func NewService(
	db ports.Database,
	txRepo ports.TransactionRepository,
	revRepo ports.ReversalRepository,
	fiscRepo ports.FiscalizationRepository,
	audit ports.AuditLogger,
	orderIDs *OrderIDGenerator,
	retry resilience.RetryPolicy,
	logger ports.Logger,
) *Service {
	return &Service{
		db:       db,
		txRepo:   txRepo,
		revRepo:  revRepo,
		fiscRepo: fiscRepo,
		audit:    audit,
		orderIDs: orderIDs,
		retry:    retry,
		logger:   logger,
		gateways: make(map[domain.GatewayKind]registration),
	}
}

// RegisterGateway attaches one gateway integration and its transport.
func (s *Service) RegisterGateway(gw ports.WalletGateway, caller ports.GatewayCaller) {
	s.gateways[gw.Kind()] = registration{gateway: gw, caller: caller}
}

// resolve looks up a registered gateway by its wire name.
func (s *Service) resolve(name string) (domain.GatewayKind, registration, error) {
	kind, err := domain.ParseGatewayKind(name)
	if err != nil {
		return "", registration{}, err
	}
	reg, ok := s.gateways[kind]
	if !ok {
		return "", registration{}, domain.NewDomainError(domain.ErrorCodeInternalError,
			fmt.Sprintf("gateway %s is not registered", kind))
	}
	return kind, reg, nil
}

// CreatePayment runs the full create flow. Validation and configuration
// failures return an error before any transaction row exists; once the row is
// written, gateway outcomes (success, decline, timeout) are encoded in the
// returned transaction rather than in the error.
func (s *Service) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*domain.Transaction, error) {
	kind, reg, err := s.resolve(req.Gateway)
	if err != nil {
		return nil, s.rejectPayment(ctx, domain.GatewayKind(req.Gateway), err)
	}
	if req.EmployeeID == "" {
		return nil, s.rejectPayment(ctx, kind,
			domain.NewDomainError(domain.ErrorCodeValidationMissingField, "employee_id is required"))
	}
	if err := domain.ValidateAmount(req.Amount); err != nil {
		return nil, s.rejectPayment(ctx, kind, err)
	}
	if err := reg.gateway.ValidateScanCode(req.ScanCode); err != nil {
		return nil, s.rejectPayment(ctx, kind, err)
	}

	amountMinor := domain.ToMinorUnits(req.Amount)

	orderID, err := s.orderIDs.Generate(ctx)
	if err != nil {
		return nil, s.rejectPayment(ctx, kind, err)
	}

	order := ports.CreateOrder{
		OrderID:     orderID,
		ScanCode:    req.ScanCode,
		AmountMinor: amountMinor,
		TerminalID:  req.TerminalID,
	}

	// Build and sign before writing anything: configuration problems
	// (missing keys, placeholder sentinel) must fail fast with no row.
	signed, err := reg.gateway.NewCreateRequest(ctx, order)
	if err != nil {
		return nil, s.rejectPayment(ctx, kind, err)
	}

	txn := &domain.Transaction{
		ID:             uuid.New(),
		OrderID:        orderID,
		Gateway:        kind,
		AmountMinor:    amountMinor,
		AmountMajor:    domain.ToMajorUnits(amountMinor),
		Status:         domain.StatusPending,
		EmployeeID:     req.EmployeeID,
		TerminalID:     req.TerminalID,
		RequestPayload: signed.Body,
		AuthHeader:     signed.AuthHeader,
		AuthTimestamp:  signed.Timestamp,
		InitiatedAt:    timeutil.Now(),
	}

	if err := s.txRepo.Create(ctx, s.db.Pool(), txn); err != nil {
		// No row was written; audit the fault and keep the cause server-side.
		s.appendAudit(ctx, txn.Gateway, nil, domain.AuditErrorOccurred, map[string]interface{}{
			"order_id":      orderID,
			"error_message": err.Error(),
		}, 0)
		s.logger.Error("could not persist transaction",
			ports.String("order_id", orderID),
			ports.Err(err))
		return nil, domain.NewDomainError(domain.ErrorCodeInternalError, "payment processing failed")
	}

	s.appendAudit(ctx, txn.Gateway, &txn.ID, domain.AuditPaymentInitiated, map[string]interface{}{
		"order_id":     orderID,
		"amount_minor": amountMinor,
		"employee_id":  req.EmployeeID,
		"terminal_id":  req.TerminalID,
	}, 0)

	s.logger.Info("payment initiated",
		ports.String("transaction_id", txn.ID.String()),
		ports.String("gateway", string(kind)),
		ports.String("order_id", orderID),
		ports.Int64("amount_minor", amountMinor))

	return s.runCreateAttempts(ctx, reg, txn, order)
}

// runCreateAttempts drives the bounded retry loop. Each attempt bumps
// retry_count through a conditional status write, so the attempt history is
// durable even if the process dies mid-loop.
func (s *Service) runCreateAttempts(ctx context.Context, reg registration, txn *domain.Transaction, order ports.CreateOrder) (*domain.Transaction, error) {
	pool := s.db.Pool()
	from := domain.StatusPending

	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		if err := s.retry.Wait(ctx, attempt); err != nil {
			return s.markFailed(ctx, txn, from, string(domain.ErrorCodeInternalError),
				"payment cancelled while waiting to retry", false, nil, attempt-1)
		}

		upd := ports.StatusUpdate{RetryCount: ptr(attempt)}
		if err := s.txRepo.UpdateStatus(ctx, pool, txn.ID, from, domain.StatusProcessing, upd); err != nil {
			return nil, s.failInternal(ctx, txn, from, err)
		}
		from = domain.StatusProcessing
		txn.Status = domain.StatusProcessing
		txn.RetryCount = attempt

		// Re-sign per attempt; gateway-side timestamp windows are short.
		signed, err := reg.gateway.NewCreateRequest(ctx, order)
		if err != nil {
			return s.markFailed(ctx, txn, from, string(domain.GetErrorCode(err)), err.Error(), false, nil, attempt)
		}

		result, err := reg.caller.Do(ctx, signed)
		if err != nil {
			if domain.IsTransportError(err) && attempt < s.retry.MaxAttempts {
				observability.RecordGatewayRetry(string(txn.Gateway))
				s.logger.Warn("gateway attempt failed, retrying",
					ports.String("transaction_id", txn.ID.String()),
					ports.Int("attempt", attempt),
					ports.Err(err))
				continue
			}
			return s.markFailed(ctx, txn, from, string(domain.GetErrorCode(err)), err.Error(),
				domain.IsTimeoutError(err), nil, attempt)
		}

		parsed, perr := reg.gateway.ParseResponse(result.Body)
		if perr != nil {
			return s.markFailed(ctx, txn, from, string(domain.ErrorCodeGatewayBadResponse),
				perr.Error(), false, result, attempt)
		}

		if parsed.Success {
			return s.markSuccess(ctx, txn, parsed, result, attempt)
		}

		if reg.gateway.RetryableCode(parsed.Code) && attempt < s.retry.MaxAttempts {
			observability.RecordGatewayRetry(string(txn.Gateway))
			s.logger.Warn("gateway busy, retrying",
				ports.String("transaction_id", txn.ID.String()),
				ports.Int64("gateway_code", parsed.Code),
				ports.Int("attempt", attempt))
			continue
		}

		return s.markDeclined(ctx, txn, parsed, result, attempt)
	}

	// Unreachable: the final attempt always returns above.
	return txn, nil
}

// markSuccess finalizes a confirmed payment.
func (s *Service) markSuccess(ctx context.Context, txn *domain.Transaction, parsed *ports.GatewayResult, result *ports.CallResult, attempt int) (*domain.Transaction, error) {
	upd := ports.StatusUpdate{
		GatewayTxnID:       ptr(parsed.TxnID),
		GatewayPaymentID:   ptr(parsed.PaymentID),
		RetryCount:         ptr(attempt),
		ResponsePayload:    result.Body,
		ResponseTimeMillis: ptr(result.ElapsedMillis),
		HTTPStatus:         ptr(result.HTTPStatus),
		Metadata:           parsed.Metadata,
		Completed:          true,
	}
	if err := s.txRepo.UpdateStatus(ctx, s.db.Pool(), txn.ID, domain.StatusProcessing, domain.StatusSuccess, upd); err != nil {
		return nil, s.failInternal(ctx, txn, domain.StatusProcessing, err)
	}

	now := timeutil.Now()
	txn.Status = domain.StatusSuccess
	txn.GatewayTxnID = parsed.TxnID
	txn.GatewayPaymentID = parsed.PaymentID
	txn.ResponsePayload = result.Body
	txn.ResponseTimeMillis = result.ElapsedMillis
	txn.HTTPStatus = result.HTTPStatus
	txn.Metadata = parsed.Metadata
	txn.CompletedAt = &now

	observability.RecordPayment(string(txn.Gateway), "success", txn.AmountMinor)
	s.appendAudit(ctx, txn.Gateway, &txn.ID, domain.AuditPaymentCompleted, map[string]interface{}{
		"gateway_payment_id": parsed.PaymentID,
		"attempt":            attempt,
	}, result.ElapsedMillis)

	s.logger.Info("payment completed",
		ports.String("transaction_id", txn.ID.String()),
		ports.String("gateway", string(txn.Gateway)),
		ports.String("gateway_payment_id", parsed.PaymentID),
		ports.Int("attempt", attempt),
		ports.Int64("elapsed_ms", result.ElapsedMillis))

	return txn, nil
}

// markDeclined finalizes a well-formed gateway refusal.
func (s *Service) markDeclined(ctx context.Context, txn *domain.Transaction, parsed *ports.GatewayResult, result *ports.CallResult, attempt int) (*domain.Transaction, error) {
	message := fmt.Sprintf("gateway declined with code %d: %s", parsed.Code, parsed.Message)
	return s.markFailed(ctx, txn, domain.StatusProcessing,
		string(domain.ErrorCodeGatewayDeclined), message, false, result, attempt)
}

// markFailed finalizes a failed payment, with or without a gateway response.
func (s *Service) markFailed(ctx context.Context, txn *domain.Transaction, from domain.TransactionStatus, errCode, errMsg string, timedOut bool, result *ports.CallResult, attempt int) (*domain.Transaction, error) {
	upd := ports.StatusUpdate{
		ErrorCode:       ptr(errCode),
		ErrorMessage:    ptr(errMsg),
		RetryCount:      ptr(attempt),
		TimeoutOccurred: ptr(timedOut),
		Completed:       true,
	}
	if result != nil {
		upd.ResponsePayload = result.Body
		upd.ResponseTimeMillis = ptr(result.ElapsedMillis)
		upd.HTTPStatus = ptr(result.HTTPStatus)
	}

	if err := s.txRepo.UpdateStatus(ctx, s.db.Pool(), txn.ID, from, domain.StatusFailed, upd); err != nil {
		// The failed-mark itself failed; re-attempting the same write is
		// pointless, so only the fault is recorded.
		s.appendAudit(ctx, txn.Gateway, &txn.ID, domain.AuditErrorOccurred, map[string]interface{}{
			"status":        string(from),
			"error_message": err.Error(),
		}, 0)
		s.logger.Error("could not record payment failure",
			ports.String("transaction_id", txn.ID.String()),
			ports.Err(err))
		return nil, domain.NewDomainError(domain.ErrorCodeInternalError, "payment processing failed")
	}

	now := timeutil.Now()
	txn.Status = domain.StatusFailed
	txn.ErrorCode = errCode
	txn.ErrorMessage = errMsg
	txn.RetryCount = attempt
	txn.TimeoutOccurred = timedOut
	txn.CompletedAt = &now
	if result != nil {
		txn.ResponsePayload = result.Body
		txn.ResponseTimeMillis = result.ElapsedMillis
		txn.HTTPStatus = result.HTTPStatus
	}

	observability.RecordPayment(string(txn.Gateway), "failed", txn.AmountMinor)
	s.appendAudit(ctx, txn.Gateway, &txn.ID, domain.AuditPaymentFailed, map[string]interface{}{
		"error_code":       errCode,
		"error_message":    errMsg,
		"attempt":          attempt,
		"timeout_occurred": timedOut,
	}, 0)

	s.logger.Warn("payment failed",
		ports.String("transaction_id", txn.ID.String()),
		ports.String("gateway", string(txn.Gateway)),
		ports.String("error_code", errCode),
		ports.Int("attempt", attempt),
		ports.Bool("timeout_occurred", timedOut))

	return txn, nil
}

// rejectPayment records a payment refused before any transaction row exists.
// The audit entry carries a nil transaction id and the rejection reason.
func (s *Service) rejectPayment(ctx context.Context, kind domain.GatewayKind, err error) error {
	s.appendAudit(ctx, kind, nil, domain.AuditPaymentFailed, map[string]interface{}{
		"error_code":    string(domain.GetErrorCode(err)),
		"error_message": err.Error(),
	}, 0)
	return err
}

// failInternal is the boundary for unexpected storage failures once the row
// exists. It audits the fault, makes a best-effort attempt to park the
// transaction in failed with the cause message, and hands the caller a
// generic error so internals do not leak outward.
func (s *Service) failInternal(ctx context.Context, txn *domain.Transaction, from domain.TransactionStatus, cause error) error {
	s.appendAudit(ctx, txn.Gateway, &txn.ID, domain.AuditErrorOccurred, map[string]interface{}{
		"status":        string(from),
		"error_message": cause.Error(),
	}, 0)

	s.logger.Error("internal error while processing payment",
		ports.String("transaction_id", txn.ID.String()),
		ports.String("status", string(from)),
		ports.Err(cause))

	upd := ports.StatusUpdate{
		ErrorCode:    ptr(string(domain.ErrorCodeInternalError)),
		ErrorMessage: ptr(cause.Error()),
		Completed:    true,
	}
	if err := s.txRepo.UpdateStatus(ctx, s.db.Pool(), txn.ID, from, domain.StatusFailed, upd); err != nil {
		s.logger.Error("could not mark transaction failed after internal error",
			ports.String("transaction_id", txn.ID.String()),
			ports.Err(err))
	}

	return domain.NewDomainError(domain.ErrorCodeInternalError, "payment processing failed")
}

// appendAudit writes one trail entry; audit failures are logged, never fatal
// to the payment itself.
func (s *Service) appendAudit(ctx context.Context, kind domain.GatewayKind, txnID *uuid.UUID, action domain.AuditAction, details map[string]interface{}, elapsedMillis int64) {
	entry := &domain.AuditEntry{
		ID:                 uuid.New(),
		TransactionID:      txnID,
		Gateway:            kind,
		Action:             action,
		Details:            details,
		ResponseTimeMillis: elapsedMillis,
		CreatedAt:          timeutil.Now(),
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Error("audit append failed",
			ports.String("action", string(action)),
			ports.Err(err))
	}
}

// withTx is a small adapter for operations needing multi-write atomicity.
func (s *Service) withTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return s.db.WithTransaction(ctx, fn)
}

func ptr[T any](v T) *T {
	return &v
}
