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
	"github.com/uzpos/payment-service/pkg/timeutil"
)

// ReversalRequest is the inbound reversal operation, keyed by the merchant
// order id since that is the reference the POS holds during reconciliation
// and disputes. Amount is accepted for wire compatibility with older POS
// clients but only full reversals are performed; a mismatched amount is
// logged and ignored.
type ReversalRequest struct {
	OrderID     string
	Reason      string
	RequestedBy string
	Amount      *decimal.Decimal
}

// ReversePayment cancels a confirmed payment. The parent transaction moves
// success -> reversed only when the gateway confirms; a refused reversal
// leaves the payment untouched and is recorded on the sub-record.
func (s *Service) ReversePayment(ctx context.Context, req ReversalRequest) (*domain.Reversal, error) {
	if req.OrderID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "order_id is required")
	}

	txn, err := s.txRepo.GetByOrderID(ctx, s.db.Pool(), req.OrderID)
	if err != nil {
		return nil, err
	}
	if !txn.CanBeReversed() {
		return nil, domain.NewDomainError(domain.ErrorCodeTxnInvalidState,
			fmt.Sprintf("transaction in status %s cannot be reversed", txn.Status))
	}

	reg, ok := s.gateways[txn.Gateway]
	if !ok {
		return nil, domain.NewDomainError(domain.ErrorCodeInternalError,
			fmt.Sprintf("gateway %s is not registered", txn.Gateway))
	}

	if req.Amount != nil && !req.Amount.Equal(txn.AmountMajor) {
		s.logger.Warn("partial reversal amount ignored, reversing full amount",
			ports.String("transaction_id", txn.ID.String()),
			ports.String("requested_amount", req.Amount.String()),
			ports.String("transaction_amount", txn.AmountMajor.String()))
	}

	signed, err := reg.gateway.NewReversalRequest(ctx, txn.OrderID, txn.GatewayPaymentID, req.Reason)
	if err != nil {
		return nil, err
	}

	rev := &domain.Reversal{
		ID:             uuid.New(),
		TransactionID:  txn.ID,
		OrderID:        txn.OrderID,
		Reason:         req.Reason,
		RequestedBy:    req.RequestedBy,
		Status:         domain.SubRecordPending,
		RequestPayload: signed.Body,
		CreatedAt:      timeutil.Now(),
	}
	if err := s.revRepo.Create(ctx, s.db.Pool(), rev); err != nil {
		return nil, err
	}

	s.appendAudit(ctx, txn.Gateway, &txn.ID, domain.AuditReversalRequested, map[string]interface{}{
		"reversal_id":  rev.ID.String(),
		"reason":       req.Reason,
		"requested_by": req.RequestedBy,
	}, 0)

	result, err := reg.caller.Do(ctx, signed)
	if err != nil {
		code := string(domain.GetErrorCode(err))
		if cerr := s.revRepo.Complete(ctx, s.db.Pool(), rev.ID, domain.SubRecordFailed, code, err.Error(), nil); cerr != nil {
			return nil, cerr
		}
		rev.Status = domain.SubRecordFailed
		rev.ErrorCode = code
		rev.ErrorMessage = err.Error()
		observability.RecordReversal(string(txn.Gateway), "failed")
		return rev, err
	}

	parsed, perr := reg.gateway.ParseResponse(result.Body)
	if perr != nil {
		code := string(domain.ErrorCodeGatewayBadResponse)
		if cerr := s.revRepo.Complete(ctx, s.db.Pool(), rev.ID, domain.SubRecordFailed, code, perr.Error(), result.Body); cerr != nil {
			return nil, cerr
		}
		rev.Status = domain.SubRecordFailed
		rev.ErrorCode = code
		rev.ErrorMessage = perr.Error()
		observability.RecordReversal(string(txn.Gateway), "failed")
		return rev, perr
	}

	if !parsed.Success {
		code := string(domain.ErrorCodeGatewayDeclined)
		message := fmt.Sprintf("gateway refused reversal with code %d: %s", parsed.Code, parsed.Message)
		if cerr := s.revRepo.Complete(ctx, s.db.Pool(), rev.ID, domain.SubRecordFailed, code, message, result.Body); cerr != nil {
			return nil, cerr
		}
		rev.Status = domain.SubRecordFailed
		rev.ErrorCode = code
		rev.ErrorMessage = message
		rev.ResponsePayload = result.Body
		observability.RecordReversal(string(txn.Gateway), "failed")

		s.logger.Warn("reversal refused by gateway",
			ports.String("transaction_id", txn.ID.String()),
			ports.Int64("gateway_code", parsed.Code))
		return rev, nil
	}

	// Sub-record outcome and parent transition commit together: a reversed
	// parent without a successful sub-record (or the inverse) must not exist.
	err = s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.revRepo.Complete(ctx, tx, rev.ID, domain.SubRecordSuccess, "", "", result.Body); err != nil {
			return err
		}
		return s.txRepo.UpdateStatus(ctx, tx, txn.ID, domain.StatusSuccess, domain.StatusReversed, ports.StatusUpdate{})
	})
	if err != nil {
		return nil, err
	}

	now := timeutil.Now()
	rev.Status = domain.SubRecordSuccess
	rev.ResponsePayload = result.Body
	rev.CompletedAt = &now
	observability.RecordReversal(string(txn.Gateway), "success")

	s.logger.Info("payment reversed",
		ports.String("transaction_id", txn.ID.String()),
		ports.String("gateway", string(txn.Gateway)),
		ports.String("reversal_id", rev.ID.String()))

	return rev, nil
}

// FiscalizationRequest is the inbound fiscal-receipt submission.
type FiscalizationRequest struct {
	TransactionID uuid.UUID
	FiscalURL     string
}

// SubmitFiscalization forwards a fiscal receipt reference to the gateway.
// The outcome lives on the sub-record; the parent transaction never changes.
func (s *Service) SubmitFiscalization(ctx context.Context, req FiscalizationRequest) (*domain.Fiscalization, error) {
	if req.FiscalURL == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "fiscal_url is required")
	}

	txn, err := s.txRepo.GetByID(ctx, s.db.Pool(), req.TransactionID)
	if err != nil {
		return nil, err
	}
	if !txn.CanBeFiscalized() {
		return nil, domain.NewDomainError(domain.ErrorCodeTxnInvalidState,
			fmt.Sprintf("transaction in status %s cannot be fiscalized", txn.Status))
	}

	reg, ok := s.gateways[txn.Gateway]
	if !ok {
		return nil, domain.NewDomainError(domain.ErrorCodeInternalError,
			fmt.Sprintf("gateway %s is not registered", txn.Gateway))
	}

	signed, err := reg.gateway.NewFiscalRequest(ctx, txn.GatewayPaymentID, req.FiscalURL)
	if err != nil {
		return nil, err
	}

	fisc := &domain.Fiscalization{
		ID:             uuid.New(),
		TransactionID:  txn.ID,
		FiscalURL:      req.FiscalURL,
		Status:         domain.SubRecordPending,
		RequestPayload: signed.Body,
		CreatedAt:      timeutil.Now(),
	}
	if err := s.fiscRepo.Create(ctx, s.db.Pool(), fisc); err != nil {
		return nil, err
	}

	s.appendAudit(ctx, txn.Gateway, &txn.ID, domain.AuditFiscalizationSent, map[string]interface{}{
		"fiscalization_id": fisc.ID.String(),
		"fiscal_url":       req.FiscalURL,
	}, 0)

	result, err := reg.caller.Do(ctx, signed)
	if err != nil {
		code := string(domain.GetErrorCode(err))
		if cerr := s.fiscRepo.Complete(ctx, s.db.Pool(), fisc.ID, domain.SubRecordFailed, code, err.Error(), nil); cerr != nil {
			return nil, cerr
		}
		fisc.Status = domain.SubRecordFailed
		fisc.ErrorCode = code
		fisc.ErrorMessage = err.Error()
		return fisc, err
	}

	parsed, perr := reg.gateway.ParseResponse(result.Body)
	if perr != nil || !parsed.Success {
		code := string(domain.ErrorCodeGatewayDeclined)
		message := ""
		if perr != nil {
			code = string(domain.ErrorCodeGatewayBadResponse)
			message = perr.Error()
		} else {
			message = fmt.Sprintf("gateway refused fiscal data with code %d: %s", parsed.Code, parsed.Message)
		}
		if cerr := s.fiscRepo.Complete(ctx, s.db.Pool(), fisc.ID, domain.SubRecordFailed, code, message, result.Body); cerr != nil {
			return nil, cerr
		}
		fisc.Status = domain.SubRecordFailed
		fisc.ErrorCode = code
		fisc.ErrorMessage = message
		fisc.ResponsePayload = result.Body
		return fisc, nil
	}

	if err := s.fiscRepo.Complete(ctx, s.db.Pool(), fisc.ID, domain.SubRecordSuccess, "", "", result.Body); err != nil {
		return nil, err
	}

	now := timeutil.Now()
	fisc.Status = domain.SubRecordSuccess
	fisc.ResponsePayload = result.Body
	fisc.CompletedAt = &now

	s.logger.Info("fiscal receipt submitted",
		ports.String("transaction_id", txn.ID.String()),
		ports.String("gateway", string(txn.Gateway)))

	return fisc, nil
}

// CheckStatus polls the gateway for a payment's current state. The call is
// read-only on our side: reconciliation against the local record is a
// deliberate manual step, not an automatic write.
func (s *Service) CheckStatus(ctx context.Context, transactionID uuid.UUID) (*ports.GatewayResult, error) {
	txn, err := s.txRepo.GetByID(ctx, s.db.Pool(), transactionID)
	if err != nil {
		return nil, err
	}
	if txn.GatewayPaymentID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeTxnInvalidState,
			"transaction has no gateway payment id to poll")
	}

	reg, ok := s.gateways[txn.Gateway]
	if !ok {
		return nil, domain.NewDomainError(domain.ErrorCodeInternalError,
			fmt.Sprintf("gateway %s is not registered", txn.Gateway))
	}

	signed, err := reg.gateway.NewStatusRequest(ctx, txn.GatewayPaymentID)
	if err != nil {
		return nil, err
	}

	result, err := reg.caller.Do(ctx, signed)
	if err != nil {
		return nil, err
	}

	parsed, err := reg.gateway.ParseResponse(result.Body)
	if err != nil {
		return nil, err
	}

	s.appendAudit(ctx, txn.Gateway, &txn.ID, domain.AuditStatusChecked, map[string]interface{}{
		"gateway_code": parsed.Code,
	}, result.ElapsedMillis)

	return parsed, nil
}

// GetTransaction retrieves a transaction by internal id.
func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return s.txRepo.GetByID(ctx, s.db.Pool(), id)
}

// GetTransactionByOrderID retrieves a transaction by merchant order id.
func (s *Service) GetTransactionByOrderID(ctx context.Context, orderID string) (*domain.Transaction, error) {
	return s.txRepo.GetByOrderID(ctx, s.db.Pool(), orderID)
}

// ListTransactions returns transactions matching the filter, newest first.
func (s *Service) ListTransactions(ctx context.Context, f domain.TransactionFilter) ([]*domain.Transaction, error) {
	return s.txRepo.List(ctx, s.db.Pool(), f)
}

// LinkSale attaches a POS sale record to a successful payment.
func (s *Service) LinkSale(ctx context.Context, id uuid.UUID, saleID int64) error {
	if err := s.txRepo.LinkSale(ctx, s.db.Pool(), id, saleID); err != nil {
		return err
	}
	s.logger.Info("sale linked",
		ports.String("transaction_id", id.String()),
		ports.Int64("sale_id", saleID))
	return nil
}

// TestGateway verifies that a gateway's credentials resolve and that its
// endpoint answers. Any HTTP response counts as reachable; a business error
// for the probe id is expected.
func (s *Service) TestGateway(ctx context.Context, kind domain.GatewayKind) error {
	reg, ok := s.gateways[kind]
	if !ok {
		return domain.NewDomainError(domain.ErrorCodeInternalError,
			fmt.Sprintf("gateway %s is not registered", kind))
	}

	signed, err := reg.gateway.NewStatusRequest(ctx, "0")
	if err != nil {
		return err
	}

	if _, err := reg.caller.Do(ctx, signed); err != nil {
		return err
	}

	s.appendAudit(ctx, kind, nil, domain.AuditConfigValidated, map[string]interface{}{
		"test_connection": true,
	}, 0)

	return nil
}
