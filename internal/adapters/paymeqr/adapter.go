// Package paymeqr integrates the wallet QR-receipt gateway. The wallet app
// shows a QR encoding a receipt token; the merchant scans it and pays the
// receipt through a JSON-RPC style endpoint.
//
// All operations go to a single endpoint with the method in the body:
//
//	POST {base}/api    receipts.pay | receipts.check | receipts.cancel |
//	                   receipts.set_fiscal_data
//
// Auth header: "X-Auth: key_id:key" - a static colon-joined credential pair;
// this gateway does not use signed timestamps. The cashbox id travels in the
// request params instead.
package paymeqr

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uzpos/payment-service/internal/domain"
	"github.com/uzpos/payment-service/internal/domain/ports"
	"go.uber.org/zap"
)

// Config contains endpoint configuration for the PaymeQR adapter.
type Config struct {
	BaseURL string
}

// DefaultConfig returns the production endpoint configuration.
func DefaultConfig(environment string) *Config {
	baseURL := "https://checkout.paycom.uz"
	if environment == "sandbox" {
		baseURL = "https://checkout.test.paycom.uz"
	}
	return &Config{BaseURL: baseURL}
}

// minScanCodeLength: receipt tokens are 24-char object ids; anything shorter
// is a truncated scan.
const minScanCodeLength = 24

// Adapter implements ports.WalletGateway for the wallet QR-receipt gateway.
type Adapter struct {
	config *Config
	creds  domain.CredentialGetter
	logger *zap.Logger
}

// NewAdapter creates a PaymeQR gateway adapter.
func NewAdapter(config *Config, creds domain.CredentialGetter, logger *zap.Logger) *Adapter {
	return &Adapter{config: config, creds: creds, logger: logger}
}

// Kind returns the gateway identifier.
func (a *Adapter) Kind() domain.GatewayKind {
	return domain.GatewayPaymeQR
}

// ValidateScanCode checks the scanned receipt token shape.
func (a *Adapter) ValidateScanCode(scanCode string) error {
	if len(scanCode) < minScanCodeLength {
		return domain.NewDomainError(domain.ErrorCodeValidationScanCode,
			fmt.Sprintf("paymeqr receipt token shorter than %d characters", minScanCodeLength))
	}
	return nil
}

type rpcRequest struct {
	Method string                 `json:"method"`
	Params map[string]interface{} `json:"params"`
}

type rpcError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result map[string]json.RawMessage `json:"result"`
	Error  *rpcError                  `json:"error"`
}

type receipt struct {
	ID          string `json:"_id"`
	State       int    `json:"state"`
	PhoneMasked string `json:"payer_phone_masked"`
}

// NewCreateRequest builds the receipts.pay call. The scanned token identifies
// the receipt; the amount is submitted for verification against it.
func (a *Adapter) NewCreateRequest(ctx context.Context, order ports.CreateOrder) (*ports.SignedRequest, error) {
	return a.rpc(ctx, "create", "receipts.pay", map[string]interface{}{
		"id":       order.ScanCode,
		"order_id": order.OrderID,
		"amount":   order.AmountMinor,
	})
}

// NewStatusRequest builds the read-only receipts.check call.
func (a *Adapter) NewStatusRequest(ctx context.Context, paymentID string) (*ports.SignedRequest, error) {
	return a.rpc(ctx, "status", "receipts.check", map[string]interface{}{
		"id": paymentID,
	})
}

// NewReversalRequest builds the receipts.cancel call.
func (a *Adapter) NewReversalRequest(ctx context.Context, orderID, paymentID, reason string) (*ports.SignedRequest, error) {
	return a.rpc(ctx, "reversal", "receipts.cancel", map[string]interface{}{
		"id":       paymentID,
		"order_id": orderID,
		"reason":   reason,
	})
}

// NewFiscalRequest builds the receipts.set_fiscal_data call carrying the
// fiscal receipt reference.
func (a *Adapter) NewFiscalRequest(ctx context.Context, paymentID, fiscalURL string) (*ports.SignedRequest, error) {
	return a.rpc(ctx, "fiscal", "receipts.set_fiscal_data", map[string]interface{}{
		"id":         paymentID,
		"fiscal_url": fiscalURL,
	})
}

// ParseResponse interprets a PaymeQR response body. An absent error object is
// the success sentinel; the result carries the receipt.
func (a *Adapter) ParseResponse(body []byte) (*ports.GatewayResult, error) {
	var resp rpcResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeGatewayBadResponse,
			fmt.Sprintf("unparseable paymeqr response: %.200s", body), err)
	}

	if resp.Error != nil {
		return &ports.GatewayResult{
			Code:     resp.Error.Code,
			Message:  resp.Error.Message,
			Success:  false,
			Metadata: map[string]string{},
		}, nil
	}

	result := &ports.GatewayResult{Code: 0, Success: true, Metadata: map[string]string{}}
	if raw, ok := resp.Result["receipt"]; ok {
		var r receipt
		if err := json.Unmarshal(raw, &r); err == nil {
			result.PaymentID = r.ID
			result.Metadata["receipt_state"] = fmt.Sprintf("%d", r.State)
			if r.PhoneMasked != "" {
				result.Metadata["phone_masked"] = r.PhoneMasked
			}
		}
	}
	return result, nil
}

// RetryableCode always reports false: the provider documents no transient
// business codes, so only transport failures are retried.
func (a *Adapter) RetryableCode(code int64) bool {
	return false
}

func (a *Adapter) rpc(ctx context.Context, operation, method string, params map[string]interface{}) (*ports.SignedRequest, error) {
	creds, err := domain.LoadPaymeQRCredentials(ctx, a.creds)
	if err != nil {
		return nil, err
	}

	params["cashbox_id"] = creds.CashboxID

	body, err := json.Marshal(rpcRequest{Method: method, Params: params})
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInternalError, "marshal paymeqr payload", err)
	}

	// Static pair, no timestamp: the X-Auth value doubles as the stored auth
	// header for audit.
	header := creds.KeyID + ":" + creds.Key
	return &ports.SignedRequest{
		Operation:  operation,
		Method:     "POST",
		URL:        a.config.BaseURL + "/api",
		Body:       body,
		Headers:    map[string]string{"X-Auth": header},
		AuthHeader: header,
		Timestamp:  "",
	}, nil
}
