// Package clickpass integrates the card-network QR gateway. The customer's
// wallet app renders a one-time QR; the merchant scans it and submits the
// payload with the amount.
//
// Endpoints (merchant API v2):
//
//	POST {base}/merchant/click_pass/payment           create payment
//	POST {base}/merchant/click_pass/payment/status    status by payment id
//	PUT  {base}/merchant/click_pass/reversal          reversal by merchant order id
//
// Auth header: "Auth: merchant_user_id:sha1(timestamp+secret):timestamp" with
// the timestamp in unix seconds.
package clickpass

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/uzpos/payment-service/internal/domain"
	"github.com/uzpos/payment-service/internal/domain/ports"
	"go.uber.org/zap"
)

// Config contains endpoint configuration for the ClickPass adapter.
type Config struct {
	BaseURL string
}

// DefaultConfig returns the production endpoint configuration.
func DefaultConfig(environment string) *Config {
	baseURL := "https://api.click.uz/v2"
	if environment == "sandbox" {
		baseURL = "https://testmerchant.click.uz/v2"
	}
	return &Config{BaseURL: baseURL}
}

const (
	// minScanCodeLength guards against truncated scans; real ClickPass QR
	// payloads are much longer, but the gateway only documents a minimum.
	minScanCodeLength = 12

	// codeServiceBusy is ClickPass's transient overload code, retryable per
	// the provider's integration guide.
	codeServiceBusy = -5017
)

// Adapter implements ports.WalletGateway for the card-network QR gateway.
type Adapter struct {
	config *Config
	creds  domain.CredentialGetter
	logger *zap.Logger
}

// NewAdapter creates a ClickPass gateway adapter.
func NewAdapter(config *Config, creds domain.CredentialGetter, logger *zap.Logger) *Adapter {
	return &Adapter{config: config, creds: creds, logger: logger}
}

// Kind returns the gateway identifier.
func (a *Adapter) Kind() domain.GatewayKind {
	return domain.GatewayClickPass
}

// ValidateScanCode checks the scanned QR payload shape.
func (a *Adapter) ValidateScanCode(scanCode string) error {
	if len(scanCode) < minScanCodeLength {
		return domain.NewDomainError(domain.ErrorCodeValidationScanCode,
			fmt.Sprintf("clickpass QR payload shorter than %d characters", minScanCodeLength))
	}
	return nil
}

// Sign computes the ClickPass auth header.
//
// digest = SHA-1(timestamp + secret), header = principal:digest:timestamp.
func Sign(principal, secret string) (header, timestamp, digest string) {
	timestamp = strconv.FormatInt(time.Now().Unix(), 10)
	sum := sha1.Sum([]byte(timestamp + secret))
	digest = hex.EncodeToString(sum[:])
	header = principal + ":" + digest + ":" + timestamp
	return header, timestamp, digest
}

type createRequest struct {
	ServiceID  string `json:"service_id"`
	MerchantID string `json:"merchant_id"`
	OrderID    string `json:"merchant_trans_id"`
	OTPData    string `json:"otp_data"` // scanned QR payload
	Amount     int64  `json:"amount"`   // tiyin
	TerminalID string `json:"cashbox_code,omitempty"`
}

type statusRequest struct {
	ServiceID string `json:"service_id"`
	PaymentID string `json:"payment_id"`
}

type reversalRequest struct {
	ServiceID string `json:"service_id"`
	OrderID   string `json:"merchant_trans_id"`
	PaymentID string `json:"payment_id"`
	Reason    string `json:"reason"`
}

type response struct {
	ErrorCode int64  `json:"error_code"`
	ErrorNote string `json:"error_note"`
	PaymentID int64  `json:"payment_id"`
	CardType  string `json:"card_type"`
	CardNum   string `json:"card_number"` // masked by the gateway
}

// NewCreateRequest builds the signed create-payment call.
func (a *Adapter) NewCreateRequest(ctx context.Context, order ports.CreateOrder) (*ports.SignedRequest, error) {
	creds, err := domain.LoadClickPassCredentials(ctx, a.creds)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(createRequest{
		ServiceID:  creds.ServiceID,
		MerchantID: creds.MerchantID,
		OrderID:    order.OrderID,
		OTPData:    order.ScanCode,
		Amount:     order.AmountMinor,
		TerminalID: order.TerminalID,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInternalError, "marshal clickpass payload", err)
	}

	return a.sign(creds, "create", "POST", a.config.BaseURL+"/merchant/click_pass/payment", body), nil
}

// NewStatusRequest builds the read-only status poll call.
func (a *Adapter) NewStatusRequest(ctx context.Context, paymentID string) (*ports.SignedRequest, error) {
	creds, err := domain.LoadClickPassCredentials(ctx, a.creds)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(statusRequest{ServiceID: creds.ServiceID, PaymentID: paymentID})
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInternalError, "marshal clickpass payload", err)
	}

	return a.sign(creds, "status", "POST", a.config.BaseURL+"/merchant/click_pass/payment/status", body), nil
}

// NewReversalRequest builds the reversal call, keyed by merchant order id.
func (a *Adapter) NewReversalRequest(ctx context.Context, orderID, paymentID, reason string) (*ports.SignedRequest, error) {
	creds, err := domain.LoadClickPassCredentials(ctx, a.creds)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(reversalRequest{
		ServiceID: creds.ServiceID,
		OrderID:   orderID,
		PaymentID: paymentID,
		Reason:    reason,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInternalError, "marshal clickpass payload", err)
	}

	return a.sign(creds, "reversal", "PUT", a.config.BaseURL+"/merchant/click_pass/reversal", body), nil
}

// NewFiscalRequest is unsupported: ClickPass has no fiscal endpoint.
func (a *Adapter) NewFiscalRequest(ctx context.Context, paymentID, fiscalURL string) (*ports.SignedRequest, error) {
	return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed,
		"clickpass does not accept fiscal receipts")
}

// ParseResponse interprets a ClickPass response body.
func (a *Adapter) ParseResponse(body []byte) (*ports.GatewayResult, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeGatewayBadResponse,
			fmt.Sprintf("unparseable clickpass response: %.200s", body), err)
	}

	result := &ports.GatewayResult{
		Code:     resp.ErrorCode,
		Message:  resp.ErrorNote,
		Success:  resp.ErrorCode == 0,
		Metadata: map[string]string{},
	}
	if resp.PaymentID != 0 {
		result.PaymentID = strconv.FormatInt(resp.PaymentID, 10)
	}
	if resp.CardType != "" {
		result.Metadata["card_type"] = resp.CardType
	}
	if resp.CardNum != "" {
		result.Metadata["card_number_masked"] = resp.CardNum
	}
	return result, nil
}

// RetryableCode reports whether a business code is ClickPass's transient
// "service busy" signal.
func (a *Adapter) RetryableCode(code int64) bool {
	return code == codeServiceBusy
}

func (a *Adapter) sign(creds *domain.ClickPassCredentials, operation, method, url string, body []byte) *ports.SignedRequest {
	header, timestamp, _ := Sign(creds.MerchantUserID, creds.SecretKey)
	return &ports.SignedRequest{
		Operation:  operation,
		Method:     method,
		URL:        url,
		Body:       body,
		Headers:    map[string]string{"Auth": header},
		AuthHeader: header,
		Timestamp:  timestamp,
	}
}
