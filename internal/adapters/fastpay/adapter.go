// Package fastpay integrates the bank fast-payment gateway. A customer
// presents a one-time payment code (OTP) generated in their banking app; the
// merchant submits it together with the amount and receives a confirmed debit.
//
// Endpoints (documented in the bank's integration guide v2.3):
//
//	POST {base}/merchant/pay               create payment
//	POST {base}/merchant/pay/status        status by payment id
//	PUT  {base}/merchant/pay/reversal      reversal by merchant order id
//
// Auth header: "Auth: merchant_id:sha256(timestamp+secret):timestamp" with
// the timestamp in UTC+5 (the gateway rejects any other offset).
package fastpay

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/uzpos/payment-service/internal/domain"
	"github.com/uzpos/payment-service/internal/domain/ports"
	"go.uber.org/zap"
)

// Config contains endpoint configuration for the FastPay adapter.
type Config struct {
	BaseURL string
}

// DefaultConfig returns the production endpoint configuration.
func DefaultConfig(environment string) *Config {
	baseURL := "https://pay.fastpay.uz/api/v2"
	if environment == "sandbox" {
		baseURL = "https://test.fastpay.uz/api/v2"
	}
	return &Config{BaseURL: baseURL}
}

// codeServiceBusy is FastPay's transient overload code; the integration guide
// allows bounded retries for it, unlike ordinary declines.
const codeServiceBusy = -9999

// otpPattern: FastPay OTPs are 6 to 20 digits.
var otpPattern = regexp.MustCompile(`^\d{6,20}$`)

// Adapter implements ports.WalletGateway for the bank fast-payment gateway.
type Adapter struct {
	config *Config
	creds  domain.CredentialGetter
	logger *zap.Logger
}

// NewAdapter creates a FastPay gateway adapter. Credentials are resolved per
// call through the config store so its cache TTL governs staleness.
func NewAdapter(config *Config, creds domain.CredentialGetter, logger *zap.Logger) *Adapter {
	return &Adapter{config: config, creds: creds, logger: logger}
}

// Kind returns the gateway identifier.
func (a *Adapter) Kind() domain.GatewayKind {
	return domain.GatewayFastPay
}

// ValidateScanCode checks the OTP shape before any network or database work.
func (a *Adapter) ValidateScanCode(scanCode string) error {
	if !otpPattern.MatchString(scanCode) {
		return domain.NewDomainError(domain.ErrorCodeValidationScanCode,
			"fastpay OTP must be 6-20 digits")
	}
	return nil
}

type createRequest struct {
	MerchantID string `json:"merchant_id"`
	TerminalID string `json:"terminal_id"`
	OrderID    string `json:"order_id"`
	OTP        string `json:"otp"`
	Amount     int64  `json:"amount"` // tiyin
}

type statusRequest struct {
	MerchantID string `json:"merchant_id"`
	PaymentID  string `json:"payment_id"`
}

type reversalRequest struct {
	MerchantID string `json:"merchant_id"`
	OrderID    string `json:"order_id"`
	PaymentID  string `json:"payment_id"`
	Reason     string `json:"reason"`
}

type response struct {
	ErrorCode    int64  `json:"error_code"`
	ErrorNote    string `json:"error_note"`
	PaymentID    string `json:"payment_id"`
	TransID      string `json:"trans_id"`
	PhoneMasked  string `json:"phone_masked"`
	PaymentState string `json:"payment_state"`
}

// NewCreateRequest builds the signed create-payment call.
func (a *Adapter) NewCreateRequest(ctx context.Context, order ports.CreateOrder) (*ports.SignedRequest, error) {
	creds, err := domain.LoadFastPayCredentials(ctx, a.creds)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(createRequest{
		MerchantID: creds.MerchantID,
		TerminalID: creds.TerminalID,
		OrderID:    order.OrderID,
		OTP:        order.ScanCode,
		Amount:     order.AmountMinor,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInternalError, "marshal fastpay payload", err)
	}

	return a.sign(creds, "create", "POST", a.config.BaseURL+"/merchant/pay", body), nil
}

// NewStatusRequest builds the read-only status poll call.
func (a *Adapter) NewStatusRequest(ctx context.Context, paymentID string) (*ports.SignedRequest, error) {
	creds, err := domain.LoadFastPayCredentials(ctx, a.creds)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(statusRequest{MerchantID: creds.MerchantID, PaymentID: paymentID})
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInternalError, "marshal fastpay payload", err)
	}

	return a.sign(creds, "status", "POST", a.config.BaseURL+"/merchant/pay/status", body), nil
}

// NewReversalRequest builds the reversal call. FastPay keys reversals by the
// merchant order id; the gateway payment id is carried for reconciliation.
func (a *Adapter) NewReversalRequest(ctx context.Context, orderID, paymentID, reason string) (*ports.SignedRequest, error) {
	creds, err := domain.LoadFastPayCredentials(ctx, a.creds)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(reversalRequest{
		MerchantID: creds.MerchantID,
		OrderID:    orderID,
		PaymentID:  paymentID,
		Reason:     reason,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInternalError, "marshal fastpay payload", err)
	}

	return a.sign(creds, "reversal", "PUT", a.config.BaseURL+"/merchant/pay/reversal", body), nil
}

// NewFiscalRequest is unsupported: FastPay has no fiscal endpoint, the bank
// fiscalizes on its side.
func (a *Adapter) NewFiscalRequest(ctx context.Context, paymentID, fiscalURL string) (*ports.SignedRequest, error) {
	return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed,
		"fastpay does not accept fiscal receipts")
}

// ParseResponse interprets a FastPay response body.
func (a *Adapter) ParseResponse(body []byte) (*ports.GatewayResult, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeGatewayBadResponse,
			fmt.Sprintf("unparseable fastpay response: %.200s", body), err)
	}

	result := &ports.GatewayResult{
		Code:      resp.ErrorCode,
		Message:   resp.ErrorNote,
		PaymentID: resp.PaymentID,
		TxnID:     resp.TransID,
		Success:   resp.ErrorCode == 0,
		Metadata:  map[string]string{},
	}
	if resp.PhoneMasked != "" {
		result.Metadata["phone_masked"] = resp.PhoneMasked
	}
	if resp.PaymentState != "" {
		result.Metadata["payment_state"] = resp.PaymentState
	}
	return result, nil
}

// RetryableCode reports whether a business code is FastPay's transient
// "service busy" signal.
func (a *Adapter) RetryableCode(code int64) bool {
	return code == codeServiceBusy
}

func (a *Adapter) sign(creds *domain.FastPayCredentials, operation, method, url string, body []byte) *ports.SignedRequest {
	header, timestamp, _ := Sign(creds.MerchantID, creds.SecretKey)
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
