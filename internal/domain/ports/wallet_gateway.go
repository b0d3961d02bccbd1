package ports

import (
	"context"

	"github.com/uzpos/payment-service/internal/domain"
)

// SignedRequest is one fully-built outbound gateway call: payload serialized,
// auth header computed. The orchestrator persists AuthHeader and Timestamp on
// the transaction before the wire is touched, so the durable record of intent
// exists even if the call never completes.
type SignedRequest struct {
	Operation  string // create, status, reversal, fiscal (metrics label)
	Method     string
	URL        string
	Body       []byte
	Headers    map[string]string
	AuthHeader string // value of the auth header, stored verbatim
	Timestamp  string // timestamp used to build the header
}

// CallResult is the transport-level outcome of one gateway attempt. Any HTTP
// response counts as a result, regardless of its business outcome.
type CallResult struct {
	HTTPStatus    int
	Body          []byte
	ElapsedMillis int64
}

// GatewayCaller performs a single signed HTTP call bounded by its configured
// timeout. Failures before a response are typed GATEWAY_TIMEOUT or
// GATEWAY_NETWORK_ERROR; retry policy lives in the orchestrator so attempt
// counts are visible to persistence and audit.
type GatewayCaller interface {
	Do(ctx context.Context, req *SignedRequest) (*CallResult, error)
}

// CreateOrder is the gateway-neutral input for building a create-payment
// request.
type CreateOrder struct {
	OrderID     string
	ScanCode    string // raw QR/OTP payload from the customer's wallet app
	AmountMinor int64  // tiyin
	TerminalID  string
}

// GatewayResult is a parsed gateway response. Success reflects the gateway's
// own success sentinel (code 0 for all three integrations).
type GatewayResult struct {
	Code      int64
	Message   string
	PaymentID string            // gateway-assigned payment id
	TxnID     string            // gateway-assigned transaction id, where distinct
	Metadata  map[string]string // masked phone, card brand, and similar extras
	Success   bool
}

// WalletGateway builds and interprets gateway-specific wire traffic. Each of
// the three integrations implements this envelope; the payload schemas and
// endpoint paths are documented per adapter.
type WalletGateway interface {
	Kind() domain.GatewayKind

	// ValidateScanCode checks gateway-specific constraints on the scanned
	// payload before any network or database work.
	ValidateScanCode(scanCode string) error

	// NewCreateRequest builds the signed create-payment call. Credentials are
	// loaded per call so the config cache TTL governs staleness.
	NewCreateRequest(ctx context.Context, order CreateOrder) (*SignedRequest, error)

	// NewStatusRequest builds the read-only status poll call.
	NewStatusRequest(ctx context.Context, paymentID string) (*SignedRequest, error)

	// NewReversalRequest builds the reversal call for a confirmed payment.
	NewReversalRequest(ctx context.Context, orderID, paymentID, reason string) (*SignedRequest, error)

	// NewFiscalRequest builds the fiscal-receipt submission call. Gateways
	// without a fiscal endpoint return a validation error.
	NewFiscalRequest(ctx context.Context, paymentID, fiscalURL string) (*SignedRequest, error)

	// ParseResponse interprets a response body from any of this gateway's
	// endpoints.
	ParseResponse(body []byte) (*GatewayResult, error)

	// RetryableCode reports whether a gateway business code is a transient
	// "service busy" signal that may be retried under the same bounded policy
	// as transport failures.
	RetryableCode(code int64) bool
}
