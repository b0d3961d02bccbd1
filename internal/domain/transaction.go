package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus represents the lifecycle state of a payment attempt.
// Transitions only move forward through the table below; they never regress.
type TransactionStatus string

const (
	StatusPending    TransactionStatus = "pending"    // row written, gateway not yet called
	StatusProcessing TransactionStatus = "processing" // gateway call in flight (or retrying)
	StatusSuccess    TransactionStatus = "success"    // gateway confirmed the payment
	StatusFailed     TransactionStatus = "failed"     // declined, timed out, or errored
	StatusReversed   TransactionStatus = "reversed"   // successful payment cancelled by merchant
)

// statusTransitions is the full set of legal status moves. Every status write
// is checked against this table; a write not present here is rejected, so the
// forward-only invariant holds structurally rather than by call-site
// discipline. processing -> processing covers retry_count bumps between
// attempts.
var statusTransitions = map[TransactionStatus]map[TransactionStatus]bool{
	StatusPending: {
		StatusProcessing: true,
		StatusFailed:     true,
	},
	StatusProcessing: {
		StatusProcessing: true,
		StatusSuccess:    true,
		StatusFailed:     true,
	},
	StatusSuccess: {
		StatusReversed: true,
	},
}

// CanTransition reports whether a status move is present in the transition table.
func CanTransition(from, to TransactionStatus) bool {
	return statusTransitions[from][to]
}

// IsTerminal reports whether no further create-flow transition is possible.
// A success transaction may still be reversed.
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusReversed
}

// Transaction is the durable record of one payment attempt against a wallet
// gateway. It is created exactly once at payment initiation and never deleted;
// the full outbound and inbound payloads are stored verbatim for replay and
// dispute handling.
type Transaction struct {
	ID                 uuid.UUID         `json:"id"`
	OrderID            string            `json:"order_id"`            // merchant-generated, unique
	Gateway            GatewayKind       `json:"gateway"`             // fastpay | clickpass | paymeqr
	GatewayTxnID       string            `json:"gateway_transaction_id"` // assigned by the gateway, empty until it responds
	GatewayPaymentID   string            `json:"gateway_payment_id"`
	AmountMinor        int64             `json:"amount_minor"` // tiyin
	AmountMajor        decimal.Decimal   `json:"amount_major"` // som, display only
	Status             TransactionStatus `json:"status"`
	ErrorCode          string            `json:"error_code"`
	ErrorMessage       string            `json:"error_message"`
	RetryCount         int               `json:"retry_count"`
	TimeoutOccurred    bool              `json:"timeout_occurred"`
	EmployeeID         string            `json:"employee_id"`
	TerminalID         string            `json:"terminal_id"`
	SaleID             *int64            `json:"sale_id"` // POS sale link, set only after success
	RequestPayload     []byte            `json:"request_payload"`
	ResponsePayload    []byte            `json:"response_payload"`
	AuthHeader         string            `json:"auth_header"`
	AuthTimestamp      string            `json:"auth_timestamp"`
	ResponseTimeMillis int64             `json:"response_time_ms"`
	HTTPStatus         int               `json:"http_status"`
	Metadata           map[string]string `json:"metadata"` // masked phone, card brand, etc.
	InitiatedAt        time.Time         `json:"initiated_at"`
	CompletedAt        *time.Time        `json:"completed_at"`
}

// CanBeReversed reports whether a reversal may be attempted. Only a confirmed
// payment can be reversed; the repository's conditional update is the final
// guard against a concurrent double reversal.
func (t *Transaction) CanBeReversed() bool {
	return t.Status == StatusSuccess
}

// CanBeFiscalized reports whether a fiscal receipt may be submitted.
func (t *Transaction) CanBeFiscalized() bool {
	return t.Status == StatusSuccess
}

// CanBeLinked reports whether the transaction may be linked to a POS sale.
func (t *Transaction) CanBeLinked() bool {
	return t.Status == StatusSuccess
}

// TransactionFilter narrows List queries. Zero values mean "no filter".
type TransactionFilter struct {
	Gateway    GatewayKind
	Status     TransactionStatus
	EmployeeID string
	TerminalID string
	From       time.Time
	To         time.Time
	Limit      int32
	Offset     int32
}
