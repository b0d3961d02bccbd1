package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubRecordStatus is the lifecycle of a reversal or fiscalization sub-record.
// Sub-records track their own outcome; only a successful reversal advances the
// parent transaction.
type SubRecordStatus string

const (
	SubRecordPending SubRecordStatus = "pending"
	SubRecordSuccess SubRecordStatus = "success"
	SubRecordFailed  SubRecordStatus = "failed"
)

// Reversal is the record of one merchant-initiated cancellation attempt
// against an already-successful payment. One-to-zero-or-one with Transaction.
type Reversal struct {
	ID              uuid.UUID       `json:"id"`
	TransactionID   uuid.UUID       `json:"transaction_id"`
	OrderID         string          `json:"order_id"`
	Reason          string          `json:"reason"`
	RequestedBy     string          `json:"requested_by"`
	Status          SubRecordStatus `json:"status"`
	ErrorCode       string          `json:"error_code"`
	ErrorMessage    string          `json:"error_message"`
	RequestPayload  []byte          `json:"request_payload"`
	ResponsePayload []byte          `json:"response_payload"`
	CreatedAt       time.Time       `json:"created_at"`
	CompletedAt     *time.Time      `json:"completed_at"`
}

// Fiscalization is the record of one fiscal-receipt submission for a
// successful payment. It never changes the parent transaction's status.
type Fiscalization struct {
	ID              uuid.UUID       `json:"id"`
	TransactionID   uuid.UUID       `json:"transaction_id"`
	FiscalURL       string          `json:"fiscal_url"`
	Status          SubRecordStatus `json:"status"`
	ErrorCode       string          `json:"error_code"`
	ErrorMessage    string          `json:"error_message"`
	RequestPayload  []byte          `json:"request_payload"`
	ResponsePayload []byte          `json:"response_payload"`
	CreatedAt       time.Time       `json:"created_at"`
	CompletedAt     *time.Time      `json:"completed_at"`
}
