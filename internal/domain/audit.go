package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction tags one entry in the immutable action trail.
type AuditAction string

const (
	AuditPaymentInitiated  AuditAction = "payment_initiated"
	AuditPaymentCompleted  AuditAction = "payment_completed"
	AuditPaymentFailed     AuditAction = "payment_failed"
	AuditStatusChecked     AuditAction = "status_checked"
	AuditReversalRequested AuditAction = "reversal_requested"
	AuditFiscalizationSent AuditAction = "fiscalization_sent"
	AuditConfigValidated   AuditAction = "config_validated"
	AuditConfigChanged     AuditAction = "config_changed"
	AuditErrorOccurred     AuditAction = "error_occurred"
)

// AuditEntry is one append-only row in the compliance trail. TransactionID is
// nil for actions that are not transaction-scoped (config validation). Entries
// are never updated or deleted by this subsystem.
type AuditEntry struct {
	ID                 uuid.UUID              `json:"id"`
	TransactionID      *uuid.UUID             `json:"transaction_id"`
	Gateway            GatewayKind            `json:"gateway"`
	Action             AuditAction            `json:"action"`
	Details            map[string]interface{} `json:"details"`
	ResponseTimeMillis int64                  `json:"response_time_ms"`
	CreatedAt          time.Time              `json:"created_at"`
}
