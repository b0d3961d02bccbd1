package ports

import (
	"context"

	"github.com/uzpos/payment-service/internal/domain"
)

// AuditLogger appends entries to the immutable compliance trail. The trail is
// append-only; there is no update or delete operation, and retention is an
// external concern.
type AuditLogger interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
}
