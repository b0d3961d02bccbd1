package payment

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/uzpos/payment-service/internal/domain"
	"github.com/uzpos/payment-service/internal/domain/ports"
)

// maxOrderIDAttempts bounds the collision probe. Exhaustion is fatal for the
// payment and almost certainly means a broken clock or random source.
const maxOrderIDAttempts = 10

// OrderIDGenerator produces merchant order ids unique across all gateways.
// Candidates combine a nanosecond timestamp with a random suffix; each is
// probed against the repository, and the unique index on order_id is the
// final backstop against a race between two generators.
type OrderIDGenerator struct {
	db     ports.Database
	txRepo ports.TransactionRepository
	now    func() int64 // unix nanos, swappable in tests
	randN  func(n int) int
}

// NewOrderIDGenerator creates a generator probing through the given repository.
func NewOrderIDGenerator(db ports.Database, txRepo ports.TransactionRepository, now func() int64) *OrderIDGenerator {
	return &OrderIDGenerator{
		db:     db,
		txRepo: txRepo,
		now:    now,
		randN:  rand.IntN,
	}
}

// Generate returns an order id not present in the transaction table.
func (g *OrderIDGenerator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxOrderIDAttempts; attempt++ {
		candidate := fmt.Sprintf("%d%04d", g.now(), g.randN(10000))

		exists, err := g.txRepo.OrderIDExists(ctx, g.db.Pool(), candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", domain.NewDomainError(domain.ErrorCodeTxnOrderIDClash,
		fmt.Sprintf("no unique order id after %d attempts", maxOrderIDAttempts))
}
