package ports

import (
	"context"
	"time"

	"github.com/brpay/charge-service/internal/domain"
)

// ChargeRepository defines the interface for charge persistence.
//
// Create must enforce a unique constraint on (merchant_id, idempotency_key)
// and surface a violation as domain.ErrIdempotencyConflict so the use case
// can fetch and return the winning row.
type ChargeRepository interface {
	// Create persists a new charge
	Create(ctx context.Context, tx DBTX, charge domain.Charge) error

	// FindByID retrieves a charge by its ID
	FindByID(ctx context.Context, db DBTX, id string) (domain.Charge, error)

	// FindByIdempotencyKey retrieves the canonical charge for a
	// (merchant, idempotency key) pair
	FindByIdempotencyKey(ctx context.Context, db DBTX, merchantID, key string) (domain.Charge, error)

	// Update persists a new charge snapshot
	Update(ctx context.Context, tx DBTX, charge domain.Charge) error

	// ListByMerchantAndDateRange lists a merchant's charges created inside
	// [start, end], used to load the internal side of a reconciliation window
	ListByMerchantAndDateRange(ctx context.Context, db DBTX, merchantID string, start, end time.Time) ([]domain.Charge, error)
}
