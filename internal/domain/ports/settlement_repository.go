package ports

import (
	"context"

	"github.com/brpay/charge-service/internal/domain"
)

// SettlementRepository defines the interface for settlement persistence.
//
// Update must provide at-least single-writer-at-a-time semantics per
// settlement id (row lock or optimistic version check) so concurrent workers
// cannot race the same transition.
type SettlementRepository interface {
	Create(ctx context.Context, tx DBTX, settlement *domain.Settlement) error
	FindByID(ctx context.Context, db DBTX, id string) (*domain.Settlement, error)
	FindByMerchantID(ctx context.Context, db DBTX, merchantID string, status *domain.SettlementStatus) ([]*domain.Settlement, error)

	// FindDue returns settlements the payout poller should pick up: pending
	// with no schedule, or scheduled for a time that has elapsed
	FindDue(ctx context.Context, db DBTX) ([]*domain.Settlement, error)

	Update(ctx context.Context, tx DBTX, settlement *domain.Settlement) error
}
