package ports

import (
	"context"
	"time"

	"github.com/brpay/charge-service/internal/domain"
)

// ReconciliationRepository defines the interface for reconciliation persistence
type ReconciliationRepository interface {
	Create(ctx context.Context, tx DBTX, reconciliation *domain.Reconciliation) error
	FindByID(ctx context.Context, db DBTX, id string) (*domain.Reconciliation, error)
	FindByMerchantID(ctx context.Context, db DBTX, merchantID string, status *domain.ReconciliationStatus) ([]*domain.Reconciliation, error)
	FindByDateRange(ctx context.Context, db DBTX, merchantID string, start, end time.Time) ([]*domain.Reconciliation, error)
	Update(ctx context.Context, tx DBTX, reconciliation *domain.Reconciliation) error
}
