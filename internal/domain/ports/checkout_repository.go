package ports

import (
	"context"

	"github.com/brpay/charge-service/internal/domain"
)

// CheckoutConfigRepository reads merchant hosted-checkout branding
type CheckoutConfigRepository interface {
	// FindByMerchantID returns nil with no error when the merchant has no
	// checkout configuration
	FindByMerchantID(ctx context.Context, db DBTX, merchantID string) (*domain.CheckoutConfig, error)
}

// CheckoutSessionRepository persists hosted-checkout session records
type CheckoutSessionRepository interface {
	Create(ctx context.Context, tx DBTX, session *domain.CheckoutSession) error
	FindByID(ctx context.Context, db DBTX, id string) (*domain.CheckoutSession, error)
}
