package settlement

import (
	"context"
	"time"

	"github.com/brpay/charge-service/internal/domain"
	"github.com/brpay/charge-service/internal/domain/ports"
	"github.com/brpay/charge-service/pkg/observability"
)

// Service orchestrates settlement scheduling and processing. The entity owns
// transition legality; the service loads, applies a transition, and persists.
// The repository provides single-writer-at-a-time semantics per settlement id.
type Service struct {
	settlements ports.SettlementRepository
	messaging   ports.MessagingPort
	logger      ports.Logger
}

// NewService creates a new settlement service
func NewService(settlements ports.SettlementRepository, messaging ports.MessagingPort, logger ports.Logger) *Service {
	return &Service{
		settlements: settlements,
		messaging:   messaging,
		logger:      logger,
	}
}

// Create constructs and persists a pending settlement
func (s *Service) Create(ctx context.Context, merchantID string, amountCents int64, currency string) (*domain.Settlement, error) {
	stl, err := domain.NewSettlement(merchantID, amountCents, currency)
	if err != nil {
		return nil, err
	}
	if err := s.settlements.Create(ctx, nil, stl); err != nil {
		return nil, err
	}
	s.logger.Info("settlement created",
		ports.String("settlement_id", stl.ID),
		ports.String("merchant_id", stl.MerchantID),
		ports.Int64("amount_cents", stl.AmountCents))
	return stl, nil
}

// Schedule books a pending settlement for a future payout
func (s *Service) Schedule(ctx context.Context, id string, scheduledFor time.Time, bankAccountID string) (*domain.Settlement, error) {
	return s.apply(ctx, id, func(stl *domain.Settlement) error {
		return stl.Schedule(scheduledFor, bankAccountID)
	})
}

// StartProcessing moves a settlement into PROCESSING and announces it
func (s *Service) StartProcessing(ctx context.Context, id string) (*domain.Settlement, error) {
	stl, err := s.apply(ctx, id, func(stl *domain.Settlement) error {
		return stl.StartProcessing()
	})
	if err != nil {
		return nil, err
	}

	observability.SettlementsProcessedTotal.WithLabelValues(string(stl.Status)).Inc()

	if err := s.messaging.Publish(ctx, ports.EventSettlementProcessing, map[string]interface{}{
		"settlement_id": stl.ID,
		"merchant_id":   stl.MerchantID,
		"amount_cents":  stl.AmountCents,
	}); err != nil {
		s.logger.Warn("failed to publish settlement.processing",
			ports.String("settlement_id", stl.ID),
			ports.Err(err))
	}
	return stl, nil
}

// Complete records the payout outcome reported by the bank
func (s *Service) Complete(ctx context.Context, id, transactionID string) (*domain.Settlement, error) {
	stl, err := s.apply(ctx, id, func(stl *domain.Settlement) error {
		return stl.Complete(transactionID)
	})
	if err != nil {
		return nil, err
	}

	observability.SettlementsProcessedTotal.WithLabelValues(string(stl.Status)).Inc()

	if err := s.messaging.Publish(ctx, ports.EventSettlementCompleted, map[string]interface{}{
		"settlement_id":  stl.ID,
		"merchant_id":    stl.MerchantID,
		"transaction_id": stl.TransactionID,
	}); err != nil {
		s.logger.Warn("failed to publish settlement.completed",
			ports.String("settlement_id", stl.ID),
			ports.Err(err))
	}
	return stl, nil
}

// Fail records a payout failure
func (s *Service) Fail(ctx context.Context, id, reason string) (*domain.Settlement, error) {
	stl, err := s.apply(ctx, id, func(stl *domain.Settlement) error {
		return stl.Fail(reason)
	})
	if err != nil {
		return nil, err
	}

	observability.SettlementsProcessedTotal.WithLabelValues(string(stl.Status)).Inc()

	if err := s.messaging.Publish(ctx, ports.EventSettlementFailed, map[string]interface{}{
		"settlement_id":  stl.ID,
		"merchant_id":    stl.MerchantID,
		"failure_reason": stl.FailureReason,
	}); err != nil {
		s.logger.Warn("failed to publish settlement.failed",
			ports.String("settlement_id", stl.ID),
			ports.Err(err))
	}
	return stl, nil
}

// Cancel aborts a settlement
func (s *Service) Cancel(ctx context.Context, id string) (*domain.Settlement, error) {
	return s.apply(ctx, id, func(stl *domain.Settlement) error {
		return stl.Cancel()
	})
}

// Get retrieves a settlement by id
func (s *Service) Get(ctx context.Context, id string) (*domain.Settlement, error) {
	return s.settlements.FindByID(ctx, nil, id)
}

// ListByMerchant lists a merchant's settlements, optionally filtered by status
func (s *Service) ListByMerchant(ctx context.Context, merchantID string, status *domain.SettlementStatus) ([]*domain.Settlement, error) {
	return s.settlements.FindByMerchantID(ctx, nil, merchantID, status)
}

// ListDue returns the settlements the payout poller should pick up
func (s *Service) ListDue(ctx context.Context) ([]*domain.Settlement, error) {
	return s.settlements.FindDue(ctx, nil)
}

func (s *Service) apply(ctx context.Context, id string, transition func(*domain.Settlement) error) (*domain.Settlement, error) {
	stl, err := s.settlements.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := transition(stl); err != nil {
		return nil, err
	}
	if err := s.settlements.Update(ctx, nil, stl); err != nil {
		return nil, err
	}
	s.logger.Info("settlement status updated",
		ports.String("settlement_id", stl.ID),
		ports.String("status", string(stl.Status)))
	return stl, nil
}
