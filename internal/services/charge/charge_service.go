package charge

import (
	"context"
	"time"

	"github.com/brpay/charge-service/internal/domain"
	"github.com/brpay/charge-service/internal/domain/ports"
	"github.com/brpay/charge-service/pkg/observability"
	"github.com/brpay/charge-service/pkg/resilience"
)

// Service orchestrates the charge lifecycle: idempotent creation and binding
// of a payment method via the provider.
type Service struct {
	charges   ports.ChargeRepository
	provider  ports.PaymentProvider
	messaging ports.MessagingPort
	logger    ports.Logger
	timeouts  *resilience.TimeoutConfig
}

// NewService creates a new charge service
func NewService(
	charges ports.ChargeRepository,
	provider ports.PaymentProvider,
	messaging ports.MessagingPort,
	logger ports.Logger,
	timeouts *resilience.TimeoutConfig,
) *Service {
	if timeouts == nil {
		timeouts = resilience.DefaultTimeoutConfig()
	}
	return &Service{
		charges:   charges,
		provider:  provider,
		messaging: messaging,
		logger:    logger,
		timeouts:  timeouts,
	}
}

// CreateChargeRequest carries the inputs for creating a charge
type CreateChargeRequest struct {
	ExpiresAt      *time.Time
	Metadata       map[string]interface{}
	IdempotencyKey string
	MerchantID     string
	Currency       string
	Description    string
	ExternalRef    string
	AmountCents    int64
}

// CreateCharge returns the charge that is canonical for the request's
// (merchantID, idempotencyKey) pair. Re-submission with the same key returns
// the existing charge with no side effects, so the operation is safe to retry
// indefinitely under client or network failure.
//
// db may be nil to run against the pool, or a transaction when the caller
// needs the charge to commit together with other writes.
func (s *Service) CreateCharge(ctx context.Context, db ports.DBTX, req CreateChargeRequest) (domain.Charge, error) {
	existing, err := s.charges.FindByIdempotencyKey(ctx, db, req.MerchantID, req.IdempotencyKey)
	if err == nil {
		s.logger.Info("returning existing charge for idempotency key",
			ports.String("idempotency_key", req.IdempotencyKey),
			ports.String("charge_id", existing.ID))
		observability.IdempotentHitsTotal.Inc()
		return existing, nil
	}
	if !domain.IsNotFoundError(err) {
		return domain.Charge{}, err
	}

	newCharge, err := domain.NewCharge(domain.NewChargeParams{
		MerchantID:     req.MerchantID,
		AmountCents:    req.AmountCents,
		Currency:       req.Currency,
		Description:    req.Description,
		ExternalRef:    req.ExternalRef,
		IdempotencyKey: req.IdempotencyKey,
		ExpiresAt:      req.ExpiresAt,
		Metadata:       req.Metadata,
	})
	if err != nil {
		return domain.Charge{}, err
	}

	if err := s.charges.Create(ctx, db, newCharge); err != nil {
		// A concurrent request with the same key won the unique-constraint
		// race; the winner's row is the canonical charge. Inside a caller's
		// transaction the failed insert has already aborted it, so the
		// conflict surfaces and the caller's retry hits the replay path.
		if domain.IsConflictError(err) {
			if db != nil {
				return domain.Charge{}, err
			}
			winner, fetchErr := s.charges.FindByIdempotencyKey(ctx, nil, req.MerchantID, req.IdempotencyKey)
			if fetchErr != nil {
				return domain.Charge{}, fetchErr
			}
			s.logger.Info("idempotency race lost, returning winner",
				ports.String("idempotency_key", req.IdempotencyKey),
				ports.String("charge_id", winner.ID))
			observability.IdempotentHitsTotal.Inc()
			return winner, nil
		}
		return domain.Charge{}, err
	}

	observability.ChargesCreatedTotal.WithLabelValues(newCharge.Currency).Inc()

	// At-least-once delivery: a publish failure never rolls back the charge
	if err := s.messaging.Publish(ctx, ports.EventChargeCreated, map[string]interface{}{
		"charge_id":    newCharge.ID,
		"merchant_id":  newCharge.MerchantID,
		"amount_cents": newCharge.AmountCents,
		"currency":     newCharge.Currency,
	}); err != nil {
		s.logger.Warn("failed to publish charge.created",
			ports.String("charge_id", newCharge.ID),
			ports.Err(err))
	}

	s.logger.Info("charge created",
		ports.String("charge_id", newCharge.ID),
		ports.String("merchant_id", newCharge.MerchantID),
		ports.Int64("amount_cents", newCharge.AmountCents))

	return newCharge, nil
}

// IssuePayment binds a payment method to an existing charge, calling the
// provider for method-specific instructions. Nothing is persisted unless the
// provider call succeeds, so a failure leaves the charge untouched.
func (s *Service) IssuePayment(ctx context.Context, chargeID string, method domain.ChargeMethod) (domain.Charge, error) {
	loaded, err := s.charges.FindByID(ctx, nil, chargeID)
	if err != nil {
		return domain.Charge{}, err
	}

	updated, err := loaded.WithMethod(method)
	if err != nil {
		return domain.Charge{}, err
	}

	issueReq := ports.IssueChargeRequest{
		ChargeID:    updated.ID,
		MerchantID:  updated.MerchantID,
		AmountCents: updated.AmountCents,
		Description: updated.Description,
		ExpiresAt:   updated.ExpiresAt,
	}

	switch method {
	case domain.ChargeMethodPix:
		providerCtx, cancel := s.timeouts.ProviderContext(ctx)
		pix, err := s.provider.IssuePixCharge(providerCtx, issueReq)
		cancel()
		if err != nil {
			s.logger.Error("pix issuance failed",
				ports.String("charge_id", chargeID),
				ports.Err(err))
			return domain.Charge{}, err
		}
		if updated, err = updated.WithPixData(pix.QRCode, pix.CopyPaste); err != nil {
			return domain.Charge{}, err
		}
	case domain.ChargeMethodBoleto:
		providerCtx, cancel := s.timeouts.ProviderContext(ctx)
		boleto, err := s.provider.IssueBoletoCharge(providerCtx, issueReq)
		cancel()
		if err != nil {
			s.logger.Error("boleto issuance failed",
				ports.String("charge_id", chargeID),
				ports.Err(err))
			return domain.Charge{}, err
		}
		if updated, err = updated.WithBoletoData(boleto.BoletoURL); err != nil {
			return domain.Charge{}, err
		}
	default:
		// Reserved methods (e.g. card) bind without a provider call
	}

	if err := s.charges.Update(ctx, nil, updated); err != nil {
		return domain.Charge{}, err
	}

	observability.PaymentsIssuedTotal.WithLabelValues(string(method)).Inc()

	if err := s.messaging.Publish(ctx, ports.EventChargePaymentIssued, map[string]interface{}{
		"charge_id":   updated.ID,
		"merchant_id": updated.MerchantID,
		"method":      string(updated.Method),
	}); err != nil {
		s.logger.Warn("failed to publish charge.payment_issued",
			ports.String("charge_id", updated.ID),
			ports.Err(err))
	}

	s.logger.Info("payment issued for charge",
		ports.String("charge_id", updated.ID),
		ports.String("method", string(updated.Method)))

	return updated, nil
}

// MarkPaid applies the payment-confirmation transition, driven by
// payment-status webhooks
func (s *Service) MarkPaid(ctx context.Context, chargeID string) (domain.Charge, error) {
	return s.applyTransition(ctx, chargeID, domain.Charge.MarkPaid)
}

// MarkExpired applies the expiry transition
func (s *Service) MarkExpired(ctx context.Context, chargeID string) (domain.Charge, error) {
	return s.applyTransition(ctx, chargeID, domain.Charge.MarkExpired)
}

// Cancel applies the cancellation transition
func (s *Service) Cancel(ctx context.Context, chargeID string) (domain.Charge, error) {
	return s.applyTransition(ctx, chargeID, domain.Charge.Cancel)
}

// GetCharge retrieves a charge by id
func (s *Service) GetCharge(ctx context.Context, chargeID string) (domain.Charge, error) {
	return s.charges.FindByID(ctx, nil, chargeID)
}

func (s *Service) applyTransition(ctx context.Context, chargeID string, transition func(domain.Charge) (domain.Charge, error)) (domain.Charge, error) {
	loaded, err := s.charges.FindByID(ctx, nil, chargeID)
	if err != nil {
		return domain.Charge{}, err
	}
	updated, err := transition(loaded)
	if err != nil {
		return domain.Charge{}, err
	}
	if err := s.charges.Update(ctx, nil, updated); err != nil {
		return domain.Charge{}, err
	}
	s.logger.Info("charge status updated",
		ports.String("charge_id", updated.ID),
		ports.String("status", string(updated.Status)))
	return updated, nil
}
