package reconciliation

import (
	"context"
	"time"

	"github.com/brpay/charge-service/internal/domain"
	"github.com/brpay/charge-service/internal/domain/ports"
	"github.com/brpay/charge-service/pkg/observability"
)

// Service runs reconciliation batches: it loads the charge side of the window
// from the repository, receives the provider's transaction report from the
// caller, and drives the Reconciliation entity through its matching state.
type Service struct {
	reconciliations ports.ReconciliationRepository
	charges         ports.ChargeRepository
	messaging       ports.MessagingPort
	logger          ports.Logger
}

// NewService creates a new reconciliation service
func NewService(
	reconciliations ports.ReconciliationRepository,
	charges ports.ChargeRepository,
	messaging ports.MessagingPort,
	logger ports.Logger,
) *Service {
	return &Service{
		reconciliations: reconciliations,
		charges:         charges,
		messaging:       messaging,
		logger:          logger,
	}
}

// Create constructs and persists a pending reconciliation for the window
func (s *Service) Create(ctx context.Context, merchantID string, recType domain.ReconciliationType, start, end time.Time) (*domain.Reconciliation, error) {
	rec, err := domain.NewReconciliation(merchantID, recType, start, end)
	if err != nil {
		return nil, err
	}
	if err := s.reconciliations.Create(ctx, nil, rec); err != nil {
		return nil, err
	}
	s.logger.Info("reconciliation created",
		ports.String("reconciliation_id", rec.ID),
		ports.String("merchant_id", rec.MerchantID))
	return rec, nil
}

// Run executes the matching batch for a pending reconciliation. The provider's
// transaction report for the window is supplied by the caller; the charge side
// is loaded from the repository. The finished run is persisted in its terminal
// state (COMPLETED, PARTIAL, or FAILED when the entity rejects a mutation).
func (s *Service) Run(ctx context.Context, id string, transactions []ExternalTransaction) (*domain.Reconciliation, error) {
	rec, err := s.reconciliations.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	charges, err := s.charges.ListByMerchantAndDateRange(ctx, nil, rec.MerchantID, rec.StartDate, rec.EndDate)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range charges {
		total += c.AmountCents
	}

	if err := rec.StartProcessing(total); err != nil {
		return nil, err
	}
	if err := s.reconciliations.Update(ctx, nil, rec); err != nil {
		return nil, err
	}

	outcome := matchWindow(charges, transactions)

	if err := s.applyOutcome(rec, outcome); err != nil {
		// The entity refused a mutation mid-batch; record the failure rather
		// than leaving the run stuck in PROCESSING. Matched data already
		// recorded is retained.
		if failErr := rec.Fail(err.Error()); failErr == nil {
			_ = s.reconciliations.Update(ctx, nil, rec)
		}
		observability.ReconciliationRunsTotal.WithLabelValues(string(rec.Status)).Inc()
		return nil, err
	}

	if err := rec.Complete(); err != nil {
		return nil, err
	}
	if err := s.reconciliations.Update(ctx, nil, rec); err != nil {
		return nil, err
	}

	observability.ReconciliationRunsTotal.WithLabelValues(string(rec.Status)).Inc()

	if err := s.messaging.Publish(ctx, ports.EventReconciliationDone, map[string]interface{}{
		"reconciliation_id": rec.ID,
		"merchant_id":       rec.MerchantID,
		"status":            string(rec.Status),
		"match_rate":        rec.MatchRate(),
	}); err != nil {
		s.logger.Warn("failed to publish reconciliation.finished",
			ports.String("reconciliation_id", rec.ID),
			ports.Err(err))
	}

	s.logger.Info("reconciliation finished",
		ports.String("reconciliation_id", rec.ID),
		ports.String("status", string(rec.Status)),
		ports.Float64("match_rate", rec.MatchRate()),
		ports.Int("matches", len(rec.Matches)),
		ports.Int("unmatched_charges", len(rec.UnmatchedCharges)),
		ports.Int("unmatched_transactions", len(rec.UnmatchedTransactions)))

	return rec, nil
}

// Fail aborts a processing reconciliation with the given reason
func (s *Service) Fail(ctx context.Context, id, reason string) (*domain.Reconciliation, error) {
	rec, err := s.reconciliations.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := rec.Fail(reason); err != nil {
		return nil, err
	}
	if err := s.reconciliations.Update(ctx, nil, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Get retrieves a reconciliation by id
func (s *Service) Get(ctx context.Context, id string) (*domain.Reconciliation, error) {
	return s.reconciliations.FindByID(ctx, nil, id)
}

// ListByMerchant lists a merchant's reconciliations, optionally filtered by status
func (s *Service) ListByMerchant(ctx context.Context, merchantID string, status *domain.ReconciliationStatus) ([]*domain.Reconciliation, error) {
	return s.reconciliations.FindByMerchantID(ctx, nil, merchantID, status)
}

func (s *Service) applyOutcome(rec *domain.Reconciliation, outcome matchOutcome) error {
	for _, p := range outcome.pairs {
		if err := rec.AddMatch(p.chargeID, p.amountCents, p.transactionID); err != nil {
			return err
		}
	}
	for _, id := range outcome.unmatchedCharges {
		if err := rec.AddUnmatchedCharge(id); err != nil {
			return err
		}
	}
	for _, id := range outcome.unmatchedTransactions {
		if err := rec.AddUnmatchedTransaction(id); err != nil {
			return err
		}
	}
	return nil
}
