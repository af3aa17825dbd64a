package checkout

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brpay/charge-service/internal/domain"
	"github.com/brpay/charge-service/internal/domain/ports"
	chargesvc "github.com/brpay/charge-service/internal/services/charge"
)

// Service creates hosted checkout sessions. It composes the charge service's
// idempotent creation with a session record and a snapshot of the merchant's
// branding taken at creation time.
type Service struct {
	db       ports.TransactionManager
	charges  *chargesvc.Service
	configs  ports.CheckoutConfigRepository
	sessions ports.CheckoutSessionRepository
	logger   ports.Logger
}

// NewService creates a new checkout service
func NewService(
	db ports.TransactionManager,
	charges *chargesvc.Service,
	configs ports.CheckoutConfigRepository,
	sessions ports.CheckoutSessionRepository,
	logger ports.Logger,
) *Service {
	return &Service{
		db:       db,
		charges:  charges,
		configs:  configs,
		sessions: sessions,
		logger:   logger,
	}
}

// CreateSessionRequest carries the inputs for creating a checkout session
type CreateSessionRequest struct {
	ExpiresAt      *time.Time
	Metadata       map[string]interface{}
	IdempotencyKey string
	MerchantID     string
	Currency       string
	Description    string
	ExternalRef    string
	ReturnURL      string
	CancelURL      string
	AmountCents    int64
}

// CreateSessionResult pairs the session with its underlying charge
type CreateSessionResult struct {
	Session *domain.CheckoutSession
	Charge  domain.Charge
}

// CreateSession creates (or reuses, per idempotency key) the charge and wraps
// it in a new hosted session. Both rows commit together; a session never
// references a charge that was rolled back.
func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest) (*CreateSessionResult, error) {
	var result *CreateSessionResult
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		newCharge, err := s.charges.CreateCharge(ctx, tx, chargesvc.CreateChargeRequest{
			IdempotencyKey: req.IdempotencyKey,
			MerchantID:     req.MerchantID,
			AmountCents:    req.AmountCents,
			Currency:       req.Currency,
			Description:    req.Description,
			ExpiresAt:      req.ExpiresAt,
			ExternalRef:    req.ExternalRef,
			Metadata:       req.Metadata,
		})
		if err != nil {
			return err
		}

		config, err := s.configs.FindByMerchantID(ctx, tx, req.MerchantID)
		if err != nil {
			return err
		}

		session, err := domain.NewCheckoutSession(newCharge.ID, req.MerchantID, req.ReturnURL, req.CancelURL, config.Snapshot(), req.ExpiresAt)
		if err != nil {
			return err
		}
		if err := s.sessions.Create(ctx, tx, session); err != nil {
			return err
		}

		result = &CreateSessionResult{Session: session, Charge: newCharge}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("checkout session created",
		ports.String("session_id", result.Session.ID),
		ports.String("charge_id", result.Charge.ID))

	return result, nil
}

// GetSession retrieves a session by id
func (s *Service) GetSession(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	return s.sessions.FindByID(ctx, nil, id)
}
