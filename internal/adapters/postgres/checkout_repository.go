package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/brpay/charge-service/internal/domain"
	"github.com/brpay/charge-service/internal/domain/ports"
)

// CheckoutConfigRepository reads merchant hosted-checkout branding from PostgreSQL
type CheckoutConfigRepository struct {
	db ports.DBPort
}

// NewCheckoutConfigRepository creates a new checkout config repository
func NewCheckoutConfigRepository(db ports.DBPort) *CheckoutConfigRepository {
	return &CheckoutConfigRepository{db: db}
}

func (r *CheckoutConfigRepository) exec(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.db.GetDB()
}

// FindByMerchantID returns nil with no error when the merchant has no
// checkout configuration
func (r *CheckoutConfigRepository) FindByMerchantID(ctx context.Context, db ports.DBTX, merchantID string) (*domain.CheckoutConfig, error) {
	var (
		cfg         domain.CheckoutConfig
		themeTokens []byte
		logoURL     *string
	)

	err := r.exec(db).QueryRow(ctx, `
		SELECT merchant_id, theme_tokens, logo_url, animations
		FROM checkout_configs
		WHERE merchant_id = $1`, merchantID).
		Scan(&cfg.MerchantID, &themeTokens, &logoURL, &cfg.Animations)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get checkout config: %w", err)
	}

	cfg.LogoURL = textOrEmpty(logoURL)
	if cfg.ThemeTokens, err = unmarshalJSON(themeTokens); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CheckoutSessionRepository persists hosted-checkout sessions on PostgreSQL
type CheckoutSessionRepository struct {
	db ports.DBPort
}

// NewCheckoutSessionRepository creates a new checkout session repository
func NewCheckoutSessionRepository(db ports.DBPort) *CheckoutSessionRepository {
	return &CheckoutSessionRepository{db: db}
}

func (r *CheckoutSessionRepository) exec(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.db.GetDB()
}

// Create persists a new checkout session
func (r *CheckoutSessionRepository) Create(ctx context.Context, tx ports.DBTX, s *domain.CheckoutSession) error {
	var theme []byte
	if s.ThemeSnapshot != nil {
		var err error
		if theme, err = json.Marshal(s.ThemeSnapshot); err != nil {
			return fmt.Errorf("marshal theme snapshot: %w", err)
		}
	}

	_, err := r.exec(tx).Exec(ctx, `
		INSERT INTO checkout_sessions (id, charge_id, merchant_id, return_url, cancel_url, theme_snapshot, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.ChargeID, s.MerchantID, nullText(s.ReturnURL), nullText(s.CancelURL),
		theme, s.ExpiresAt, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create checkout session: %w", err)
	}
	return nil
}

// FindByID retrieves a checkout session by its ID
func (r *CheckoutSessionRepository) FindByID(ctx context.Context, db ports.DBTX, id string) (*domain.CheckoutSession, error) {
	var (
		s                    domain.CheckoutSession
		returnURL, cancelURL *string
		theme                []byte
	)

	err := r.exec(db).QueryRow(ctx, `
		SELECT id, charge_id, merchant_id, return_url, cancel_url, theme_snapshot, expires_at, created_at
		FROM checkout_sessions
		WHERE id = $1`, id).
		Scan(&s.ID, &s.ChargeID, &s.MerchantID, &returnURL, &cancelURL, &theme, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewDomainError(domain.ErrorCodeSessionNotFound, "checkout session not found").
				WithDetail("session_id", id)
		}
		return nil, fmt.Errorf("get checkout session: %w", err)
	}

	s.ReturnURL = textOrEmpty(returnURL)
	s.CancelURL = textOrEmpty(cancelURL)
	if len(theme) > 0 {
		if err := json.Unmarshal(theme, &s.ThemeSnapshot); err != nil {
			return nil, fmt.Errorf("unmarshal theme snapshot: %w", err)
		}
	}
	return &s, nil
}

var (
	_ ports.CheckoutConfigRepository  = (*CheckoutConfigRepository)(nil)
	_ ports.CheckoutSessionRepository = (*CheckoutSessionRepository)(nil)
)
