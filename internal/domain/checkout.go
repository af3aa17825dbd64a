package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/brpay/charge-service/pkg/timeutil"
)

// ThemeSnapshot is an immutable copy of the merchant's branding captured when
// a checkout session is created, so later theme edits do not restyle open
// sessions.
type ThemeSnapshot struct {
	ThemeTokens map[string]interface{} `json:"theme_tokens,omitempty"`
	LogoURL     string                 `json:"logo_url,omitempty"`
	Animations  bool                   `json:"animations"`
}

// CheckoutConfig is the merchant's hosted-checkout branding configuration
type CheckoutConfig struct {
	ThemeTokens map[string]interface{} `json:"theme_tokens,omitempty"`
	MerchantID  string                 `json:"merchant_id"`
	LogoURL     string                 `json:"logo_url,omitempty"`
	Animations  bool                   `json:"animations"`
}

// CheckoutSession is a hosted-page handle wrapping exactly one charge.
// It expires independently of the charge via its own ExpiresAt.
type CheckoutSession struct {
	CreatedAt     time.Time      `json:"created_at"`
	ExpiresAt     *time.Time     `json:"expires_at,omitempty"`
	ThemeSnapshot *ThemeSnapshot `json:"theme_snapshot,omitempty"`
	ID            string         `json:"id"`
	ChargeID      string         `json:"charge_id"`
	MerchantID    string         `json:"merchant_id"`
	ReturnURL     string         `json:"return_url,omitempty"`
	CancelURL     string         `json:"cancel_url,omitempty"`
}

// NewCheckoutSession constructs a session bound to a charge
func NewCheckoutSession(chargeID, merchantID, returnURL, cancelURL string, theme *ThemeSnapshot, expiresAt *time.Time) (*CheckoutSession, error) {
	if chargeID == "" {
		return nil, NewDomainError(ErrorCodeValidationMissingField, "required field missing").WithDetail("field", "charge_id")
	}
	if merchantID == "" {
		return nil, NewDomainError(ErrorCodeValidationMissingField, "required field missing").WithDetail("field", "merchant_id")
	}
	return &CheckoutSession{
		ID:            uuid.New().String(),
		ChargeID:      chargeID,
		MerchantID:    merchantID,
		ReturnURL:     returnURL,
		CancelURL:     cancelURL,
		ThemeSnapshot: theme,
		ExpiresAt:     expiresAt,
		CreatedAt:     timeutil.Now(),
	}, nil
}

// IsExpired reports whether the session's own expiry has elapsed
func (s *CheckoutSession) IsExpired() bool {
	return s.ExpiresAt != nil && timeutil.Now().After(*s.ExpiresAt)
}

// Snapshot builds the theme snapshot for a session from the merchant's
// current checkout configuration. A merchant without theme tokens gets the
// stock checkout look, so no snapshot is taken.
func (c *CheckoutConfig) Snapshot() *ThemeSnapshot {
	if c == nil || len(c.ThemeTokens) == 0 {
		return nil
	}
	return &ThemeSnapshot{
		ThemeTokens: c.ThemeTokens,
		LogoURL:     c.LogoURL,
		Animations:  c.Animations,
	}
}
