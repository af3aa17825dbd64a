package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/brpay/charge-service/pkg/timeutil"
)

// ChargeStatus represents the lifecycle state of a charge
type ChargeStatus string

const (
	ChargeStatusPending  ChargeStatus = "PENDING"
	ChargeStatusPaid     ChargeStatus = "PAID"
	ChargeStatusExpired  ChargeStatus = "EXPIRED"
	ChargeStatusCanceled ChargeStatus = "CANCELED"
)

// ChargeMethod represents the payment method bound to a charge
type ChargeMethod string

const (
	ChargeMethodUnset  ChargeMethod = ""
	ChargeMethodPix    ChargeMethod = "PIX"
	ChargeMethodBoleto ChargeMethod = "BOLETO"
	ChargeMethodCard   ChargeMethod = "CARD"
)

// PixData holds the payment instructions returned by the provider for a PIX charge
type PixData struct {
	QRCode    string `json:"qr_code"`
	CopyPaste string `json:"copy_paste"`
}

// BoletoData holds the payment instructions returned by the provider for a boleto charge
type BoletoData struct {
	BoletoURL string `json:"boleto_url"`
}

// Charge represents a single amount owed by a payer to a merchant.
//
// A Charge is a value type: lifecycle transitions return a new snapshot
// instead of mutating in place, so the orchestration layer stays the sole
// writer of record. At most one of Pix/Boleto is populated, and only after a
// successful issuance call for that method.
type Charge struct {
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	ExpiresAt      *time.Time             `json:"expires_at,omitempty"`
	Pix            *PixData               `json:"pix,omitempty"`
	Boleto         *BoletoData            `json:"boleto,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	ID             string                 `json:"id"`
	MerchantID     string                 `json:"merchant_id"`
	Currency       string                 `json:"currency"`
	Description    string                 `json:"description,omitempty"`
	ExternalRef    string                 `json:"external_ref,omitempty"`
	IdempotencyKey string                 `json:"idempotency_key"`
	Status         ChargeStatus           `json:"status"`
	Method         ChargeMethod           `json:"method,omitempty"`
	AmountCents    int64                  `json:"amount_cents"`
}

// NewChargeParams holds the inputs accepted when creating a charge
type NewChargeParams struct {
	ExpiresAt      *time.Time
	Metadata       map[string]interface{}
	MerchantID     string
	IdempotencyKey string
	Currency       string
	Description    string
	ExternalRef    string
	AmountCents    int64
}

// NewCharge constructs a pending charge, failing fast on invalid input
func NewCharge(p NewChargeParams) (Charge, error) {
	if p.AmountCents <= 0 {
		return Charge{}, NewDomainError(ErrorCodeValidationAmountInvalid, "amount must be greater than zero").WithDetail("amount_cents", p.AmountCents)
	}
	if p.MerchantID == "" {
		return Charge{}, NewDomainError(ErrorCodeValidationMissingField, "required field missing").WithDetail("field", "merchant_id")
	}
	if p.IdempotencyKey == "" {
		return Charge{}, NewDomainError(ErrorCodeValidationMissingField, "required field missing").WithDetail("field", "idempotency_key")
	}

	currency := p.Currency
	if currency == "" {
		currency = "BRL"
	}

	now := timeutil.Now()
	return Charge{
		ID:             uuid.New().String(),
		MerchantID:     p.MerchantID,
		AmountCents:    p.AmountCents,
		Currency:       currency,
		Status:         ChargeStatusPending,
		Method:         ChargeMethodUnset,
		Description:    p.Description,
		ExternalRef:    p.ExternalRef,
		IdempotencyKey: p.IdempotencyKey,
		ExpiresAt:      p.ExpiresAt,
		Metadata:       p.Metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// IsTerminal returns true once the charge can no longer change
func (c Charge) IsTerminal() bool {
	return c.Status == ChargeStatusPaid ||
		c.Status == ChargeStatusExpired ||
		c.Status == ChargeStatusCanceled
}

// WithMethod returns a snapshot with the payment method bound.
// Binding a method clears any previously attached payment instructions.
func (c Charge) WithMethod(method ChargeMethod) (Charge, error) {
	if c.IsTerminal() {
		return Charge{}, NewDomainError(ErrorCodeChargeImmutable, "charge is in a terminal state").
			WithDetail("status", string(c.Status))
	}
	c.Method = method
	c.Pix = nil
	c.Boleto = nil
	c.UpdatedAt = timeutil.Now()
	return c, nil
}

// WithPixData returns a snapshot carrying PIX payment instructions
func (c Charge) WithPixData(qrCode, copyPaste string) (Charge, error) {
	if c.IsTerminal() {
		return Charge{}, NewDomainError(ErrorCodeChargeImmutable, "charge is in a terminal state").
			WithDetail("status", string(c.Status))
	}
	c.Pix = &PixData{QRCode: qrCode, CopyPaste: copyPaste}
	c.Boleto = nil
	c.UpdatedAt = timeutil.Now()
	return c, nil
}

// WithBoletoData returns a snapshot carrying boleto payment instructions
func (c Charge) WithBoletoData(boletoURL string) (Charge, error) {
	if c.IsTerminal() {
		return Charge{}, NewDomainError(ErrorCodeChargeImmutable, "charge is in a terminal state").
			WithDetail("status", string(c.Status))
	}
	c.Boleto = &BoletoData{BoletoURL: boletoURL}
	c.Pix = nil
	c.UpdatedAt = timeutil.Now()
	return c, nil
}

// MarkPaid returns a snapshot in PAID status. Driven by payment-status
// webhooks, not by the issuance path.
func (c Charge) MarkPaid() (Charge, error) {
	if c.IsTerminal() {
		return Charge{}, NewDomainError(ErrorCodeInvalidStateTransition, "only pending charges can be paid").
			WithDetail("status", string(c.Status))
	}
	c.Status = ChargeStatusPaid
	c.UpdatedAt = timeutil.Now()
	return c, nil
}

// MarkExpired returns a snapshot in EXPIRED status
func (c Charge) MarkExpired() (Charge, error) {
	if c.IsTerminal() {
		return Charge{}, NewDomainError(ErrorCodeInvalidStateTransition, "only pending charges can expire").
			WithDetail("status", string(c.Status))
	}
	c.Status = ChargeStatusExpired
	c.UpdatedAt = timeutil.Now()
	return c, nil
}

// Cancel returns a snapshot in CANCELED status
func (c Charge) Cancel() (Charge, error) {
	if c.IsTerminal() {
		return Charge{}, NewDomainError(ErrorCodeInvalidStateTransition, "only pending charges can be canceled").
			WithDetail("status", string(c.Status))
	}
	c.Status = ChargeStatusCanceled
	c.UpdatedAt = timeutil.Now()
	return c, nil
}
