package ports

import (
	"context"
	"time"
)

// IssueChargeRequest carries the inputs for issuing payment instructions
type IssueChargeRequest struct {
	ExpiresAt   *time.Time
	MerchantID  string
	ChargeID    string
	Description string
	AmountCents int64
}

// PixChargeData is the instrument returned by the provider for a PIX charge
type PixChargeData struct {
	QRCode    string
	CopyPaste string
}

// BoletoChargeData is the instrument returned by the provider for a boleto charge
type BoletoChargeData struct {
	BoletoURL string
}

// PaymentProvider is the capability interface for an external payment-network
// integration. Implementations must be safe for concurrent use by multiple
// in-flight charges. Whether a reissue for the same charge deduplicates on
// the provider side depends on the provider honoring the forwarded charge id
// as a reference.
type PaymentProvider interface {
	// IssuePixCharge requests a QR code and copy-paste string for the amount
	IssuePixCharge(ctx context.Context, req IssueChargeRequest) (*PixChargeData, error)

	// IssueBoletoCharge requests a printable boleto URL for the amount
	IssueBoletoCharge(ctx context.Context, req IssueChargeRequest) (*BoletoChargeData, error)

	// GetBalance returns the available merchant balance in cents
	GetBalance(ctx context.Context, merchantID string) (int64, error)
}
