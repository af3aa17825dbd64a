// Package tupi implements the payment provider port against the Tupi PSP
// REST API, which issues PIX and boleto charges for Brazilian merchants.
package tupi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brpay/charge-service/internal/domain"
	"github.com/brpay/charge-service/internal/domain/ports"
	"github.com/brpay/charge-service/pkg/observability"
)

// Config holds Tupi API credentials
type Config struct {
	BaseURL string // e.g. https://api.tupi.com.br
	APIKey  string // secret key, sent as a bearer token
}

// Adapter implements ports.PaymentProvider for the Tupi API
type Adapter struct {
	config     Config
	httpClient ports.HTTPClient
	logger     ports.Logger
}

// NewAdapter creates a new Tupi adapter with dependency injection
func NewAdapter(config Config, httpClient ports.HTTPClient, logger ports.Logger) *Adapter {
	return &Adapter{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
	}
}

// NewAdapterWithDefaults creates a new Tupi adapter with a default HTTP client
func NewAdapterWithDefaults(config Config, logger ports.Logger) *Adapter {
	return &Adapter{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// chargeRequest is the request body for both PIX and boleto issuance.
// Amount is in currency units; Reference carries our charge id so the
// provider can deduplicate reissues when it supports it.
type chargeRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	MerchantID  string          `json:"merchant_id"`
	Reference   string          `json:"reference"`
	Description string          `json:"description,omitempty"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
}

type pixChargeResponse struct {
	QRCode    string `json:"qr_code"`
	CopyPaste string `json:"copy_paste"`
}

type boletoChargeResponse struct {
	BoletoURL string `json:"boleto_url"`
}

type balanceResponse struct {
	AvailableCents int64 `json:"available_cents"`
}

// IssuePixCharge requests a QR code and copy-paste string for the amount
func (a *Adapter) IssuePixCharge(ctx context.Context, req ports.IssueChargeRequest) (*ports.PixChargeData, error) {
	var resp pixChargeResponse
	if err := a.makeRequest(ctx, http.MethodPost, "/v1/pix/charges", "issue_pix", a.toChargeRequest(req), &resp); err != nil {
		return nil, err
	}
	return &ports.PixChargeData{QRCode: resp.QRCode, CopyPaste: resp.CopyPaste}, nil
}

// IssueBoletoCharge requests a printable boleto URL for the amount
func (a *Adapter) IssueBoletoCharge(ctx context.Context, req ports.IssueChargeRequest) (*ports.BoletoChargeData, error) {
	var resp boletoChargeResponse
	if err := a.makeRequest(ctx, http.MethodPost, "/v1/boleto/charges", "issue_boleto", a.toChargeRequest(req), &resp); err != nil {
		return nil, err
	}
	return &ports.BoletoChargeData{BoletoURL: resp.BoletoURL}, nil
}

// GetBalance returns the available merchant balance in cents
func (a *Adapter) GetBalance(ctx context.Context, merchantID string) (int64, error) {
	var resp balanceResponse
	endpoint := fmt.Sprintf("/v1/merchants/%s/balance", merchantID)
	if err := a.makeRequest(ctx, http.MethodGet, endpoint, "get_balance", nil, &resp); err != nil {
		return 0, err
	}
	return resp.AvailableCents, nil
}

func (a *Adapter) toChargeRequest(req ports.IssueChargeRequest) chargeRequest {
	return chargeRequest{
		Amount:      decimal.NewFromInt(req.AmountCents).Div(decimal.NewFromInt(100)),
		MerchantID:  req.MerchantID,
		Reference:   req.ChargeID,
		Description: req.Description,
		ExpiresAt:   req.ExpiresAt,
	}
}

func (a *Adapter) makeRequest(ctx context.Context, method, endpoint, operation string, request interface{}, response interface{}) error {
	start := time.Now()
	err := a.doRequest(ctx, method, endpoint, request, response)
	observability.ProviderRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.ProviderRequestsTotal.WithLabelValues(operation, outcome).Inc()
	return err
}

func (a *Adapter) doRequest(ctx context.Context, method, endpoint string, request interface{}, response interface{}) error {
	var body io.Reader
	if request != nil {
		payload, err := json.Marshal(request)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)

	if a.logger != nil {
		a.logger.Debug("calling payment provider",
			ports.String("method", method),
			ports.String("endpoint", endpoint))
	}

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || (ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded)) {
			return domain.WrapError(domain.ErrorCodeProviderTimeout, "provider request timed out", err)
		}
		return domain.WrapError(domain.ErrorCodeProviderError, "failed to reach payment provider", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeProviderError, "failed to read provider response", err)
	}

	if httpResp.StatusCode >= 500 {
		return domain.NewDomainError(domain.ErrorCodeProviderError, "payment provider error").
			WithDetail("status", httpResp.StatusCode)
	}
	if httpResp.StatusCode >= 400 {
		return domain.NewDomainError(domain.ErrorCodeProviderRejected, "payment provider rejected the request").
			WithDetail("status", httpResp.StatusCode).
			WithDetail("body", string(respBody))
	}

	if err := json.Unmarshal(respBody, response); err != nil {
		return domain.WrapError(domain.ErrorCodeProviderError, "invalid provider response", err)
	}
	return nil
}

var _ ports.PaymentProvider = (*Adapter)(nil)
