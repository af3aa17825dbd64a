package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/brpay/charge-service/internal/domain"
	chargesvc "github.com/brpay/charge-service/internal/services/charge"
)

// ChargeHandler serves the charge lifecycle endpoints
type ChargeHandler struct {
	charges *chargesvc.Service
}

// NewChargeHandler creates a charge handler
func NewChargeHandler(charges *chargesvc.Service) *ChargeHandler {
	return &ChargeHandler{charges: charges}
}

type createChargeInput struct {
	MerchantID     string                 `json:"merchant_id"`
	IdempotencyKey string                 `json:"idempotency_key"`
	AmountCents    int64                  `json:"amount_cents"`
	Currency       string                 `json:"currency"`
	Description    string                 `json:"description"`
	ExternalRef    string                 `json:"external_ref"`
	ExpiresAt      *time.Time             `json:"expires_at"`
	Metadata       map[string]interface{} `json:"metadata"`
}

// Create handles POST /api/v1/charges. Repeating a request with the same
// merchant and idempotency key returns the originally created charge.
func (h *ChargeHandler) Create(c *fiber.Ctx) error {
	var input createChargeInput
	if err := c.BodyParser(&input); err != nil {
		return respondBadRequest(c, "invalid request body")
	}

	charge, err := h.charges.CreateCharge(c.Context(), nil, chargesvc.CreateChargeRequest{
		MerchantID:     input.MerchantID,
		IdempotencyKey: input.IdempotencyKey,
		AmountCents:    input.AmountCents,
		Currency:       input.Currency,
		Description:    input.Description,
		ExternalRef:    input.ExternalRef,
		ExpiresAt:      input.ExpiresAt,
		Metadata:       input.Metadata,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(charge)
}

// Get handles GET /api/v1/charges/:id
func (h *ChargeHandler) Get(c *fiber.Ctx) error {
	charge, err := h.charges.GetCharge(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(charge)
}

type issuePaymentInput struct {
	Method string `json:"method"`
}

// IssuePayment handles POST /api/v1/charges/:id/payment. It binds the
// requested method and, for PIX and boleto, fills in the provider payload.
func (h *ChargeHandler) IssuePayment(c *fiber.Ctx) error {
	var input issuePaymentInput
	if err := c.BodyParser(&input); err != nil {
		return respondBadRequest(c, "invalid request body")
	}
	if input.Method == "" {
		return respondBadRequest(c, "method is required")
	}

	charge, err := h.charges.IssuePayment(c.Context(), c.Params("id"), domain.ChargeMethod(input.Method))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(charge)
}

// MarkPaid handles POST /api/v1/charges/:id/paid
func (h *ChargeHandler) MarkPaid(c *fiber.Ctx) error {
	charge, err := h.charges.MarkPaid(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(charge)
}

// MarkExpired handles POST /api/v1/charges/:id/expire
func (h *ChargeHandler) MarkExpired(c *fiber.Ctx) error {
	charge, err := h.charges.MarkExpired(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(charge)
}

// Cancel handles POST /api/v1/charges/:id/cancel
func (h *ChargeHandler) Cancel(c *fiber.Ctx) error {
	charge, err := h.charges.Cancel(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(charge)
}
