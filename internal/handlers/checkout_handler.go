package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	checkoutsvc "github.com/brpay/charge-service/internal/services/checkout"
)

// CheckoutHandler serves hosted checkout session endpoints
type CheckoutHandler struct {
	checkout *checkoutsvc.Service
}

// NewCheckoutHandler creates a checkout handler
func NewCheckoutHandler(checkout *checkoutsvc.Service) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type createSessionInput struct {
	MerchantID     string                 `json:"merchant_id"`
	IdempotencyKey string                 `json:"idempotency_key"`
	AmountCents    int64                  `json:"amount_cents"`
	Currency       string                 `json:"currency"`
	Description    string                 `json:"description"`
	ExternalRef    string                 `json:"external_ref"`
	ReturnURL      string                 `json:"return_url"`
	CancelURL      string                 `json:"cancel_url"`
	ExpiresAt      *time.Time             `json:"expires_at"`
	Metadata       map[string]interface{} `json:"metadata"`
}

// CreateSession handles POST /api/v1/checkout/sessions. The session wraps a
// freshly created (or idempotently reused) charge plus the merchant's theme
// snapshot at creation time.
func (h *CheckoutHandler) CreateSession(c *fiber.Ctx) error {
	var input createSessionInput
	if err := c.BodyParser(&input); err != nil {
		return respondBadRequest(c, "invalid request body")
	}

	result, err := h.checkout.CreateSession(c.Context(), checkoutsvc.CreateSessionRequest{
		MerchantID:     input.MerchantID,
		IdempotencyKey: input.IdempotencyKey,
		AmountCents:    input.AmountCents,
		Currency:       input.Currency,
		Description:    input.Description,
		ExternalRef:    input.ExternalRef,
		ReturnURL:      input.ReturnURL,
		CancelURL:      input.CancelURL,
		ExpiresAt:      input.ExpiresAt,
		Metadata:       input.Metadata,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"session": result.Session,
		"charge":  result.Charge,
	})
}

// GetSession handles GET /api/v1/checkout/sessions/:id
func (h *CheckoutHandler) GetSession(c *fiber.Ctx) error {
	session, err := h.checkout.GetSession(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(session)
}
