package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/brpay/charge-service/internal/domain"
	settlementsvc "github.com/brpay/charge-service/internal/services/settlement"
)

// SettlementHandler serves settlement lifecycle endpoints
type SettlementHandler struct {
	settlements *settlementsvc.Service
}

// NewSettlementHandler creates a settlement handler
func NewSettlementHandler(settlements *settlementsvc.Service) *SettlementHandler {
	return &SettlementHandler{settlements: settlements}
}

type createSettlementInput struct {
	MerchantID  string `json:"merchant_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// Create handles POST /api/v1/settlements
func (h *SettlementHandler) Create(c *fiber.Ctx) error {
	var input createSettlementInput
	if err := c.BodyParser(&input); err != nil {
		return respondBadRequest(c, "invalid request body")
	}

	stl, err := h.settlements.Create(c.Context(), input.MerchantID, input.AmountCents, input.Currency)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(stl)
}

type scheduleSettlementInput struct {
	ScheduledFor  time.Time `json:"scheduled_for"`
	BankAccountID string    `json:"bank_account_id"`
}

// Schedule handles POST /api/v1/settlements/:id/schedule. The target time
// must be in the future and a bank account is required.
func (h *SettlementHandler) Schedule(c *fiber.Ctx) error {
	var input scheduleSettlementInput
	if err := c.BodyParser(&input); err != nil {
		return respondBadRequest(c, "invalid request body")
	}

	stl, err := h.settlements.Schedule(c.Context(), c.Params("id"), input.ScheduledFor, input.BankAccountID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stl)
}

type completeSettlementInput struct {
	TransactionID string `json:"transaction_id"`
}

// Complete handles POST /api/v1/settlements/:id/complete, called by the
// payout executor once the bank transfer clears
func (h *SettlementHandler) Complete(c *fiber.Ctx) error {
	var input completeSettlementInput
	if err := c.BodyParser(&input); err != nil {
		return respondBadRequest(c, "invalid request body")
	}

	stl, err := h.settlements.Complete(c.Context(), c.Params("id"), input.TransactionID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stl)
}

type failSettlementInput struct {
	Reason string `json:"reason"`
}

// Fail handles POST /api/v1/settlements/:id/fail
func (h *SettlementHandler) Fail(c *fiber.Ctx) error {
	var input failSettlementInput
	if err := c.BodyParser(&input); err != nil {
		return respondBadRequest(c, "invalid request body")
	}

	stl, err := h.settlements.Fail(c.Context(), c.Params("id"), input.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stl)
}

// Cancel handles POST /api/v1/settlements/:id/cancel
func (h *SettlementHandler) Cancel(c *fiber.Ctx) error {
	stl, err := h.settlements.Cancel(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stl)
}

// Get handles GET /api/v1/settlements/:id
func (h *SettlementHandler) Get(c *fiber.Ctx) error {
	stl, err := h.settlements.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stl)
}

// List handles GET /api/v1/settlements?merchant_id=...&status=...
func (h *SettlementHandler) List(c *fiber.Ctx) error {
	merchantID := c.Query("merchant_id")
	if merchantID == "" {
		return respondBadRequest(c, "merchant_id is required")
	}

	var status *domain.SettlementStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.SettlementStatus(raw)
		status = &s
	}

	settlements, err := h.settlements.ListByMerchant(c.Context(), merchantID, status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"settlements": settlements})
}
