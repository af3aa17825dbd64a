package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/brpay/charge-service/internal/domain"
	reconciliationsvc "github.com/brpay/charge-service/internal/services/reconciliation"
)

// ReconciliationHandler serves reconciliation run endpoints
type ReconciliationHandler struct {
	reconciliations *reconciliationsvc.Service
}

// NewReconciliationHandler creates a reconciliation handler
func NewReconciliationHandler(reconciliations *reconciliationsvc.Service) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliations: reconciliations}
}

type createReconciliationInput struct {
	MerchantID string    `json:"merchant_id"`
	Type       string    `json:"type"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
}

// Create handles POST /api/v1/reconciliations
func (h *ReconciliationHandler) Create(c *fiber.Ctx) error {
	var input createReconciliationInput
	if err := c.BodyParser(&input); err != nil {
		return respondBadRequest(c, "invalid request body")
	}

	recType := domain.ReconciliationType(input.Type)
	if recType == "" {
		recType = domain.ReconciliationTypeAutomatic
	}

	rec, err := h.reconciliations.Create(c.Context(), input.MerchantID, recType, input.StartDate, input.EndDate)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

type externalTransactionInput struct {
	ID          string `json:"id"`
	Reference   string `json:"reference"`
	AmountCents int64  `json:"amount_cents"`
}

type runReconciliationInput struct {
	Transactions []externalTransactionInput `json:"transactions"`
}

// Run handles POST /api/v1/reconciliations/:id/run. The caller supplies the
// provider-side transaction statement for the window; charges are loaded
// from our own records.
func (h *ReconciliationHandler) Run(c *fiber.Ctx) error {
	var input runReconciliationInput
	if err := c.BodyParser(&input); err != nil {
		return respondBadRequest(c, "invalid request body")
	}

	transactions := make([]reconciliationsvc.ExternalTransaction, len(input.Transactions))
	for i, t := range input.Transactions {
		transactions[i] = reconciliationsvc.ExternalTransaction{
			ID:          t.ID,
			Reference:   t.Reference,
			AmountCents: t.AmountCents,
		}
	}

	rec, err := h.reconciliations.Run(c.Context(), c.Params("id"), transactions)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rec)
}

// Get handles GET /api/v1/reconciliations/:id
func (h *ReconciliationHandler) Get(c *fiber.Ctx) error {
	rec, err := h.reconciliations.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rec)
}

// List handles GET /api/v1/reconciliations?merchant_id=...&status=...
func (h *ReconciliationHandler) List(c *fiber.Ctx) error {
	merchantID := c.Query("merchant_id")
	if merchantID == "" {
		return respondBadRequest(c, "merchant_id is required")
	}

	var status *domain.ReconciliationStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.ReconciliationStatus(raw)
		status = &s
	}

	recs, err := h.reconciliations.ListByMerchant(c.Context(), merchantID, status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"reconciliations": recs})
}
