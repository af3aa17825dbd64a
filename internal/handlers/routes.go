package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes wires all handlers under /api/v1
func RegisterRoutes(
	app *fiber.App,
	charges *ChargeHandler,
	checkout *CheckoutHandler,
	settlements *SettlementHandler,
	reconciliations *ReconciliationHandler,
) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1")

	chargeRoutes := v1.Group("/charges")
	chargeRoutes.Post("/", charges.Create)
	chargeRoutes.Get("/:id", charges.Get)
	chargeRoutes.Post("/:id/payment", charges.IssuePayment)
	chargeRoutes.Post("/:id/paid", charges.MarkPaid)
	chargeRoutes.Post("/:id/expire", charges.MarkExpired)
	chargeRoutes.Post("/:id/cancel", charges.Cancel)

	checkoutRoutes := v1.Group("/checkout")
	checkoutRoutes.Post("/sessions", checkout.CreateSession)
	checkoutRoutes.Get("/sessions/:id", checkout.GetSession)

	settlementRoutes := v1.Group("/settlements")
	settlementRoutes.Post("/", settlements.Create)
	settlementRoutes.Get("/", settlements.List)
	settlementRoutes.Get("/:id", settlements.Get)
	settlementRoutes.Post("/:id/schedule", settlements.Schedule)
	settlementRoutes.Post("/:id/complete", settlements.Complete)
	settlementRoutes.Post("/:id/fail", settlements.Fail)
	settlementRoutes.Post("/:id/cancel", settlements.Cancel)

	reconciliationRoutes := v1.Group("/reconciliations")
	reconciliationRoutes.Post("/", reconciliations.Create)
	reconciliationRoutes.Get("/", reconciliations.List)
	reconciliationRoutes.Get("/:id", reconciliations.Get)
	reconciliationRoutes.Post("/:id/run", reconciliations.Run)
}
