package ports

import "context"

// Event names published by the services
const (
	EventChargeCreated        = "charge.created"
	EventChargePaymentIssued  = "charge.payment_issued"
	EventSettlementProcessing = "settlement.processing"
	EventSettlementCompleted  = "settlement.completed"
	EventSettlementFailed     = "settlement.failed"
	EventReconciliationDone   = "reconciliation.finished"
)

// MessagingPort publishes domain events, fire-and-forget with at-least-once
// delivery. Consumers must be idempotent.
type MessagingPort interface {
	Publish(ctx context.Context, eventName string, payload map[string]interface{}) error
}
