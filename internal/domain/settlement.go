package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/brpay/charge-service/pkg/timeutil"
)

// SettlementStatus represents the lifecycle state of a settlement
type SettlementStatus string

const (
	SettlementStatusPending    SettlementStatus = "PENDING"
	SettlementStatusScheduled  SettlementStatus = "SCHEDULED"
	SettlementStatusProcessing SettlementStatus = "PROCESSING"
	SettlementStatusCompleted  SettlementStatus = "COMPLETED"
	SettlementStatusFailed     SettlementStatus = "FAILED"
	SettlementStatusCanceled   SettlementStatus = "CANCELED"
)

// Settlement represents a scheduled payout of merchant funds to a bank account.
//
// BankAccountID is set only together with scheduling and TransactionID only on
// completion. A completed settlement can never be canceled.
type Settlement struct {
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
	ScheduledFor  *time.Time             `json:"scheduled_for,omitempty"`
	ProcessedAt   *time.Time             `json:"processed_at,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	ID            string                 `json:"id"`
	MerchantID    string                 `json:"merchant_id"`
	Currency      string                 `json:"currency"`
	BankAccountID string                 `json:"bank_account_id,omitempty"`
	TransactionID string                 `json:"transaction_id,omitempty"`
	FailureReason string                 `json:"failure_reason,omitempty"`
	Status        SettlementStatus       `json:"status"`
	AmountCents   int64                  `json:"amount_cents"`
}

// NewSettlement constructs a pending settlement, failing fast on invalid input
func NewSettlement(merchantID string, amountCents int64, currency string) (*Settlement, error) {
	if amountCents <= 0 {
		return nil, NewDomainError(ErrorCodeValidationAmountInvalid, "amount must be greater than zero").WithDetail("amount_cents", amountCents)
	}
	if merchantID == "" {
		return nil, NewDomainError(ErrorCodeValidationMissingField, "required field missing").WithDetail("field", "merchant_id")
	}
	if currency == "" {
		currency = "BRL"
	}

	now := timeutil.Now()
	return &Settlement{
		ID:          uuid.New().String(),
		MerchantID:  merchantID,
		AmountCents: amountCents,
		Currency:    currency,
		Status:      SettlementStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Schedule books the settlement for a future payout to the given bank account
func (s *Settlement) Schedule(scheduledFor time.Time, bankAccountID string) error {
	if s.Status != SettlementStatusPending {
		return NewDomainError(ErrorCodeInvalidStateTransition, "only pending settlements can be scheduled").
			WithDetail("status", string(s.Status))
	}
	if !scheduledFor.After(timeutil.Now()) {
		return NewDomainError(ErrorCodeValidationFailed, "scheduled date must be in the future")
	}
	if bankAccountID == "" {
		return NewDomainError(ErrorCodeValidationMissingField, "required field missing").WithDetail("field", "bank_account_id")
	}
	s.Status = SettlementStatusScheduled
	s.ScheduledFor = &scheduledFor
	s.BankAccountID = bankAccountID
	s.UpdatedAt = timeutil.Now()
	return nil
}

// StartProcessing begins the payout. PENDING is allowed alongside SCHEDULED to
// support on-demand settlement without prior scheduling.
func (s *Settlement) StartProcessing() error {
	if s.Status != SettlementStatusScheduled && s.Status != SettlementStatusPending {
		return NewDomainError(ErrorCodeInvalidStateTransition, "only scheduled or pending settlements can be processed").
			WithDetail("status", string(s.Status))
	}
	s.Status = SettlementStatusProcessing
	s.UpdatedAt = timeutil.Now()
	return nil
}

// Complete records a successful payout with the bank transfer id
func (s *Settlement) Complete(transactionID string) error {
	if s.Status != SettlementStatusProcessing {
		return NewDomainError(ErrorCodeInvalidStateTransition, "only processing settlements can be completed").
			WithDetail("status", string(s.Status))
	}
	now := timeutil.Now()
	s.Status = SettlementStatusCompleted
	s.TransactionID = transactionID
	s.ProcessedAt = &now
	s.UpdatedAt = now
	return nil
}

// Fail records a payout failure with the reason reported by the bank
func (s *Settlement) Fail(failureReason string) error {
	if s.Status != SettlementStatusProcessing {
		return NewDomainError(ErrorCodeInvalidStateTransition, "only processing settlements can fail").
			WithDetail("status", string(s.Status))
	}
	s.Status = SettlementStatusFailed
	s.FailureReason = failureReason
	s.UpdatedAt = timeutil.Now()
	return nil
}

// Cancel aborts the settlement; legal from any state except COMPLETED
func (s *Settlement) Cancel() error {
	if s.Status == SettlementStatusCompleted {
		return NewDomainError(ErrorCodeInvalidStateTransition, "cannot cancel a completed settlement")
	}
	s.Status = SettlementStatusCanceled
	s.UpdatedAt = timeutil.Now()
	return nil
}

// CanBeProcessed returns true while the settlement is still processable
func (s *Settlement) CanBeProcessed() bool {
	return s.Status == SettlementStatusScheduled || s.Status == SettlementStatusPending
}

// IsDue returns true when the settlement should be picked up by the payout
// poller: pending with no schedule, or scheduled for a time that has elapsed.
func (s *Settlement) IsDue() bool {
	if s.ScheduledFor == nil {
		return s.Status == SettlementStatusPending
	}
	return !timeutil.Now().Before(*s.ScheduledFor) && s.CanBeProcessed()
}
