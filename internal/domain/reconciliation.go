package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/brpay/charge-service/pkg/timeutil"
)

// ReconciliationStatus represents the lifecycle state of a reconciliation run
type ReconciliationStatus string

const (
	ReconciliationStatusPending    ReconciliationStatus = "PENDING"
	ReconciliationStatusProcessing ReconciliationStatus = "PROCESSING"
	ReconciliationStatusCompleted  ReconciliationStatus = "COMPLETED"
	ReconciliationStatusFailed     ReconciliationStatus = "FAILED"
	ReconciliationStatusPartial    ReconciliationStatus = "PARTIAL"
)

// ReconciliationType distinguishes scheduler-driven runs from operator-driven ones
type ReconciliationType string

const (
	ReconciliationTypeAutomatic ReconciliationType = "AUTOMATIC"
	ReconciliationTypeManual    ReconciliationType = "MANUAL"
)

// ReconciliationMatch records one charge matched to one provider transaction
type ReconciliationMatch struct {
	MatchedAt     time.Time `json:"matched_at"`
	ChargeID      string    `json:"charge_id"`
	TransactionID string    `json:"transaction_id"`
	AmountCents   int64     `json:"amount_cents"`
}

// Reconciliation represents one merchant's matching run over a date range.
//
// Matches and the unmatched sets may only be mutated while the run is
// PROCESSING. MatchedAmountCents is a running counter kept in lock-step with
// the match list by AddMatch; it is authoritative and never recomputed.
type Reconciliation struct {
	CreatedAt             time.Time              `json:"created_at"`
	UpdatedAt             time.Time              `json:"updated_at"`
	StartDate             time.Time              `json:"start_date"`
	EndDate               time.Time              `json:"end_date"`
	ProcessedAt           *time.Time             `json:"processed_at,omitempty"`
	Metadata              map[string]interface{} `json:"metadata,omitempty"`
	Matches               []ReconciliationMatch  `json:"matches"`
	UnmatchedCharges      []string               `json:"unmatched_charges"`
	UnmatchedTransactions []string               `json:"unmatched_transactions"`
	ID                    string                 `json:"id"`
	MerchantID            string                 `json:"merchant_id"`
	FailureReason         string                 `json:"failure_reason,omitempty"`
	Type                  ReconciliationType     `json:"type"`
	Status                ReconciliationStatus   `json:"status"`
	TotalAmountCents      int64                  `json:"total_amount_cents"`
	MatchedAmountCents    int64                  `json:"matched_amount_cents"`
}

// NewReconciliation constructs a pending run, failing fast on an inverted
// date range. The window is widened to whole days, so a run for
// [Aug 1, Aug 31] covers midnight through end of day regardless of the
// time-of-day the caller supplied.
func NewReconciliation(merchantID string, recType ReconciliationType, startDate, endDate time.Time) (*Reconciliation, error) {
	if merchantID == "" {
		return nil, NewDomainError(ErrorCodeValidationMissingField, "required field missing").WithDetail("field", "merchant_id")
	}
	startDate = timeutil.StartOfDay(startDate)
	endDate = timeutil.EndOfDay(endDate)
	if endDate.Before(startDate) {
		return nil, NewDomainError(ErrorCodeValidationDateRange, "end date must not be before start date").
			WithDetail("start_date", startDate).
			WithDetail("end_date", endDate)
	}

	now := timeutil.Now()
	return &Reconciliation{
		ID:         uuid.New().String(),
		MerchantID: merchantID,
		Type:       recType,
		Status:     ReconciliationStatusPending,
		StartDate:  startDate,
		EndDate:    endDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// StartProcessing moves the run to PROCESSING and records the total amount
// that the window is reconciled against
func (r *Reconciliation) StartProcessing(totalAmountCents int64) error {
	if r.Status != ReconciliationStatusPending {
		return NewDomainError(ErrorCodeInvalidStateTransition, "only pending reconciliations can start processing").
			WithDetail("status", string(r.Status))
	}
	r.Status = ReconciliationStatusProcessing
	r.TotalAmountCents = totalAmountCents
	r.UpdatedAt = timeutil.Now()
	return nil
}

// AddMatch appends a charge/transaction correspondence and increments the
// running matched amount
func (r *Reconciliation) AddMatch(chargeID string, amountCents int64, transactionID string) error {
	if r.Status != ReconciliationStatusProcessing {
		return NewDomainError(ErrorCodeInvalidStateTransition, "matches can only be added during processing").
			WithDetail("status", string(r.Status))
	}
	r.Matches = append(r.Matches, ReconciliationMatch{
		ChargeID:      chargeID,
		AmountCents:   amountCents,
		TransactionID: transactionID,
		MatchedAt:     timeutil.Now(),
	})
	r.MatchedAmountCents += amountCents
	r.UpdatedAt = timeutil.Now()
	return nil
}

// AddUnmatchedCharge records a charge with no provider-side counterpart.
// Duplicate additions are no-ops.
func (r *Reconciliation) AddUnmatchedCharge(chargeID string) error {
	if r.Status != ReconciliationStatusProcessing {
		return NewDomainError(ErrorCodeInvalidStateTransition, "unmatched charges can only be added during processing").
			WithDetail("status", string(r.Status))
	}
	for _, id := range r.UnmatchedCharges {
		if id == chargeID {
			return nil
		}
	}
	r.UnmatchedCharges = append(r.UnmatchedCharges, chargeID)
	r.UpdatedAt = timeutil.Now()
	return nil
}

// AddUnmatchedTransaction records a provider transaction with no internal
// counterpart. Duplicate additions are no-ops.
func (r *Reconciliation) AddUnmatchedTransaction(transactionID string) error {
	if r.Status != ReconciliationStatusProcessing {
		return NewDomainError(ErrorCodeInvalidStateTransition, "unmatched transactions can only be added during processing").
			WithDetail("status", string(r.Status))
	}
	for _, id := range r.UnmatchedTransactions {
		if id == transactionID {
			return nil
		}
	}
	r.UnmatchedTransactions = append(r.UnmatchedTransactions, transactionID)
	r.UpdatedAt = timeutil.Now()
	return nil
}

// Complete finishes the run: PARTIAL if any unmatched entry remains,
// COMPLETED otherwise. There is no threshold-based completion.
func (r *Reconciliation) Complete() error {
	if r.Status != ReconciliationStatusProcessing {
		return NewDomainError(ErrorCodeInvalidStateTransition, "only processing reconciliations can be completed").
			WithDetail("status", string(r.Status))
	}
	if len(r.UnmatchedCharges) > 0 || len(r.UnmatchedTransactions) > 0 {
		r.Status = ReconciliationStatusPartial
	} else {
		r.Status = ReconciliationStatusCompleted
	}
	now := timeutil.Now()
	r.ProcessedAt = &now
	r.UpdatedAt = now
	return nil
}

// Fail aborts the run. Partially matched data is retained as recorded.
func (r *Reconciliation) Fail(failureReason string) error {
	if r.Status != ReconciliationStatusProcessing {
		return NewDomainError(ErrorCodeInvalidStateTransition, "only processing reconciliations can fail").
			WithDetail("status", string(r.Status))
	}
	r.Status = ReconciliationStatusFailed
	r.FailureReason = failureReason
	r.UpdatedAt = timeutil.Now()
	return nil
}

// MatchRate returns matched amount over total as a percentage, 0 when the
// total is 0
func (r *Reconciliation) MatchRate() float64 {
	if r.TotalAmountCents == 0 {
		return 0
	}
	return float64(r.MatchedAmountCents) / float64(r.TotalAmountCents) * 100
}

// IsTerminal returns true once the run can no longer change
func (r *Reconciliation) IsTerminal() bool {
	return r.Status == ReconciliationStatusCompleted ||
		r.Status == ReconciliationStatusFailed ||
		r.Status == ReconciliationStatusPartial
}
