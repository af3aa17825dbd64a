package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	err := NewDomainError(ErrorCodeChargeNotFound, "charge not found")
	assert.Equal(t, "CHARGE_NOT_FOUND: charge not found", err.Error())

	wrapped := WrapError(ErrorCodeDatabaseError, "query failed", errors.New("connection reset"))
	assert.Equal(t, "INTERNAL_DATABASE_ERROR: query failed: connection reset", wrapped.Error())
}

func TestDomainError_Unwrap(t *testing.T) {
	inner := errors.New("connection reset")
	wrapped := WrapError(ErrorCodeDatabaseError, "query failed", inner)

	assert.True(t, errors.Is(wrapped, inner))
	assert.True(t, errors.Is(fmt.Errorf("outer: %w", wrapped), inner))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrorCodeChargeNotFound, GetErrorCode(ErrChargeNotFound))
	assert.Equal(t, ErrorCodeChargeNotFound, GetErrorCode(fmt.Errorf("lookup: %w", ErrChargeNotFound)))
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), GetErrorCode(nil))
}

func TestErrorClassifiers(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		validation bool
		notFound   bool
		state      bool
		provider   bool
		conflict   bool
	}{
		{"amount validation", ErrValidationAmountInvalid, true, false, false, false, false},
		{"date range validation", ErrValidationDateRange, true, false, false, false, false},
		{"charge not found", ErrChargeNotFound, false, true, false, false, false},
		{"settlement not found", ErrSettlementNotFound, false, true, false, false, false},
		{"invalid transition", NewDomainError(ErrorCodeInvalidStateTransition, "no"), false, false, true, false, false},
		{"immutable charge", NewDomainError(ErrorCodeChargeImmutable, "no"), false, false, true, false, false},
		{"provider error", ErrProviderUnavailable, false, false, false, true, false},
		{"provider timeout", ErrProviderTimedOut, false, false, false, true, false},
		{"idempotency conflict", ErrIdempotencyConflict, false, false, false, false, true},
		{"plain error", errors.New("plain"), false, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.validation, IsValidationError(tt.err))
			assert.Equal(t, tt.notFound, IsNotFoundError(tt.err))
			assert.Equal(t, tt.state, IsInvalidStateError(tt.err))
			assert.Equal(t, tt.provider, IsProviderError(tt.err))
			assert.Equal(t, tt.conflict, IsConflictError(tt.err))
		})
	}
}

func TestWithDetail(t *testing.T) {
	err := NewDomainError(ErrorCodeValidationFailed, "bad input").
		WithDetail("field", "amount_cents").
		WithDetail("value", int64(-1))

	assert.Equal(t, "amount_cents", err.Details["field"])
	assert.Equal(t, int64(-1), err.Details["value"])
}

func TestWithDetail_LeavesSentinelsClean(t *testing.T) {
	derived := ErrChargeNotFound.WithDetail("charge_id", "charge-1")

	assert.Equal(t, "charge-1", derived.Details["charge_id"])
	assert.Equal(t, ErrorCodeChargeNotFound, derived.Code)
	assert.NotSame(t, ErrChargeNotFound, derived)
	assert.Empty(t, ErrChargeNotFound.Details)
}
