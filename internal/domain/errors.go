package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Validation Errors (VALIDATION_*)
	ErrorCodeValidationFailed        ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationAmountInvalid ErrorCode = "VALIDATION_AMOUNT_INVALID"
	ErrorCodeValidationDateRange     ErrorCode = "VALIDATION_DATE_RANGE_INVALID"
	ErrorCodeValidationMissingField  ErrorCode = "VALIDATION_MISSING_FIELD"

	// Not Found Errors (*_NOT_FOUND)
	ErrorCodeChargeNotFound         ErrorCode = "CHARGE_NOT_FOUND"
	ErrorCodeSettlementNotFound     ErrorCode = "SETTLEMENT_NOT_FOUND"
	ErrorCodeReconciliationNotFound ErrorCode = "RECONCILIATION_NOT_FOUND"
	ErrorCodeSessionNotFound        ErrorCode = "SESSION_NOT_FOUND"

	// State Transition Errors (STATE_*)
	ErrorCodeInvalidStateTransition ErrorCode = "STATE_INVALID_TRANSITION"
	ErrorCodeChargeImmutable        ErrorCode = "STATE_CHARGE_IMMUTABLE"

	// Payment Provider Errors (PROVIDER_*)
	ErrorCodeProviderError    ErrorCode = "PROVIDER_ERROR"
	ErrorCodeProviderTimeout  ErrorCode = "PROVIDER_TIMEOUT"
	ErrorCodeProviderRejected ErrorCode = "PROVIDER_REJECTED"

	// Idempotency Errors (IDEMPOTENCY_*)
	ErrorCodeIdempotencyConflict ErrorCode = "IDEMPOTENCY_CONFLICT"

	// Internal Errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail returns a copy of the error with the detail added. The receiver
// is never mutated, so details can be attached to the shared sentinels.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{
		Err:     e.Err,
		Details: details,
		Code:    e.Code,
		Message: e.Message,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeValidationFailed ||
		code == ErrorCodeValidationAmountInvalid ||
		code == ErrorCodeValidationDateRange ||
		code == ErrorCodeValidationMissingField
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeChargeNotFound ||
		code == ErrorCodeSettlementNotFound ||
		code == ErrorCodeReconciliationNotFound ||
		code == ErrorCodeSessionNotFound
}

// IsInvalidStateError checks if an error is a lifecycle state violation
func IsInvalidStateError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeInvalidStateTransition ||
		code == ErrorCodeChargeImmutable
}

// IsProviderError checks if an error came from the payment provider; callers
// may retry these with backoff, unlike validation or not-found errors
func IsProviderError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeProviderError ||
		code == ErrorCodeProviderTimeout ||
		code == ErrorCodeProviderRejected
}

// IsConflictError checks if an error is an idempotency-key uniqueness conflict
func IsConflictError(err error) bool {
	return GetErrorCode(err) == ErrorCodeIdempotencyConflict
}

// Structured error instances
var (
	ErrChargeNotFound         = NewDomainError(ErrorCodeChargeNotFound, "charge not found")
	ErrSettlementNotFound     = NewDomainError(ErrorCodeSettlementNotFound, "settlement not found")
	ErrReconciliationNotFound = NewDomainError(ErrorCodeReconciliationNotFound, "reconciliation not found")
	ErrSessionNotFound        = NewDomainError(ErrorCodeSessionNotFound, "checkout session not found")

	ErrValidationAmountInvalid = NewDomainError(ErrorCodeValidationAmountInvalid, "amount must be greater than zero")
	ErrValidationDateRange     = NewDomainError(ErrorCodeValidationDateRange, "end date must not be before start date")
	ErrValidationMissingField  = NewDomainError(ErrorCodeValidationMissingField, "required field missing")

	ErrIdempotencyConflict = NewDomainError(ErrorCodeIdempotencyConflict, "idempotency key conflict")

	ErrProviderUnavailable = NewDomainError(ErrorCodeProviderError, "payment provider error")
	ErrProviderTimedOut    = NewDomainError(ErrorCodeProviderTimeout, "payment provider timeout")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal server error")
	ErrDatabaseError = NewDomainError(ErrorCodeDatabaseError, "database error")
)
