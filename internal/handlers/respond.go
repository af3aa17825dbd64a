// Package handlers exposes the charge lifecycle over HTTP using Fiber.
// Handlers stay thin: parse, delegate to a service, map errors to status
// codes by their domain error code.
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/brpay/charge-service/internal/domain"
)

// errorResponse is the JSON body returned for all failures
type errorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// respondError maps a domain error code to an HTTP status. Unknown errors
// are reported as 500 without leaking internals.
func respondError(c *fiber.Ctx, err error) error {
	code := domain.GetErrorCode(err)

	status := fiber.StatusInternalServerError
	switch {
	case domain.IsValidationError(err):
		status = fiber.StatusBadRequest
	case domain.IsNotFoundError(err):
		status = fiber.StatusNotFound
	case domain.IsInvalidStateError(err):
		status = fiber.StatusConflict
	case domain.IsConflictError(err):
		status = fiber.StatusConflict
	case code == domain.ErrorCodeProviderTimeout:
		status = fiber.StatusGatewayTimeout
	case domain.IsProviderError(err):
		status = fiber.StatusBadGateway
	}

	body := errorResponse{Error: err.Error(), Code: string(code)}
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		body.Error = domainErr.Message
		body.Details = domainErr.Details
	}
	if status == fiber.StatusInternalServerError {
		body.Error = "internal server error"
		body.Details = nil
	}

	return c.Status(status).JSON(body)
}

func respondBadRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
		Error: msg,
		Code:  string(domain.ErrorCodeValidationFailed),
	})
}
