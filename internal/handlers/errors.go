package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/balance_service/internal/apperrors"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is a generic error response structure for handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidAmount),
		errors.Is(err, apperrors.ErrSelfTransferNotAllowed),
		errors.Is(err, apperrors.ErrInsufficientFunds),
		errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrDuplicate):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrConcurrencyConflict):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// messageFor returns the client-facing message. Typed kinds are safe to echo;
// everything else is replaced by fallback so store details never leak.
func messageFor(err error, fallback string) string {
	switch {
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		return "Insufficient funds"
	case errors.Is(err, apperrors.ErrSelfTransferNotAllowed):
		return "Cannot transfer to yourself"
	case errors.Is(err, apperrors.ErrRecipientNotFound):
		return "Recipient not found"
	case errors.Is(err, apperrors.ErrAccountNotFound):
		return "Account not found"
	case errors.Is(err, apperrors.ErrConcurrencyConflict):
		return "The account is busy, please retry"
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		return "Service temporarily unavailable"
	case errors.Is(err, apperrors.ErrInvalidAmount),
		errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrNotFound),
		errors.Is(err, apperrors.ErrForbidden),
		errors.Is(err, apperrors.ErrUnauthorized):
		return err.Error()
	}
	return fallback
}

// respondError logs err at a level matching its status and writes the JSON
// error body.
func respondError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(fallback, slog.String("error", err.Error()), slog.Int("status", status))
	} else {
		logger.Warn(fallback, slog.String("error", err.Error()), slog.Int("status", status))
	}
	_ = c.Error(err)
	c.JSON(status, ErrorResponse{Error: messageFor(err, fallback)})
}
