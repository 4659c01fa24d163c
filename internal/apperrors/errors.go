package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnauthorized indicates missing or invalid credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden indicates the caller may not access the resource.
var ErrForbidden = errors.New("forbidden")

// Ledger error kinds. Every one of them is returned before any state is
// mutated, or after the whole store transaction has been rolled back.
var (
	// ErrInvalidAmount: amount <= 0, not quantized to minor units, or out of range.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrAccountNotFound: the account being operated on does not exist.
	ErrAccountNotFound = fmt.Errorf("account %w", ErrNotFound)
	// ErrRecipientNotFound: the destination of a transfer does not exist.
	ErrRecipientNotFound = fmt.Errorf("recipient %w", ErrNotFound)
	// ErrSelfTransferNotAllowed: source and destination are the same account.
	ErrSelfTransferNotAllowed = errors.New("self transfer not allowed")
	// ErrInsufficientFunds: the mutation would drive a balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrConcurrencyConflict: the retry budget was exhausted under contention.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	// ErrStoreUnavailable: the store failed to read or commit.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ErrVersionConflict is reported by stores when a conditional write finds the
// version changed since it was read. The coordinator retries on it; callers of
// the engine only ever see ErrConcurrencyConflict.
var ErrVersionConflict = errors.New("version conflict")

// AppError carries a status-like code alongside the underlying cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// IsLedgerKind reports whether err already carries one of the typed kinds the
// ledger engine surfaces to its callers.
func IsLedgerKind(err error) bool {
	for _, kind := range []error{
		ErrInvalidAmount,
		ErrNotFound,
		ErrValidation,
		ErrSelfTransferNotAllowed,
		ErrInsufficientFunds,
		ErrConcurrencyConflict,
		ErrVersionConflict,
		ErrStoreUnavailable,
		ErrDuplicate,
		ErrForbidden,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
