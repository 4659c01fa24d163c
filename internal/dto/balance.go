package dto

import (
	"github.com/SscSPs/balance_service/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AmountRequest is the body of deposit and withdrawal requests.
// The engine rejects zero, negative, and out-of-range amounts.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"100.00"`
}

// BalanceResponse carries the caller's current balance.
type BalanceResponse struct {
	Balance string `json:"balance" example:"1000.00"`
}

// MessageResponse is returned by balance mutations.
type MessageResponse struct {
	Message string `json:"message"`
	Balance string `json:"balance" example:"1100.00"`
}

// ToBalanceResponse formats a balance with minor-unit precision.
func ToBalanceResponse(balance decimal.Decimal) BalanceResponse {
	return BalanceResponse{Balance: balance.StringFixed(domain.MinorUnitScale)}
}
