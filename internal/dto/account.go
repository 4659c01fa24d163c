package dto

import (
	"time"

	"github.com/SscSPs/balance_service/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RegisterRequest defines the data needed to register a new account.
type RegisterRequest struct {
	Username       string           `json:"username" binding:"required,min=3,max=50,notblank" example:"alice"`
	Password       string           `json:"password" binding:"required,min=6,max=72" example:"s3cret!"`
	InitialBalance *decimal.Decimal `json:"initialBalance" swaggertype:"string" example:"1000.00"` // Optional, defaults to 0
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID string    `json:"accountID"`
	Username  string    `json:"username"`
	Balance   string    `json:"balance" example:"1000.00"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID: acc.AccountID,
		Username:  acc.Username,
		Balance:   acc.Balance.StringFixed(domain.MinorUnitScale),
		CreatedAt: acc.CreatedAt,
		UpdatedAt: acc.UpdatedAt,
	}
}
