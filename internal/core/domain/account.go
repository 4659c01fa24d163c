package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a registered user's balance holder within the core domain.
// This is the primary representation used by services.
type Account struct {
	AccountID string          `json:"accountID"` // Primary Key (UUID), immutable
	Username  string          `json:"username"`  // Unique login name
	Balance   decimal.Decimal `json:"balance"`   // Never negative in a committed state
	Version   int64           `json:"version"`   // Incremented on every committed mutation
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"` // Refreshed on every committed mutation
}

// CanDebit reports whether amount can be taken from the account without the
// balance going negative.
func (a Account) CanDebit(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}
