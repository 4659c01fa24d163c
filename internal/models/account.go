package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account mirrors a row of the accounts table.
type Account struct {
	AccountID    string          `db:"account_id"`
	Username     string          `db:"username"`
	PasswordHash string          `db:"password_hash"`
	Balance      decimal.Decimal `db:"balance"` // NUMERIC(15,2) CHECK (balance >= 0)
	Version      int64           `db:"version"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}
