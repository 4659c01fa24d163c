package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Transfer mirrors a row of the transfers table, optionally joined with the
// usernames of both sides.
type Transfer struct {
	TransferID           int64           `db:"transfer_id"`
	SourceAccountID      string          `db:"source_account_id"`
	DestinationAccountID string          `db:"destination_account_id"`
	Amount               decimal.Decimal `db:"amount"`          // NUMERIC(15,2) CHECK (amount > 0)
	Description          sql.NullString  `db:"description"`     // VARCHAR(255)
	IdempotencyKey       sql.NullString  `db:"idempotency_key"` // VARCHAR(64)
	CreatedAt            time.Time       `db:"created_at"`

	SourceUsername      sql.NullString `db:"source_username"`
	DestinationUsername sql.NullString `db:"destination_username"`
}
