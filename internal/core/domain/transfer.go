package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferRecord is an immutable entry of the transfer log. It exists if and
// only if the matching balance mutation was committed.
type TransferRecord struct {
	TransferID           int64           `json:"transferID"` // Snowflake id, monotonically assigned
	SourceAccountID      string          `json:"sourceAccountID"`
	DestinationAccountID string          `json:"destinationAccountID"`
	Amount               decimal.Decimal `json:"amount"`      // Always > 0
	Description          string          `json:"description"` // Nullable
	IdempotencyKey       string          `json:"-"`           // Nullable, unique per source account
	CreatedAt            time.Time       `json:"createdAt"`

	// Read-side enrichment, not part of the record itself.
	SourceUsername      string `json:"sourceUsername,omitempty"`
	DestinationUsername string `json:"destinationUsername,omitempty"`
}

// Involves reports whether the account is either side of the transfer.
func (t TransferRecord) Involves(accountID string) bool {
	return t.SourceAccountID == accountID || t.DestinationAccountID == accountID
}

// TransferIntent is the validated, typed request to move money between two
// accounts. The destination is addressed by id or, when that is empty, by
// username.
type TransferIntent struct {
	SourceAccountID      string
	DestinationAccountID string
	DestinationUsername  string
	Amount               decimal.Decimal
	Description          string
	IdempotencyKey       string
}

// HistoryCursor is the keyset position after which the next page starts.
type HistoryCursor struct {
	CreatedAt  time.Time
	TransferID int64
}

// TransferPage is one page of an account's transfer history, newest first.
type TransferPage struct {
	Transfers  []TransferRecord
	NextCursor string // Empty when there are no further pages
}
