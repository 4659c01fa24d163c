package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/balance_service/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerTx is the view of the store available inside one atomic unit. Every
// write made through it commits together with the others or not at all.
type LedgerTx interface {
	// GetAccountsForUpdate reads the accounts and takes exclusive access to
	// them, in ascending id order. Missing ids are absent from the map.
	GetAccountsForUpdate(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// UpdateBalance writes newBalance only if the stored version still equals
	// expectedVersion, returning apperrors.ErrVersionConflict otherwise.
	UpdateBalance(ctx context.Context, accountID string, expectedVersion int64, newBalance decimal.Decimal, now time.Time) (domain.Account, error)

	// InsertTransfer appends a record to the transfer log.
	InsertTransfer(ctx context.Context, record domain.TransferRecord) error

	// FindTransferByIdempotencyKey returns the record previously created by the
	// source account under key, or apperrors.ErrNotFound.
	FindTransferByIdempotencyKey(ctx context.Context, sourceAccountID string, key string) (*domain.TransferRecord, error)
}

// TransactionManager runs a function as a single atomic unit.
type TransactionManager interface {
	// RunInTx commits when fn returns nil and rolls back otherwise. A context
	// cancelled before commit rolls the unit back.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
}

// LedgerStore is the account store contract the ledger engine depends on.
type LedgerStore interface {
	TransactionManager
}
