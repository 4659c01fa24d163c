package services

import (
	"context"

	"github.com/SscSPs/balance_service/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BalanceMutatorSvc applies single-account balance deltas.
type BalanceMutatorSvc interface {
	// Deposit adds amount to the account and returns the new balance.
	Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error)

	// Withdraw removes amount from the account and returns the new balance.
	Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error)
}

// TransferSvc moves money between two accounts.
type TransferSvc interface {
	// Transfer atomically debits the source, credits the destination and
	// appends one transfer record.
	Transfer(ctx context.Context, intent domain.TransferIntent) (*domain.TransferRecord, error)
}

// LedgerReaderSvc exposes read-only views of the ledger.
type LedgerReaderSvc interface {
	// GetBalance returns the committed balance of the account.
	GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error)

	// GetHistory returns one page of the account's transfers, newest first.
	GetHistory(ctx context.Context, accountID string, cursor string, limit int) (*domain.TransferPage, error)

	// GetTransfer returns a transfer visible to the requesting account.
	GetTransfer(ctx context.Context, transferID int64, requestingAccountID string) (*domain.TransferRecord, error)
}

// LedgerSvcFacade combines all ledger service interfaces
type LedgerSvcFacade interface {
	BalanceMutatorSvc
	TransferSvc
	LedgerReaderSvc
}
