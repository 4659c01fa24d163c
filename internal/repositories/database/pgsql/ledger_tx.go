package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/balance_service/internal/apperrors"
	"github.com/SscSPs/balance_service/internal/core/domain"
	portsrepo "github.com/SscSPs/balance_service/internal/core/ports/repositories"
	"github.com/SscSPs/balance_service/internal/models"
	"github.com/SscSPs/balance_service/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// pgxLedgerTx is the LedgerTx view of an open pgx transaction.
type pgxLedgerTx struct {
	tx pgx.Tx
}

var _ portsrepo.LedgerTx = (*pgxLedgerTx)(nil)

func (t *pgxLedgerTx) GetAccountsForUpdate(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	query := `
		SELECT account_id, username, balance, version, created_at, updated_at
		FROM accounts
		WHERE account_id = ANY($1)
		ORDER BY account_id
		FOR UPDATE;
	`
	rows, err := t.tx.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", mapPgError(err))
	}
	modelAccounts, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[models.Account])
	if err != nil {
		return nil, fmt.Errorf("failed to scan locked accounts: %w", mapPgError(err))
	}

	accounts := make(map[string]domain.Account, len(modelAccounts))
	for _, m := range modelAccounts {
		accounts[m.AccountID] = mapping.ToDomainAccount(m)
	}
	return accounts, nil
}

func (t *pgxLedgerTx) UpdateBalance(ctx context.Context, accountID string, expectedVersion int64, newBalance decimal.Decimal, now time.Time) (domain.Account, error) {
	query := `
		UPDATE accounts
		SET balance = $1, version = version + 1, updated_at = $2
		WHERE account_id = $3 AND version = $4
		RETURNING account_id, username, balance, version, created_at, updated_at;
	`
	var m models.Account
	err := t.tx.QueryRow(ctx, query, newBalance, now, accountID, expectedVersion).Scan(
		&m.AccountID,
		&m.Username,
		&m.Balance,
		&m.Version,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, fmt.Errorf("%w: account %s no longer at version %d", apperrors.ErrVersionConflict, accountID, expectedVersion)
		}
		return domain.Account{}, fmt.Errorf("failed to update balance of account %s: %w", accountID, mapPgError(err))
	}
	return mapping.ToDomainAccount(m), nil
}

func (t *pgxLedgerTx) InsertTransfer(ctx context.Context, record domain.TransferRecord) error {
	m := mapping.ToModelTransfer(record)
	query := `
		INSERT INTO transfers (transfer_id, source_account_id, destination_account_id, amount, description, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := t.tx.Exec(ctx, query,
		m.TransferID,
		m.SourceAccountID,
		m.DestinationAccountID,
		m.Amount,
		m.Description,
		m.IdempotencyKey,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transfer %d: %w", m.TransferID, mapPgError(err))
	}
	return nil
}

func (t *pgxLedgerTx) FindTransferByIdempotencyKey(ctx context.Context, sourceAccountID string, key string) (*domain.TransferRecord, error) {
	query := transferSelect + `
		WHERE t.source_account_id = $1 AND t.idempotency_key = $2;
	`
	return queryOneTransfer(ctx, t.tx, query, sourceAccountID, key)
}
