package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/balance_service/internal/apperrors"
	"github.com/SscSPs/balance_service/internal/core/domain"
	portsrepo "github.com/SscSPs/balance_service/internal/core/ports/repositories"
	"github.com/SscSPs/balance_service/internal/models"
	"github.com/SscSPs/balance_service/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// transferSelect reads transfers joined with the usernames of both sides.
const transferSelect = `
		SELECT t.transfer_id, t.source_account_id, t.destination_account_id, t.amount,
		       t.description, t.idempotency_key, t.created_at,
		       src.username AS source_username, dst.username AS destination_username
		FROM transfers t
		JOIN accounts src ON src.account_id = t.source_account_id
		JOIN accounts dst ON dst.account_id = t.destination_account_id`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryOneTransfer(ctx context.Context, q querier, query string, args ...any) (*domain.TransferRecord, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfer: %w", mapPgError(err))
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Transfer])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan transfer: %w", mapPgError(err))
	}
	record := mapping.ToDomainTransfer(m)
	return &record, nil
}

type PgxTransferRepository struct {
	pool *pgxpool.Pool
}

func newPgxTransferRepository(pool *pgxpool.Pool) portsrepo.TransferReader {
	return &PgxTransferRepository{pool: pool}
}

var _ portsrepo.TransferReader = (*PgxTransferRepository)(nil)

func (r *PgxTransferRepository) FindTransferByID(ctx context.Context, transferID int64) (*domain.TransferRecord, error) {
	query := transferSelect + `
		WHERE t.transfer_id = $1;
	`
	return queryOneTransfer(ctx, r.pool, query, transferID)
}

// ListTransfersByAccount pages through an account's transfers newest first
// using the (created_at, transfer_id) keyset.
func (r *PgxTransferRepository) ListTransfersByAccount(ctx context.Context, accountID string, cursor *domain.HistoryCursor, limit int) ([]domain.TransferRecord, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if cursor == nil {
		query := transferSelect + `
		WHERE (t.source_account_id = $1 OR t.destination_account_id = $1)
		ORDER BY t.created_at DESC, t.transfer_id DESC
		LIMIT $2;
	`
		rows, err = r.pool.Query(ctx, query, accountID, limit)
	} else {
		query := transferSelect + `
		WHERE (t.source_account_id = $1 OR t.destination_account_id = $1)
		  AND (t.created_at, t.transfer_id) < ($2, $3)
		ORDER BY t.created_at DESC, t.transfer_id DESC
		LIMIT $4;
	`
		rows, err = r.pool.Query(ctx, query, accountID, cursor.CreatedAt, cursor.TransferID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers for account %s: %w", accountID, mapPgError(err))
	}

	modelTransfers, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Transfer])
	if err != nil {
		return nil, fmt.Errorf("failed to scan transfers for account %s: %w", accountID, mapPgError(err))
	}
	return mapping.ToDomainTransferSlice(modelTransfers), nil
}
