package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/balance_service/internal/apperrors"
	portsrepo "github.com/SscSPs/balance_service/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL error codes the ledger cares about.
const (
	pgUniqueViolation      = "23505"
	pgCheckViolation       = "23514"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	Pool *pgxpool.Pool
}

// Begin starts a new database transaction
func (r *BaseRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	return tx, nil
}

// Commit commits a transaction
func (r *BaseRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(500, "failed to commit transaction", mapPgError(err))
	}
	return nil
}

// Rollback rolls back a transaction
func (r *BaseRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return apperrors.NewAppError(500, "failed to rollback transaction", err)
	}
	return nil
}

// RunInTx runs fn inside a single database transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
func (r *BaseRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) (err error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err == nil {
			return
		}
		// The rollback uses a fresh context so a cancelled request still
		// releases its row locks promptly.
		if rbErr := r.Rollback(context.WithoutCancel(ctx), tx); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
	}()

	if err = fn(ctx, &pgxLedgerTx{tx: tx}); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

var _ portsrepo.LedgerStore = (*BaseRepository)(nil)

// mapPgError translates driver errors into the kinds the ledger engine
// understands. Unknown errors are returned unchanged.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return fmt.Errorf("%w: %s", apperrors.ErrVersionConflict, pgErr.Message)
	case pgCheckViolation:
		return fmt.Errorf("%w: %s", apperrors.ErrInsufficientFunds, pgErr.ConstraintName)
	case pgUniqueViolation:
		return fmt.Errorf("%w: %s", apperrors.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
