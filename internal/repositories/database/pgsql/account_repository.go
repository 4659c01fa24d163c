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

const accountColumns = `account_id, username, password_hash, balance, version, created_at, updated_at`

type PgxAccountRepository struct {
	pool *pgxpool.Pool
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{pool: pool}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account, passwordHash string) error {
	modelAcc := mapping.ToModelAccount(account, passwordHash)

	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.pool.Exec(ctx, query,
		modelAcc.AccountID,
		modelAcc.Username,
		modelAcc.PasswordHash,
		modelAcc.Balance,
		modelAcc.Version,
		modelAcc.CreatedAt,
		modelAcc.UpdatedAt,
	)
	if err != nil {
		mapped := mapPgError(err)
		if errors.Is(mapped, apperrors.ErrDuplicate) {
			return fmt.Errorf("%w: username %s is already taken", apperrors.ErrDuplicate, modelAcc.Username)
		}
		return fmt.Errorf("failed to save account %s: %w", modelAcc.AccountID, mapped)
	}
	return nil
}

func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	m, err := r.findOne(ctx, "account_id", accountID)
	if err != nil {
		return nil, err
	}
	acc := mapping.ToDomainAccount(*m)
	return &acc, nil
}

func (r *PgxAccountRepository) FindAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	m, err := r.findOne(ctx, "username", username)
	if err != nil {
		return nil, err
	}
	acc := mapping.ToDomainAccount(*m)
	return &acc, nil
}

func (r *PgxAccountRepository) FindCredentialsByUsername(ctx context.Context, username string) (*domain.Account, string, error) {
	m, err := r.findOne(ctx, "username", username)
	if err != nil {
		return nil, "", err
	}
	acc := mapping.ToDomainAccount(*m)
	return &acc, m.PasswordHash, nil
}

// findOne reads a single account by a unique column. column is never user input.
func (r *PgxAccountRepository) findOne(ctx context.Context, column string, value string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + column + ` = $1;`
	rows, err := r.pool.Query(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("failed to query account by %s: %w", column, mapPgError(err))
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Account])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan account by %s: %w", column, mapPgError(err))
	}
	return &m, nil
}
