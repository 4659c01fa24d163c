package pgsql

import (
	portsrepo "github.com/SscSPs/balance_service/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:  newPgxAccountRepository(dbPool),
		TransferRepo: newPgxTransferRepository(dbPool),
		LedgerStore:  &BaseRepository{Pool: dbPool},
	}
}
