package repositories

import (
	"context"

	"github.com/SscSPs/balance_service/internal/core/domain"
)

// TransferReader defines read operations over the transfer log.
type TransferReader interface {
	// FindTransferByID retrieves a single transfer record.
	FindTransferByID(ctx context.Context, transferID int64) (*domain.TransferRecord, error)

	// ListTransfersByAccount returns up to limit records in which the account is
	// the source or the destination, ordered by (created_at, transfer_id)
	// descending and starting strictly after cursor when it is non-nil.
	ListTransfersByAccount(ctx context.Context, accountID string, cursor *domain.HistoryCursor, limit int) ([]domain.TransferRecord, error)
}
