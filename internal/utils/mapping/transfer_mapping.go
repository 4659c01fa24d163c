package mapping

import (
	"database/sql"

	"github.com/SscSPs/balance_service/internal/core/domain"
	"github.com/SscSPs/balance_service/internal/models"
)

func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ToModelTransfer converts a domain TransferRecord to a model Transfer
func ToModelTransfer(d domain.TransferRecord) models.Transfer {
	return models.Transfer{
		TransferID:           d.TransferID,
		SourceAccountID:      d.SourceAccountID,
		DestinationAccountID: d.DestinationAccountID,
		Amount:               d.Amount,
		Description:          toNullString(d.Description),
		IdempotencyKey:       toNullString(d.IdempotencyKey),
		CreatedAt:            d.CreatedAt,
		SourceUsername:       toNullString(d.SourceUsername),
		DestinationUsername:  toNullString(d.DestinationUsername),
	}
}

// ToDomainTransfer converts a model Transfer to a domain TransferRecord.
// NULL columns become empty strings.
func ToDomainTransfer(m models.Transfer) domain.TransferRecord {
	return domain.TransferRecord{
		TransferID:           m.TransferID,
		SourceAccountID:      m.SourceAccountID,
		DestinationAccountID: m.DestinationAccountID,
		Amount:               m.Amount,
		Description:          m.Description.String,
		IdempotencyKey:       m.IdempotencyKey.String,
		CreatedAt:            m.CreatedAt,
		SourceUsername:       m.SourceUsername.String,
		DestinationUsername:  m.DestinationUsername.String,
	}
}

// ToDomainTransferSlice converts a slice of model Transfers to domain records
func ToDomainTransferSlice(ms []models.Transfer) []domain.TransferRecord {
	ds := make([]domain.TransferRecord, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTransfer(m)
	}
	return ds
}
