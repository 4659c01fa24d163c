package mapping

import (
	"github.com/SscSPs/balance_service/internal/core/domain"
	"github.com/SscSPs/balance_service/internal/models"
)

// ToModelAccount converts a domain Account to a model Account
func ToModelAccount(d domain.Account, passwordHash string) models.Account {
	return models.Account{
		AccountID:    d.AccountID,
		Username:     d.Username,
		PasswordHash: passwordHash,
		Balance:      d.Balance,
		Version:      d.Version,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// ToDomainAccount converts a model Account to a domain Account
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID: m.AccountID,
		Username:  m.Username,
		Balance:   m.Balance,
		Version:   m.Version,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
