package services

import (
	"context"

	"github.com/SscSPs/balance_service/internal/core/domain"
	"github.com/SscSPs/balance_service/internal/dto"
)

// AccountReaderSvc defines read operations for account data
type AccountReaderSvc interface {
	// GetAccountByID retrieves a specific account by its unique identifier.
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// GetAccountByUsername retrieves an account by its username.
	GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error)
}

// AccountWriterSvc defines write operations for account data
type AccountWriterSvc interface {
	// RegisterAccount creates a new account with its initial balance.
	RegisterAccount(ctx context.Context, req dto.RegisterRequest) (*domain.Account, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
