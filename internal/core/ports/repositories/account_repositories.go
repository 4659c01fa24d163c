package repositories

import (
	"context"

	"github.com/SscSPs/balance_service/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountByUsername retrieves an account by its unique username.
	FindAccountByUsername(ctx context.Context, username string) (*domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account together with its password hash.
	SaveAccount(ctx context.Context, account domain.Account, passwordHash string) error
}

// CredentialReader exposes the stored password hash for authentication.
type CredentialReader interface {
	// FindCredentialsByUsername returns the account and its bcrypt hash.
	FindCredentialsByUsername(ctx context.Context, username string) (*domain.Account, string, error)
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	CredentialReader
}
