package services

import (
	"context"
	"time"

	"github.com/SscSPs/balance_service/internal/core/domain"
)

// AuthSvcFacade verifies credentials and issues access tokens.
type AuthSvcFacade interface {
	// Authenticate checks a username/password pair and returns the account.
	Authenticate(ctx context.Context, username string, password string) (*domain.Account, error)

	// GenerateAccessToken issues a signed JWT for the account.
	GenerateAccessToken(ctx context.Context, account *domain.Account) (string, time.Time, error)
}
