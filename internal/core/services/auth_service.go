package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SscSPs/balance_service/internal/apperrors"
	"github.com/SscSPs/balance_service/internal/core/domain"
	portsrepo "github.com/SscSPs/balance_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/balance_service/internal/core/ports/services"
	"github.com/SscSPs/balance_service/internal/platform/config"
	"github.com/SscSPs/balance_service/internal/utils"
)

// authService checks credentials and issues JWT access tokens.
type authService struct {
	BaseService
	cfg         *config.Config
	credentials portsrepo.CredentialReader
}

// NewAuthService creates a new instance of authService.
func NewAuthService(cfg *config.Config, credentials portsrepo.CredentialReader) portssvc.AuthSvcFacade {
	return &authService{
		cfg:         cfg,
		credentials: credentials,
	}
}

var _ portssvc.AuthSvcFacade = (*authService)(nil)

// Authenticate returns apperrors.ErrUnauthorized for unknown users and wrong
// passwords alike.
func (s *authService) Authenticate(ctx context.Context, username string, password string) (*domain.Account, error) {
	account, hash, err := s.credentials.FindCredentialsByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, s.classifyError(ctx, "authenticate", err, slog.String("username", username))
	}
	if !utils.CheckPasswordHash(password, hash) {
		s.LogDebug(ctx, "Password mismatch", slog.String("username", username))
		return nil, apperrors.ErrUnauthorized
	}
	return account, nil
}

// GenerateAccessToken creates a new JWT access token for the given account.
func (s *authService) GenerateAccessToken(ctx context.Context, account *domain.Account) (string, time.Time, error) {
	token, expiresAt, err := utils.GenerateJWT(account.AccountID, s.cfg.JWTSecret, s.cfg.JWTExpiryDuration, s.cfg.JWTIssuer)
	if err != nil {
		s.LogError(ctx, err, "Failed to generate access token", slog.String("account_id", account.AccountID))
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}
