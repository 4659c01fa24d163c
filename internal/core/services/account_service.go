package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/balance_service/internal/apperrors"
	"github.com/SscSPs/balance_service/internal/core/domain"
	portsrepo "github.com/SscSPs/balance_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/balance_service/internal/core/ports/services"
	"github.com/SscSPs/balance_service/internal/dto"
	"github.com/SscSPs/balance_service/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
	now         func() time.Time
}

// NewAccountService creates a new account service
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade) portssvc.AccountSvcFacade {
	return &accountService{
		accountRepo: accountRepo,
		now:         time.Now,
	}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// RegisterAccount creates an account with a hashed password and an optional
// opening balance.
func (s *accountService) RegisterAccount(ctx context.Context, req dto.RegisterRequest) (*domain.Account, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", apperrors.ErrValidation)
	}

	balance := decimal.Zero
	if req.InitialBalance != nil {
		balance = domain.Quantize(*req.InitialBalance)
	}
	if balance.IsNegative() {
		return nil, fmt.Errorf("%w: initial balance must not be negative", apperrors.ErrValidation)
	}
	if balance.GreaterThan(domain.MaxBalance) {
		return nil, fmt.Errorf("%w: initial balance exceeds the maximum of %s", apperrors.ErrValidation, domain.MaxBalance.StringFixed(domain.MinorUnitScale))
	}

	_, err := s.accountRepo.FindAccountByUsername(ctx, username)
	if err == nil {
		return nil, fmt.Errorf("%w: username %s is already taken", apperrors.ErrDuplicate, username)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, s.classifyError(ctx, "register account", err, slog.String("username", username))
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		s.LogError(ctx, err, "Failed to hash password", slog.String("username", username))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	account := domain.Account{
		AccountID: uuid.NewString(),
		Username:  username,
		Balance:   balance,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.accountRepo.SaveAccount(ctx, account, hash); err != nil {
		return nil, s.classifyError(ctx, "register account", err, slog.String("username", username))
	}

	s.LogInfo(ctx, "Account registered", slog.String("account_id", account.AccountID), slog.String("username", username))
	return &account, nil
}

// GetAccountByID retrieves an account by its ID
func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	acc, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, s.classifyError(ctx, "get account", err, slog.String("account_id", accountID))
	}
	return acc, nil
}

// GetAccountByUsername retrieves an account by its username
func (s *accountService) GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	acc, err := s.accountRepo.FindAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, s.classifyError(ctx, "get account", err, slog.String("username", username))
	}
	return acc, nil
}
