package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/balance_service/internal/apperrors"
	"github.com/SscSPs/balance_service/internal/core/coordinator"
	"github.com/SscSPs/balance_service/internal/core/domain"
	portsrepo "github.com/SscSPs/balance_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/balance_service/internal/core/ports/services"
	"github.com/SscSPs/balance_service/internal/utils/pagination"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// ledgerService is the balance ledger and transfer engine. Every mutation
// runs under the coordinator's locks for the accounts it touches and inside
// a single store transaction, so a failed operation leaves no trace.
type ledgerService struct {
	BaseService
	store       portsrepo.LedgerStore
	accountRepo portsrepo.AccountReader
	transfers   portsrepo.TransferReader
	coord       *coordinator.Coordinator
	ids         *snowflake.Node
	opTimeout   time.Duration
	now         func() time.Time
}

// LedgerServiceOption is a function that configures a ledgerService
type LedgerServiceOption func(*ledgerService)

// WithOperationTimeout bounds every engine operation, waiting included.
func WithOperationTimeout(d time.Duration) LedgerServiceOption {
	return func(s *ledgerService) {
		s.opTimeout = d
	}
}

// WithClock replaces the wall clock used to stamp mutations.
func WithClock(now func() time.Time) LedgerServiceOption {
	return func(s *ledgerService) {
		s.now = now
	}
}

// NewLedgerService creates a new ledger engine.
func NewLedgerService(
	repos portsrepo.RepositoryProvider,
	coord *coordinator.Coordinator,
	ids *snowflake.Node,
	opts ...LedgerServiceOption,
) portssvc.LedgerSvcFacade {
	s := &ledgerService{
		store:       repos.LedgerStore,
		accountRepo: repos.AccountRepo,
		transfers:   repos.TransferRepo,
		coord:       coord,
		ids:         ids,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

func (s *ledgerService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// timestamp truncates to the precision PostgreSQL keeps so that history
// cursors built from a returned record match the stored row.
func (s *ledgerService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Deposit adds amount to the account and returns the new balance.
func (s *ledgerService) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.applyDelta(ctx, "deposit", accountID, amount, false)
}

// Withdraw removes amount from the account and returns the new balance.
func (s *ledgerService) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.applyDelta(ctx, "withdraw", accountID, amount, true)
}

func (s *ledgerService) applyDelta(ctx context.Context, op string, accountID string, amount decimal.Decimal, debit bool) (decimal.Decimal, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", apperrors.ErrInvalidAmount, err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var newBalance decimal.Decimal
	err := s.coord.Execute(ctx, []string{accountID}, func(ctx context.Context) error {
		return s.store.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
			accounts, err := tx.GetAccountsForUpdate(ctx, []string{accountID})
			if err != nil {
				return err
			}
			acc, ok := accounts[accountID]
			if !ok {
				return apperrors.ErrAccountNotFound
			}

			next := acc.Balance.Add(amount)
			if debit {
				if !acc.CanDebit(amount) {
					return apperrors.ErrInsufficientFunds
				}
				next = acc.Balance.Sub(amount)
			} else if next.GreaterThan(domain.MaxBalance) {
				return fmt.Errorf("%w: resulting balance exceeds the maximum of %s", apperrors.ErrInvalidAmount, domain.MaxBalance.StringFixed(domain.MinorUnitScale))
			}

			updated, err := tx.UpdateBalance(ctx, accountID, acc.Version, next, s.timestamp())
			if err != nil {
				return err
			}
			newBalance = updated.Balance
			return nil
		})
	})
	if err != nil {
		return decimal.Zero, s.classifyError(ctx, op, err, slog.String("account_id", accountID))
	}

	s.LogInfo(ctx, "Balance updated",
		slog.String("operation", op),
		slog.String("account_id", accountID),
		slog.String("amount", amount.StringFixed(domain.MinorUnitScale)),
		slog.String("balance", newBalance.StringFixed(domain.MinorUnitScale)))
	return newBalance, nil
}

// Transfer moves intent.Amount from the source to the destination account.
// Preconditions are checked in order: amount, self transfer, recipient
// existence, then funds. With an idempotency key, a repeated intent returns
// the record created the first time without moving money again.
func (s *ledgerService) Transfer(ctx context.Context, intent domain.TransferIntent) (*domain.TransferRecord, error) {
	if err := domain.ValidateAmount(intent.Amount); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidAmount, err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	destinationID := intent.DestinationAccountID
	if destinationID == "" {
		// Resolving by username cannot mistake the source for someone else:
		// a self transfer resolves to the source id and is rejected below.
		dest, err := s.accountRepo.FindAccountByUsername(ctx, intent.DestinationUsername)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.ErrRecipientNotFound
			}
			return nil, s.classifyError(ctx, "transfer", err, slog.String("to_username", intent.DestinationUsername))
		}
		destinationID = dest.AccountID
	}
	if destinationID == intent.SourceAccountID {
		return nil, apperrors.ErrSelfTransferNotAllowed
	}

	var (
		result   *domain.TransferRecord
		replayed bool
	)
	err := s.coord.Execute(ctx, []string{intent.SourceAccountID, destinationID}, func(ctx context.Context) error {
		result, replayed = nil, false
		return s.store.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
			accounts, err := tx.GetAccountsForUpdate(ctx, []string{intent.SourceAccountID, destinationID})
			if err != nil {
				return err
			}
			src, ok := accounts[intent.SourceAccountID]
			if !ok {
				return apperrors.ErrAccountNotFound
			}
			dst, ok := accounts[destinationID]
			if !ok {
				return apperrors.ErrRecipientNotFound
			}

			if intent.IdempotencyKey != "" {
				prior, err := tx.FindTransferByIdempotencyKey(ctx, intent.SourceAccountID, intent.IdempotencyKey)
				switch {
				case err == nil:
					if prior.DestinationAccountID != destinationID || !prior.Amount.Equal(intent.Amount) {
						return fmt.Errorf("%w: idempotency key %q was used for a different transfer", apperrors.ErrValidation, intent.IdempotencyKey)
					}
					result, replayed = prior, true
					return nil
				case !errors.Is(err, apperrors.ErrNotFound):
					return err
				}
			}

			if !src.CanDebit(intent.Amount) {
				return apperrors.ErrInsufficientFunds
			}
			credited := dst.Balance.Add(intent.Amount)
			if credited.GreaterThan(domain.MaxBalance) {
				return fmt.Errorf("%w: recipient balance would exceed the maximum of %s", apperrors.ErrInvalidAmount, domain.MaxBalance.StringFixed(domain.MinorUnitScale))
			}

			now := s.timestamp()
			if _, err := tx.UpdateBalance(ctx, src.AccountID, src.Version, src.Balance.Sub(intent.Amount), now); err != nil {
				return err
			}
			if _, err := tx.UpdateBalance(ctx, dst.AccountID, dst.Version, credited, now); err != nil {
				return err
			}

			record := domain.TransferRecord{
				TransferID:           s.ids.Generate().Int64(),
				SourceAccountID:      src.AccountID,
				DestinationAccountID: dst.AccountID,
				Amount:               intent.Amount,
				Description:          intent.Description,
				IdempotencyKey:       intent.IdempotencyKey,
				CreatedAt:            now,
			}
			if err := tx.InsertTransfer(ctx, record); err != nil {
				return err
			}
			record.SourceUsername = src.Username
			record.DestinationUsername = dst.Username
			result = &record
			return nil
		})
	})
	if err != nil {
		return nil, s.classifyError(ctx, "transfer", err,
			slog.String("source_account_id", intent.SourceAccountID),
			slog.String("destination_account_id", destinationID))
	}

	if replayed {
		s.LogInfo(ctx, "Transfer replayed for idempotency key",
			slog.Int64("transfer_id", result.TransferID),
			slog.String("idempotency_key", intent.IdempotencyKey))
		return result, nil
	}
	s.LogInfo(ctx, "Transfer committed",
		slog.Int64("transfer_id", result.TransferID),
		slog.String("source_account_id", result.SourceAccountID),
		slog.String("destination_account_id", result.DestinationAccountID),
		slog.String("amount", result.Amount.StringFixed(domain.MinorUnitScale)))
	return result, nil
}

// GetBalance returns the committed balance of the account.
func (s *ledgerService) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	acc, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return decimal.Zero, apperrors.ErrAccountNotFound
		}
		return decimal.Zero, s.classifyError(ctx, "get balance", err, slog.String("account_id", accountID))
	}
	return acc.Balance, nil
}

// GetHistory returns the transfers the account took part in, newest first.
// cursor is the NextCursor of a previous page, or empty for the first page.
func (s *ledgerService) GetHistory(ctx context.Context, accountID string, cursor string, limit int) (*domain.TransferPage, error) {
	after, err := pagination.DecodeHistoryCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	limit = pagination.ClampLimit(limit)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, s.classifyError(ctx, "get history", err, slog.String("account_id", accountID))
	}

	// One extra row tells whether another page exists.
	records, err := s.transfers.ListTransfersByAccount(ctx, accountID, after, limit+1)
	if err != nil {
		return nil, s.classifyError(ctx, "get history", err, slog.String("account_id", accountID))
	}

	page := &domain.TransferPage{Transfers: records}
	if len(records) > limit {
		page.Transfers = records[:limit]
		last := page.Transfers[limit-1]
		page.NextCursor = pagination.EncodeHistoryCursor(domain.HistoryCursor{CreatedAt: last.CreatedAt, TransferID: last.TransferID})
	}
	if page.Transfers == nil {
		page.Transfers = []domain.TransferRecord{}
	}
	return page, nil
}

// GetTransfer returns a single transfer. Only the two parties may read it.
func (s *ledgerService) GetTransfer(ctx context.Context, transferID int64, requestingAccountID string) (*domain.TransferRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	record, err := s.transfers.FindTransferByID(ctx, transferID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("transfer %d: %w", transferID, apperrors.ErrNotFound)
		}
		return nil, s.classifyError(ctx, "get transfer", err, slog.Int64("transfer_id", transferID))
	}
	if !record.Involves(requestingAccountID) {
		return nil, fmt.Errorf("%w: transfer %d belongs to other accounts", apperrors.ErrForbidden, transferID)
	}
	return record, nil
}
