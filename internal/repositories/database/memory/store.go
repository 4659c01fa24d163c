// Package memory is an in-process implementation of the account store. It
// keeps committed state behind a single RWMutex and applies the writes of a
// transaction at commit time, after checking that every account it touched is
// still at the version it read.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/balance_service/internal/apperrors"
	"github.com/SscSPs/balance_service/internal/core/domain"
	portsrepo "github.com/SscSPs/balance_service/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

type accountRow struct {
	account      domain.Account
	passwordHash string
}

type idempotencyKey struct {
	sourceAccountID string
	key             string
}

// Store holds accounts and the transfer log in memory.
type Store struct {
	mu          sync.RWMutex
	accounts    map[string]*accountRow
	usernames   map[string]string // username -> account id
	transfers   []domain.TransferRecord
	byID        map[int64]int
	idempotency map[idempotencyKey]int

	// beforeCommit, when set, runs after fn succeeds and before the version
	// check. Tests use it to interleave a competing writer.
	beforeCommit func()
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:    make(map[string]*accountRow),
		usernames:   make(map[string]string),
		byID:        make(map[int64]int),
		idempotency: make(map[idempotencyKey]int),
	}
}

// Provider exposes the store through the repository ports.
func (s *Store) Provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:  s,
		TransferRepo: s,
		LedgerStore:  s,
	}
}

var (
	_ portsrepo.AccountRepositoryFacade = (*Store)(nil)
	_ portsrepo.TransferReader          = (*Store)(nil)
	_ portsrepo.LedgerStore             = (*Store)(nil)
)

// --- accounts ---

func (s *Store) SaveAccount(ctx context.Context, account domain.Account, passwordHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.AccountID]; ok {
		return fmt.Errorf("%w: account with ID %s already exists", apperrors.ErrDuplicate, account.AccountID)
	}
	if _, ok := s.usernames[account.Username]; ok {
		return fmt.Errorf("%w: username %s is already taken", apperrors.ErrDuplicate, account.Username)
	}
	if account.Balance.IsNegative() {
		return fmt.Errorf("%w: balance must not be negative", apperrors.ErrInsufficientFunds)
	}
	s.accounts[account.AccountID] = &accountRow{account: account, passwordHash: passwordHash}
	s.usernames[account.Username] = account.AccountID
	return nil
}

func (s *Store) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.accounts[accountID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	acc := row.account
	return &acc, nil
}

func (s *Store) FindAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	acc, _, err := s.FindCredentialsByUsername(ctx, username)
	return acc, err
}

func (s *Store) FindCredentialsByUsername(ctx context.Context, username string) (*domain.Account, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usernames[username]
	if !ok {
		return nil, "", apperrors.ErrNotFound
	}
	row := s.accounts[id]
	acc := row.account
	return &acc, row.passwordHash, nil
}

// --- transfers ---

func (s *Store) FindTransferByID(ctx context.Context, transferID int64) (*domain.TransferRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[transferID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	record := s.enrich(s.transfers[idx])
	return &record, nil
}

func (s *Store) ListTransfersByAccount(ctx context.Context, accountID string, cursor *domain.HistoryCursor, limit int) ([]domain.TransferRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []domain.TransferRecord
	for _, t := range s.transfers {
		if !t.Involves(accountID) {
			continue
		}
		if cursor != nil && !before(t, *cursor) {
			continue
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool {
		return before(matched[j], domain.HistoryCursor{CreatedAt: matched[i].CreatedAt, TransferID: matched[i].TransferID})
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	for i := range matched {
		matched[i] = s.enrich(matched[i])
	}
	return matched, nil
}

// before reports whether t sorts strictly after c in newest-first order.
func before(t domain.TransferRecord, c domain.HistoryCursor) bool {
	if t.CreatedAt.Equal(c.CreatedAt) {
		return t.TransferID < c.TransferID
	}
	return t.CreatedAt.Before(c.CreatedAt)
}

// enrich fills in usernames. Callers hold s.mu.
func (s *Store) enrich(t domain.TransferRecord) domain.TransferRecord {
	if row, ok := s.accounts[t.SourceAccountID]; ok {
		t.SourceUsername = row.account.Username
	}
	if row, ok := s.accounts[t.DestinationAccountID]; ok {
		t.DestinationUsername = row.account.Username
	}
	return t
}

// --- transactions ---

// RunInTx reads from a snapshot of committed state and buffers writes. At
// commit the buffered balances are applied only if no touched account moved
// on in the meantime; otherwise nothing is applied and the result is
// apperrors.ErrVersionConflict.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memTx{
		store:   s,
		read:    make(map[string]int64),
		written: make(map[string]domain.Account),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if s.beforeCommit != nil {
		s.beforeCommit()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit(tx)
}

func (s *Store) commit(tx *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, version := range tx.read {
		row, ok := s.accounts[id]
		if !ok || row.account.Version != version {
			return fmt.Errorf("%w: account %s changed before commit", apperrors.ErrVersionConflict, id)
		}
	}
	for _, t := range tx.inserted {
		if t.IdempotencyKey == "" {
			continue
		}
		if _, dup := s.idempotency[idempotencyKey{t.SourceAccountID, t.IdempotencyKey}]; dup {
			return fmt.Errorf("%w: idempotency key %s already used", apperrors.ErrDuplicate, t.IdempotencyKey)
		}
	}

	for id, acc := range tx.written {
		s.accounts[id].account = acc
	}
	for _, t := range tx.inserted {
		t.SourceUsername, t.DestinationUsername = "", ""
		s.transfers = append(s.transfers, t)
		idx := len(s.transfers) - 1
		s.byID[t.TransferID] = idx
		if t.IdempotencyKey != "" {
			s.idempotency[idempotencyKey{t.SourceAccountID, t.IdempotencyKey}] = idx
		}
	}
	return nil
}

// memTx buffers the writes of one RunInTx call.
type memTx struct {
	store    *Store
	read     map[string]int64 // account id -> version observed
	written  map[string]domain.Account
	inserted []domain.TransferRecord
}

var _ portsrepo.LedgerTx = (*memTx)(nil)

func (t *memTx) GetAccountsForUpdate(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	out := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if acc, ok := t.written[id]; ok {
			out[id] = acc
			continue
		}
		row, ok := t.store.accounts[id]
		if !ok {
			continue
		}
		if _, seen := t.read[id]; !seen {
			t.read[id] = row.account.Version
		}
		out[id] = row.account
	}
	return out, nil
}

func (t *memTx) UpdateBalance(ctx context.Context, accountID string, expectedVersion int64, newBalance decimal.Decimal, now time.Time) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}
	current, ok := t.written[accountID]
	if !ok {
		t.store.mu.RLock()
		row, exists := t.store.accounts[accountID]
		if exists {
			current = row.account
		}
		t.store.mu.RUnlock()
		if !exists {
			return domain.Account{}, apperrors.ErrNotFound
		}
		if _, seen := t.read[accountID]; !seen {
			t.read[accountID] = current.Version
		}
	}
	if current.Version != expectedVersion {
		return domain.Account{}, fmt.Errorf("%w: account %s is at version %d, expected %d", apperrors.ErrVersionConflict, accountID, current.Version, expectedVersion)
	}
	if newBalance.IsNegative() {
		return domain.Account{}, fmt.Errorf("%w: balance of account %s would become negative", apperrors.ErrInsufficientFunds, accountID)
	}

	current.Balance = newBalance
	current.Version++
	current.UpdatedAt = now
	t.written[accountID] = current
	return current, nil
}

func (t *memTx) InsertTransfer(ctx context.Context, record domain.TransferRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.store.mu.RLock()
	_, exists := t.store.byID[record.TransferID]
	t.store.mu.RUnlock()
	if exists {
		return fmt.Errorf("%w: transfer %d already exists", apperrors.ErrDuplicate, record.TransferID)
	}
	t.inserted = append(t.inserted, record)
	return nil
}

func (t *memTx) FindTransferByIdempotencyKey(ctx context.Context, sourceAccountID string, key string) (*domain.TransferRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	idx, ok := t.store.idempotency[idempotencyKey{sourceAccountID, key}]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	record := t.store.enrich(t.store.transfers[idx])
	return &record, nil
}
