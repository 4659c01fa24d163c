package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/balance_service/internal/apperrors"
	"github.com/SscSPs/balance_service/internal/core/domain"
	portsrepo "github.com/SscSPs/balance_service/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *Store, id, username, balance string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, s.SaveAccount(context.Background(), domain.Account{
		AccountID: id,
		Username:  username,
		Balance:   decimal.RequireFromString(balance),
		CreatedAt: now,
		UpdatedAt: now,
	}, "hash-"+username))
}

func TestSaveAccountRejectsDuplicates(t *testing.T) {
	s := NewStore()
	seed(t, s, "a", "alice", "10")

	err := s.SaveAccount(context.Background(), domain.Account{AccountID: "b", Username: "alice"}, "")
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	err = s.SaveAccount(context.Background(), domain.Account{AccountID: "a", Username: "other"}, "")
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	acc, hash, err := s.FindCredentialsByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "a", acc.AccountID)
	assert.Equal(t, "hash-alice", hash)

	_, err = s.FindAccountByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRunInTxCommitsAllOrNothing(t *testing.T) {
	s := NewStore()
	seed(t, s, "a", "alice", "100")
	seed(t, s, "b", "bob", "0")
	ctx := context.Background()
	now := time.Now().UTC()

	boom := errors.New("boom")
	err := s.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		accs, err := tx.GetAccountsForUpdate(ctx, []string{"a", "b"})
		require.NoError(t, err)
		_, err = tx.UpdateBalance(ctx, "a", accs["a"].Version, decimal.NewFromInt(40), now)
		require.NoError(t, err)
		require.NoError(t, tx.InsertTransfer(ctx, domain.TransferRecord{TransferID: 1, SourceAccountID: "a", DestinationAccountID: "b", Amount: decimal.NewFromInt(60), CreatedAt: now}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	a, _ := s.FindAccountByID(ctx, "a")
	assert.True(t, a.Balance.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, int64(0), a.Version)
	_, err = s.FindTransferByID(ctx, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = s.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		accs, err := tx.GetAccountsForUpdate(ctx, []string{"a", "b"})
		if err != nil {
			return err
		}
		if _, err := tx.UpdateBalance(ctx, "a", accs["a"].Version, decimal.NewFromInt(40), now); err != nil {
			return err
		}
		if _, err := tx.UpdateBalance(ctx, "b", accs["b"].Version, decimal.NewFromInt(60), now); err != nil {
			return err
		}
		return tx.InsertTransfer(ctx, domain.TransferRecord{TransferID: 1, SourceAccountID: "a", DestinationAccountID: "b", Amount: decimal.NewFromInt(60), IdempotencyKey: "k1", CreatedAt: now})
	})
	require.NoError(t, err)

	a, _ = s.FindAccountByID(ctx, "a")
	b, _ := s.FindAccountByID(ctx, "b")
	assert.True(t, a.Balance.Equal(decimal.NewFromInt(40)))
	assert.True(t, b.Balance.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, int64(1), a.Version)
	assert.Equal(t, int64(1), b.Version)

	record, err := s.FindTransferByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", record.SourceUsername)
	assert.Equal(t, "bob", record.DestinationUsername)

	err = s.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		found, err := tx.FindTransferByIdempotencyKey(ctx, "a", "k1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), found.TransferID)
		_, err = tx.FindTransferByIdempotencyKey(ctx, "b", "k1")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestRunInTxDetectsConcurrentWriter(t *testing.T) {
	s := NewStore()
	seed(t, s, "a", "alice", "100")
	ctx := context.Background()

	s.beforeCommit = func() {
		s.beforeCommit = nil
		require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
			_, err := tx.UpdateBalance(ctx, "a", 0, decimal.NewFromInt(90), time.Now())
			return err
		}))
	}

	err := s.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		accs, err := tx.GetAccountsForUpdate(ctx, []string{"a"})
		if err != nil {
			return err
		}
		_, err = tx.UpdateBalance(ctx, "a", accs["a"].Version, decimal.NewFromInt(50), time.Now())
		return err
	})
	require.ErrorIs(t, err, apperrors.ErrVersionConflict)

	a, _ := s.FindAccountByID(ctx, "a")
	assert.True(t, a.Balance.Equal(decimal.NewFromInt(90)), "the losing writer must not be applied")
}

func TestUpdateBalanceGuards(t *testing.T) {
	s := NewStore()
	seed(t, s, "a", "alice", "10")
	ctx := context.Background()

	err := s.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		_, err := tx.UpdateBalance(ctx, "a", 7, decimal.NewFromInt(5), time.Now())
		return err
	})
	assert.ErrorIs(t, err, apperrors.ErrVersionConflict)

	err = s.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		_, err := tx.UpdateBalance(ctx, "a", 0, decimal.NewFromInt(-1), time.Now())
		return err
	})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)

	err = s.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		accs, err := tx.GetAccountsForUpdate(ctx, []string{"a", "missing"})
		require.NoError(t, err)
		assert.Len(t, accs, 1)
		return nil
	})
	assert.NoError(t, err)
}

func TestListTransfersByAccountKeyset(t *testing.T) {
	s := NewStore()
	seed(t, s, "a", "alice", "0")
	seed(t, s, "b", "bob", "0")
	seed(t, s, "c", "carol", "0")
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		for i, pair := range [][2]string{{"a", "b"}, {"b", "a"}, {"b", "c"}, {"a", "c"}} {
			createdAt := base.Add(time.Duration(i/2) * time.Second) // two records share each timestamp
			if err := tx.InsertTransfer(ctx, domain.TransferRecord{
				TransferID:           int64(i + 1),
				SourceAccountID:      pair[0],
				DestinationAccountID: pair[1],
				Amount:               decimal.NewFromInt(1),
				CreatedAt:            createdAt,
			}); err != nil {
				return err
			}
		}
		return nil
	}))

	first, err := s.ListTransfersByAccount(ctx, "a", nil, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, int64(4), first[0].TransferID)
	assert.Equal(t, int64(2), first[1].TransferID)

	last := first[len(first)-1]
	rest, err := s.ListTransfersByAccount(ctx, "a", &domain.HistoryCursor{CreatedAt: last.CreatedAt, TransferID: last.TransferID}, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, int64(1), rest[0].TransferID)
	assert.Equal(t, "alice", rest[0].SourceUsername)

	none, err := s.ListTransfersByAccount(ctx, "nobody", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCancelledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.FindAccountByID(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}
