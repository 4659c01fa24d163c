package services_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SscSPs/balance_service/internal/apperrors"
	"github.com/SscSPs/balance_service/internal/core/coordinator"
	"github.com/SscSPs/balance_service/internal/core/domain"
	portsrepo "github.com/SscSPs/balance_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/balance_service/internal/core/ports/services"
	"github.com/SscSPs/balance_service/internal/core/services"
	"github.com/SscSPs/balance_service/internal/repositories/database/memory"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testCoordinator() *coordinator.Coordinator {
	return coordinator.New(coordinator.Config{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	})
}

func testNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

// --- Mock LedgerStore ---
type MockLedgerStore struct {
	mock.Mock
}

func (m *MockLedgerStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

// flakyStore reports a version conflict for the first failures attempts and
// then behaves like the wrapped store.
type flakyStore struct {
	portsrepo.LedgerStore
	failures int32
	calls    atomic.Int32
}

func (f *flakyStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	if f.calls.Add(1) <= f.failures {
		return fmt.Errorf("%w: simulated", apperrors.ErrVersionConflict)
	}
	return f.LedgerStore.RunInTx(ctx, fn)
}

type LedgerServiceTestSuite struct {
	suite.Suite
	store  *memory.Store
	ledger portssvc.LedgerSvcFacade
	ctx    context.Context

	clockMu sync.Mutex
	clock   time.Time
}

func (s *LedgerServiceTestSuite) SetupTest() {
	s.store = memory.NewStore()
	s.ctx = context.Background()
	s.clock = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ledger = services.NewLedgerService(s.store.Provider(), testCoordinator(), testNode(s.T()),
		services.WithOperationTimeout(5*time.Second),
		services.WithClock(s.tick),
	)
}

// tick advances the fake clock so every mutation gets a distinct timestamp.
func (s *LedgerServiceTestSuite) tick() time.Time {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *LedgerServiceTestSuite) seed(id, username, balance string) {
	now := time.Now().UTC()
	s.Require().NoError(s.store.SaveAccount(s.ctx, domain.Account{
		AccountID: id,
		Username:  username,
		Balance:   amt(balance),
		CreatedAt: now,
		UpdatedAt: now,
	}, "hash"))
}

func (s *LedgerServiceTestSuite) balance(id string) decimal.Decimal {
	b, err := s.ledger.GetBalance(s.ctx, id)
	s.Require().NoError(err)
	return b
}

func (s *LedgerServiceTestSuite) historyLen(id string) int {
	page, err := s.ledger.GetHistory(s.ctx, id, "", 100)
	s.Require().NoError(err)
	return len(page.Transfers)
}

func (s *LedgerServiceTestSuite) TestDepositAndWithdraw() {
	s.seed("a", "alice", "10.00")

	bal, err := s.ledger.Deposit(s.ctx, "a", amt("5.25"))
	s.Require().NoError(err)
	s.True(bal.Equal(amt("15.25")))

	bal, err = s.ledger.Withdraw(s.ctx, "a", amt("15.25"))
	s.Require().NoError(err)
	s.True(bal.IsZero())

	_, err = s.ledger.Withdraw(s.ctx, "a", amt("0.01"))
	s.ErrorIs(err, apperrors.ErrInsufficientFunds)
	s.True(s.balance("a").IsZero())
}

func (s *LedgerServiceTestSuite) TestDepositValidation() {
	s.seed("a", "alice", "10.00")

	for _, bad := range []string{"0", "-1", "1.005"} {
		_, err := s.ledger.Deposit(s.ctx, "a", amt(bad))
		s.ErrorIs(err, apperrors.ErrInvalidAmount, bad)
	}

	_, err := s.ledger.Deposit(s.ctx, "a", domain.MaxBalance)
	s.ErrorIs(err, apperrors.ErrInvalidAmount, "balance above the maximum")

	_, err = s.ledger.Deposit(s.ctx, "missing", amt("1"))
	s.ErrorIs(err, apperrors.ErrAccountNotFound)

	s.True(s.balance("a").Equal(amt("10.00")))
}

func (s *LedgerServiceTestSuite) TestTransferScenarios() {
	s.seed("a", "alice", "1000.00")
	s.seed("b", "bob", "1000.00")

	// Successful transfer by username.
	record, err := s.ledger.Transfer(s.ctx, domain.TransferIntent{SourceAccountID: "a", DestinationUsername: "bob", Amount: amt("500.00"), Description: "rent"})
	s.Require().NoError(err)
	s.True(record.Amount.Equal(amt("500.00")))
	s.Equal("a", record.SourceAccountID)
	s.Equal("b", record.DestinationAccountID)
	s.Equal("alice", record.SourceUsername)
	s.Equal("bob", record.DestinationUsername)
	s.NotZero(record.TransferID)
	s.True(s.balance("a").Equal(amt("500.00")))
	s.True(s.balance("b").Equal(amt("1500.00")))
	s.Equal(1, s.historyLen("a"))

	// Insufficient funds leaves everything untouched.
	_, err = s.ledger.Transfer(s.ctx, domain.TransferIntent{SourceAccountID: "a", DestinationAccountID: "b", Amount: amt("5000.00")})
	s.ErrorIs(err, apperrors.ErrInsufficientFunds)
	s.NotContains(err.Error(), "500")
	s.True(s.balance("a").Equal(amt("500.00")))
	s.Equal(1, s.historyLen("a"))

	// Self transfer, by id and by username.
	_, err = s.ledger.Transfer(s.ctx, domain.TransferIntent{SourceAccountID: "a", DestinationAccountID: "a", Amount: amt("500.00")})
	s.ErrorIs(err, apperrors.ErrSelfTransferNotAllowed)
	_, err = s.ledger.Transfer(s.ctx, domain.TransferIntent{SourceAccountID: "a", DestinationUsername: "alice", Amount: amt("5000.00")})
	s.ErrorIs(err, apperrors.ErrSelfTransferNotAllowed)

	// Non-positive amounts.
	for _, bad := range []string{"-1", "0"} {
		_, err = s.ledger.Transfer(s.ctx, domain.TransferIntent{SourceAccountID: "a", DestinationAccountID: "b", Amount: amt(bad)})
		s.ErrorIs(err, apperrors.ErrInvalidAmount)
	}

	// Unknown recipient.
	_, err = s.ledger.Transfer(s.ctx, domain.TransferIntent{SourceAccountID: "a", DestinationUsername: "nonexistent", Amount: amt("10")})
	s.ErrorIs(err, apperrors.ErrRecipientNotFound)
	_, err = s.ledger.Transfer(s.ctx, domain.TransferIntent{SourceAccountID: "a", DestinationAccountID: "nonexistent", Amount: amt("10")})
	s.ErrorIs(err, apperrors.ErrRecipientNotFound)

	s.True(s.balance("a").Equal(amt("500.00")))
	s.True(s.balance("b").Equal(amt("1500.00")))
	s.Equal(1, s.historyLen("b"))
}

func (s *LedgerServiceTestSuite) TestTransferPreconditionOrder() {
	s.seed("a", "alice", "0")

	// Invalid amount wins over self transfer.
	_, err := s.ledger.Transfer(s.ctx, domain.TransferIntent{SourceAccountID: "a", DestinationAccountID: "a", Amount: amt("0")})
	s.ErrorIs(err, apperrors.ErrInvalidAmount)

	// Self transfer wins over insufficient funds.
	_, err = s.ledger.Transfer(s.ctx, domain.TransferIntent{SourceAccountID: "a", DestinationAccountID: "a", Amount: amt("10")})
	s.ErrorIs(err, apperrors.ErrSelfTransferNotAllowed)

	// Missing recipient wins over insufficient funds.
	_, err = s.ledger.Transfer(s.ctx, domain.TransferIntent{SourceAccountID: "a", DestinationUsername: "ghost", Amount: amt("10")})
	s.ErrorIs(err, apperrors.ErrRecipientNotFound)

	// Missing source.
	s.seed("b", "bob", "0")
	_, err = s.ledger.Transfer(s.ctx, domain.TransferIntent{SourceAccountID: "ghost", DestinationAccountID: "b", Amount: amt("10")})
	s.ErrorIs(err, apperrors.ErrAccountNotFound)
	s.NotErrorIs(err, apperrors.ErrRecipientNotFound)
}

func (s *LedgerServiceTestSuite) TestTransferIdempotencyKey() {
	s.seed("a", "alice", "100.00")
	s.seed("b", "bob", "0")
	intent := domain.TransferIntent{SourceAccountID: "a", DestinationUsername: "bob", Amount: amt("40.00"), IdempotencyKey: "req-1"}

	first, err := s.ledger.Transfer(s.ctx, intent)
	s.Require().NoError(err)
	second, err := s.ledger.Transfer(s.ctx, intent)
	s.Require().NoError(err)

	s.Equal(first.TransferID, second.TransferID)
	s.True(s.balance("a").Equal(amt("60.00")))
	s.True(s.balance("b").Equal(amt("40.00")))
	s.Equal(1, s.historyLen("a"))

	intent.Amount = amt("41.00")
	_, err = s.ledger.Transfer(s.ctx, intent)
	s.ErrorIs(err, apperrors.ErrValidation)

	// The key is scoped to its source account.
	s.seed("c", "carol", "10.00")
	_, err = s.ledger.Transfer(s.ctx, domain.TransferIntent{SourceAccountID: "c", DestinationAccountID: "b", Amount: amt("1.00"), IdempotencyKey: "req-1"})
	s.NoError(err)
}

func (s *LedgerServiceTestSuite) TestConcurrentDoubleSpend() {
	s.seed("a", "alice", "1000.00")
	s.seed("b", "bob", "1000.00")

	var (
		wg           sync.WaitGroup
		successes    atomic.Int32
		insufficient atomic.Int32
		start        = make(chan struct{})
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := s.ledger.Transfer(s.ctx, domain.TransferIntent{SourceAccountID: "a", DestinationAccountID: "b", Amount: amt("600.00")})
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, apperrors.ErrInsufficientFunds):
				insufficient.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(1), insufficient.Load())
	s.True(s.balance("a").Equal(amt("400.00")))
	s.True(s.balance("b").Equal(amt("1600.00")))
	s.Equal(1, s.historyLen("a"))
}

func (s *LedgerServiceTestSuite) TestConcurrentTransfersConserveTotal() {
	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		s.seed(id, "user-"+id, "250.00")
	}

	var (
		wg        sync.WaitGroup
		committed atomic.Int32
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 50; i++ {
				src := ids[rng.Intn(len(ids))]
				dst := ids[rng.Intn(len(ids))]
				amount := decimal.New(int64(rng.Intn(5000)+1), -2)
				_, err := s.ledger.Transfer(s.ctx, domain.TransferIntent{SourceAccountID: src, DestinationAccountID: dst, Amount: amount})
				if err == nil {
					committed.Add(1)
				}
			}
		}(int64(w))
	}
	wg.Wait()

	total := decimal.Zero
	records := 0
	for _, id := range ids {
		bal := s.balance(id)
		s.False(bal.IsNegative(), "balance of %s went negative", id)
		total = total.Add(bal)

		page, err := s.ledger.GetHistory(s.ctx, id, "", 100)
		s.Require().NoError(err)
		for page.NextCursor != "" {
			records += countSource(page.Transfers, id)
			page, err = s.ledger.GetHistory(s.ctx, id, page.NextCursor, 100)
			s.Require().NoError(err)
		}
		records += countSource(page.Transfers, id)
	}
	s.True(total.Equal(amt("1000.00")), "total drifted to %s", total)
	s.Equal(int(committed.Load()), records)
}

func countSource(records []domain.TransferRecord, id string) int {
	n := 0
	for _, r := range records {
		if r.SourceAccountID == id {
			n++
		}
	}
	return n
}

func (s *LedgerServiceTestSuite) TestGetHistoryPaging() {
	s.seed("a", "alice", "100.00")
	s.seed("b", "bob", "100.00")

	var created []int64
	for i := 0; i < 5; i++ {
		src, dst := "a", "b"
		if i%2 == 1 {
			src, dst = "b", "a"
		}
		r, err := s.ledger.Transfer(s.ctx, domain.TransferIntent{SourceAccountID: src, DestinationAccountID: dst, Amount: amt("1.00")})
		s.Require().NoError(err)
		created = append(created, r.TransferID)
	}

	first, err := s.ledger.GetHistory(s.ctx, "a", "", 2)
	s.Require().NoError(err)
	s.Require().Len(first.Transfers, 2)
	s.Equal(created[4], first.Transfers[0].TransferID)
	s.Equal(created[3], first.Transfers[1].TransferID)
	s.NotEmpty(first.NextCursor)

	// Reads are idempotent.
	again, err := s.ledger.GetHistory(s.ctx, "a", "", 2)
	s.Require().NoError(err)
	s.Equal(first, again)

	second, err := s.ledger.GetHistory(s.ctx, "a", first.NextCursor, 2)
	s.Require().NoError(err)
	s.Require().Len(second.Transfers, 2)
	s.Equal(created[2], second.Transfers[0].TransferID)

	third, err := s.ledger.GetHistory(s.ctx, "a", second.NextCursor, 2)
	s.Require().NoError(err)
	s.Require().Len(third.Transfers, 1)
	s.Equal(created[0], third.Transfers[0].TransferID)
	s.Empty(third.NextCursor)

	bobPage, err := s.ledger.GetHistory(s.ctx, "b", "", 0)
	s.Require().NoError(err)
	s.Len(bobPage.Transfers, 5)
	s.Empty(bobPage.NextCursor)

	_, err = s.ledger.GetHistory(s.ctx, "a", "%%%not-a-cursor", 2)
	s.ErrorIs(err, apperrors.ErrValidation)
	_, err = s.ledger.GetHistory(s.ctx, "missing", "", 2)
	s.ErrorIs(err, apperrors.ErrAccountNotFound)
}

func (s *LedgerServiceTestSuite) TestGetTransferVisibility() {
	s.seed("a", "alice", "10.00")
	s.seed("b", "bob", "0")
	s.seed("c", "carol", "0")

	record, err := s.ledger.Transfer(s.ctx, domain.TransferIntent{SourceAccountID: "a", DestinationAccountID: "b", Amount: amt("1.00")})
	s.Require().NoError(err)

	for _, viewer := range []string{"a", "b"} {
		got, err := s.ledger.GetTransfer(s.ctx, record.TransferID, viewer)
		s.Require().NoError(err)
		s.Equal(record.TransferID, got.TransferID)
	}

	_, err = s.ledger.GetTransfer(s.ctx, record.TransferID, "c")
	s.ErrorIs(err, apperrors.ErrForbidden)

	_, err = s.ledger.GetTransfer(s.ctx, record.TransferID+1, "a")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *LedgerServiceTestSuite) TestRetriesVersionConflicts() {
	s.seed("a", "alice", "10.00")
	s.seed("b", "bob", "0")
	flaky := &flakyStore{LedgerStore: s.store, failures: 2}
	repos := s.store.Provider()
	repos.LedgerStore = flaky
	ledger := services.NewLedgerService(repos, testCoordinator(), testNode(s.T()))

	_, err := ledger.Transfer(s.ctx, domain.TransferIntent{SourceAccountID: "a", DestinationAccountID: "b", Amount: amt("4.00")})
	s.Require().NoError(err)
	s.Equal(int32(3), flaky.calls.Load())
	s.True(s.balance("a").Equal(amt("6.00")))
	s.Equal(1, s.historyLen("a"))
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

func TestLedgerServiceRetryExhaustion(t *testing.T) {
	store := memory.NewStore()
	now := time.Now().UTC()
	require.NoError(t, store.SaveAccount(context.Background(), domain.Account{AccountID: "a", Username: "alice", Balance: amt("10"), CreatedAt: now, UpdatedAt: now}, ""))

	ledgerStore := new(MockLedgerStore)
	ledgerStore.On("RunInTx", mock.Anything, mock.Anything).Return(apperrors.ErrVersionConflict).Times(3)

	repos := store.Provider()
	repos.LedgerStore = ledgerStore
	ledger := services.NewLedgerService(repos, testCoordinator(), testNode(t))

	_, err := ledger.Deposit(context.Background(), "a", amt("1.00"))
	assert.ErrorIs(t, err, apperrors.ErrConcurrencyConflict)
	assert.NotErrorIs(t, err, apperrors.ErrStoreUnavailable)
	ledgerStore.AssertExpectations(t)
	ledgerStore.AssertNumberOfCalls(t, "RunInTx", 3)
}

func TestLedgerServiceStoreFailure(t *testing.T) {
	store := memory.NewStore()
	ledgerStore := new(MockLedgerStore)
	ledgerStore.On("RunInTx", mock.Anything, mock.Anything).Return(errors.New("dial tcp: connection refused")).Once()

	repos := store.Provider()
	repos.LedgerStore = ledgerStore
	ledger := services.NewLedgerService(repos, testCoordinator(), testNode(t))

	_, err := ledger.Withdraw(context.Background(), "a", amt("1.00"))
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	ledgerStore.AssertExpectations(t)
}

func TestLedgerServiceOperationTimeout(t *testing.T) {
	store := memory.NewStore()
	ledgerStore := new(MockLedgerStore)
	ledgerStore.On("RunInTx", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(context.DeadlineExceeded).Once()

	repos := store.Provider()
	repos.LedgerStore = ledgerStore
	ledger := services.NewLedgerService(repos, testCoordinator(), testNode(t), services.WithOperationTimeout(20*time.Millisecond))

	_, err := ledger.Deposit(context.Background(), "a", amt("1.00"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, apperrors.ErrStoreUnavailable)
}
