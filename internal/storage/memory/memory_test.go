package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Gish2003/mock-bank-app/internal/domain/models"
	"github.com/Gish2003/mock-bank-app/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(t *testing.T, s *Storage, name string) (*models.User, *models.Account) {
	t.Helper()
	user, account, err := s.SaveUser(context.Background(), models.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "hash",
		FullName:     name,
	})
	require.NoError(t, err)
	return user, account
}

func balance(t *testing.T, s *Storage, userID int64) decimal.Decimal {
	t.Helper()
	account, err := s.AccountByUserID(context.Background(), userID)
	require.NoError(t, err)
	return account.Balance
}

func TestSaveUserCreatesAccount(t *testing.T) {
	s := New()

	user, account := newUser(t, s, "alice")

	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "ACC1001", account.Number)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, models.AccountTypeSavings, account.Type)

	details, err := s.AccountDetailsByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", details.Email)
	assert.Equal(t, "ACC1001", details.Number)
}

func TestSaveUserDuplicate(t *testing.T) {
	s := New()
	newUser(t, s, "alice")

	_, _, err := s.SaveUser(context.Background(), models.User{Username: "alice", Email: "other@example.com"})
	assert.ErrorIs(t, err, storage.ErrUserExists)

	_, _, err = s.SaveUser(context.Background(), models.User{Username: "other", Email: "alice@example.com"})
	assert.ErrorIs(t, err, storage.ErrUserExists)
}

func TestTransferErrorOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice, aliceAcc := newUser(t, s, "alice")

	_, err := s.Transfer(ctx, 99, "ACC1001", decimal.NewFromInt(1), "x")
	assert.ErrorIs(t, err, storage.ErrAccountNotFound)

	_, err = s.Transfer(ctx, alice.ID, aliceAcc.Number, decimal.NewFromInt(1), "x")
	assert.ErrorIs(t, err, storage.ErrSameAccount)

	// balance is checked before the recipient lookup
	_, err = s.Transfer(ctx, alice.ID, "ACC9999", decimal.NewFromInt(5000), "x")
	assert.ErrorIs(t, err, storage.ErrInsufficientFunds)

	_, err = s.Transfer(ctx, alice.ID, "ACC9999", decimal.NewFromInt(1), "x")
	assert.ErrorIs(t, err, storage.ErrRecipientNotFound)

	assert.True(t, balance(t, s, alice.ID).Equal(decimal.NewFromInt(1000)))
}

func TestTransferMovesMoney(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice, aliceAcc := newUser(t, s, "alice")
	bob, bobAcc := newUser(t, s, "bob")

	amount := decimal.RequireFromString("100.25")
	receipt, err := s.Transfer(ctx, alice.ID, bobAcc.Number, amount, "rent")
	require.NoError(t, err)

	assert.Equal(t, aliceAcc.Number, receipt.Transaction.FromAccount)
	assert.Equal(t, bobAcc.Number, receipt.Transaction.ToAccount)
	assert.Equal(t, models.TransactionStatusCompleted, receipt.Transaction.Status)
	assert.Equal(t, "899.75", receipt.NewBalance.StringFixed(2))
	assert.Equal(t, "899.75", balance(t, s, alice.ID).StringFixed(2))
	assert.Equal(t, "1100.25", balance(t, s, bob.ID).StringFixed(2))
}

func TestTransactionsOrderedNewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	alice, aliceAcc := newUser(t, s, "alice")
	bob, bobAcc := newUser(t, s, "bob")
	carol, _ := newUser(t, s, "carol")

	_, err := s.Transfer(ctx, alice.ID, bobAcc.Number, decimal.NewFromInt(10), "one")
	require.NoError(t, err)
	_, err = s.Transfer(ctx, bob.ID, aliceAcc.Number, decimal.NewFromInt(5), "two")
	require.NoError(t, err)
	_, err = s.Transfer(ctx, carol.ID, bobAcc.Number, decimal.NewFromInt(1), "three")
	require.NoError(t, err)

	txs, err := s.TransactionsByAccount(ctx, aliceAcc.Number)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "two", txs[0].Description)
	assert.Equal(t, "one", txs[1].Description)

	_, err = s.TransactionForAccount(ctx, txs[0].ID, aliceAcc.Number)
	assert.NoError(t, err)

	// transaction 3 exists but alice is not a party to it
	_, err = s.TransactionForAccount(ctx, 3, aliceAcc.Number)
	assert.ErrorIs(t, err, storage.ErrTransactionNotFound)
}

func TestConcurrentTransfersNoDoubleSpend(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice, _ := newUser(t, s, "alice")
	_, bobAcc := newUser(t, s, "bob")

	const n = 100
	amount := decimal.RequireFromString("7.50")

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := s.Transfer(ctx, alice.ID, bobAcc.Number, amount, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	want := decimal.NewFromInt(1000).Sub(amount.Mul(decimal.NewFromInt(n)))
	assert.True(t, balance(t, s, alice.ID).Equal(want), "got %s want %s", balance(t, s, alice.ID), want)

	txs, err := s.TransactionsByAccount(ctx, bobAcc.Number)
	require.NoError(t, err)
	assert.Len(t, txs, n)
}

func TestConcurrentOverdraftRejected(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice, _ := newUser(t, s, "alice")
	_, bobAcc := newUser(t, s, "bob")

	const n = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := s.Transfer(ctx, alice.ID, bobAcc.Number, decimal.NewFromInt(300), ""); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, "100.00", balance(t, s, alice.ID).StringFixed(2))
}

func TestCrossingTransfersConserveTotal(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice, aliceAcc := newUser(t, s, "alice")
	bob, bobAcc := newUser(t, s, "bob")

	const n = 200
	var wg sync.WaitGroup
	wg.Add(2 * n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			_, _ = s.Transfer(ctx, alice.ID, bobAcc.Number, decimal.NewFromInt(1), fmt.Sprint("a", i))
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Transfer(ctx, bob.ID, aliceAcc.Number, decimal.NewFromInt(1), fmt.Sprint("b", i))
		}()
	}
	wg.Wait()

	total := balance(t, s, alice.ID).Add(balance(t, s, bob.ID))
	assert.True(t, total.Equal(decimal.NewFromInt(2000)), "total %s", total)
}
