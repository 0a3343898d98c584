// Package memory is an in-process ledger store. A single mutex serializes
// every write, so a transfer's debit, credit and log append are applied
// together or not at all.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Gish2003/mock-bank-app/internal/domain/models"
	"github.com/Gish2003/mock-bank-app/internal/storage"
	"github.com/shopspring/decimal"
)

type Storage struct {
	mu sync.RWMutex

	users         map[int64]models.User
	usernames     map[string]int64
	emails        map[string]int64
	accounts      map[int64]*models.Account // by user id
	accountNumber map[string]int64          // account number -> user id
	transactions  []models.Transaction

	lastUserID    int64
	lastAccountID int64
	lastTxID      int64

	now func() time.Time
}

func New() *Storage {
	return &Storage{
		users:         make(map[int64]models.User),
		usernames:     make(map[string]int64),
		emails:        make(map[string]int64),
		accounts:      make(map[int64]*models.Account),
		accountNumber: make(map[string]int64),
		now:           time.Now,
	}
}

func (s *Storage) Stop() error {
	return nil
}

func (s *Storage) SaveUser(_ context.Context, user models.User) (*models.User, *models.Account, error) {
	const op = "storage.memory.SaveUser"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usernames[user.Username]; ok {
		return nil, nil, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
	}
	if _, ok := s.emails[user.Email]; ok {
		return nil, nil, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
	}

	now := s.now()

	s.lastUserID++
	user.ID = s.lastUserID
	user.CreatedAt = now

	s.lastAccountID++
	account := &models.Account{
		ID:        s.lastAccountID,
		UserID:    user.ID,
		Number:    models.AccountNumber(user.ID),
		Balance:   models.InitialBalance,
		Type:      models.AccountTypeSavings,
		CreatedAt: now,
	}

	s.users[user.ID] = user
	s.usernames[user.Username] = user.ID
	s.emails[user.Email] = user.ID
	s.accounts[user.ID] = account
	s.accountNumber[account.Number] = user.ID

	acc := *account
	return &user, &acc, nil
}

func (s *Storage) UserByUsername(_ context.Context, username string) (*models.User, error) {
	const op = "storage.memory.UserByUsername"

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usernames[username]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	user := s.users[id]

	return &user, nil
}

func (s *Storage) AccountByUserID(_ context.Context, userID int64) (*models.Account, error) {
	const op = "storage.memory.AccountByUserID"

	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[userID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrAccountNotFound)
	}
	acc := *account

	return &acc, nil
}

func (s *Storage) AccountDetailsByUserID(_ context.Context, userID int64) (*models.AccountDetails, error) {
	const op = "storage.memory.AccountDetailsByUserID"

	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[userID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrAccountNotFound)
	}
	user := s.users[userID]

	return &models.AccountDetails{
		Account:  *account,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
	}, nil
}

func (s *Storage) Transfer(_ context.Context, senderUserID int64, toAccount string, amount decimal.Decimal, description string) (*models.Receipt, error) {
	const op = "storage.memory.Transfer"

	s.mu.Lock()
	defer s.mu.Unlock()

	sender, ok := s.accounts[senderUserID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrAccountNotFound)
	}
	if sender.Number == toAccount {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrSameAccount)
	}
	if sender.Balance.LessThan(amount) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInsufficientFunds)
	}
	recipientUserID, ok := s.accountNumber[toAccount]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrRecipientNotFound)
	}
	recipient := s.accounts[recipientUserID]

	sender.Balance = sender.Balance.Sub(amount)
	recipient.Balance = recipient.Balance.Add(amount)

	s.lastTxID++
	t := models.Transaction{
		ID:          s.lastTxID,
		FromAccount: sender.Number,
		ToAccount:   toAccount,
		Amount:      amount,
		Type:        models.TransactionTypeTransfer,
		Description: description,
		Status:      models.TransactionStatusCompleted,
		CreatedAt:   s.now(),
	}
	s.transactions = append(s.transactions, t)

	return &models.Receipt{Transaction: t, NewBalance: sender.Balance}, nil
}

func (s *Storage) TransactionsByAccount(_ context.Context, accountNumber string) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Transaction, 0)
	for _, t := range s.transactions {
		if t.FromAccount == accountNumber || t.ToAccount == accountNumber {
			out = append(out, t)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	return out, nil
}

func (s *Storage) TransactionForAccount(_ context.Context, id int64, accountNumber string) (*models.Transaction, error) {
	const op = "storage.memory.TransactionForAccount"

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.transactions {
		if t.ID == id && (t.FromAccount == accountNumber || t.ToAccount == accountNumber) {
			found := t
			return &found, nil
		}
	}

	return nil, fmt.Errorf("%s: %w", op, storage.ErrTransactionNotFound)
}
