package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/Gish2003/mock-bank-app/internal/domain/models"
	"github.com/Gish2003/mock-bank-app/internal/storage"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"time"
)

const uniqueViolation = "23505"

type Storage struct {
	db *sql.DB
}

func New(dbUrl string) (*Storage, error) {
	db, err := sql.Open("postgres", dbUrl)
	if err != nil {
		return nil, fmt.Errorf("database connection error: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Storage{db: db}, nil
}

func (s *Storage) Stop() error {
	return s.db.Close()
}

// SaveUser inserts the user and its account in one transaction.
func (s *Storage) SaveUser(ctx context.Context, user models.User) (*models.User, *models.Account, error) {
	const op = "storage.postgres.SaveUser"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	err = tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 OR email = $2)",
		user.Username, user.Email,
	).Scan(&exists)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil, nil, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
	}

	saved := user
	err = tx.QueryRowContext(ctx,
		"INSERT INTO users (username, email, password_hash, full_name) VALUES ($1, $2, $3, $4) RETURNING id, created_at",
		user.Username, user.Email, user.PasswordHash, user.FullName,
	).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	account := models.Account{
		UserID:  saved.ID,
		Number:  models.AccountNumber(saved.ID),
		Balance: models.InitialBalance,
		Type:    models.AccountTypeSavings,
	}
	err = tx.QueryRowContext(ctx,
		"INSERT INTO accounts (user_id, account_number, balance, account_type) VALUES ($1, $2, $3, $4) RETURNING id, created_at",
		account.UserID, account.Number, account.Balance, account.Type,
	).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return &saved, &account, nil
}

func (s *Storage) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.postgres.UserByUsername"

	var user models.User

	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, full_name, created_at FROM users WHERE username = $1",
		username,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.FullName, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

func (s *Storage) AccountByUserID(ctx context.Context, userID int64) (*models.Account, error) {
	const op = "storage.postgres.AccountByUserID"

	var account models.Account

	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, account_number, balance, account_type, created_at FROM accounts WHERE user_id = $1",
		userID,
	).Scan(&account.ID, &account.UserID, &account.Number, &account.Balance, &account.Type, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &account, nil
}

func (s *Storage) AccountDetailsByUserID(ctx context.Context, userID int64) (*models.AccountDetails, error) {
	const op = "storage.postgres.AccountDetailsByUserID"

	var d models.AccountDetails

	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.user_id, a.account_number, a.balance, a.account_type, a.created_at,
		       u.username, u.email, u.full_name
		FROM accounts a
		JOIN users u ON a.user_id = u.id
		WHERE a.user_id = $1`,
		userID,
	).Scan(&d.ID, &d.UserID, &d.Number, &d.Balance, &d.Type, &d.CreatedAt, &d.Username, &d.Email, &d.FullName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &d, nil
}

// Transfer moves amount from the account owned by senderUserID to toAccount
// and records the transaction. Debit, credit and insert commit together or
// not at all. Rows are locked in id order so crossing transfers cannot
// deadlock.
func (s *Storage) Transfer(ctx context.Context, senderUserID int64, toAccount string, amount decimal.Decimal, description string) (*models.Receipt, error) {
	const op = "storage.postgres.Transfer"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var senderID int64
	var senderNumber string
	err = tx.QueryRowContext(ctx,
		"SELECT id, account_number FROM accounts WHERE user_id = $1",
		senderUserID,
	).Scan(&senderID, &senderNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if senderNumber == toAccount {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrSameAccount)
	}

	var recipientID int64
	recipientFound := true
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM accounts WHERE account_number = $1",
		toAccount,
	).Scan(&recipientID)
	if errors.Is(err, sql.ErrNoRows) {
		recipientFound = false
	} else if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ids := []int64{senderID}
	if recipientFound {
		ids = append(ids, recipientID)
	}

	balances, err := lockAccounts(ctx, tx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if balances[senderID].LessThan(amount) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInsufficientFunds)
	}
	if !recipientFound {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrRecipientNotFound)
	}

	var newBalance decimal.Decimal
	err = tx.QueryRowContext(ctx,
		"UPDATE accounts SET balance = balance - $1 WHERE id = $2 AND balance >= $1 RETURNING balance",
		amount, senderID,
	).Scan(&newBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInsufficientFunds)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE accounts SET balance = balance + $1 WHERE id = $2",
		amount, recipientID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	} else if n != 1 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrRecipientNotFound)
	}

	t := models.Transaction{
		FromAccount: senderNumber,
		ToAccount:   toAccount,
		Amount:      amount,
		Type:        models.TransactionTypeTransfer,
		Description: description,
		Status:      models.TransactionStatusCompleted,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO transactions (from_account_number, to_account_number, amount, transaction_type, description, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		t.FromAccount, t.ToAccount, t.Amount, t.Type, t.Description, t.Status,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.Receipt{Transaction: t, NewBalance: newBalance}, nil
}

func lockAccounts(ctx context.Context, tx *sql.Tx, ids []int64) (map[int64]decimal.Decimal, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT id, balance FROM accounts WHERE id = ANY($1) ORDER BY id FOR UPDATE",
		pq.Array(ids),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	balances := make(map[int64]decimal.Decimal, len(ids))
	for rows.Next() {
		var id int64
		var balance decimal.Decimal
		if err := rows.Scan(&id, &balance); err != nil {
			return nil, err
		}
		balances[id] = balance
	}

	return balances, rows.Err()
}

const transactionColumns = "id, from_account_number, to_account_number, amount, transaction_type, description, status, created_at"

func (s *Storage) TransactionsByAccount(ctx context.Context, accountNumber string) ([]models.Transaction, error) {
	const op = "storage.postgres.TransactionsByAccount"

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE from_account_number = $1 OR to_account_number = $1 ORDER BY created_at DESC, id DESC",
		accountNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	transactions := make([]models.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return transactions, nil
}

// TransactionForAccount returns the transaction only when accountNumber is
// one of its sides.
func (s *Storage) TransactionForAccount(ctx context.Context, id int64, accountNumber string) (*models.Transaction, error) {
	const op = "storage.postgres.TransactionForAccount"

	row := s.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = $1 AND (from_account_number = $2 OR to_account_number = $2)",
		id, accountNumber,
	)

	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrTransactionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return t, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*models.Transaction, error) {
	var t models.Transaction
	var description sql.NullString

	if err := row.Scan(&t.ID, &t.FromAccount, &t.ToAccount, &t.Amount, &t.Type, &description, &t.Status, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Description = description.String

	return &t, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
