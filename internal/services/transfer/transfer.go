package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Gish2003/mock-bank-app/internal/domain/models"
	"github.com/Gish2003/mock-bank-app/internal/lib/apperr"
	"github.com/Gish2003/mock-bank-app/internal/storage"
	"github.com/shopspring/decimal"
)

const (
	msgFieldsRequired      = "Recipient account number and amount are required"
	msgAmountNotPositive   = "Amount must be greater than zero"
	msgAmountPrecision     = "Amount must have at most two decimal places"
	msgSenderNotFound      = "Sender account not found"
	msgSameAccount         = "Cannot send money to your own account"
	msgInsufficientBalance = "Insufficient balance"
	msgRecipientNotFound   = "Recipient account not found"
	msgAccountNotFound     = "Account not found"
	msgTransactionNotFound = "Transaction not found"
)

type Ledger interface {
	AccountByUserID(ctx context.Context, userID int64) (*models.Account, error)
	Transfer(ctx context.Context, senderUserID int64, toAccount string, amount decimal.Decimal, description string) (*models.Receipt, error)
	TransactionsByAccount(ctx context.Context, accountNumber string) ([]models.Transaction, error)
	TransactionForAccount(ctx context.Context, id int64, accountNumber string) (*models.Transaction, error)
}

type Transfer struct {
	log    *slog.Logger
	ledger Ledger
}

type History struct {
	AccountNumber string
	Entries       []models.LedgerEntry
}

func New(log *slog.Logger, ledger Ledger) *Transfer {
	return &Transfer{log: log, ledger: ledger}
}

// Send moves amount from the caller's account to toAccount. A nil amount
// means the client did not supply one.
func (t *Transfer) Send(ctx context.Context, identity models.Identity, toAccount string, amount *decimal.Decimal, description string) (*models.Receipt, error) {
	const op = "services.transfer.Send"

	log := t.log.With(
		slog.String("op", op),
		slog.Int64("user_id", identity.UserID),
		slog.String("to", toAccount),
	)

	if toAccount == "" || amount == nil {
		return nil, apperr.Validation(msgFieldsRequired)
	}
	if !amount.IsPositive() {
		return nil, apperr.Validation(msgAmountNotPositive)
	}
	if !amount.Equal(amount.Round(2)) {
		return nil, apperr.Validation(msgAmountPrecision)
	}
	if description == "" {
		description = models.DefaultTransferDescription
	}

	receipt, err := t.ledger.Transfer(ctx, identity.UserID, toAccount, *amount, description)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAccountNotFound):
			return nil, apperr.NotFound(msgSenderNotFound, err)
		case errors.Is(err, storage.ErrSameAccount):
			return nil, apperr.Validation(msgSameAccount)
		case errors.Is(err, storage.ErrInsufficientFunds):
			log.Info("Insufficient balance", slog.String("amount", amount.StringFixed(2)))
			return nil, apperr.Validation(msgInsufficientBalance)
		case errors.Is(err, storage.ErrRecipientNotFound):
			return nil, apperr.NotFound(msgRecipientNotFound, err)
		default:
			log.Error("Failed to transfer", "error", err)
			return nil, apperr.Internal(fmt.Errorf("%s: %w", op, err))
		}
	}

	log.Info("Money sent",
		slog.Int64("transaction_id", receipt.Transaction.ID),
		slog.String("amount", amount.StringFixed(2)),
	)

	return receipt, nil
}

// History lists every transaction touching the caller's account, newest first.
func (t *Transfer) History(ctx context.Context, identity models.Identity) (*History, error) {
	const op = "services.transfer.History"

	account, err := t.account(ctx, op, identity)
	if err != nil {
		return nil, err
	}

	transactions, err := t.ledger.TransactionsByAccount(ctx, account.Number)
	if err != nil {
		t.log.Error("Failed to list transactions", slog.String("op", op), "error", err)
		return nil, apperr.Internal(fmt.Errorf("%s: %w", op, err))
	}

	entries := make([]models.LedgerEntry, 0, len(transactions))
	for _, tx := range transactions {
		entries = append(entries, models.NewLedgerEntry(tx, account.Number))
	}

	return &History{AccountNumber: account.Number, Entries: entries}, nil
}

// Transaction returns a single transaction if the caller's account is one of
// its sides. Transactions of other accounts are reported as not found.
func (t *Transfer) Transaction(ctx context.Context, identity models.Identity, id int64) (*models.LedgerEntry, error) {
	const op = "services.transfer.Transaction"

	account, err := t.account(ctx, op, identity)
	if err != nil {
		return nil, err
	}

	tx, err := t.ledger.TransactionForAccount(ctx, id, account.Number)
	if err != nil {
		if errors.Is(err, storage.ErrTransactionNotFound) {
			return nil, apperr.NotFound(msgTransactionNotFound, err)
		}
		t.log.Error("Failed to get transaction", slog.String("op", op), "error", err)
		return nil, apperr.Internal(fmt.Errorf("%s: %w", op, err))
	}

	entry := models.NewLedgerEntry(*tx, account.Number)

	return &entry, nil
}

func (t *Transfer) account(ctx context.Context, op string, identity models.Identity) (*models.Account, error) {
	account, err := t.ledger.AccountByUserID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return nil, apperr.NotFound(msgAccountNotFound, err)
		}
		t.log.Error("Failed to get account", slog.String("op", op), "error", err)
		return nil, apperr.Internal(fmt.Errorf("%s: %w", op, err))
	}

	return account, nil
}
