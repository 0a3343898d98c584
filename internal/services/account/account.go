package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Gish2003/mock-bank-app/internal/domain/models"
	"github.com/Gish2003/mock-bank-app/internal/lib/apperr"
	"github.com/Gish2003/mock-bank-app/internal/storage"
)

const msgAccountNotFound = "Account not found"

type AccountProvider interface {
	AccountByUserID(ctx context.Context, userID int64) (*models.Account, error)
	AccountDetailsByUserID(ctx context.Context, userID int64) (*models.AccountDetails, error)
}

type Account struct {
	log      *slog.Logger
	accounts AccountProvider
}

func New(log *slog.Logger, accounts AccountProvider) *Account {
	return &Account{log: log, accounts: accounts}
}

func (a *Account) Details(ctx context.Context, identity models.Identity) (*models.AccountDetails, error) {
	const op = "services.account.Details"

	details, err := a.accounts.AccountDetailsByUserID(ctx, identity.UserID)
	if err != nil {
		return nil, a.wrap(op, identity, err)
	}

	return details, nil
}

func (a *Account) Balance(ctx context.Context, identity models.Identity) (*models.Account, error) {
	const op = "services.account.Balance"

	account, err := a.accounts.AccountByUserID(ctx, identity.UserID)
	if err != nil {
		return nil, a.wrap(op, identity, err)
	}

	return account, nil
}

func (a *Account) wrap(op string, identity models.Identity, err error) error {
	if errors.Is(err, storage.ErrAccountNotFound) {
		return apperr.NotFound(msgAccountNotFound, err)
	}

	a.log.Error("Failed to get account",
		slog.String("op", op),
		slog.Int64("user_id", identity.UserID),
		"error", err,
	)

	return apperr.Internal(fmt.Errorf("%s: %w", op, err))
}
