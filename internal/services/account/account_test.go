package account

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Gish2003/mock-bank-app/internal/domain/models"
	"github.com/Gish2003/mock-bank-app/internal/lib/apperr"
	"github.com/Gish2003/mock-bank-app/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDetailsAndBalance(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	user, _, err := store.SaveUser(ctx, models.User{Username: "jane", Email: "jane@example.com", FullName: "Jane Smith"})
	require.NoError(t, err)

	a := New(discard(), store)
	identity := models.Identity{UserID: user.ID, Username: user.Username}

	details, err := a.Details(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, "ACC1001", details.Number)
	assert.Equal(t, "Jane Smith", details.FullName)
	assert.Equal(t, models.AccountTypeSavings, details.Type)

	account, err := a.Balance(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", account.Balance.StringFixed(2))
}

func TestMissingAccount(t *testing.T) {
	a := New(discard(), memory.New())

	_, err := a.Details(context.Background(), models.Identity{UserID: 42})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = a.Balance(context.Background(), models.Identity{UserID: 42})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

type brokenStore struct{}

func (brokenStore) AccountByUserID(ctx context.Context, userID int64) (*models.Account, error) {
	return nil, errors.New("connection reset")
}

func (brokenStore) AccountDetailsByUserID(ctx context.Context, userID int64) (*models.AccountDetails, error) {
	return nil, errors.New("connection reset")
}

func TestStoreFailureIsInternal(t *testing.T) {
	a := New(discard(), brokenStore{})

	_, err := a.Balance(context.Background(), models.Identity{UserID: 1})
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Equal(t, "Internal server error", apperr.Message(err))
}
