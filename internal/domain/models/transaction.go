package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionTypeTransfer = "transfer"

	TransactionStatusCompleted = "completed"

	DefaultTransferDescription = "Money transfer"
)

const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

type Transaction struct {
	ID          int64           `json:"id"`
	FromAccount string          `json:"from_account_number"`
	ToAccount   string          `json:"to_account_number"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"transaction_type"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// DirectionFor reports whether the transaction left or entered accountNumber.
func (t Transaction) DirectionFor(accountNumber string) string {
	if t.FromAccount == accountNumber {
		return DirectionSent
	}
	return DirectionReceived
}

// Receipt is the outcome of a completed transfer as seen by the sender.
type Receipt struct {
	Transaction Transaction
	NewBalance  decimal.Decimal
}

// LedgerEntry is a transaction seen from one of its two accounts.
type LedgerEntry struct {
	Transaction
	Direction string
}

func NewLedgerEntry(t Transaction, accountNumber string) LedgerEntry {
	return LedgerEntry{Transaction: t, Direction: t.DirectionFor(accountNumber)}
}
