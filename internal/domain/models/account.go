package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	AccountTypeSavings  = "savings"
	AccountTypeChecking = "checking"

	accountNumberBase = 1000
)

var InitialBalance = decimal.NewFromInt(1000)

type Account struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Number    string          `json:"account_number"`
	Balance   decimal.Decimal `json:"balance"`
	Type      string          `json:"account_type"`
	CreatedAt time.Time       `json:"created_at"`
}

// AccountDetails is an account joined with its owner.
type AccountDetails struct {
	Account
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

func AccountNumber(userID int64) string {
	return fmt.Sprintf("ACC%d", accountNumberBase+userID)
}
