package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Account roles used in not-found messages. The same id with the wrong
// currency is indistinguishable from a missing account at this layer, so the
// message always names both.
const (
	RoleSource = "source"
	RoleTarget = "target"
)

// AccountNotFoundError means an id+currency (or user id) pair did not
// resolve to an account row during a row-locking read.
type AccountNotFoundError struct {
	Role      string
	AccountID string
	UserID    string
	Currency  string
}

func (e *AccountNotFoundError) Error() string {
	if e.UserID != "" {
		return fmt.Sprintf("Could not find %s account for user id %s currency %s", e.Role, e.UserID, e.Currency)
	}
	return fmt.Sprintf("Could not find %s account id %s currency %s", e.Role, e.AccountID, e.Currency)
}

// InsufficientFundsError means the conditional debit touched zero rows:
// the account exists (its row lock is held) but the balance guard failed.
type InsufficientFundsError struct {
	AccountID string
	Amount    decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("Overdraw. Insufficient balance in account id %s. Amount = %s", e.AccountID, e.Amount)
}

// CreditFailedError means the unconditional credit touched zero rows. The
// target was existence-checked under lock, so this indicates a logic bug or
// store corruption.
type CreditFailedError struct {
	AccountID string
	Amount    decimal.Decimal
}

func (e *CreditFailedError) Error() string {
	return fmt.Sprintf("Could not credit account id %s. Amount = %s", e.AccountID, e.Amount)
}

// LogInsertFailedError means the transaction log insert produced no id.
type LogInsertFailedError struct {
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
}

func (e *LogInsertFailedError) Error() string {
	return fmt.Sprintf("Failed to log transaction between accounts %s -> %s. Amount = %s",
		e.FromAccountID, e.ToAccountID, e.Amount)
}
