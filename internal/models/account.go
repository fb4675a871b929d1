package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType distinguishes user accounts from the internal plumbing ones.
// MAIN marks the account money lands in when a sender only knows the
// recipient's user id.
type AccountType int

const (
	AccountTypeNormal   AccountType = 1
	AccountTypeInternal AccountType = 10
	AccountTypeMain     AccountType = 11
)

// Reserved system account ids. WORLD represents the off-ledger money source
// and is the only account allowed to overdraw; HOUSE is the internal clearing
// account every deposit is routed through, netting to zero per deposit.
const (
	AccountWorld = "100"
	AccountHouse = "101"
)

// Account is a single-currency balance row. Balance is kept in minor
// currency units (cents, ore) as an integral decimal, never a float.
type Account struct {
	ID         string          `json:"id" db:"id"`
	UserID     *string         `json:"userId" db:"user_id"` // nil for system accounts
	Type       AccountType     `json:"type" db:"type"`
	Name       string          `json:"name" db:"name"`
	Currency   string          `json:"currency" db:"currency"`
	Balance    decimal.Decimal `json:"balance" db:"balance"`
	IsInternal bool            `json:"isInternal" db:"is_internal"`
	Created    time.Time       `json:"created" db:"created"`
}

// IsSystem reports whether the account is one of the two reserved
// counterparty accounts.
func (a *Account) IsSystem() bool {
	return a.ID == AccountWorld || a.ID == AccountHouse
}

// ValidAmount reports whether d can be moved between accounts: a strictly
// positive whole number of minor currency units.
func ValidAmount(d decimal.Decimal) bool {
	return d.Sign() > 0 && d.IsInteger()
}
