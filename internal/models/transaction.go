package models

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies log entries. TEST entries are excluded from
// production views and may be bulk-deleted between test runs.
type TransactionType int

const (
	TransactionTypeReal     TransactionType = 1
	TransactionTypeInternal TransactionType = 10
	TransactionTypeTest     TransactionType = 1000
)

// TransactionStatus is the numeric status code stored on a log entry.
type TransactionStatus int

const (
	TransactionStatusUnknown   TransactionStatus = 0
	TransactionStatusPending   TransactionStatus = 1
	TransactionStatusCompleted TransactionStatus = 2
	TransactionStatusFailed    TransactionStatus = 3
)

var transactionStatusNames = map[TransactionStatus]string{
	TransactionStatusUnknown:   "UNKNOWN",
	TransactionStatusPending:   "PENDING",
	TransactionStatusCompleted: "COMPLETED",
	TransactionStatusFailed:    "FAILED",
}

func (s TransactionStatus) String() string {
	if name, ok := transactionStatusNames[s]; ok {
		return name
	}
	return transactionStatusNames[TransactionStatusUnknown]
}

// TransactionLogEntry is one completed debit-credit pair. Rows are append
// only; they are written exclusively by the money movement engine, in the
// same transaction as the balance updates they record.
type TransactionLogEntry struct {
	ID            int64             `json:"id" db:"id"`
	FromAccountID string            `json:"fromAccountId" db:"from_account_id"`
	ToAccountID   string            `json:"toAccountId" db:"to_account_id"`
	Amount        decimal.Decimal   `json:"amount" db:"amount"`
	Type          TransactionType   `json:"type" db:"type"`
	Description   string            `json:"description,omitempty" db:"description"`
	Status        TransactionStatus `json:"status" db:"status"`
	Created       time.Time         `json:"created" db:"created"`
}

// TransactionParty is the counterparty detail joined into owner history.
type TransactionParty struct {
	UserID  string         `json:"userId"`
	Name    string         `json:"name"`
	Email   string         `json:"email"`
	Profile map[string]any `json:"profile,omitempty"`
}

// TransactionDetail is a log entry projected with both parties' user info.
type TransactionDetail struct {
	ID          int64            `json:"id"`
	Description string           `json:"description,omitempty"`
	Status      string           `json:"status"`
	Amount      decimal.Decimal  `json:"amount"`
	Created     time.Time        `json:"created"`
	Type        TransactionType  `json:"type"`
	From        TransactionParty `json:"from"`
	To          TransactionParty `json:"to"`
}

// ParseProfile decodes the profile JSON text stored on a user row. Absent or
// malformed profiles map to nil rather than failing the whole projection.
func ParseProfile(raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var profile map[string]any
	if err := json.Unmarshal(raw, &profile); err != nil {
		slog.Warn("skipping malformed user profile", "error", err)
		return nil
	}
	return profile
}
