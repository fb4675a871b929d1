package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionStatusNames(t *testing.T) {
	assert.Equal(t, "PENDING", TransactionStatusPending.String())
	assert.Equal(t, "COMPLETED", TransactionStatusCompleted.String())
	assert.Equal(t, "FAILED", TransactionStatusFailed.String())
	assert.Equal(t, "UNKNOWN", TransactionStatusUnknown.String())
	assert.Equal(t, "UNKNOWN", TransactionStatus(99).String())
}

func TestParseProfile(t *testing.T) {
	assert.Nil(t, ParseProfile(nil))
	assert.Nil(t, ParseProfile([]byte("")))
	assert.Nil(t, ParseProfile([]byte("not-json")))
	assert.Equal(t,
		map[string]any{"avatar": "a.png"},
		ParseProfile([]byte(`{"avatar":"a.png"}`)))
}

func TestValidAmount(t *testing.T) {
	assert.True(t, ValidAmount(decimal.NewFromInt(1)))
	assert.True(t, ValidAmount(decimal.RequireFromString("1000")))
	assert.False(t, ValidAmount(decimal.Zero))
	assert.False(t, ValidAmount(decimal.NewFromInt(-200)))
	assert.False(t, ValidAmount(decimal.RequireFromString("10.5")))
}

func TestErrorMessages(t *testing.T) {
	insufficient := &InsufficientFundsError{AccountID: "9001", Amount: decimal.NewFromInt(900)}
	assert.Contains(t, insufficient.Error(), "Insufficient balance")
	assert.Contains(t, insufficient.Error(), "9001")
	assert.Contains(t, insufficient.Error(), "900")

	notFound := &AccountNotFoundError{Role: RoleTarget, AccountID: "9002", Currency: "SEK"}
	assert.Contains(t, notFound.Error(), "target")
	assert.Contains(t, notFound.Error(), "9002")
	assert.Contains(t, notFound.Error(), "SEK")

	byUser := &AccountNotFoundError{Role: RoleTarget, UserID: "user2", Currency: "USD"}
	assert.Contains(t, byUser.Error(), "user2")
	assert.Contains(t, byUser.Error(), "USD")

	logFailed := &LogInsertFailedError{FromAccountID: "100", ToAccountID: "101", Amount: decimal.NewFromInt(10)}
	assert.Contains(t, logFailed.Error(), "100 -> 101")
}

func TestAccountIsSystem(t *testing.T) {
	world := Account{ID: AccountWorld}
	house := Account{ID: AccountHouse}
	normal := Account{ID: "9001"}
	assert.True(t, world.IsSystem())
	assert.True(t, house.IsSystem())
	assert.False(t, normal.IsSystem())
}
