package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/transactio/transact/internal/database"
	"github.com/transactio/transact/internal/models"
)

func newStoreTest(t *testing.T) (*LedgerStore, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewLedgerStore(database.New(sqlDB)), mock, sqlDB
}

func TestLedgerStore_GetByID(t *testing.T) {
	store, mock, _ := newStoreTest(t)

	t.Run("existing account", func(t *testing.T) {
		mock.ExpectQuery(quoted(`FROM account WHERE id = $1`)).
			WithArgs("9001").
			WillReturnRows(accountRow("9001", "user1", models.AccountTypeNormal, "USD", "1000"))

		account, err := store.GetByID(context.Background(), "9001")
		assert.NoError(t, err)
		assert.Equal(t, "9001", account.ID)
		assert.Equal(t, "USD", account.Currency)
		assert.Equal(t, "1000", account.Balance.String())
		assert.NotNil(t, account.UserID)
		assert.Equal(t, "user1", *account.UserID)
	})

	t.Run("absent account resolves to nil", func(t *testing.T) {
		mock.ExpectQuery(quoted(`FROM account WHERE id = $1`)).
			WithArgs("9999").
			WillReturnRows(sqlmock.NewRows(accountCols()))

		account, err := store.GetByID(context.Background(), "9999")
		assert.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("system account has no owner", func(t *testing.T) {
		mock.ExpectQuery(quoted(`FROM account WHERE id = $1`)).
			WithArgs(models.AccountWorld).
			WillReturnRows(sqlmock.NewRows(accountCols()).
				AddRow(models.AccountWorld, nil, int(models.AccountTypeInternal), "world", "USD", "-5000", true, time.Now()))

		account, err := store.GetByID(context.Background(), models.AccountWorld)
		assert.NoError(t, err)
		assert.Nil(t, account.UserID)
		assert.True(t, account.IsSystem())
		assert.True(t, account.Balance.IsNegative())
	})
}

func TestLedgerStore_GetByIDs(t *testing.T) {
	store, mock, _ := newStoreTest(t)

	mock.ExpectQuery(quoted(`FROM account WHERE id = ANY($1)`)).
		WithArgs(pq.Array([]string{"9001", "9002"})).
		WillReturnRows(sqlmock.NewRows(accountCols()).
			AddRow("9001", "user1", 1, "USD_1", "USD", "800", false, time.Now()).
			AddRow("9002", "user2", 1, "USD_1", "USD", "200", false, time.Now()))

	accounts, err := store.GetByIDs(context.Background(), []string{"9001", "9002"})
	assert.NoError(t, err)
	assert.Len(t, accounts, 2)
	assert.Equal(t, "9001", accounts[0].ID)
	assert.Equal(t, "9002", accounts[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerStore_GetMainAccountByUserID(t *testing.T) {
	store, mock, _ := newStoreTest(t)

	t.Run("resolves the MAIN account", func(t *testing.T) {
		mock.ExpectQuery(quoted(`FROM account WHERE user_id = $1 AND type = $2`)).
			WithArgs("user2", int(models.AccountTypeMain)).
			WillReturnRows(accountRow("9102", "user2", models.AccountTypeMain, "USD", "0"))

		account, err := store.GetMainAccountByUserID(context.Background(), "user2")
		assert.NoError(t, err)
		assert.Equal(t, "9102", account.ID)
		assert.Equal(t, models.AccountTypeMain, account.Type)
	})

	t.Run("user without a MAIN account resolves to nil", func(t *testing.T) {
		mock.ExpectQuery(quoted(`FROM account WHERE user_id = $1 AND type = $2`)).
			WithArgs("ghost", int(models.AccountTypeMain)).
			WillReturnRows(sqlmock.NewRows(accountCols()))

		account, err := store.GetMainAccountByUserID(context.Background(), "ghost")
		assert.NoError(t, err)
		assert.Nil(t, account)
	})
}

func TestLedgerStore_GetLogEntryByID(t *testing.T) {
	store, mock, _ := newStoreTest(t)

	t.Run("committed entry", func(t *testing.T) {
		mock.ExpectQuery(quoted(`FROM transaction_log WHERE id = $1`)).
			WithArgs(int64(52)).
			WillReturnRows(sqlmock.NewRows(logColumnsList()).
				AddRow(52, "9001", "9002", "200", 1, nil, 2, time.Now()))

		entry, err := store.GetLogEntryByID(context.Background(), int64(52))
		assert.NoError(t, err)
		assert.Equal(t, int64(52), entry.ID)
		assert.Equal(t, "200", entry.Amount.String())
	})

	t.Run("absent entry resolves to nil", func(t *testing.T) {
		mock.ExpectQuery(quoted(`FROM transaction_log WHERE id = $1`)).
			WithArgs(int64(404)).
			WillReturnRows(sqlmock.NewRows(logColumnsList()))

		entry, err := store.GetLogEntryByID(context.Background(), int64(404))
		assert.NoError(t, err)
		assert.Nil(t, entry)
	})
}

func TestLedgerStore_LockAccountAnyCurrency(t *testing.T) {
	store, mock, sqlDB := newStoreTest(t)

	mock.ExpectBegin()
	tx, err := sqlDB.Begin()
	assert.NoError(t, err)

	mock.ExpectQuery(quoted(`FROM account WHERE id = $1 FOR UPDATE`)).
		WithArgs("9001").
		WillReturnRows(accountRow("9001", "user1", models.AccountTypeNormal, "SEK", "300"))

	account, err := store.LockAccountAnyCurrency(tx, "9001")
	assert.NoError(t, err)
	assert.Equal(t, "SEK", account.Currency)
}

func TestLedgerStore_DebitIfSufficient(t *testing.T) {
	store, mock, sqlDB := newStoreTest(t)

	t.Run("surfaces the affected row count", func(t *testing.T) {
		mock.ExpectBegin()
		tx, err := sqlDB.Begin()
		assert.NoError(t, err)

		mock.ExpectExec(quoted(`UPDATE account SET balance = balance - $1 WHERE balance >= $1 AND id = $2`)).
			WithArgs("500", "9001").
			WillReturnResult(sqlmock.NewResult(0, 1))

		affected, err := store.DebitIfSufficient(tx, "9001", decimal.NewFromInt(500))
		assert.NoError(t, err)
		assert.Equal(t, int64(1), affected)
	})

	t.Run("zero rows on overdraw", func(t *testing.T) {
		mock.ExpectBegin()
		tx, err := sqlDB.Begin()
		assert.NoError(t, err)

		mock.ExpectExec(quoted(`UPDATE account SET balance = balance - $1 WHERE balance >= $1 AND id = $2`)).
			WithArgs("5000", "9001").
			WillReturnResult(sqlmock.NewResult(0, 0))

		affected, err := store.DebitIfSufficient(tx, "9001", decimal.NewFromInt(5000))
		assert.NoError(t, err)
		assert.Zero(t, affected)
	})
}

func TestLedgerStore_InsertLogEntry(t *testing.T) {
	store, mock, sqlDB := newStoreTest(t)

	mock.ExpectBegin()
	tx, err := sqlDB.Begin()
	assert.NoError(t, err)

	mock.ExpectQuery(quoted(`INSERT INTO transaction_log`)).
		WithArgs("9001", "9002", "200", int(models.TransactionTypeReal), int(models.TransactionStatusCompleted)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(77))

	id, err := store.InsertLogEntry(tx, "9001", "9002", decimal.NewFromInt(200), models.TransactionTypeReal)
	assert.NoError(t, err)
	assert.Equal(t, int64(77), id)
}

func TestLedgerStore_GetTransactionHistory(t *testing.T) {
	store, mock, _ := newStoreTest(t)

	mock.ExpectQuery(quoted(`WHERE (from_account_id = $1 OR to_account_id = $1) ORDER BY id DESC LIMIT $2`)).
		WithArgs("9001", 10).
		WillReturnRows(sqlmock.NewRows(logColumnsList()).
			AddRow(52, "9001", "9002", "200", 1, nil, 2, time.Now()).
			AddRow(51, "9002", "9001", "100", 1, "weekly settle", 2, time.Now()))

	entries, err := store.GetTransactionHistory(context.Background(), "9001", 10)
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, int64(52), entries[0].ID)
	assert.Equal(t, int64(51), entries[1].ID)
	assert.Equal(t, "weekly settle", entries[1].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerStore_DeleteTestTransactions(t *testing.T) {
	store, mock, _ := newStoreTest(t)

	mock.ExpectExec(quoted(`DELETE FROM transaction_log WHERE type = $1`)).
		WithArgs(int(models.TransactionTypeTest)).
		WillReturnResult(sqlmock.NewResult(0, 12))

	assert.NoError(t, store.DeleteTestTransactions(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
