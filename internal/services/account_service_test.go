package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/transactio/transact/internal/database"
	"github.com/transactio/transact/internal/models"
)

func newAccountTest(t *testing.T) (*AccountService, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewAccountService(NewLedgerStore(database.New(sqlDB))), mock
}

func TestAccountService_Create(t *testing.T) {
	t.Run("generates the next name in the currency series", func(t *testing.T) {
		svc, mock := newAccountTest(t)

		// One existing USD account, so the new one is USD_2.
		mock.ExpectQuery(quoted(`FROM account WHERE user_id = $1 AND currency = $2`)).
			WithArgs("user1", "USD").
			WillReturnRows(accountRow("9001", "user1", models.AccountTypeNormal, "USD", "1000"))

		mock.ExpectQuery(quoted(`INSERT INTO account`)).
			WithArgs("user1", int(models.AccountTypeNormal), "USD_2", "USD").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("10002"))

		mock.ExpectQuery(quoted(`FROM account WHERE id = $1`)).
			WithArgs("10002").
			WillReturnRows(accountRow("10002", "user1", models.AccountTypeNormal, "USD", "0"))

		account, err := svc.Create(context.Background(), CreateAccountInput{
			UserID:   "user1",
			Currency: "USD",
		})
		assert.NoError(t, err)
		assert.Equal(t, "10002", account.ID)
		assert.Equal(t, "0", account.Balance.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("keeps an explicit name", func(t *testing.T) {
		svc, mock := newAccountTest(t)

		mock.ExpectQuery(quoted(`INSERT INTO account`)).
			WithArgs("user1", int(models.AccountTypeNormal), "savings", "SEK").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("10003"))

		mock.ExpectQuery(quoted(`FROM account WHERE id = $1`)).
			WithArgs("10003").
			WillReturnRows(accountRow("10003", "user1", models.AccountTypeNormal, "SEK", "0"))

		account, err := svc.Create(context.Background(), CreateAccountInput{
			UserID:   "user1",
			Currency: "SEK",
			Name:     "savings",
		})
		assert.NoError(t, err)
		assert.Equal(t, "10003", account.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects invalid input before touching the store", func(t *testing.T) {
		svc, mock := newAccountTest(t)

		cases := []CreateAccountInput{
			{UserID: "", Currency: "USD"},
			{UserID: "user1", Currency: "usd"},
			{UserID: "user1", Currency: "DOLLARS"},
			{UserID: "user1", Currency: "USD", Name: "x"},
		}
		for _, input := range cases {
			_, err := svc.Create(context.Background(), input)
			var verr validator.ValidationErrors
			assert.ErrorAs(t, err, &verr, "input %+v", input)
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountService_CleanupTestData(t *testing.T) {
	svc, mock := newAccountTest(t)

	mock.ExpectExec(quoted(`DELETE FROM transaction_log WHERE type = $1`)).
		WithArgs(int(models.TransactionTypeTest)).
		WillReturnResult(sqlmock.NewResult(0, 200))
	mock.ExpectExec(quoted(`DELETE FROM account WHERE is_internal = false`)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	assert.NoError(t, svc.CleanupTestData(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountService_GetAccountsForUser(t *testing.T) {
	svc, mock := newAccountTest(t)

	mock.ExpectQuery(quoted(`FROM account WHERE user_id = $1 AND currency = $2`)).
		WithArgs("user1", "USD").
		WillReturnRows(accountRow("9001", "user1", models.AccountTypeNormal, "USD", "800"))

	accounts, err := svc.GetAccountsForUser(context.Background(), "user1", "USD")
	assert.NoError(t, err)
	assert.Len(t, accounts, 1)
	assert.Equal(t, "800", accounts[0].Balance.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
