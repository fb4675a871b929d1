package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/transactio/transact/internal/database"
	"github.com/transactio/transact/internal/models"
)

const accountColumns = `id, user_id, type, name, currency, balance, is_internal, created`

const logColumns = `id, from_account_id, to_account_id, amount, type, description, status, created`

// LedgerStore is the parameterized-query surface over the account and
// transaction_log tables. Every method is a single statement; affected-row
// counts and generated ids are surfaced as-is because they are the only
// failure signals the money movement engine uses. No business logic here.
type LedgerStore struct {
	db *database.DB
}

func NewLedgerStore(db *database.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// GetByID returns the account, or nil when absent.
func (s *LedgerStore) GetByID(ctx context.Context, id string) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM account WHERE id = $1`, id)
	return scanAccount(row)
}

// GetByIDs bulk-fetches a set of accounts.
func (s *LedgerStore) GetByIDs(ctx context.Context, ids []string) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM account WHERE id = ANY($1) ORDER BY id ASC`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get accounts by ids: %w", err)
	}
	return collectAccounts(rows)
}

func (s *LedgerStore) GetByUserIDAndCurrency(ctx context.Context, userID, currency string) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM account WHERE user_id = $1 AND currency = $2 ORDER BY id ASC`,
		userID, currency)
	if err != nil {
		return nil, fmt.Errorf("get accounts for user %s: %w", userID, err)
	}
	return collectAccounts(rows)
}

func (s *LedgerStore) GetByUserID(ctx context.Context, userID string) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM account WHERE user_id = $1 ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("get accounts for user %s: %w", userID, err)
	}
	return collectAccounts(rows)
}

func (s *LedgerStore) GetMainAccountByUserID(ctx context.Context, userID string) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM account WHERE user_id = $1 AND type = $2`,
		userID, models.AccountTypeMain)
	return scanAccount(row)
}

// InsertAccount creates a NORMAL account row with a zero balance and returns
// the generated id.
func (s *LedgerStore) InsertAccount(ctx context.Context, userID string, accountType models.AccountType, name, currency string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO account (user_id, type, name, currency, balance) VALUES ($1, $2, $3, $4, 0) RETURNING id`,
		userID, accountType, name, currency).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert account: %w", err)
	}
	return id, nil
}

// LockAccount reads an account by id and currency with a row lock held until
// the enclosing transaction ends. Returns nil when the pair resolves to no
// row; the caller decides what that means.
func (s *LedgerStore) LockAccount(tx *sql.Tx, id, currency string) (*models.Account, error) {
	row := tx.QueryRow(
		`SELECT `+accountColumns+` FROM account WHERE id = $1 AND currency = $2 FOR UPDATE`,
		id, currency)
	return scanAccount(row)
}

// LockAccountAnyCurrency row-locks an account by id alone, for flows that
// take the account's own currency as given.
func (s *LedgerStore) LockAccountAnyCurrency(tx *sql.Tx, id string) (*models.Account, error) {
	row := tx.QueryRow(
		`SELECT `+accountColumns+` FROM account WHERE id = $1 FOR UPDATE`, id)
	return scanAccount(row)
}

// LockMainAccountByUserID row-locks the MAIN account owned by userID.
func (s *LedgerStore) LockMainAccountByUserID(tx *sql.Tx, userID string) (*models.Account, error) {
	row := tx.QueryRow(
		`SELECT `+accountColumns+` FROM account WHERE user_id = $1 AND type = $2 FOR UPDATE`,
		userID, models.AccountTypeMain)
	return scanAccount(row)
}

// DebitIfSufficient decrements the balance only where it covers the amount.
// The guard makes check-and-debit one atomic statement; a zero row count is
// the overdraw signal.
func (s *LedgerStore) DebitIfSufficient(tx *sql.Tx, id string, amount decimal.Decimal) (int64, error) {
	res, err := tx.Exec(
		`UPDATE account SET balance = balance - $1 WHERE balance >= $1 AND id = $2`,
		amount, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Debit decrements the balance unconditionally. Only the WORLD account may
// be debited this way.
func (s *LedgerStore) Debit(tx *sql.Tx, id string, amount decimal.Decimal) (int64, error) {
	res, err := tx.Exec(
		`UPDATE account SET balance = balance - $1 WHERE id = $2`,
		amount, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Credit increments the balance and reports how many rows matched.
func (s *LedgerStore) Credit(tx *sql.Tx, id string, amount decimal.Decimal) (int64, error) {
	res, err := tx.Exec(
		`UPDATE account SET balance = balance + $1 WHERE id = $2`,
		amount, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// InsertLogEntry appends one debit-credit pair to the transaction log and
// returns the generated id.
func (s *LedgerStore) InsertLogEntry(tx *sql.Tx, fromAccountID, toAccountID string, amount decimal.Decimal, txnType models.TransactionType) (int64, error) {
	var id int64
	err := tx.QueryRow(
		`INSERT INTO transaction_log (from_account_id, to_account_id, amount, type, status) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		fromAccountID, toAccountID, amount, txnType, models.TransactionStatusCompleted).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetLogEntryTx reads a log entry inside the transaction that wrote it.
func (s *LedgerStore) GetLogEntryTx(tx *sql.Tx, id int64) (*models.TransactionLogEntry, error) {
	row := tx.QueryRow(`SELECT `+logColumns+` FROM transaction_log WHERE id = $1`, id)
	return scanLogEntry(row)
}

// GetLogEntryByID returns a committed log entry, or nil when absent.
func (s *LedgerStore) GetLogEntryByID(ctx context.Context, id int64) (*models.TransactionLogEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+logColumns+` FROM transaction_log WHERE id = $1`, id)
	return scanLogEntry(row)
}

// GetTransactionHistory lists entries touching the account in either
// direction, newest first.
func (s *LedgerStore) GetTransactionHistory(ctx context.Context, accountID string, max int) ([]models.TransactionLogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+logColumns+` FROM transaction_log
		WHERE (from_account_id = $1 OR to_account_id = $1)
		ORDER BY id DESC LIMIT $2`,
		accountID, max)
	if err != nil {
		return nil, fmt.Errorf("get transaction history for account %s: %w", accountID, err)
	}
	return collectLogEntries(rows)
}

// GetTransactionHistoryForAccountOwner lists entries touching any account
// owned by userID, newest first.
func (s *LedgerStore) GetTransactionHistoryForAccountOwner(ctx context.Context, userID string, max int) ([]models.TransactionLogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+logColumns+` FROM transaction_log
		WHERE (
			from_account_id IN (SELECT id FROM account WHERE user_id = $1)
			OR
			to_account_id IN (SELECT id FROM account WHERE user_id = $1)
		)
		ORDER BY id DESC LIMIT $2`,
		userID, max)
	if err != nil {
		return nil, fmt.Errorf("get transaction history for owner %s: %w", userID, err)
	}
	return collectLogEntries(rows)
}

// transactionDetailRow is the raw joined owner-history row; the history
// service maps it into models.TransactionDetail.
type transactionDetailRow struct {
	ID              int64
	Description     sql.NullString
	Status          models.TransactionStatus
	Amount          decimal.Decimal
	Created         sql.NullTime
	Type            models.TransactionType
	FromUserID      string
	ToUserID        string
	FromUserName    string
	FromUserEmail   string
	FromUserProfile []byte
	ToUserName      string
	ToUserEmail     string
	ToUserProfile   []byte
}

const detailColumns = `t.id, t.description, t.status, t.amount, t.created, t.type, t.from_user_id, t.to_user_id,
		uf.name AS from_user_name, uf.email AS from_user_email, uf.profile AS from_user_profile,
		ut.name AS to_user_name, ut.email AS to_user_email, ut.profile AS to_user_profile`

const detailJoin = `t JOIN account af ON t.from_account_id = af.id JOIN account at ON t.to_account_id = at.id`

// GetTransactionHistoryForAccountOwnerWithDetail joins both counterparties'
// user rows onto the owner's history, newest first.
func (s *LedgerStore) GetTransactionHistoryForAccountOwnerWithDetail(ctx context.Context, userID string, max int) ([]transactionDetailRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+detailColumns+` FROM
		(SELECT t.id, t.description, t.status, t.amount, t.created, t.type, af.user_id AS from_user_id, at.user_id AS to_user_id FROM
			(SELECT * FROM transaction_log t WHERE
				(
					from_account_id IN (SELECT id FROM account WHERE user_id = $1)
					OR
					to_account_id IN (SELECT id FROM account WHERE user_id = $1)
				)
			) `+detailJoin+`
		) t JOIN users uf ON t.from_user_id = uf.id JOIN users ut ON t.to_user_id = ut.id
		ORDER BY id DESC LIMIT $2`,
		userID, max)
	if err != nil {
		return nil, fmt.Errorf("get detailed transaction history for owner %s: %w", userID, err)
	}
	return collectDetailRows(rows)
}

// GetTransactionHistoryForAccountOwnerWithDetailByToUserID restricts the
// detailed history to entries between the actor's accounts and userID's, in
// either direction.
func (s *LedgerStore) GetTransactionHistoryForAccountOwnerWithDetailByToUserID(ctx context.Context, actorID, userID string, max int) ([]transactionDetailRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+detailColumns+` FROM
		(SELECT t.id, t.description, t.status, t.amount, t.created, t.type, af.user_id AS from_user_id, at.user_id AS to_user_id FROM
			(SELECT * FROM transaction_log t WHERE
				(
					(from_account_id IN (SELECT id FROM account WHERE user_id = $1) AND to_account_id IN (SELECT id FROM account WHERE user_id = $2))
					OR
					(from_account_id IN (SELECT id FROM account WHERE user_id = $2) AND to_account_id IN (SELECT id FROM account WHERE user_id = $1))
				)
			) `+detailJoin+`
		) t JOIN users uf ON t.from_user_id = uf.id JOIN users ut ON t.to_user_id = ut.id
		ORDER BY id DESC LIMIT $3`,
		actorID, userID, max)
	if err != nil {
		return nil, fmt.Errorf("get detailed transaction history %s <-> %s: %w", actorID, userID, err)
	}
	return collectDetailRows(rows)
}

// DeleteAccountByID removes a non-internal account. Test cleanup only;
// production accounts are never deleted.
func (s *LedgerStore) DeleteAccountByID(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM account WHERE id = $1 AND is_internal = false`, id)
	return err
}

// DeleteNonInternalAccounts removes every non-internal account. Test cleanup only.
func (s *LedgerStore) DeleteNonInternalAccounts(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM account WHERE is_internal = false`)
	return err
}

// DeleteTestTransactions removes TEST-type log entries. Test cleanup only.
func (s *LedgerStore) DeleteTestTransactions(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM transaction_log WHERE type = $1`, models.TransactionTypeTest)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID, &account.UserID, &account.Type, &account.Name,
		&account.Currency, &account.Balance, &account.IsInternal, &account.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &account, nil
}

func collectAccounts(rows *sql.Rows) ([]models.Account, error) {
	defer rows.Close()
	var accounts []models.Account
	for rows.Next() {
		var account models.Account
		if err := rows.Scan(
			&account.ID, &account.UserID, &account.Type, &account.Name,
			&account.Currency, &account.Balance, &account.IsInternal, &account.Created); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func scanLogEntry(row rowScanner) (*models.TransactionLogEntry, error) {
	var entry models.TransactionLogEntry
	var description sql.NullString
	err := row.Scan(
		&entry.ID, &entry.FromAccountID, &entry.ToAccountID, &entry.Amount,
		&entry.Type, &description, &entry.Status, &entry.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan transaction log entry: %w", err)
	}
	entry.Description = description.String
	return &entry, nil
}

func collectLogEntries(rows *sql.Rows) ([]models.TransactionLogEntry, error) {
	defer rows.Close()
	var entries []models.TransactionLogEntry
	for rows.Next() {
		var entry models.TransactionLogEntry
		var description sql.NullString
		if err := rows.Scan(
			&entry.ID, &entry.FromAccountID, &entry.ToAccountID, &entry.Amount,
			&entry.Type, &description, &entry.Status, &entry.Created); err != nil {
			return nil, fmt.Errorf("scan transaction log entry: %w", err)
		}
		entry.Description = description.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func collectDetailRows(rows *sql.Rows) ([]transactionDetailRow, error) {
	defer rows.Close()
	var details []transactionDetailRow
	for rows.Next() {
		var d transactionDetailRow
		if err := rows.Scan(
			&d.ID, &d.Description, &d.Status, &d.Amount, &d.Created, &d.Type,
			&d.FromUserID, &d.ToUserID,
			&d.FromUserName, &d.FromUserEmail, &d.FromUserProfile,
			&d.ToUserName, &d.ToUserEmail, &d.ToUserProfile); err != nil {
			return nil, fmt.Errorf("scan transaction detail: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
