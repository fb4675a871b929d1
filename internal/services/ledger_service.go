package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/transactio/transact/internal/database"
	"github.com/transactio/transact/internal/models"
)

// LedgerService is the money movement engine. Its debit-credit-log primitive
// is the only sanctioned mutator of balances and the transaction log; every
// public operation runs inside a retryable transaction so a deadlock re-runs
// the whole body, locks, reads and all.
type LedgerService struct {
	db    *database.DB
	store *LedgerStore
}

func NewLedgerService(db *database.DB, store *LedgerStore) *LedgerService {
	return &LedgerService{db: db, store: store}
}

// debitCreditLog moves amount between two already-validated accounts and
// appends the log entry, all inside tx. The conditional debit's row count is
// the overdraw signal; the callers hold row locks on the accounts they
// resolved, so a zero count here cannot mean "not found".
func (s *LedgerService) debitCreditLog(tx *sql.Tx, fromAccountID, toAccountID string, amount decimal.Decimal, txnType models.TransactionType) (*models.TransactionLogEntry, error) {
	var (
		affected int64
		err      error
	)
	if fromAccountID == models.AccountWorld {
		// WORLD is the off-ledger source and the only account allowed
		// to overdraw.
		affected, err = s.store.Debit(tx, fromAccountID, amount)
	} else {
		affected, err = s.store.DebitIfSufficient(tx, fromAccountID, amount)
	}
	if err != nil {
		return nil, fmt.Errorf("debit account %s: %w", fromAccountID, err)
	}
	if affected != 1 {
		return nil, &models.InsufficientFundsError{AccountID: fromAccountID, Amount: amount}
	}

	affected, err = s.store.Credit(tx, toAccountID, amount)
	if err != nil {
		return nil, fmt.Errorf("credit account %s: %w", toAccountID, err)
	}
	if affected != 1 {
		return nil, &models.CreditFailedError{AccountID: toAccountID, Amount: amount}
	}

	id, err := s.store.InsertLogEntry(tx, fromAccountID, toAccountID, amount, txnType)
	if err != nil {
		return nil, fmt.Errorf("log transaction %s -> %s: %w", fromAccountID, toAccountID, err)
	}
	if id == 0 {
		return nil, &models.LogInsertFailedError{FromAccountID: fromAccountID, ToAccountID: toAccountID, Amount: amount}
	}

	return s.store.GetLogEntryTx(tx, id)
}

// Deposit funds an account from the outside world. The movement is two
// balanced hops, WORLD -> HOUSE -> target, so every log entry stays a
// two-party transfer and HOUSE nets to zero per deposit. Returns the entry
// of the second hop.
func (s *LedgerService) Deposit(ctx context.Context, accountID, currency string, amount decimal.Decimal, txnType models.TransactionType) (*models.TransactionLogEntry, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	txnType = defaultTxnType(txnType)

	var entry *models.TransactionLogEntry
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		target, err := s.store.LockAccount(tx, accountID, currency)
		if err != nil {
			return fmt.Errorf("lock account %s: %w", accountID, err)
		}
		if target == nil {
			return &models.AccountNotFoundError{Role: models.RoleTarget, AccountID: accountID, Currency: currency}
		}

		if _, err := s.debitCreditLog(tx, models.AccountWorld, models.AccountHouse, amount, txnType); err != nil {
			return err
		}
		entry, err = s.debitCreditLog(tx, models.AccountHouse, target.ID, amount, txnType)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("deposit completed",
		"accountId", accountID, "currency", currency, "amount", amount, "logEntryId", entry.ID)
	return entry, nil
}

// Transfer moves amount between two accounts of the same currency. Both rows
// are locked in ascending id order before any write: two transfers over the
// same pair then cannot deadlock each other, and the retry wrapper still
// covers lock cycles against other flows. The primitive runs on the resolved
// ids from the locked reads, not the caller-supplied ones.
func (s *LedgerService) Transfer(ctx context.Context, fromAccountID, toAccountID string, amount decimal.Decimal, currency string, txnType models.TransactionType) (*models.TransactionLogEntry, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	txnType = defaultTxnType(txnType)

	var entry *models.TransactionLogEntry
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		firstID, secondID := fromAccountID, toAccountID
		if firstID > secondID {
			firstID, secondID = secondID, firstID
		}

		first, err := s.store.LockAccount(tx, firstID, currency)
		if err != nil {
			return fmt.Errorf("lock account %s: %w", firstID, err)
		}
		second, err := s.store.LockAccount(tx, secondID, currency)
		if err != nil {
			return fmt.Errorf("lock account %s: %w", secondID, err)
		}

		from, to := first, second
		if firstID != fromAccountID {
			from, to = second, first
		}
		if from == nil {
			return &models.AccountNotFoundError{Role: models.RoleSource, AccountID: fromAccountID, Currency: currency}
		}
		if to == nil {
			return &models.AccountNotFoundError{Role: models.RoleTarget, AccountID: toAccountID, Currency: currency}
		}

		entry, err = s.debitCreditLog(tx, from.ID, to.ID, amount, txnType)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("transfer completed",
		"fromAccountId", fromAccountID, "toAccountId", toAccountID,
		"currency", currency, "amount", amount, "logEntryId", entry.ID)
	return entry, nil
}

// TransferByUserID moves amount from an account to the recipient's MAIN
// account, resolved by user id. Lock order cannot be pre-sorted here because
// the target id is unknown until its row is read; the deadlock retry covers
// the rare cycle.
func (s *LedgerService) TransferByUserID(ctx context.Context, fromAccountID, toUserID string, amount decimal.Decimal, currency string, txnType models.TransactionType) (*models.TransactionLogEntry, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	txnType = defaultTxnType(txnType)

	var entry *models.TransactionLogEntry
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		from, err := s.store.LockAccount(tx, fromAccountID, currency)
		if err != nil {
			return fmt.Errorf("lock account %s: %w", fromAccountID, err)
		}
		if from == nil {
			return &models.AccountNotFoundError{Role: models.RoleSource, AccountID: fromAccountID, Currency: currency}
		}

		to, err := s.store.LockMainAccountByUserID(tx, toUserID)
		if err != nil {
			return fmt.Errorf("lock main account for user %s: %w", toUserID, err)
		}
		if to == nil || to.Currency != currency {
			return &models.AccountNotFoundError{Role: models.RoleTarget, UserID: toUserID, Currency: currency}
		}

		entry, err = s.debitCreditLog(tx, from.ID, to.ID, amount, txnType)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("transfer by user completed",
		"fromAccountId", fromAccountID, "toUserId", toUserID,
		"currency", currency, "amount", amount, "logEntryId", entry.ID)
	return entry, nil
}

func validateAmount(amount decimal.Decimal) error {
	if !models.ValidAmount(amount) {
		return fmt.Errorf("amount must be a positive whole number of minor currency units, got %s", amount)
	}
	return nil
}

func defaultTxnType(txnType models.TransactionType) models.TransactionType {
	if txnType == 0 {
		return models.TransactionTypeReal
	}
	return txnType
}
