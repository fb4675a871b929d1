package services

import (
	"context"
	"fmt"

	"github.com/transactio/transact/internal/models"
)

// CreateAccountInput is the validated shape for account creation. Type is
// always NORMAL at this layer; MAIN and INTERNAL accounts are provisioned
// out of band.
type CreateAccountInput struct {
	UserID   string `json:"userId" validate:"required"`
	Currency string `json:"currency" validate:"required,len=3,uppercase"`
	Name     string `json:"name" validate:"omitempty,min=2"`
}

// AccountService covers account lifecycle outside the money movement engine:
// creation with generated names, and owner listings.
type AccountService struct {
	store     *LedgerStore
	validator *ValidationHelper
}

func NewAccountService(store *LedgerStore) *AccountService {
	return &AccountService{
		store:     store,
		validator: NewValidationHelper(),
	}
}

// Create inserts a NORMAL account with a zero balance. When no name is given
// one is generated as CURRENCY_n, counting the owner's existing accounts in
// that currency.
func (s *AccountService) Create(ctx context.Context, input CreateAccountInput) (*models.Account, error) {
	if err := s.validator.ValidateStruct(&input); err != nil {
		return nil, err
	}

	if input.Name == "" {
		name, err := s.generateAccountName(ctx, input.UserID, input.Currency)
		if err != nil {
			return nil, err
		}
		input.Name = name
	}

	id, err := s.store.InsertAccount(ctx, input.UserID, models.AccountTypeNormal, input.Name, input.Currency)
	if err != nil {
		return nil, err
	}
	return s.store.GetByID(ctx, id)
}

// generateAccountName yields 'USD_1' for the owner's first USD account,
// 'USD_2' for the second, and so on.
func (s *AccountService) generateAccountName(ctx context.Context, userID, currency string) (string, error) {
	existing, err := s.store.GetByUserIDAndCurrency(ctx, userID, currency)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%d", currency, len(existing)+1), nil
}

// GetByID returns the account, or nil when absent.
func (s *AccountService) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return s.store.GetByID(ctx, id)
}

// GetAccountsForUser lists the owner's accounts in one currency.
func (s *AccountService) GetAccountsForUser(ctx context.Context, userID, currency string) ([]models.Account, error) {
	return s.store.GetByUserIDAndCurrency(ctx, userID, currency)
}

// GetAllAccountsForUser lists every account the owner has.
func (s *AccountService) GetAllAccountsForUser(ctx context.Context, userID string) ([]models.Account, error) {
	return s.store.GetByUserID(ctx, userID)
}

// DeleteAccount removes a non-internal account. Test cleanup only.
func (s *AccountService) DeleteAccount(ctx context.Context, id string) error {
	return s.store.DeleteAccountByID(ctx, id)
}

// CleanupTestData removes every non-internal account and every TEST-type log
// entry, restoring the store to its seeded state between test runs.
func (s *AccountService) CleanupTestData(ctx context.Context) error {
	if err := s.store.DeleteTestTransactions(ctx); err != nil {
		return err
	}
	return s.store.DeleteNonInternalAccounts(ctx)
}
