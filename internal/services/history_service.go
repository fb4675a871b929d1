package services

import (
	"context"

	"github.com/transactio/transact/internal/models"
)

// DefaultHistoryLimit bounds history queries when the caller passes no limit.
const DefaultHistoryLimit = 10

// HistoryService is the read side of the ledger: committed-state projections
// over the transaction log, always newest first, always bounded. No
// transaction is taken out.
type HistoryService struct {
	store *LedgerStore
}

func NewHistoryService(store *LedgerStore) *HistoryService {
	return &HistoryService{store: store}
}

// GetTransactionHistory lists entries touching accountID in either direction.
func (s *HistoryService) GetTransactionHistory(ctx context.Context, accountID string, max int) ([]models.TransactionLogEntry, error) {
	return s.store.GetTransactionHistory(ctx, accountID, normalizeLimit(max))
}

// GetTransactionHistoryForAccountOwner lists entries touching any account
// owned by userID.
func (s *HistoryService) GetTransactionHistoryForAccountOwner(ctx context.Context, userID string, max int) ([]models.TransactionLogEntry, error) {
	return s.store.GetTransactionHistoryForAccountOwner(ctx, userID, normalizeLimit(max))
}

// GetTransactionHistoryForAccountOwnerWithDetail returns the owner's history
// with both counterparties' user detail joined in.
func (s *HistoryService) GetTransactionHistoryForAccountOwnerWithDetail(ctx context.Context, userID string, max int) ([]models.TransactionDetail, error) {
	rows, err := s.store.GetTransactionHistoryForAccountOwnerWithDetail(ctx, userID, normalizeLimit(max))
	if err != nil {
		return nil, err
	}
	return mapDetails(rows), nil
}

// GetTransactionHistoryForAccountOwnerWithDetailByToUserID restricts the
// detailed history to movements between the actor and one other owner.
func (s *HistoryService) GetTransactionHistoryForAccountOwnerWithDetailByToUserID(ctx context.Context, actorID, userID string, max int) ([]models.TransactionDetail, error) {
	rows, err := s.store.GetTransactionHistoryForAccountOwnerWithDetailByToUserID(ctx, actorID, userID, normalizeLimit(max))
	if err != nil {
		return nil, err
	}
	return mapDetails(rows), nil
}

func mapDetails(rows []transactionDetailRow) []models.TransactionDetail {
	details := make([]models.TransactionDetail, 0, len(rows))
	for _, r := range rows {
		details = append(details, models.TransactionDetail{
			ID:          r.ID,
			Description: r.Description.String,
			Status:      r.Status.String(),
			Amount:      r.Amount,
			Created:     r.Created.Time,
			Type:        r.Type,
			From: models.TransactionParty{
				UserID:  r.FromUserID,
				Name:    r.FromUserName,
				Email:   r.FromUserEmail,
				Profile: models.ParseProfile(r.FromUserProfile),
			},
			To: models.TransactionParty{
				UserID:  r.ToUserID,
				Name:    r.ToUserName,
				Email:   r.ToUserEmail,
				Profile: models.ParseProfile(r.ToUserProfile),
			},
		})
	}
	return details
}

func normalizeLimit(max int) int {
	if max <= 0 {
		return DefaultHistoryLimit
	}
	return max
}
