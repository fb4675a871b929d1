package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/transactio/transact/internal/database"
	"github.com/transactio/transact/internal/models"
	"github.com/transactio/transact/internal/services"
)

// DepositRequest funds an account from the outside world. Amount is a
// decimal string in minor currency units, never a float.
type DepositRequest struct {
	AccountID string `json:"accountId" validate:"required"`
	Currency  string `json:"currency" validate:"required,len=3,uppercase"`
	Amount    string `json:"amount" validate:"required"`
}

// TransferRequest moves funds between two accounts of one currency.
type TransferRequest struct {
	FromAccountID string `json:"fromAccountId" validate:"required"`
	ToAccountID   string `json:"toAccountId" validate:"required"`
	Currency      string `json:"currency" validate:"required,len=3,uppercase"`
	Amount        string `json:"amount" validate:"required"`
}

// TransferByUserRequest resolves the target by the recipient's user id.
type TransferByUserRequest struct {
	FromAccountID string `json:"fromAccountId" validate:"required"`
	ToUserID      string `json:"toUserId" validate:"required"`
	Currency      string `json:"currency" validate:"required,len=3,uppercase"`
	Amount        string `json:"amount" validate:"required"`
}

// LedgerHandler exposes the money movement engine and the history queries.
type LedgerHandler struct {
	db        *database.DB
	ledger    *services.LedgerService
	history   *services.HistoryService
	validator *services.ValidationHelper
}

func NewLedgerHandler(db *database.DB, ledger *services.LedgerService, history *services.HistoryService) *LedgerHandler {
	return &LedgerHandler{
		db:        db,
		ledger:    ledger,
		history:   history,
		validator: services.NewValidationHelper(),
	}
}

// Deposit handles POST /api/deposit.
func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		respondError(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	entry, err := h.ledger.Deposit(r.Context(), req.AccountID, req.Currency, amount, models.TransactionTypeReal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"transaction": entry})
}

// Transfer handles POST /api/transfer.
func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		respondError(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	entry, err := h.ledger.Transfer(r.Context(), req.FromAccountID, req.ToAccountID, amount, req.Currency, models.TransactionTypeReal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"transaction": entry})
}

// TransferByUser handles POST /api/transfer/user.
func (h *LedgerHandler) TransferByUser(w http.ResponseWriter, r *http.Request) {
	var req TransferByUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		respondError(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	entry, err := h.ledger.TransferByUserID(r.Context(), req.FromAccountID, req.ToUserID, amount, req.Currency, models.TransactionTypeReal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"transaction": entry})
}

// AccountHistory handles GET /api/account/{accountId}/history?max=N.
func (h *LedgerHandler) AccountHistory(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")

	entries, err := h.history.GetTransactionHistory(r.Context(), accountID, maxParam(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"transactions": entries})
}

// OwnerHistory handles GET /api/user/{userId}/history?max=N&detail=true.
func (h *LedgerHandler) OwnerHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	if r.URL.Query().Get("detail") == "true" {
		details, err := h.history.GetTransactionHistoryForAccountOwnerWithDetail(r.Context(), userID, maxParam(r))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"transactions": details})
		return
	}

	entries, err := h.history.GetTransactionHistoryForAccountOwner(r.Context(), userID, maxParam(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"transactions": entries})
}

// Stats handles GET /api/stats.
func (h *LedgerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.db.Stats())
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", raw)
	}
	if !models.ValidAmount(amount) {
		return decimal.Decimal{}, fmt.Errorf("amount must be a positive whole number of minor currency units, got %s", amount)
	}
	return amount, nil
}

func maxParam(r *http.Request) int {
	raw := r.URL.Query().Get("max")
	if raw == "" {
		return 0
	}
	max, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return max
}
