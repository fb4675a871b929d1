package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/transactio/transact/internal/services"
)

// AccountHandler exposes account lifecycle and lookups. Authentication is an
// external collaborator; the acting user is taken from the request.
type AccountHandler struct {
	accounts *services.AccountService
}

func NewAccountHandler(accounts *services.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// CreateAccount handles POST /api/account.
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var input services.CreateAccountInput
	if err := decodeJSON(w, r, &input); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	account, err := h.accounts.Create(r.Context(), input)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"account": account})
}

// GetAccount handles GET /api/account/{accountId}.
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")

	account, err := h.accounts.GetByID(r.Context(), accountID)
	if err != nil {
		respondError(w, err)
		return
	}
	if account == nil {
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: "account not found"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"account": account})
}

// ListAccounts handles GET /api/user/{userId}/accounts?currency=USD.
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	currency := r.URL.Query().Get("currency")

	var err error
	var accounts any
	if currency != "" {
		accounts, err = h.accounts.GetAccountsForUser(r.Context(), userID, currency)
	} else {
		accounts, err = h.accounts.GetAllAccountsForUser(r.Context(), userID)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}
