package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/transactio/transact/internal/models"
)

// ErrorResponse is the wire shape for every failed request.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// respondError maps a core error onto an HTTP status. Business errors carry
// their message as-is; anything unclassified is treated as an infrastructure
// failure and kept vague on the wire.
func respondError(w http.ResponseWriter, err error) {
	var (
		notFound     *models.AccountNotFoundError
		insufficient *models.InsufficientFundsError
		creditFailed *models.CreditFailedError
		logFailed    *models.LogInsertFailedError
		validation   validator.ValidationErrors
	)

	switch {
	case errors.As(err, &notFound):
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.As(err, &insufficient), errors.As(err, &creditFailed), errors.As(err, &logFailed):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.As(err, &validation):
		details := make(map[string]string, len(validation))
		for _, fieldErr := range validation {
			details[fieldErr.Field()] = fmt.Sprintf("failed on '%s' tag", fieldErr.Tag())
		}
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Details: details})
	default:
		slog.Error("request failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "server error"})
	}
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields
// and oversized bodies.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	const maxBytes = 1 << 20 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
