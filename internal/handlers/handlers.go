package handlers

import (
	"encoding/json"
	"net/http"

	"wallet/internal/db"
	"wallet/internal/models"
	"wallet/internal/money"
	"wallet/internal/services"
	"wallet/internal/store"
	"wallet/internal/validator"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError translates the sentinel errors the service layer
// returns into stable machine-readable error strings.
func respondServiceError(w http.ResponseWriter, err error) {
	switch err {
	case services.ErrInvalidAmount:
		respondError(w, http.StatusBadRequest, "invalid_amount")
	case services.ErrInvalidPhone:
		respondError(w, http.StatusBadRequest, "invalid_phone")
	case services.ErrInvalidPin:
		respondError(w, http.StatusBadRequest, "invalid_pin")
	case services.ErrPinNotSet:
		respondError(w, http.StatusBadRequest, "pin_not_set")
	case services.ErrPinMismatch:
		respondError(w, http.StatusForbidden, "pin_mismatch")
	case services.ErrRecipientNotFound:
		respondError(w, http.StatusNotFound, "recipient_not_found")
	case services.ErrSelfTransfer:
		respondError(w, http.StatusBadRequest, "self_transfer")
	case services.ErrInsufficientFunds:
		respondError(w, http.StatusBadRequest, "insufficient_funds")
	case services.ErrAccountNotFound:
		respondError(w, http.StatusNotFound, "account_not_found")
	case services.ErrPhoneTaken:
		respondError(w, http.StatusConflict, "phone_taken")
	case validator.ErrInvalidDisplayName:
		respondError(w, http.StatusBadRequest, "invalid_display_name")
	case store.ErrBadCursor:
		respondError(w, http.StatusBadRequest, "bad_cursor")
	case db.ErrTxRetryLimit:
		respondError(w, http.StatusConflict, "transient_conflict")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error")
	}
}

func accountJSON(account models.Account) map[string]any {
	return map[string]any{
		"id":           account.ID,
		"display_name": account.DisplayName,
		"phone":        account.Phone,
		"email":        account.Email,
		"balance":      money.FormatMinor(account.Balance),
		"currency":     services.Currency,
		"avatar_ref":   account.AvatarRef,
		"created_at":   account.CreatedAt,
	}
}

func entryJSON(entry models.LedgerEntry) map[string]any {
	return map[string]any{
		"id":           entry.ID,
		"from_account": entry.FromAccount,
		"to_account":   entry.ToAccount,
		"from_phone":   entry.FromPhone,
		"to_phone":     entry.ToPhone,
		"amount":       money.FormatMinor(entry.Amount),
		"currency":     entry.Currency,
		"status":       entry.Status,
		"note":         entry.Note,
		"reference":    entry.Reference,
		"created_at":   entry.CreatedAt,
	}
}
