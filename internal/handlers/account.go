package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"wallet/internal/middleware"
	"wallet/internal/models"
	"wallet/internal/store"

	"github.com/jmoiron/sqlx"
)

// DefaultBalanceMinor is the opening balance granted when an account is
// first materialized (1000.00 in minor units).
const DefaultBalanceMinor = 100000

// GetAccount returns the caller's account, creating it with the default
// opening balance on first access. The phone stays empty until the caller
// claims one through the profile endpoint.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	account, err := h.accounts.GetByID(r.Context(), accountID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusInternalServerError, "unable to load account")
			return
		}
		account, err = h.bootstrapAccount(r, accountID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to create account")
			return
		}
	}
	respondJSON(w, http.StatusOK, accountJSON(account))
}

func (h *Handler) bootstrapAccount(r *http.Request, accountID string) (models.Account, error) {
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.accounts.Create(r.Context(), tx, accountID, "", "", "", DefaultBalanceMinor); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]any{
			"opening_balance": DefaultBalanceMinor,
			"ip":              r.RemoteAddr,
		})
		return h.audit.Log(r.Context(), tx, accountID, "account_create", "account", accountID, string(data))
	})
	if err != nil {
		return models.Account{}, err
	}
	return h.accounts.GetByID(r.Context(), accountID)
}

type profileRequest struct {
	DisplayName *string `json:"display_name"`
	Phone       *string `json:"phone"`
	AvatarRef   *string `json:"avatar_ref"`
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.DisplayName == nil && req.Phone == nil && req.AvatarRef == nil {
		respondError(w, http.StatusBadRequest, "empty_update")
		return
	}
	err := h.service.UpdateProfile(r.Context(), accountID, store.ProfileUpdate{
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		AvatarRef:   req.AvatarRef,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	account, err := h.accounts.GetByID(r.Context(), accountID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load account")
		return
	}
	respondJSON(w, http.StatusOK, accountJSON(account))
}

type pinRequest struct {
	Pin string `json:"pin"`
}

func (h *Handler) SetPin(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.service.SetPin(r.Context(), accountID, req.Pin); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
