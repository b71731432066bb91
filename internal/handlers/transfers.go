package handlers

import (
	"encoding/json"
	"net/http"

	"wallet/internal/middleware"
	"wallet/internal/money"
	"wallet/internal/services"
)

type transferRequest struct {
	ToPhone string `json:"to_phone"`
	Amount  string `json:"amount"`
	Pin     string `json:"pin"`
	Note    string `json:"note"`
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amountMinor, err := money.ParseMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	entry, err := h.service.Transfer(r.Context(), services.TransferRequest{
		SenderID:       accountID,
		RecipientPhone: req.ToPhone,
		AmountMinor:    amountMinor,
		Pin:            req.Pin,
		Note:           req.Note,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, entryJSON(entry))
}

type topUpRequest struct {
	Amount string `json:"amount"`
}

func (h *Handler) TopUp(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req topUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amountMinor, err := money.ParseMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	entry, err := h.service.TopUp(r.Context(), accountID, amountMinor)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, entryJSON(entry))
}
