package handlers

import (
	"encoding/json"
	"net/http"

	"wallet/internal/auth"
	"wallet/internal/money"
	"wallet/internal/websocket"
)

type adjustRequest struct {
	AccountID string `json:"account_id"`
	Amount    string `json:"amount"`
}

// AdminAdjust applies a signed balance delta to any account. The amount
// carries the sign: positive credits, negative debits.
func (h *Handler) AdminAdjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.AccountID == "" {
		respondError(w, http.StatusBadRequest, "account_id is required")
		return
	}
	deltaMinor, err := money.ParseMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	entry, err := h.service.AdjustBalance(r.Context(), req.AccountID, deltaMinor, "admin")
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, entryJSON(entry))
}

// WSBalances upgrades to a websocket streaming the caller's balance
// updates. The token may arrive as a query parameter or a bearer header.
func (h *Handler) WSBalances(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			token = authHeader[7:]
		}
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.AccountID)
}
