package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"wallet/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// ListLedger pages the caller's ledger newest first. The cursor is opaque;
// feeding back the returned next_cursor yields the following page, an empty
// next_cursor means the end.
func (h *Handler) ListLedger(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	query := r.URL.Query()
	cursor := query.Get("cursor")
	limit := parseLimit(query.Get("limit"))
	entries, nextCursor, err := h.ledger.ListByParticipant(r.Context(), accountID, cursor, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	normalized := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		normalized = append(normalized, entryJSON(entry))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"entries":     normalized,
		"next_cursor": nextCursor,
	})
}

// GetLedgerEntry looks up one entry by its transfer reference. Only a
// participant of the entry may see it.
func (h *Handler) GetLedgerEntry(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	reference := chi.URLParam(r, "reference")
	entry, err := h.ledger.GetByReference(r.Context(), reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "entry_not_found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load entry")
		return
	}
	participant := false
	for _, id := range entry.Participants {
		if id == accountID {
			participant = true
			break
		}
	}
	if !participant {
		respondError(w, http.StatusNotFound, "entry_not_found")
		return
	}
	respondJSON(w, http.StatusOK, entryJSON(entry))
}

func parseLimit(raw string) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0
	}
	return value
}
