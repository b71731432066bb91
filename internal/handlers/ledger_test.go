package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"

	"wallet/internal/models"
	"wallet/internal/store"
)

func TestListLedgerForwardsCursorAndLimit(t *testing.T) {
	var gotAccount, gotCursor string
	var gotLimit int
	ledger := stubLedgerStore{
		listFn: func(_ context.Context, accountID, cursor string, pageSize int) ([]models.LedgerEntry, string, error) {
			gotAccount, gotCursor, gotLimit = accountID, cursor, pageSize
			return []models.LedgerEntry{entryFixture("acc-1", "acc-2", 300)}, "next-page", nil
		},
	}
	h := newTestHandler(stubAccountStore{}, ledger, stubAuditStore{}, stubWalletService{})

	rr := serveAuthed(t, h, http.MethodGet, "/ledger?cursor=abc&limit=5", "acc-1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotAccount != "acc-1" || gotCursor != "abc" || gotLimit != 5 {
		t.Fatalf("unexpected forwarding: %q %q %d", gotAccount, gotCursor, gotLimit)
	}
	var body struct {
		Entries    []map[string]any `json:"entries"`
		NextCursor string           `json:"next_cursor"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(body.Entries) != 1 || body.NextCursor != "next-page" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Entries[0]["amount"] != "3.00" {
		t.Fatalf("unexpected entry: %v", body.Entries[0])
	}
}

func TestListLedgerDefaultsLimit(t *testing.T) {
	gotLimit := -1
	ledger := stubLedgerStore{
		listFn: func(_ context.Context, _, _ string, pageSize int) ([]models.LedgerEntry, string, error) {
			gotLimit = pageSize
			return nil, "", nil
		},
	}
	h := newTestHandler(stubAccountStore{}, ledger, stubAuditStore{}, stubWalletService{})

	rr := serveAuthed(t, h, http.MethodGet, "/ledger", "acc-1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if gotLimit != 0 {
		t.Fatalf("expected zero limit so the store applies its default, got %d", gotLimit)
	}
}

func TestListLedgerBadCursor(t *testing.T) {
	ledger := stubLedgerStore{
		listFn: func(_ context.Context, _, _ string, _ int) ([]models.LedgerEntry, string, error) {
			return nil, "", store.ErrBadCursor
		},
	}
	h := newTestHandler(stubAccountStore{}, ledger, stubAuditStore{}, stubWalletService{})

	rr := serveAuthed(t, h, http.MethodGet, "/ledger?cursor=garbage", "acc-1", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body["error"] != "bad_cursor" {
		t.Fatalf("expected bad_cursor, got %q", body["error"])
	}
}

func TestGetLedgerEntryByReference(t *testing.T) {
	entry := entryFixture("acc-1", "acc-2", 300)
	entry.Participants = []string{"acc-1", "acc-2"}
	ledger := stubLedgerStore{
		getByRefFn: func(_ context.Context, reference string) (models.LedgerEntry, error) {
			if reference != entry.Reference {
				return models.LedgerEntry{}, sql.ErrNoRows
			}
			return entry, nil
		},
	}
	h := newTestHandler(stubAccountStore{}, ledger, stubAuditStore{}, stubWalletService{})

	rr := serveAuthed(t, h, http.MethodGet, "/ledger/"+entry.Reference, "acc-2", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body["reference"] != entry.Reference {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestGetLedgerEntryHiddenFromNonParticipants(t *testing.T) {
	entry := entryFixture("acc-1", "acc-2", 300)
	entry.Participants = []string{"acc-1", "acc-2"}
	ledger := stubLedgerStore{
		getByRefFn: func(_ context.Context, _ string) (models.LedgerEntry, error) {
			return entry, nil
		},
	}
	h := newTestHandler(stubAccountStore{}, ledger, stubAuditStore{}, stubWalletService{})

	rr := serveAuthed(t, h, http.MethodGet, "/ledger/"+entry.Reference, "acc-3", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestGetLedgerEntryUnknownReference(t *testing.T) {
	h := newTestHandler(stubAccountStore{}, stubLedgerStore{}, stubAuditStore{}, stubWalletService{})

	rr := serveAuthed(t, h, http.MethodGet, "/ledger/missing", "acc-1", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestListLedgerEmptyPage(t *testing.T) {
	h := newTestHandler(stubAccountStore{}, stubLedgerStore{}, stubAuditStore{}, stubWalletService{})

	rr := serveAuthed(t, h, http.MethodGet, "/ledger", "acc-1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body struct {
		Entries    []map[string]any `json:"entries"`
		NextCursor string           `json:"next_cursor"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Entries == nil || len(body.Entries) != 0 {
		t.Fatalf("expected an empty entries array, got %+v", body.Entries)
	}
	if body.NextCursor != "" {
		t.Fatalf("expected empty next cursor, got %q", body.NextCursor)
	}
}
