package handlers

import (
	"context"
	"database/sql"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wallet/internal/auth"
	"wallet/internal/config"
	"wallet/internal/models"
	"wallet/internal/services"
	"wallet/internal/store"
	"wallet/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type stubTxRunner struct {
	err error
}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if s.err != nil {
		return s.err
	}
	return fn(nil)
}

type stubAccountStore struct {
	createFn  func(ctx context.Context, tx store.Execer, id, displayName, phone, email string, balance int64) error
	getByIDFn func(ctx context.Context, accountID string) (models.Account, error)
}

func (s stubAccountStore) Create(ctx context.Context, tx store.Execer, id, displayName, phone, email string, balance int64) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, displayName, phone, email, balance)
}

func (s stubAccountStore) GetByID(ctx context.Context, accountID string) (models.Account, error) {
	if s.getByIDFn == nil {
		return models.Account{}, nil
	}
	return s.getByIDFn(ctx, accountID)
}

type stubLedgerStore struct {
	listFn     func(ctx context.Context, accountID, cursor string, pageSize int) ([]models.LedgerEntry, string, error)
	getByRefFn func(ctx context.Context, reference string) (models.LedgerEntry, error)
}

func (s stubLedgerStore) ListByParticipant(ctx context.Context, accountID, cursor string, pageSize int) ([]models.LedgerEntry, string, error) {
	if s.listFn == nil {
		return nil, "", nil
	}
	return s.listFn(ctx, accountID, cursor, pageSize)
}

func (s stubLedgerStore) GetByReference(ctx context.Context, reference string) (models.LedgerEntry, error) {
	if s.getByRefFn == nil {
		return models.LedgerEntry{}, sql.ErrNoRows
	}
	return s.getByRefFn(ctx, reference)
}

type stubAuditStore struct {
	logFn func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

type stubWalletService struct {
	transferFn      func(ctx context.Context, req services.TransferRequest) (models.LedgerEntry, error)
	topUpFn         func(ctx context.Context, accountID string, amountMinor int64) (models.LedgerEntry, error)
	adjustFn        func(ctx context.Context, accountID string, deltaMinor int64, actor string) (models.LedgerEntry, error)
	setPinFn        func(ctx context.Context, accountID, newPin string) error
	updateProfileFn func(ctx context.Context, accountID string, fields store.ProfileUpdate) error
}

func (s stubWalletService) Transfer(ctx context.Context, req services.TransferRequest) (models.LedgerEntry, error) {
	if s.transferFn == nil {
		return models.LedgerEntry{}, nil
	}
	return s.transferFn(ctx, req)
}

func (s stubWalletService) TopUp(ctx context.Context, accountID string, amountMinor int64) (models.LedgerEntry, error) {
	if s.topUpFn == nil {
		return models.LedgerEntry{}, nil
	}
	return s.topUpFn(ctx, accountID, amountMinor)
}

func (s stubWalletService) AdjustBalance(ctx context.Context, accountID string, deltaMinor int64, actor string) (models.LedgerEntry, error) {
	if s.adjustFn == nil {
		return models.LedgerEntry{}, nil
	}
	return s.adjustFn(ctx, accountID, deltaMinor, actor)
}

func (s stubWalletService) SetPin(ctx context.Context, accountID, newPin string) error {
	if s.setPinFn == nil {
		return nil
	}
	return s.setPinFn(ctx, accountID, newPin)
}

func (s stubWalletService) UpdateProfile(ctx context.Context, accountID string, fields store.ProfileUpdate) error {
	if s.updateProfileFn == nil {
		return nil
	}
	return s.updateProfileFn(ctx, accountID, fields)
}

func newTestHandler(accounts AccountStore, ledger LedgerStore, audit AuditStore, service WalletService) *Handler {
	cfg := config.Config{
		AppEnv:         "test",
		Port:           "0",
		JWTSecret:      "secret",
		TokenTTL:       time.Minute,
		AdminSecret:    "admin-secret",
		AllowedOrigins: "*",
	}
	return New(stubTxRunner{}, cfg, accounts, ledger, audit, service, websocket.NewHub())
}

// serveAuthed routes the request through the full router with a valid
// bearer token for accountID.
func serveAuthed(t *testing.T, h *Handler, method, target, accountID string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	token, err := auth.GenerateToken("secret", accountID, time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+token)
	h.Routes().ServeHTTP(rr, req)
	return rr
}

func serveUnauthenticated(t *testing.T, h *Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	h.Routes().ServeHTTP(rr, req)
	return rr
}

func jsonBody(payload string) io.Reader {
	return strings.NewReader(payload)
}

func entryFixture(from, to string, amount int64) models.LedgerEntry {
	return models.LedgerEntry{
		ID:          "entry-1",
		FromAccount: from,
		ToAccount:   to,
		Amount:      amount,
		Currency:    services.Currency,
		Status:      services.StatusSuccess,
		Reference:   from + "_1_abcdefgh",
		CreatedAt:   time.Now().UTC(),
	}
}

func stringPtr(value string) *string {
	return &value
}
