package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"wallet/internal/events"
	"wallet/internal/models"
	"wallet/internal/store"
	"wallet/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// fakeTxRunner serializes atomic units with a mutex, the same guarantee the
// serializable database transaction gives conflicting transfers.
type fakeTxRunner struct {
	mu  sync.Mutex
	err error
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(nil)
}

// memStore backs every store interface the service needs with plain maps.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]models.Account
	entries  []models.LedgerEntry
	topups   []models.TopUp
	audits   []string
}

func newMemStore() *memStore {
	return &memStore{accounts: make(map[string]models.Account)}
}

func accountFixture(id, phone string, balance int64) models.Account {
	return models.Account{
		ID:          id,
		DisplayName: "Account " + id,
		Phone:       phone,
		Balance:     balance,
		CreatedAt:   time.Now().UTC(),
	}
}

func (m *memStore) putAccount(account models.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
}

func (m *memStore) balance(accountID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[accountID].Balance
}

func (m *memStore) entryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *memStore) GetByID(_ context.Context, accountID string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[accountID]
	if !ok {
		return models.Account{}, sql.ErrNoRows
	}
	return account, nil
}

func (m *memStore) GetByPhone(_ context.Context, phone string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.accounts {
		if account.Phone == phone {
			return account, nil
		}
	}
	return models.Account{}, sql.ErrNoRows
}

func (m *memStore) GetForUpdate(_ context.Context, _ store.Getter, accountID string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[accountID]
	if !ok {
		return models.Account{}, sql.ErrNoRows
	}
	return account, nil
}

func (m *memStore) UpdateBalance(_ context.Context, _ store.Execer, accountID string, balance int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account := m.accounts[accountID]
	account.Balance = balance
	m.accounts[accountID] = account
	return nil
}

func (m *memStore) UpdateProfile(_ context.Context, _ store.Execer, accountID string, fields store.ProfileUpdate) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[accountID]
	if !ok {
		return 0, nil
	}
	if fields.Phone != nil {
		for id, other := range m.accounts {
			if id != accountID && other.Phone == *fields.Phone {
				return 0, &pq.Error{Code: "23505", Constraint: "accounts_phone_key"}
			}
		}
		account.Phone = *fields.Phone
	}
	if fields.DisplayName != nil {
		account.DisplayName = *fields.DisplayName
	}
	if fields.AvatarRef != nil {
		account.AvatarRef = *fields.AvatarRef
	}
	m.accounts[accountID] = account
	return 1, nil
}

func (m *memStore) SetPinHash(_ context.Context, _ store.Execer, accountID, pinHash string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[accountID]
	if !ok {
		return 0, nil
	}
	account.PinHash = pinHash
	m.accounts[accountID] = account
	return 1, nil
}

func (m *memStore) Append(_ context.Context, _ store.Tx, input store.LedgerEntryInput) (models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := models.LedgerEntry{
		ID:           input.ID,
		FromAccount:  input.FromAccount,
		ToAccount:    input.ToAccount,
		FromPhone:    input.FromPhone,
		ToPhone:      input.ToPhone,
		Amount:       input.Amount,
		Currency:     input.Currency,
		Status:       input.Status,
		Note:         input.Note,
		Reference:    input.Reference,
		Participants: append(pq.StringArray{}, input.Participants...),
		CreatedAt:    time.Now().UTC(),
	}
	m.entries = append(m.entries, entry)
	return entry, nil
}

func (m *memStore) Insert(_ context.Context, _ store.Execer, id, accountID string, amount int64, method, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topups = append(m.topups, models.TopUp{ID: id, AccountID: accountID, Amount: amount, Method: method, Status: status})
	return nil
}

func (m *memStore) Log(_ context.Context, _ store.Execer, actorID, action, entityType, entityID, data string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, action)
	return nil
}

type stubHub struct {
	mu      sync.Mutex
	updates []websocket.BalanceUpdate
}

func (s *stubHub) BroadcastBalance(_ string, update websocket.BalanceUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, update)
}

func (s *stubHub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates)
}

type stubPublisher struct {
	mu     sync.Mutex
	events []events.TransferCompleted
	err    error
}

func (s *stubPublisher) Publish(event events.TransferCompleted) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *stubPublisher) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func newTestService(mem *memStore) (*TransferService, *stubHub, *stubPublisher) {
	hub := &stubHub{}
	publisher := &stubPublisher{}
	service := NewTransferService(&fakeTxRunner{}, mem, NewAccountResolver(mem), mem, mem, mem, hub, publisher)
	return service, hub, publisher
}
