package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"time"

	"wallet/internal/db"
	"wallet/internal/events"
	"wallet/internal/models"
	"wallet/internal/money"
	"wallet/internal/pin"
	"wallet/internal/store"
	"wallet/internal/validator"
	"wallet/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidPhone      = errors.New("invalid recipient phone")
	ErrInvalidPin        = errors.New("pin must be 4 digits")
	ErrPinNotSet         = errors.New("pin not configured")
	ErrPinMismatch       = errors.New("incorrect pin")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrSelfTransfer      = errors.New("cannot transfer to own account")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountNotFound   = errors.New("account not found")
	ErrPhoneTaken        = errors.New("phone already in use")
)

const (
	Currency = "BDT"

	// Sentinel counterparties. Neither holds a tracked balance and neither
	// ever appears in an entry's participants.
	SentinelTopUp = "TOPUP"
	SentinelAdmin = "ADMIN"

	StatusSuccess = "success"

	TopUpMethod = "demo-card"
)

type AccountStore interface {
	GetByID(ctx context.Context, accountID string) (models.Account, error)
	GetForUpdate(ctx context.Context, tx store.Getter, accountID string) (models.Account, error)
	UpdateBalance(ctx context.Context, tx store.Execer, accountID string, balance int64) error
	UpdateProfile(ctx context.Context, tx store.Execer, accountID string, fields store.ProfileUpdate) (int64, error)
	SetPinHash(ctx context.Context, tx store.Execer, accountID, pinHash string) (int64, error)
}

type LedgerStore interface {
	Append(ctx context.Context, tx store.Tx, input store.LedgerEntryInput) (models.LedgerEntry, error)
}

type TopUpStore interface {
	Insert(ctx context.Context, tx store.Execer, id, accountID string, amount int64, method, status string) error
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type BalanceHub interface {
	BroadcastBalance(accountID string, update websocket.BalanceUpdate)
}

// TransferService owns every balance mutation. Reads go straight to the
// stores; writes only happen here, inside one serializable unit per
// operation.
type TransferService struct {
	txRunner  db.TxRunner
	accounts  AccountStore
	resolver  *AccountResolver
	ledger    LedgerStore
	topups    TopUpStore
	audit     AuditStore
	hub       BalanceHub
	publisher events.Publisher
}

func NewTransferService(txRunner db.TxRunner, accounts AccountStore, resolver *AccountResolver, ledger LedgerStore, topups TopUpStore, audit AuditStore, hub BalanceHub, publisher events.Publisher) *TransferService {
	return &TransferService{
		txRunner:  txRunner,
		accounts:  accounts,
		resolver:  resolver,
		ledger:    ledger,
		topups:    topups,
		audit:     audit,
		hub:       hub,
		publisher: publisher,
	}
}

type TransferRequest struct {
	SenderID       string
	RecipientPhone string
	AmountMinor    int64
	Pin            string
	Note           string
}

// Transfer moves AmountMinor from the sender to the account holding
// RecipientPhone. Validation happens before the atomic unit and performs no
// mutation; balances are re-read under lock inside the unit.
func (s *TransferService) Transfer(ctx context.Context, req TransferRequest) (models.LedgerEntry, error) {
	if req.AmountMinor <= 0 {
		return models.LedgerEntry{}, ErrInvalidAmount
	}
	if err := validator.ValidatePhone(req.RecipientPhone); err != nil {
		return models.LedgerEntry{}, ErrInvalidPhone
	}
	if err := validator.ValidatePin(req.Pin); err != nil {
		return models.LedgerEntry{}, ErrInvalidPin
	}

	sender, err := s.accounts.GetByID(ctx, req.SenderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.LedgerEntry{}, ErrAccountNotFound
		}
		return models.LedgerEntry{}, err
	}
	if sender.PinHash == "" {
		return models.LedgerEntry{}, ErrPinNotSet
	}
	if !pin.Check(sender.PinHash, req.Pin) {
		return models.LedgerEntry{}, ErrPinMismatch
	}

	recipient, err := s.resolver.ResolveByPhone(ctx, req.RecipientPhone)
	if err != nil {
		return models.LedgerEntry{}, err
	}
	if recipient.ID == req.SenderID {
		return models.LedgerEntry{}, ErrSelfTransfer
	}

	var entry models.LedgerEntry
	var senderBalanceAfter, recipientBalanceAfter int64
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		lockedSender, lockedRecipient, err := lockTwoAccounts(ctx, tx, s.accounts, req.SenderID, recipient.ID)
		if err != nil {
			return err
		}
		if lockedSender.Balance < req.AmountMinor {
			return ErrInsufficientFunds
		}
		senderBalanceAfter = lockedSender.Balance - req.AmountMinor
		recipientBalanceAfter = lockedRecipient.Balance + req.AmountMinor
		if err := s.accounts.UpdateBalance(ctx, tx, req.SenderID, senderBalanceAfter); err != nil {
			return err
		}
		if err := s.accounts.UpdateBalance(ctx, tx, recipient.ID, recipientBalanceAfter); err != nil {
			return err
		}
		entry, err = s.ledger.Append(ctx, tx, store.LedgerEntryInput{
			ID:           uuid.NewString(),
			FromAccount:  req.SenderID,
			ToAccount:    recipient.ID,
			FromPhone:    lockedSender.Phone,
			ToPhone:      lockedRecipient.Phone,
			Amount:       req.AmountMinor,
			Currency:     Currency,
			Status:       StatusSuccess,
			Note:         req.Note,
			Reference:    newReference(req.SenderID),
			Participants: []string{req.SenderID, recipient.ID},
		})
		if err != nil {
			return err
		}
		return s.logAudit(ctx, tx, req.SenderID, "transfer", entry)
	})
	if err != nil {
		return models.LedgerEntry{}, err
	}

	s.hub.BroadcastBalance(req.SenderID, websocket.BalanceUpdate{
		AccountID: req.SenderID,
		Balance:   money.FormatMinor(senderBalanceAfter),
		Currency:  Currency,
		Reference: entry.Reference,
	})
	s.hub.BroadcastBalance(recipient.ID, websocket.BalanceUpdate{
		AccountID: recipient.ID,
		Balance:   money.FormatMinor(recipientBalanceAfter),
		Currency:  Currency,
		Reference: entry.Reference,
	})
	s.publishCompleted(entry)
	return entry, nil
}

// TopUp credits the account from the TOPUP sentinel and records a top-up
// receipt in the same unit.
func (s *TransferService) TopUp(ctx context.Context, accountID string, amountMinor int64) (models.LedgerEntry, error) {
	if amountMinor <= 0 {
		return models.LedgerEntry{}, ErrInvalidAmount
	}
	var entry models.LedgerEntry
	var balanceAfter int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		account, err := s.accounts.GetForUpdate(ctx, tx, accountID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAccountNotFound
			}
			return err
		}
		balanceAfter = account.Balance + amountMinor
		if err := s.accounts.UpdateBalance(ctx, tx, accountID, balanceAfter); err != nil {
			return err
		}
		if err := s.topups.Insert(ctx, tx, uuid.NewString(), accountID, amountMinor, TopUpMethod, StatusSuccess); err != nil {
			return err
		}
		entry, err = s.ledger.Append(ctx, tx, store.LedgerEntryInput{
			ID:           uuid.NewString(),
			FromAccount:  SentinelTopUp,
			ToAccount:    accountID,
			FromPhone:    "",
			ToPhone:      account.Phone,
			Amount:       amountMinor,
			Currency:     Currency,
			Status:       StatusSuccess,
			Note:         "Top-up",
			Reference:    newReference(accountID),
			Participants: []string{accountID},
		})
		if err != nil {
			return err
		}
		return s.logAudit(ctx, tx, accountID, "topup", entry)
	})
	if err != nil {
		return models.LedgerEntry{}, err
	}

	s.hub.BroadcastBalance(accountID, websocket.BalanceUpdate{
		AccountID: accountID,
		Balance:   money.FormatMinor(balanceAfter),
		Currency:  Currency,
		Reference: entry.Reference,
	})
	s.publishCompleted(entry)
	return entry, nil
}

// AdjustBalance applies an administrative delta of either sign. A positive
// delta credits from the ADMIN sentinel, a negative one debits towards it;
// the balance may never go below zero.
func (s *TransferService) AdjustBalance(ctx context.Context, accountID string, deltaMinor int64, actor string) (models.LedgerEntry, error) {
	if deltaMinor == 0 {
		return models.LedgerEntry{}, ErrInvalidAmount
	}
	var entry models.LedgerEntry
	var balanceAfter int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		account, err := s.accounts.GetForUpdate(ctx, tx, accountID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAccountNotFound
			}
			return err
		}
		balanceAfter = account.Balance + deltaMinor
		if balanceAfter < 0 {
			return ErrInsufficientFunds
		}
		if err := s.accounts.UpdateBalance(ctx, tx, accountID, balanceAfter); err != nil {
			return err
		}
		fromAccount, toAccount := SentinelAdmin, accountID
		toPhone := account.Phone
		if deltaMinor < 0 {
			fromAccount, toAccount = accountID, SentinelAdmin
			toPhone = ""
		}
		amount := deltaMinor
		if amount < 0 {
			amount = -amount
		}
		entry, err = s.ledger.Append(ctx, tx, store.LedgerEntryInput{
			ID:           uuid.NewString(),
			FromAccount:  fromAccount,
			ToAccount:    toAccount,
			FromPhone:    "",
			ToPhone:      toPhone,
			Amount:       amount,
			Currency:     Currency,
			Status:       StatusSuccess,
			Note:         "Admin adjustment",
			Reference:    newReference(actor),
			Participants: []string{accountID},
		})
		if err != nil {
			return err
		}
		return s.logAudit(ctx, tx, actor, "adjust", entry)
	})
	if err != nil {
		return models.LedgerEntry{}, err
	}

	s.hub.BroadcastBalance(accountID, websocket.BalanceUpdate{
		AccountID: accountID,
		Balance:   money.FormatMinor(balanceAfter),
		Currency:  Currency,
		Reference: entry.Reference,
	})
	s.publishCompleted(entry)
	return entry, nil
}

// SetPin hashes newPin on this side and stores the digest. Raw or
// pre-hashed PINs from callers are never persisted as-is.
func (s *TransferService) SetPin(ctx context.Context, accountID, newPin string) error {
	if err := validator.ValidatePin(newPin); err != nil {
		return ErrInvalidPin
	}
	hash, err := pin.Hash(newPin)
	if err != nil {
		return err
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.accounts.SetPinHash(ctx, tx, accountID, hash)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAccountNotFound
		}
		return s.audit.Log(ctx, tx, accountID, "pin_set", "account", accountID, "{}")
	})
}

// UpdateProfile merges the provided fields. Phone changes keep the
// store-level uniqueness invariant; balance is not reachable from here.
func (s *TransferService) UpdateProfile(ctx context.Context, accountID string, fields store.ProfileUpdate) error {
	if fields.DisplayName != nil {
		if err := validator.ValidateDisplayName(*fields.DisplayName); err != nil {
			return err
		}
	}
	if fields.Phone != nil {
		if err := validator.ValidatePhone(*fields.Phone); err != nil {
			return ErrInvalidPhone
		}
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.accounts.UpdateProfile(ctx, tx, accountID, fields)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAccountNotFound
		}
		data, _ := json.Marshal(map[string]bool{
			"display_name": fields.DisplayName != nil,
			"phone":        fields.Phone != nil,
			"avatar_ref":   fields.AvatarRef != nil,
		})
		return s.audit.Log(ctx, tx, accountID, "profile_update", "account", accountID, string(data))
	})
	if isUniqueViolation(err) {
		return ErrPhoneTaken
	}
	return err
}

func (s *TransferService) logAudit(ctx context.Context, tx store.Execer, actorID, action string, entry models.LedgerEntry) error {
	data, _ := json.Marshal(map[string]any{
		"entry_id":  entry.ID,
		"reference": entry.Reference,
		"amount":    entry.Amount,
	})
	return s.audit.Log(ctx, tx, actorID, action, "ledger_entry", entry.ID, string(data))
}

func (s *TransferService) publishCompleted(entry models.LedgerEntry) {
	event := events.TransferCompleted{
		EntryID:     entry.ID,
		Reference:   entry.Reference,
		FromAccount: entry.FromAccount,
		ToAccount:   entry.ToAccount,
		Amount:      entry.Amount,
		Currency:    entry.Currency,
		OccurredAt:  time.Now().UTC(),
	}
	if err := s.publisher.Publish(event); err != nil {
		log.Printf("events: failed to publish %s: %v", entry.Reference, err)
	}
}

// IsUniqueViolation reports whether err is the store rejecting a duplicate
// key, e.g. a phone number already held by another account.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// lockTwoAccounts takes FOR UPDATE locks in a deterministic order so two
// opposing transfers cannot deadlock.
func lockTwoAccounts(ctx context.Context, tx store.Getter, accounts AccountStore, firstID, secondID string) (models.Account, models.Account, error) {
	leftID, rightID := orderedIDs(firstID, secondID)
	leftAccount, err := accounts.GetForUpdate(ctx, tx, leftID)
	if err != nil {
		return models.Account{}, models.Account{}, err
	}
	rightAccount, err := accounts.GetForUpdate(ctx, tx, rightID)
	if err != nil {
		return models.Account{}, models.Account{}, err
	}
	if firstID == leftID {
		return leftAccount, rightAccount, nil
	}
	return rightAccount, leftAccount, nil
}

func orderedIDs(firstID, secondID string) (string, string) {
	if firstID <= secondID {
		return firstID, secondID
	}
	return secondID, firstID
}
