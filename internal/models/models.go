package models

import (
	"time"

	"github.com/lib/pq"
)

type Account struct {
	ID          string    `db:"id" json:"id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Phone       string    `db:"phone" json:"phone"`
	Email       string    `db:"email" json:"email"`
	Balance     int64     `db:"balance" json:"balance"`
	PinHash     string    `db:"pin_hash" json:"-"`
	AvatarRef   string    `db:"avatar_ref" json:"avatar_ref,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// LedgerEntry is immutable once written.
type LedgerEntry struct {
	ID          string    `db:"id" json:"id"`
	FromAccount string    `db:"from_account" json:"from_account"`
	ToAccount   string    `db:"to_account" json:"to_account"`
	FromPhone   string    `db:"from_phone" json:"from_phone"`
	ToPhone     string    `db:"to_phone" json:"to_phone"`
	Amount      int64     `db:"amount" json:"amount"`
	Currency    string    `db:"currency" json:"currency"`
	Status      string    `db:"status" json:"status"`
	Note        string    `db:"note" json:"note,omitempty"`
	Reference   string    `db:"reference" json:"reference"`
	// Participants holds the real account ids only; sentinel parties
	// (TOPUP, ADMIN) are never members.
	Participants pq.StringArray `db:"participants" json:"participants"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

type TopUp struct {
	ID        string    `db:"id" json:"id"`
	AccountID string    `db:"account_id" json:"account_id"`
	Amount    int64     `db:"amount" json:"amount"`
	Method    string    `db:"method" json:"method"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
