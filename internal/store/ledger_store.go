package store

import (
	"context"
	"fmt"

	"wallet/internal/models"

	"github.com/lib/pq"
)

const (
	DefaultPageSize = 8
	MaxPageSize     = 100
)

type LedgerStore struct {
	db DB
}

func NewLedgerStore(db DB) *LedgerStore {
	return &LedgerStore{db: db}
}

type LedgerEntryInput struct {
	ID           string
	FromAccount  string
	ToAccount    string
	FromPhone    string
	ToPhone      string
	Amount       int64
	Currency     string
	Status       string
	Note         string
	Reference    string
	Participants []string
}

// Append writes one immutable entry inside the caller's transaction and
// returns it with the server-assigned timestamp.
func (s *LedgerStore) Append(ctx context.Context, tx Tx, input LedgerEntryInput) (models.LedgerEntry, error) {
	var row models.LedgerEntry
	err := tx.GetContext(ctx, &row, `
		INSERT INTO ledger_entries
			(id, from_account, to_account, from_phone, to_phone, amount, currency, status, note, reference, participants)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, from_account, to_account, from_phone, to_phone, amount, currency, status, note, reference, participants, created_at
	`, input.ID, input.FromAccount, input.ToAccount, input.FromPhone, input.ToPhone,
		input.Amount, input.Currency, input.Status, input.Note, input.Reference,
		pq.StringArray(input.Participants))
	if err != nil {
		return models.LedgerEntry{}, err
	}
	return row, nil
}

// ListByParticipant pages an account's ledger newest first. An empty cursor
// starts at the top; the returned cursor, fed back in, yields the next page.
// An empty next cursor means the ledger is exhausted.
func (s *LedgerStore) ListByParticipant(ctx context.Context, accountID, cursor string, pageSize int) ([]models.LedgerEntry, string, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	query := `
		SELECT id, from_account, to_account, from_phone, to_phone, amount, currency, status, note, reference, participants, created_at
		FROM ledger_entries
		WHERE $1 = ANY(participants)
	`
	args := []any{accountID}
	if cursor != "" {
		createdAt, id, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", err
		}
		query += ` AND (created_at, id) < ($2, $3)`
		args = append(args, createdAt, id)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT $` + itoa(len(args)+1)
	args = append(args, pageSize)

	var rows []models.LedgerEntry
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, "", err
	}
	if len(rows) < pageSize {
		return rows, "", nil
	}
	last := rows[len(rows)-1]
	return rows, encodeCursor(last.CreatedAt, last.ID), nil
}

func itoa(value int) string {
	return fmt.Sprintf("%d", value)
}

func (s *LedgerStore) GetByReference(ctx context.Context, reference string) (models.LedgerEntry, error) {
	var row models.LedgerEntry
	err := s.db.GetContext(ctx, &row, `
		SELECT id, from_account, to_account, from_phone, to_phone, amount, currency, status, note, reference, participants, created_at
		FROM ledger_entries
		WHERE reference = $1
	`, reference)
	if err != nil {
		return models.LedgerEntry{}, err
	}
	return row, nil
}
