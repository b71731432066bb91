package store

import (
	"context"

	"wallet/internal/models"
)

type AccountStore struct {
	db DB
}

func NewAccountStore(db DB) *AccountStore {
	return &AccountStore{db: db}
}

// ProfileUpdate merges only the fields that are set; a nil field leaves the
// stored value untouched. Balance is deliberately not representable here.
type ProfileUpdate struct {
	DisplayName *string
	Phone       *string
	AvatarRef   *string
}

func (s *AccountStore) Create(ctx context.Context, tx Execer, id, displayName, phone, email string, balance int64) error {
	query := `
		INSERT INTO accounts (id, display_name, phone, email, balance, pin_hash)
		VALUES ($1, $2, $3, $4, $5, '')
	`
	_, err := tx.ExecContext(ctx, query, id, displayName, phone, email, balance)
	return err
}

func (s *AccountStore) GetByID(ctx context.Context, accountID string) (models.Account, error) {
	var row models.Account
	err := s.db.GetContext(ctx, &row, `
		SELECT id, display_name, phone, email, balance, pin_hash, avatar_ref, created_at
		FROM accounts
		WHERE id = $1
	`, accountID)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

// GetByPhone resolves the unique account holding phone. The partial unique
// index on accounts.phone guarantees at most one match.
func (s *AccountStore) GetByPhone(ctx context.Context, phone string) (models.Account, error) {
	var row models.Account
	err := s.db.GetContext(ctx, &row, `
		SELECT id, display_name, phone, email, balance, pin_hash, avatar_ref, created_at
		FROM accounts
		WHERE phone = $1
	`, phone)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

func (s *AccountStore) GetForUpdate(ctx context.Context, tx Getter, accountID string) (models.Account, error) {
	var row models.Account
	err := tx.GetContext(ctx, &row, `
		SELECT id, display_name, phone, email, balance, pin_hash, avatar_ref, created_at
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`, accountID)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

func (s *AccountStore) UpdateBalance(ctx context.Context, tx Execer, accountID string, balance int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $1, updated_at = NOW()
		WHERE id = $2
	`, balance, accountID)
	return err
}

func (s *AccountStore) UpdateProfile(ctx context.Context, tx Execer, accountID string, fields ProfileUpdate) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET display_name = COALESCE($1, display_name),
		    phone = COALESCE($2, phone),
		    avatar_ref = COALESCE($3, avatar_ref),
		    updated_at = NOW()
		WHERE id = $4
	`, fields.DisplayName, fields.Phone, fields.AvatarRef, accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *AccountStore) SetPinHash(ctx context.Context, tx Execer, accountID, pinHash string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET pin_hash = $1, updated_at = NOW()
		WHERE id = $2
	`, pinHash, accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
