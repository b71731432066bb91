package store

import (
	"context"

	"wallet/internal/models"
)

type TopUpStore struct {
	db DB
}

func NewTopUpStore(db DB) *TopUpStore {
	return &TopUpStore{db: db}
}

func (s *TopUpStore) Insert(ctx context.Context, tx Execer, id, accountID string, amount int64, method, status string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO topups (id, account_id, amount, method, status)
		VALUES ($1, $2, $3, $4, $5)
	`, id, accountID, amount, method, status)
	return err
}

func (s *TopUpStore) ListByAccount(ctx context.Context, accountID string, limit int) ([]models.TopUp, error) {
	var rows []models.TopUp
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, account_id, amount, method, status, created_at
		FROM topups
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
