package services

import (
	"context"
	"database/sql"
	"errors"

	"wallet/internal/models"
)

// PhoneDirectory is the read-only slice of the account store the resolver
// needs.
type PhoneDirectory interface {
	GetByPhone(ctx context.Context, phone string) (models.Account, error)
}

// AccountResolver maps a phone number to the account holding it. Lookup
// only, never mutates.
type AccountResolver struct {
	accounts PhoneDirectory
}

func NewAccountResolver(accounts PhoneDirectory) *AccountResolver {
	return &AccountResolver{accounts: accounts}
}

func (r *AccountResolver) ResolveByPhone(ctx context.Context, phone string) (models.Account, error) {
	account, err := r.accounts.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Account{}, ErrRecipientNotFound
		}
		return models.Account{}, err
	}
	return account, nil
}
