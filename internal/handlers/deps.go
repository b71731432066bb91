package handlers

import (
	"context"

	"wallet/internal/models"
	"wallet/internal/services"
	"wallet/internal/store"
)

type AccountStore interface {
	Create(ctx context.Context, tx store.Execer, id, displayName, phone, email string, balance int64) error
	GetByID(ctx context.Context, accountID string) (models.Account, error)
}

type LedgerStore interface {
	ListByParticipant(ctx context.Context, accountID, cursor string, pageSize int) ([]models.LedgerEntry, string, error)
	GetByReference(ctx context.Context, reference string) (models.LedgerEntry, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type WalletService interface {
	Transfer(ctx context.Context, req services.TransferRequest) (models.LedgerEntry, error)
	TopUp(ctx context.Context, accountID string, amountMinor int64) (models.LedgerEntry, error)
	AdjustBalance(ctx context.Context, accountID string, deltaMinor int64, actor string) (models.LedgerEntry, error)
	SetPin(ctx context.Context, accountID, newPin string) error
	UpdateProfile(ctx context.Context, accountID string, fields store.ProfileUpdate) error
}
