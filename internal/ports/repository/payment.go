package repository

import (
	"context"
	"time"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/ports/persistence"
	"github.com/google/uuid"
)

// IPaymentRepo интерфейс для работы с платежами в БД
type IPaymentRepo interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, succeededAt, failedAt *time.Time, errorMessage *string) error
	// ExpirePending переводит в failed pending-платежи старше olderThan
	ExpirePending(ctx context.Context, olderThan time.Time) (int64, error)

	GetByIDForUpdateTx(ctx context.Context, tx persistence.Transaction, id uuid.UUID) (*domain.Payment, error)
	MarkSucceededTx(ctx context.Context, tx persistence.Transaction, id uuid.UUID, providerID string, succeededAt time.Time) error
}
