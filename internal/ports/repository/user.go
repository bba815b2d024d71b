package repository

import (
	"context"
	"time"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/ports/persistence"
	"github.com/google/uuid"
)

// IUserRepo интерфейс для работы с пользователями (Entitlement Store)
type IUserRepo interface {
	// CreateIfNotExists вставляет пользователя или возвращает существующего по telegram_id
	CreateIfNotExists(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByTelegramID(ctx context.Context, telegramID string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
	UpdateLastSeen(ctx context.Context, userID uuid.UUID) error
	UpdateSettings(ctx context.Context, telegramID string, settings domain.NotificationSettings) error
	UpdateTier(ctx context.Context, telegramID string, tier domain.Tier) error

	// ListDueForNotification пользователи, которым пора отправить уведомление сегодня
	ListDueForNotification(ctx context.Context, clock string, dayStart, dayEnd time.Time) ([]*domain.User, error)

	WithTransaction(ctx context.Context, fn func(context.Context, persistence.Transaction) error) error

	// Транзакционные методы
	GetByTelegramIDForUpdateTx(ctx context.Context, tx persistence.Transaction, telegramID string) (*domain.User, error)
	GetByIDForUpdateTx(ctx context.Context, tx persistence.Transaction, id uuid.UUID) (*domain.User, error)
	UpdateQuotaTx(ctx context.Context, tx persistence.Transaction, user *domain.User) error
	AddCreditsTx(ctx context.Context, tx persistence.Transaction, userID uuid.UUID, spread domain.SpreadType, amount int) error
}
