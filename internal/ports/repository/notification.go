package repository

import (
	"context"
	"time"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/ports/persistence"
	"github.com/google/uuid"
)

// INotificationRepo история отправленных уведомлений (append-only)
type INotificationRepo interface {
	Create(ctx context.Context, history *domain.NotificationHistory) error
	CreateTx(ctx context.Context, tx persistence.Transaction, history *domain.NotificationHistory) error
	// ExistsBetween есть ли запись для пользователя в интервале [from, to)
	ExistsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (bool, error)
}
