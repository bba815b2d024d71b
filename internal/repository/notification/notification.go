package notificationRepo

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/ports/persistence"
	ports "github.com/Mel762/telegramTarorApp/internal/ports/repository"
	"github.com/google/uuid"
)

type Repository struct {
	db        persistence.Persistence
	Log       *slog.Logger
	tableName string
}

// New создаёт репозиторий истории уведомлений
func New(db persistence.Persistence, log *slog.Logger) ports.INotificationRepo {
	return &Repository{
		db:        db,
		Log:       log,
		tableName: "notification_history",
	}
}

func (r *Repository) insertQuery() string {
	return fmt.Sprintf(`INSERT INTO %s (id, user_id, message_type, created_at) VALUES (:id, :user_id, :message_type, :created_at)`,
		r.tableName)
}

// Create добавляет запись в историю
func (r *Repository) Create(ctx context.Context, history *domain.NotificationHistory) error {
	return r.create(ctx, r.db, history)
}

// CreateTx добавляет запись в историю в транзакции
func (r *Repository) CreateTx(ctx context.Context, tx persistence.Transaction, history *domain.NotificationHistory) error {
	return r.create(ctx, tx, history)
}

func (r *Repository) create(ctx context.Context, q persistence.Querier, history *domain.NotificationHistory) error {
	if err := q.NamedExec(ctx, r.insertQuery(), history); err != nil {
		r.Log.Error("failed to create notification history",
			"error", err,
			"user_id", history.UserID,
			"message_type", history.MessageType)
		return fmt.Errorf("failed to create notification history: %w", err)
	}
	r.Log.Debug("notification history created",
		"user_id", history.UserID,
		"message_type", history.MessageType)
	return nil
}

// ExistsBetween есть ли запись в интервале [from, to)
func (r *Repository) ExistsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE user_id = $1 AND created_at >= $2 AND created_at < $3)`,
		r.tableName)

	var exists bool
	if err := r.db.Get(ctx, &exists, query, userID, from, to); err != nil {
		r.Log.Error("failed to check notification history",
			"error", err,
			"user_id", userID)
		return false, fmt.Errorf("failed to check notification history: %w", err)
	}
	return exists, nil
}
