package repository

import (
	"context"
	"time"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/ports/persistence"
	"github.com/google/uuid"
)

// IReadingRepo интерфейс для работы с раскладами (append-only)
type IReadingRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Reading, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Reading, error)

	CreateTx(ctx context.Context, tx persistence.Transaction, reading *domain.Reading) error
	// CountByTypeBetweenTx количество раскладов типа в интервале [from, to)
	CountByTypeBetweenTx(ctx context.Context, tx persistence.Transaction, userID uuid.UUID, spread domain.SpreadType, from, to time.Time) (int, error)
	// CountByTypeTx количество раскладов типа за всё время
	CountByTypeTx(ctx context.Context, tx persistence.Transaction, userID uuid.UUID, spread domain.SpreadType) (int, error)
}
