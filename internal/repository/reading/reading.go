package readingRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/ports/persistence"
	ports "github.com/Mel762/telegramTarorApp/internal/ports/repository"
	"github.com/google/uuid"
)

type readingColumns struct {
	TableName      string
	ID             string
	UserID         string
	SpreadType     string
	Cards          string
	Question       string
	Interpretation string
	CreatedAt      string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns readingColumns
}

// New создаёт новый репозиторий раскладов
func New(db persistence.Persistence, log *slog.Logger) ports.IReadingRepo {
	return &Repository{
		db:  db,
		Log: log,
		columns: readingColumns{
			TableName:      "readings",
			ID:             "id",
			UserID:         "user_id",
			SpreadType:     "spread_type",
			Cards:          "cards",
			Question:       "question",
			Interpretation: "interpretation",
			CreatedAt:      "created_at",
		},
	}
}

func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s",
		r.columns.ID,
		r.columns.UserID,
		r.columns.SpreadType,
		r.columns.Cards,
		r.columns.Question,
		r.columns.Interpretation,
		r.columns.CreatedAt)
}

// GetByID получает расклад по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reading, error) {
	var reading domain.Reading
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ID)

	if err := r.db.Get(ctx, &reading, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.Log.Warn("reading not found", "reading_id", id)
			return nil, fmt.Errorf("%w: %s", domain.ErrReadingNotFound, id)
		}
		r.Log.Error("failed to get reading",
			"error", err,
			"reading_id", id)
		return nil, fmt.Errorf("failed to get reading: %w", err)
	}
	return &reading, nil
}

// ListByUser последние расклады пользователя, новые первыми
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Reading, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s DESC LIMIT $2`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.UserID,
		r.columns.CreatedAt)

	var readings []*domain.Reading
	if err := r.db.Select(ctx, &readings, query, userID, limit); err != nil {
		r.Log.Error("failed to list readings",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	return readings, nil
}

// CreateTx сохраняет расклад в транзакции
func (r *Repository) CreateTx(ctx context.Context, tx persistence.Transaction, reading *domain.Reading) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.columns.TableName,
		r.allColumns())

	err := tx.Exec(ctx, query,
		reading.ID,
		reading.UserID,
		string(reading.SpreadType),
		reading.Cards,
		reading.Question,
		reading.Interpretation,
		reading.CreatedAt)
	if err != nil {
		r.Log.Error("failed to create reading in transaction",
			"error", err,
			"reading_id", reading.ID,
			"user_id", reading.UserID,
			"spread_type", reading.SpreadType)
		return fmt.Errorf("failed to create reading: %w", err)
	}

	r.Log.Debug("reading created in transaction",
		"reading_id", reading.ID,
		"user_id", reading.UserID,
		"spread_type", reading.SpreadType)
	return nil
}

// CountByTypeBetweenTx количество раскладов типа в интервале [from, to)
func (r *Repository) CountByTypeBetweenTx(ctx context.Context, tx persistence.Transaction, userID uuid.UUID, spread domain.SpreadType, from, to time.Time) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1 AND %s = $2 AND %s >= $3 AND %s < $4`,
		r.columns.TableName,
		r.columns.UserID,
		r.columns.SpreadType,
		r.columns.CreatedAt,
		r.columns.CreatedAt)

	var count int
	if err := tx.Get(ctx, &count, query, userID, string(spread), from, to); err != nil {
		r.Log.Error("failed to count readings in range",
			"error", err,
			"user_id", userID,
			"spread_type", spread)
		return 0, fmt.Errorf("failed to count readings: %w", err)
	}
	return count, nil
}

// CountByTypeTx количество раскладов типа за всё время
func (r *Repository) CountByTypeTx(ctx context.Context, tx persistence.Transaction, userID uuid.UUID, spread domain.SpreadType) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1 AND %s = $2`,
		r.columns.TableName,
		r.columns.UserID,
		r.columns.SpreadType)

	var count int
	if err := tx.Get(ctx, &count, query, userID, string(spread)); err != nil {
		r.Log.Error("failed to count readings",
			"error", err,
			"user_id", userID,
			"spread_type", spread)
		return 0, fmt.Errorf("failed to count readings: %w", err)
	}
	return count, nil
}
