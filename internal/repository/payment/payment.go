package paymentRepo

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

type paymentColumns struct {
	TableName    string
	ID           string
	UserID       string
	Amount       string
	Currency     string
	Method       string
	ProviderID   string
	Status       string
	ProductID    string
	ProductTitle string
	Metadata     string
	CreatedAt    string
	SucceededAt  string
	FailedAt     string
	ErrorMessage string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns paymentColumns
}

// New создаёт новый репозиторий для работы с платежами
func New(db persistence.Persistence, log *slog.Logger) ports.IPaymentRepo {
	cols := paymentColumns{
		TableName:    "payments",
		ID:           "id",
		UserID:       "user_id",
		Amount:       "amount",
		Currency:     "currency",
		Method:       "method",
		ProviderID:   "provider_id",
		Status:       "status",
		ProductID:    "product_id",
		ProductTitle: "product_title",
		Metadata:     "metadata",
		CreatedAt:    "created_at",
		SucceededAt:  "succeeded_at",
		FailedAt:     "failed_at",
		ErrorMessage: "error_message",
	}
	return &Repository{
		db:      db,
		Log:     log,
		columns: cols,
	}
}

// allColumns возвращает строку со всеми колонками (14 полей)
func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s",
		r.columns.ID,
		r.columns.UserID,
		r.columns.Amount,
		r.columns.Currency,
		r.columns.Method,
		r.columns.ProviderID,
		r.columns.Status,
		r.columns.ProductID,
		r.columns.ProductTitle,
		r.columns.Metadata,
		r.columns.CreatedAt,
		r.columns.SucceededAt,
		r.columns.FailedAt,
		r.columns.ErrorMessage,
	)
}

// Create создаёт новый платёж
func (r *Repository) Create(ctx context.Context, payment *domain.Payment) error {
	metadataValue, err := payment.Metadata.Value()
	if err != nil {
		r.Log.Error("failed to marshal payment metadata",
			"error", err,
			"payment_id", payment.ID,
		)
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		r.columns.TableName,
		r.allColumns(),
	)

	err = r.db.Exec(ctx, query,
		payment.ID,
		payment.UserID,
		payment.Amount,
		payment.Currency,
		string(payment.Method),
		payment.ProviderID,
		string(payment.Status),
		string(payment.ProductID),
		payment.ProductTitle,
		metadataValue,
		payment.CreatedAt,
		payment.SucceededAt,
		payment.FailedAt,
		payment.ErrorMessage,
	)
	if err != nil {
		r.Log.Error("failed to create payment",
			"error", err,
			"payment_id", payment.ID,
			"user_id", payment.UserID,
		)
		return fmt.Errorf("failed to create payment: %w", err)
	}

	r.Log.Debug("payment created successfully",
		"payment_id", payment.ID,
		"user_id", payment.UserID,
		"amount", payment.Amount,
	)
	return nil
}

// GetByID получает платёж по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ID,
	)
	return r.getOne(ctx, r.db, query, id)
}

// GetByIDForUpdateTx получает и блокирует платёж до конца транзакции
func (r *Repository) GetByIDForUpdateTx(ctx context.Context, tx persistence.Transaction, id uuid.UUID) (*domain.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 FOR UPDATE`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ID,
	)
	return r.getOne(ctx, tx, query, id)
}

func (r *Repository) getOne(ctx context.Context, q persistence.Querier, query string, id uuid.UUID) (*domain.Payment, error) {
	var payment domain.Payment
	if err := q.Get(ctx, &payment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.Log.Warn("payment not found", "payment_id", id)
			return nil, fmt.Errorf("%w: %s", domain.ErrPaymentNotFound, id)
		}
		r.Log.Error("failed to get payment",
			"error", err,
			"payment_id", id,
		)
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	r.Log.Debug("payment retrieved successfully", "payment_id", id)
	return &payment, nil
}

// UpdateStatus обновляет статус платежа
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, succeededAt, failedAt *time.Time, errorMessage *string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $1, %s = $2, %s = $3, %s = $4 WHERE %s = $5`,
		r.columns.TableName,
		r.columns.Status,
		r.columns.SucceededAt,
		r.columns.FailedAt,
		r.columns.ErrorMessage,
		r.columns.ID,
	)

	err := r.db.Exec(ctx, query, string(status), succeededAt, failedAt, errorMessage, id)
	if err != nil {
		r.Log.Error("failed to update payment status",
			"error", err,
			"payment_id", id,
			"status", status,
		)
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	r.Log.Debug("payment status updated successfully",
		"payment_id", id,
		"status", status,
	)
	return nil
}

// MarkSucceededTx переводит платёж в succeeded и сохраняет charge id провайдера
func (r *Repository) MarkSucceededTx(ctx context.Context, tx persistence.Transaction, id uuid.UUID, providerID string, succeededAt time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $1, %s = $2, %s = $3 WHERE %s = $4`,
		r.columns.TableName,
		r.columns.Status,
		r.columns.ProviderID,
		r.columns.SucceededAt,
		r.columns.ID,
	)

	if err := tx.Exec(ctx, query, string(domain.PaymentStatusSucceeded), providerID, succeededAt, id); err != nil {
		r.Log.Error("failed to mark payment succeeded",
			"error", err,
			"payment_id", id,
		)
		return fmt.Errorf("failed to mark payment succeeded: %w", err)
	}
	return nil
}

// ExpirePending переводит в failed pending-платежи, созданные раньше olderThan
func (r *Repository) ExpirePending(ctx context.Context, olderThan time.Time) (int64, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = $1, %s = NOW(), %s = $2 WHERE %s = $3 AND %s < $4`,
		r.columns.TableName,
		r.columns.Status,
		r.columns.FailedAt,
		r.columns.ErrorMessage,
		r.columns.Status,
		r.columns.CreatedAt,
	)

	affected, err := r.db.ExecWithResult(ctx, query,
		string(domain.PaymentStatusFailed),
		"invoice expired",
		string(domain.PaymentStatusPending),
		olderThan,
	)
	if err != nil {
		r.Log.Error("failed to expire pending payments",
			"error", err,
			"older_than", olderThan,
		)
		return 0, fmt.Errorf("failed to expire pending payments: %w", err)
	}

	r.Log.Debug("pending payments expired", "count", affected, "older_than", olderThan)
	return affected, nil
}
