package usecase

import (
	"context"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/google/uuid"
)

// IPaymentUseCase платежи Telegram Stars (use case слой)
type IPaymentUseCase interface {
	// CreateInvoiceLink создаёт pending-платёж за кредит на расклад и возвращает ссылку на оплату
	CreateInvoiceLink(ctx context.Context, telegramID string, spread domain.SpreadType) (string, error)
	HandlePreCheckoutQuery(ctx context.Context, queryID string, userID uuid.UUID, amount int64, currency, payload string) (bool, error)
	HandleSuccessfulPayment(ctx context.Context, userID uuid.UUID, chatID int64, paymentID uuid.UUID, providerID string) error
	// ExpirePending помечает failed зависшие pending-платежи
	ExpirePending(ctx context.Context) (int64, error)
}
