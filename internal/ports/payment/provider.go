package payment

import (
	"context"

	"github.com/google/uuid"
)

// IPaymentProvider интерфейс для платёжного провайдера (Telegram Stars)
// Use case зависит только от этого интерфейса, не зная деталей реализации
type IPaymentProvider interface {
	// CreateInvoice создаёт ссылку на оплату, которую Mini-App открывает через openInvoice
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*CreateInvoiceResult, error)

	// ConfirmPreCheckout подтверждает или отклоняет pre_checkout_query
	ConfirmPreCheckout(ctx context.Context, queryID string, ok bool, errorMessage *string) error
}

// CreateInvoiceRequest запрос на создание invoice
type CreateInvoiceRequest struct {
	UserID       uuid.UUID
	ProductID    string
	ProductTitle string
	Description  string
	Amount       int64  // количество звёзд
	Currency     string // "XTR" для Stars
	Payload      string // payment_id, возвращается в pre_checkout_query и successful_payment
}

// CreateInvoiceResult результат создания invoice
type CreateInvoiceResult struct {
	InvoiceLink string
}
