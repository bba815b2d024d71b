package telegram_stars

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/Mel762/telegramTarorApp/internal/adapters/secondary/telegram"
	paymentPort "github.com/Mel762/telegramTarorApp/internal/ports/payment"
)

// invoiceCreator часть Telegram клиента, нужная провайдеру
type invoiceCreator interface {
	CreateInvoiceLink(ctx context.Context, req telegram.CreateInvoiceLinkRequest) (string, error)
	AnswerPreCheckoutQuery(ctx context.Context, queryID string, ok bool, errorMessage *string) error
}

// Provider реализует IPaymentProvider для Telegram Stars
type Provider struct {
	client invoiceCreator
	log    *slog.Logger
}

func NewProvider(client invoiceCreator, log *slog.Logger) *Provider {
	return &Provider{
		client: client,
		log:    log,
	}
}

// CreateInvoice создаёт ссылку на оплату, Mini-App открывает её через openInvoice
func (p *Provider) CreateInvoice(ctx context.Context, req paymentPort.CreateInvoiceRequest) (*paymentPort.CreateInvoiceResult, error) {
	// для Stars одна позиция, provider_token пустой
	link, err := p.client.CreateInvoiceLink(ctx, telegram.CreateInvoiceLinkRequest{
		Title:       req.ProductTitle,
		Description: req.Description,
		Payload:     req.Payload,
		Currency:    req.Currency,
		Prices: []telegram.LabeledPrice{
			{Label: req.ProductTitle, Amount: req.Amount},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice link: %w", err)
	}

	p.log.Debug("stars invoice created",
		"user_id", req.UserID,
		"product_id", req.ProductID,
		"amount", req.Amount)

	return &paymentPort.CreateInvoiceResult{InvoiceLink: link}, nil
}

// ConfirmPreCheckout подтверждает или отклоняет pre_checkout_query
func (p *Provider) ConfirmPreCheckout(ctx context.Context, queryID string, ok bool, errorMessage *string) error {
	if err := p.client.AnswerPreCheckoutQuery(ctx, queryID, ok, errorMessage); err != nil {
		return fmt.Errorf("failed to answer pre_checkout_query: %w", err)
	}
	return nil
}
