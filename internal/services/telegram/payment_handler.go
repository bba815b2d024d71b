package telegram

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/google/uuid"
)

// HandlePreCheckoutQuery обрабатывает pre_checkout_query от Telegram (для платежей Stars)
func (s *Service) HandlePreCheckoutQuery(ctx context.Context, query *domain.PreCheckoutQuery) error {
	if query == nil || query.From == nil {
		s.Log.Error("pre_checkout_query is nil or has no from")
		return fmt.Errorf("invalid pre_checkout_query")
	}

	if s.PaymentUseCase == nil || s.UserUseCase == nil {
		s.Log.Warn("payment use case not configured, ignoring pre_checkout_query",
			"query_id", query.ID,
		)
		return fmt.Errorf("payment use case not configured")
	}

	user, err := s.userFor(ctx, query.From)
	if err != nil {
		return domain.WrapBusinessError(fmt.Errorf("failed to get or create user: %w", err))
	}

	confirmed, err := s.PaymentUseCase.HandlePreCheckoutQuery(
		ctx,
		query.ID,
		user.ID,
		query.TotalAmount,
		query.Currency,
		query.InvoicePayload,
	)
	if err != nil {
		return domain.WrapBusinessError(fmt.Errorf("failed to handle pre_checkout_query: %w", err))
	}

	if !confirmed {
		return nil // платёж отклонён, но это не ошибка
	}

	s.Log.Info("pre_checkout_query confirmed",
		"query_id", query.ID,
		"user_id", user.ID,
		"amount", query.TotalAmount,
	)
	return nil
}

// HandleSuccessfulPayment обрабатывает successful_payment от Telegram (для платежей Stars)
func (s *Service) HandleSuccessfulPayment(ctx context.Context, message *domain.Message) error {
	if message == nil || message.SuccessfulPayment == nil {
		return fmt.Errorf("invalid successful_payment")
	}
	if message.From == nil || message.Chat == nil {
		s.Log.Error("successful_payment without from or chat")
		return fmt.Errorf("successful_payment without from or chat")
	}

	if s.PaymentUseCase == nil || s.UserUseCase == nil {
		s.Log.Error("payment use case not configured, cannot process successful_payment")
		return fmt.Errorf("payment use case not configured")
	}

	user, err := s.userFor(ctx, message.From)
	if err != nil {
		return domain.WrapBusinessError(fmt.Errorf("failed to get or create user: %w", err))
	}

	// payload = payment_id
	paymentID, err := uuid.Parse(message.SuccessfulPayment.InvoicePayload)
	if err != nil {
		s.Log.Error("failed to parse payment_id from payload",
			"error", err,
			"payload", message.SuccessfulPayment.InvoicePayload,
		)
		return domain.WrapBusinessError(fmt.Errorf("invalid payment_id in payload: %w", err))
	}

	if err := s.PaymentUseCase.HandleSuccessfulPayment(
		ctx,
		user.ID,
		message.Chat.ID,
		paymentID,
		message.SuccessfulPayment.TelegramPaymentChargeID,
	); err != nil {
		return domain.WrapBusinessError(fmt.Errorf("failed to handle successful_payment: %w", err))
	}

	s.Log.Info("successful_payment processed",
		"payment_id", paymentID,
		"user_id", user.ID,
		"amount", message.SuccessfulPayment.TotalAmount,
	)
	return nil
}

func (s *Service) userFor(ctx context.Context, from *domain.TelegramUser) (*domain.User, error) {
	var lang domain.Language
	if from.LanguageCode != nil {
		lang = domain.ParseLanguage(*from.LanguageCode)
	}

	var firstName *string
	if from.FirstName != "" {
		firstName = &from.FirstName
	}
	return s.UserUseCase.GetOrCreate(ctx, strconv.FormatInt(from.ID, 10), from.Username, firstName, lang)
}
