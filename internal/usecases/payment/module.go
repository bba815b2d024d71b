package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/pkg/metrics"
	"github.com/Mel762/telegramTarorApp/internal/ports/cache"
	paymentPort "github.com/Mel762/telegramTarorApp/internal/ports/payment"
	"github.com/Mel762/telegramTarorApp/internal/ports/persistence"
	"github.com/Mel762/telegramTarorApp/internal/ports/repository"
	"github.com/Mel762/telegramTarorApp/internal/ports/service"
	"github.com/Mel762/telegramTarorApp/internal/usecases/texts"
	"github.com/google/uuid"
)

const (
	defaultPendingTTL = 24 * time.Hour
	// invoiceLinkTTL повторное нажатие "купить" в Mini-App отдаёт ту же ссылку
	invoiceLinkTTL = 10 * time.Minute
)

// errAlreadyProcessed платёж уже не pending, повторный successful_payment игнорируется
var errAlreadyProcessed = errors.New("payment already processed")

type Service struct {
	PaymentRepo     repository.IPaymentRepo
	UserRepo        repository.IUserRepo
	PaymentProvider paymentPort.IPaymentProvider // Telegram Stars провайдер
	TelegramService service.ITelegramService
	AlerterService  service.IAlerterService // может быть nil
	InvoiceCache    cache.Cache             // может быть nil
	Prices          map[domain.SpreadType]int64
	PendingTTL      time.Duration
	Now             func() time.Time
	Log             *slog.Logger
}

func New(
	paymentRepo repository.IPaymentRepo,
	userRepo repository.IUserRepo,
	paymentProvider paymentPort.IPaymentProvider,
	telegramService service.ITelegramService,
	alerterService service.IAlerterService,
	invoiceCache cache.Cache,
	prices map[domain.SpreadType]int64,
	pendingTTL time.Duration,
	log *slog.Logger,
) *Service {
	if pendingTTL <= 0 {
		pendingTTL = defaultPendingTTL
	}
	return &Service{
		PaymentRepo:     paymentRepo,
		UserRepo:        userRepo,
		PaymentProvider: paymentProvider,
		TelegramService: telegramService,
		AlerterService:  alerterService,
		InvoiceCache:    invoiceCache,
		Prices:          prices,
		PendingTTL:      pendingTTL,
		Now:             func() time.Time { return time.Now().UTC() },
		Log:             log,
	}
}

// CreateInvoiceLink создаёт pending-платёж и ссылку на оплату кредита на расклад
func (s *Service) CreateInvoiceLink(ctx context.Context, telegramID string, spread domain.SpreadType) (string, error) {
	if telegramID == "" {
		return "", domain.ErrEmptyExternalID
	}

	product, err := domain.ProductForSpread(spread, s.Prices)
	if err != nil {
		return "", err
	}

	user, err := s.UserRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return "", err
	}

	if link, ok := s.cachedInvoiceLink(ctx, user.ID, spread); ok {
		s.Log.Debug("invoice link reused", "user_id", user.ID, "spread_type", spread)
		return link, nil
	}

	paymentID := uuid.New()
	payment := &domain.Payment{
		ID:           paymentID,
		UserID:       user.ID,
		Amount:       product.Price,
		Currency:     domain.CurrencyStars,
		Method:       domain.PaymentMethodTelegramStars,
		Status:       domain.PaymentStatusPending,
		ProductID:    product.ID,
		ProductTitle: product.Title,
		Metadata: domain.PaymentMetadata{
			"payload":     paymentID.String(),
			"spread_type": string(spread),
		},
		CreatedAt: s.Now(),
	}

	if err := s.PaymentRepo.Create(ctx, payment); err != nil {
		return "", fmt.Errorf("failed to create payment: %w", err)
	}

	result, err := s.PaymentProvider.CreateInvoice(ctx, paymentPort.CreateInvoiceRequest{
		UserID:       user.ID,
		ProductID:    string(product.ID),
		ProductTitle: product.Title,
		Description:  fmt.Sprintf("Purchase %s", product.Title),
		Amount:       product.Price,
		Currency:     domain.CurrencyStars,
		Payload:      paymentID.String(),
	})
	if err != nil {
		failedAt := s.Now()
		if updErr := s.PaymentRepo.UpdateStatus(ctx, paymentID, domain.PaymentStatusFailed, nil, &failedAt, stringPtr("failed to create invoice")); updErr != nil {
			s.Log.Warn("failed to mark payment failed", "error", updErr, "payment_id", paymentID)
		}
		metrics.PaymentsTotal.WithLabelValues(string(product.ID), "invoice_failed").Inc()
		return "", fmt.Errorf("failed to create invoice: %w", err)
	}

	s.cacheInvoiceLink(ctx, user.ID, spread, result.InvoiceLink)

	metrics.PaymentsTotal.WithLabelValues(string(product.ID), "invoice_created").Inc()
	s.Log.Info("invoice link created",
		"payment_id", paymentID,
		"user_id", user.ID,
		"product_id", product.ID,
		"amount", product.Price)

	return result.InvoiceLink, nil
}

// HandlePreCheckoutQuery проверяет платёж перед списанием.
// Возвращает true если платёж подтверждён, false если отклонён
func (s *Service) HandlePreCheckoutQuery(
	ctx context.Context,
	queryID string,
	userID uuid.UUID,
	amount int64,
	currency string,
	payload string,
) (bool, error) {
	reject := func(reason string, attrs ...any) (bool, error) {
		s.Log.Warn("pre_checkout_query rejected",
			append([]any{"query_id", queryID, "reason", reason}, attrs...)...)
		if err := s.PaymentProvider.ConfirmPreCheckout(ctx, queryID, false, &reason); err != nil {
			return false, fmt.Errorf("failed to reject pre_checkout_query: %w", err)
		}
		return false, nil
	}

	paymentID, err := uuid.Parse(payload)
	if err != nil {
		return reject("Payment not found", "payload", payload)
	}

	payment, err := s.PaymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if domain.IsNotFound(err) {
			return reject("Payment not found", "payment_id", paymentID)
		}
		return false, err
	}

	switch {
	case payment.UserID != userID:
		return reject("Payment belongs to another user", "payment_id", payment.ID, "query_user_id", userID)
	case payment.Amount != amount:
		return reject("Payment amount mismatch", "payment_id", payment.ID, "query_amount", amount)
	case payment.Currency != currency:
		return reject("Payment currency mismatch", "payment_id", payment.ID, "query_currency", currency)
	case payment.Status != domain.PaymentStatusPending:
		return reject("Payment already processed", "payment_id", payment.ID, "status", payment.Status)
	}

	if err := s.PaymentProvider.ConfirmPreCheckout(ctx, queryID, true, nil); err != nil {
		return false, fmt.Errorf("failed to confirm pre_checkout_query: %w", err)
	}

	s.Log.Info("pre_checkout_query confirmed",
		"query_id", queryID,
		"payment_id", payment.ID,
		"user_id", userID)

	return true, nil
}

// HandleSuccessfulPayment в одной транзакции помечает платёж оплаченным и начисляет кредит
func (s *Service) HandleSuccessfulPayment(
	ctx context.Context,
	userID uuid.UUID,
	chatID int64,
	paymentID uuid.UUID,
	providerID string,
) error {
	var (
		payment *domain.Payment
		spread  domain.SpreadType
	)
	err := s.UserRepo.WithTransaction(ctx, func(ctx context.Context, tx persistence.Transaction) error {
		var err error
		payment, err = s.PaymentRepo.GetByIDForUpdateTx(ctx, tx, paymentID)
		if err != nil {
			return err
		}

		if payment.UserID != userID {
			return fmt.Errorf("payment user mismatch: payment belongs to %s, but user is %s", payment.UserID, userID)
		}
		if payment.Status != domain.PaymentStatusPending {
			return errAlreadyProcessed
		}

		var ok bool
		spread, ok = domain.SpreadForProduct(payment.ProductID)
		if !ok {
			return fmt.Errorf("unknown product %q", payment.ProductID)
		}

		if err := s.PaymentRepo.MarkSucceededTx(ctx, tx, paymentID, providerID, s.Now()); err != nil {
			return err
		}
		return s.UserRepo.AddCreditsTx(ctx, tx, userID, spread, 1)
	})
	if errors.Is(err, errAlreadyProcessed) {
		s.Log.Warn("payment already processed", "payment_id", paymentID)
		return nil
	}
	if err != nil {
		// деньги уже списаны Telegram, нужен ручной разбор
		s.Log.Error("failed to grant credit after payment",
			"error", err,
			"payment_id", paymentID,
			"user_id", userID)
		s.alert(ctx, fmt.Sprintf("⚠️ Payment succeeded, credit not granted\n\nPayment ID: %s\nUser ID: %s\nError: %v", paymentID, userID, err))
		return fmt.Errorf("failed to process successful payment: %w", err)
	}

	metrics.PaymentsTotal.WithLabelValues(string(payment.ProductID), "succeeded").Inc()
	s.dropInvoiceLink(ctx, userID, spread)

	lang := domain.LanguageEN
	if user, err := s.UserRepo.GetByID(ctx, userID); err == nil {
		lang = user.Lang()
	}
	if err := s.TelegramService.SendMessage(ctx, chatID, texts.PaymentReceived(lang)); err != nil {
		s.Log.Warn("failed to send payment success notification",
			"error", err,
			"payment_id", paymentID,
			"chat_id", chatID)
	}

	s.Log.Info("payment processed successfully",
		"payment_id", paymentID,
		"user_id", userID,
		"product_id", payment.ProductID,
		"amount", payment.Amount)

	return nil
}

// ExpirePending переводит в failed платежи, зависшие в pending дольше PendingTTL
func (s *Service) ExpirePending(ctx context.Context) (int64, error) {
	expired, err := s.PaymentRepo.ExpirePending(ctx, s.Now().Add(-s.PendingTTL))
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		metrics.PaymentsTotal.WithLabelValues("", "expired").Add(float64(expired))
		s.Log.Info("stale pending payments expired", "count", expired)
	}
	return expired, nil
}

func (s *Service) alert(ctx context.Context, message string) {
	if s.AlerterService == nil {
		return
	}
	if err := s.AlerterService.SendAlert(ctx, message); err != nil {
		s.Log.Warn("failed to send alert", "error", err)
	}
}

func invoiceCacheKey(userID uuid.UUID, spread domain.SpreadType) string {
	return fmt.Sprintf("tarot:invoice:%s:%s", userID, spread)
}

func (s *Service) cachedInvoiceLink(ctx context.Context, userID uuid.UUID, spread domain.SpreadType) (string, bool) {
	if s.InvoiceCache == nil {
		return "", false
	}
	link, err := s.InvoiceCache.Get(ctx, invoiceCacheKey(userID, spread))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.Log.Warn("failed to read invoice link from cache", "error", err, "user_id", userID)
		}
		return "", false
	}
	return link, link != ""
}

func (s *Service) cacheInvoiceLink(ctx context.Context, userID uuid.UUID, spread domain.SpreadType, link string) {
	if s.InvoiceCache == nil {
		return
	}
	if err := s.InvoiceCache.Set(ctx, invoiceCacheKey(userID, spread), link, invoiceLinkTTL); err != nil {
		s.Log.Warn("failed to cache invoice link", "error", err, "user_id", userID)
	}
}

// dropInvoiceLink оплаченная ссылка больше не годится для новой покупки
func (s *Service) dropInvoiceLink(ctx context.Context, userID uuid.UUID, spread domain.SpreadType) {
	if s.InvoiceCache == nil {
		return
	}
	if err := s.InvoiceCache.Delete(ctx, invoiceCacheKey(userID, spread)); err != nil {
		s.Log.Warn("failed to drop cached invoice link", "error", err, "user_id", userID)
	}
}

func stringPtr(s string) *string {
	return &s
}
