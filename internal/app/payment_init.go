package app

import (
	starsProvider "github.com/Mel762/telegramTarorApp/internal/adapters/secondary/payment/telegram_stars"
	tgAdapter "github.com/Mel762/telegramTarorApp/internal/adapters/secondary/telegram"
	telegramService "github.com/Mel762/telegramTarorApp/internal/services/telegram"
	paymentUsecase "github.com/Mel762/telegramTarorApp/internal/usecases/payment"
)

// initPayment инициализирует payment use case поверх Telegram Stars
func (a *App) initPayment(
	client *tgAdapter.Client,
	repos *repositories,
	tgService *telegramService.Service,
	external *externalServices,
) *paymentUsecase.Service {
	paymentProvider := starsProvider.NewProvider(client, a.Log)

	paymentUseCase := paymentUsecase.New(
		repos.Payment,
		repos.User,
		paymentProvider,
		tgService,
		external.Alerter, // может быть nil
		external.Cache,   // может быть nil
		a.Cfg.Tarot.Prices(),
		a.Cfg.Tarot.PendingPaymentTTL,
		a.Log,
	)

	a.Log.Info("payment system initialized successfully",
		"price_one", a.Cfg.Tarot.PriceOne,
		"price_three", a.Cfg.Tarot.PriceThree)
	return paymentUseCase
}
