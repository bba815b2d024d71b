package telegram

import (
	"log/slog"

	telegramPort "github.com/Mel762/telegramTarorApp/internal/ports/telegram"
	"github.com/Mel762/telegramTarorApp/internal/ports/usecase"
)

// Service доставка сообщений и роутинг входящих обновлений Telegram
type Service struct {
	Client         telegramPort.IClient
	BotUseCase     usecase.IBotUseCase
	UserUseCase    usecase.IUserUseCase
	PaymentUseCase usecase.IPaymentUseCase // может быть nil
	Log            *slog.Logger
}

func New(client telegramPort.IClient, log *slog.Logger) *Service {
	return &Service{
		Client: client,
		Log:    log,
	}
}

// SetUseCases use case'ы создаются после сервиса доставки, которым они пользуются
func (s *Service) SetUseCases(bot usecase.IBotUseCase, users usecase.IUserUseCase, payments usecase.IPaymentUseCase) {
	s.BotUseCase = bot
	s.UserUseCase = users
	s.PaymentUseCase = payments
}
