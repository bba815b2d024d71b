package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/Mel762/telegramTarorApp/internal/domain"
)

// HandleUpdate Основной метод для обработки всех типов обновлений
func (s *Service) HandleUpdate(ctx context.Context, update *domain.Update) error {
	if update == nil {
		return fmt.Errorf("update is nil")
	}

	switch {
	case update.PreCheckoutQuery != nil:
		return s.HandlePreCheckoutQuery(ctx, update.PreCheckoutQuery)
	case update.Message != nil && update.Message.SuccessfulPayment != nil:
		return s.HandleSuccessfulPayment(ctx, update.Message)
	case update.Message != nil:
		return s.HandleMessage(ctx, update.Message, update.UpdateID)
	}

	return nil
}

// HandleMessage обрабатывает входящее сообщение. Весь функционал в Mini-App, бот отвечает только на команды
func (s *Service) HandleMessage(ctx context.Context, message *domain.Message, updateID int64) error {
	if message.From == nil || message.From.IsBot {
		s.Log.Debug("ignoring message from bot", "update_id", updateID)
		return nil
	}

	if message.Chat == nil || message.Chat.Type != "private" {
		s.Log.Debug("ignoring message outside private chat", "update_id", updateID)
		return nil
	}

	if message.Text == nil || !IsCommand(*message.Text) {
		return nil
	}

	switch ParseCommand(*message.Text) {
	case "start":
		if s.BotUseCase == nil {
			return fmt.Errorf("bot use case not configured")
		}
		return s.BotUseCase.HandleStart(ctx, message.From, message.Chat.ID)
	default:
		s.Log.Debug("unknown command", "update_id", updateID, "text", *message.Text)
		return nil
	}
}

func ParseCommand(text string) string {
	text = strings.TrimPrefix(text, "/")

	if idx := strings.Index(text, "@"); idx != -1 {
		text = text[:idx]
	}

	if idx := strings.Index(text, " "); idx != -1 {
		text = text[:idx]
	}

	return text
}

func IsCommand(text string) bool {
	return len(text) > 0 && text[0] == '/'
}
