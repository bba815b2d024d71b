package service

import (
	"context"

	"github.com/Mel762/telegramTarorApp/internal/domain"
)

// ITelegramService интерфейс для доставки сообщений через Telegram
type ITelegramService interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, keyboard *domain.InlineKeyboardMarkup) error
	SendPhoto(ctx context.Context, chatID int64, photo []byte, filename, caption string) error
}
