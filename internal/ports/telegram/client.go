package telegram

import (
	"context"

	"github.com/Mel762/telegramTarorApp/internal/domain"
)

// IClient интерфейс для клиента Telegram API
type IClient interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, keyboard *domain.InlineKeyboardMarkup) error
	SendPhoto(ctx context.Context, chatID int64, photo []byte, filename, caption string) error
	AnswerPreCheckoutQuery(ctx context.Context, queryID string, ok bool, errorMessage *string) error
}
