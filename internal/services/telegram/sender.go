package telegram

import (
	"context"
	"fmt"

	"github.com/Mel762/telegramTarorApp/internal/domain"
)

// SendMessage отправляет текстовое сообщение пользователю
func (s *Service) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := s.Client.SendMessage(ctx, chatID, text); err != nil {
		s.Log.Error("failed to send message",
			"error", err,
			"chat_id", chatID,
		)
		return fmt.Errorf("failed to send message: %w", err)
	}

	s.Log.Debug("message sent successfully", "chat_id", chatID)
	return nil
}

// SendMessageWithKeyboard отправляет сообщение с клавиатурой
func (s *Service) SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, keyboard *domain.InlineKeyboardMarkup) error {
	if err := s.Client.SendMessageWithKeyboard(ctx, chatID, text, keyboard); err != nil {
		s.Log.Error("failed to send message with keyboard",
			"error", err,
			"chat_id", chatID,
		)
		return fmt.Errorf("failed to send message with keyboard: %w", err)
	}

	s.Log.Debug("message with keyboard sent successfully", "chat_id", chatID)
	return nil
}

// SendPhoto отправляет картинку с подписью
func (s *Service) SendPhoto(ctx context.Context, chatID int64, photo []byte, filename, caption string) error {
	if err := s.Client.SendPhoto(ctx, chatID, photo, filename, caption); err != nil {
		s.Log.Error("failed to send photo",
			"error", err,
			"chat_id", chatID,
			"filename", filename,
		)
		return fmt.Errorf("failed to send photo: %w", err)
	}

	s.Log.Debug("photo sent successfully", "chat_id", chatID, "filename", filename)
	return nil
}
