package tarot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/usecases/texts"
)

// HandleStart приветствие с кнопкой открытия Mini-App
func (s *Service) HandleStart(ctx context.Context, from *domain.TelegramUser, chatID int64) error {
	if from == nil {
		return fmt.Errorf("start command without sender")
	}

	var lang domain.Language
	if from.LanguageCode != nil {
		lang = domain.ParseLanguage(*from.LanguageCode)
	}

	user, err := s.GetOrCreate(ctx, strconv.FormatInt(from.ID, 10), from.Username, stringOrNil(from.FirstName), lang)
	if err != nil {
		return fmt.Errorf("failed to get or create user: %w", err)
	}

	lang = user.Lang()
	keyboard := domain.WebAppKeyboard(texts.OpenAppButton(lang), s.WebAppURL)
	if keyboard == nil {
		return s.TelegramService.SendMessage(ctx, chatID, texts.Welcome(lang))
	}
	return s.TelegramService.SendMessageWithKeyboard(ctx, chatID, texts.Welcome(lang), keyboard)
}

func stringOrNil(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
