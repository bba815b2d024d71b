package tarot

import (
	"context"
	"fmt"
	"strings"

	"github.com/Mel762/telegramTarorApp/internal/domain"
)

// GetOrCreate получает пользователя по Telegram ID или создаёт нового
func (s *Service) GetOrCreate(ctx context.Context, telegramID string, username, firstName *string, lang domain.Language) (*domain.User, error) {
	if strings.TrimSpace(telegramID) == "" {
		return nil, domain.ErrEmptyExternalID
	}

	user, err := s.UserRepo.GetByTelegramID(ctx, telegramID)
	if err != nil && !domain.IsNotFound(err) {
		return nil, err
	}

	if err == nil {
		if applyProfile(user, username, firstName, lang) {
			user.UpdatedAt = s.Now()
			if err := s.UserRepo.UpdateProfile(ctx, user); err != nil {
				s.Log.Warn("failed to update user profile",
					"error", err,
					"user_id", user.ID)
			}
		}

		if err := s.UserRepo.UpdateLastSeen(ctx, user.ID); err != nil {
			s.Log.Warn("failed to update last seen",
				"error", err,
				"user_id", user.ID)
		}
		return user, nil
	}

	if lang == "" {
		lang = domain.LanguageEN
	}

	// параллельный первый запрос того же пользователя получит уже вставленную строку
	created, err := s.UserRepo.CreateIfNotExists(ctx, domain.NewUser(telegramID, username, firstName, lang, s.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.Log.Info("user created",
		"user_id", created.ID,
		"telegram_id", telegramID)

	return created, nil
}

// UpdateSettings сохраняет настройки уведомлений
func (s *Service) UpdateSettings(ctx context.Context, telegramID string, settings domain.NotificationSettings) error {
	if strings.TrimSpace(telegramID) == "" {
		return domain.ErrEmptyExternalID
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	if err := s.UserRepo.UpdateSettings(ctx, telegramID, settings); err != nil {
		return err
	}

	s.Log.Info("notification settings updated",
		"telegram_id", telegramID,
		"notifications_enabled", settings.NotificationsEnabled,
		"notification_time", settings.NotificationTime,
		"receive_daily_reading", settings.ReceiveDailyReading)
	return nil
}

// UpgradeTier меняет тариф. Дневные счётчики не трогаются.
func (s *Service) UpgradeTier(ctx context.Context, telegramID string, tier domain.Tier) error {
	if strings.TrimSpace(telegramID) == "" {
		return domain.ErrEmptyExternalID
	}
	if !tier.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidTier, tier)
	}

	if err := s.UserRepo.UpdateTier(ctx, telegramID, tier); err != nil {
		return err
	}

	s.Log.Info("tier changed",
		"telegram_id", telegramID,
		"tier", tier)
	return nil
}

// applyProfile переносит изменившиеся поля профиля, возвращает true если что-то поменялось
func applyProfile(user *domain.User, username, firstName *string, lang domain.Language) bool {
	changed := false
	if username != nil && (user.Username == nil || *user.Username != *username) {
		user.Username = username
		changed = true
	}
	if firstName != nil && (user.FirstName == nil || *user.FirstName != *firstName) {
		user.FirstName = firstName
		changed = true
	}
	if lang != "" && user.LanguageCode != lang {
		user.LanguageCode = lang
		changed = true
	}
	return changed
}
