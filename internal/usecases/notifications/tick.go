package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/pkg/metrics"
	"github.com/Mel762/telegramTarorApp/internal/ports/persistence"
	"github.com/Mel762/telegramTarorApp/internal/ports/service"
	"github.com/Mel762/telegramTarorApp/internal/usecases/tarot"
	"github.com/Mel762/telegramTarorApp/internal/usecases/texts"
)

// TickReport итог одного прохода планировщика
type TickReport struct {
	Due          int `json:"due"`
	AutoReadings int `json:"auto_readings"`
	Reminders    int `json:"reminders"`
	Skipped      int `json:"skipped"`
	Failed       int `json:"failed"`
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeReminder
	outcomeAutoReading
)

// Tick один проход: выбирает пользователей, которым пора, и отправляет каждому не больше одного сообщения в сутки.
// Ошибка по одному пользователю не прерывает проход.
func (s *Service) Tick(ctx context.Context, now time.Time) (TickReport, error) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	var report TickReport
	now = now.UTC()
	dayStart, dayEnd := domain.DayBounds(now)

	users, err := s.UserRepo.ListDueForNotification(ctx, domain.ClockUTC(now), dayStart, dayEnd)
	if err != nil {
		return report, fmt.Errorf("failed to list users due for notification: %w", err)
	}
	report.Due = len(users)

	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result, err := s.notifyUser(ctx, user, now, dayStart, dayEnd)
		if err != nil {
			report.Failed++
			s.Log.Warn("failed to notify user, will retry next tick",
				"error", err,
				"user_id", user.ID,
				"receive_daily_reading", user.ReceiveDailyReading)
			continue
		}

		switch result {
		case outcomeAutoReading:
			report.AutoReadings++
		case outcomeReminder:
			report.Reminders++
		default:
			report.Skipped++
		}
	}

	if report.Due > 0 {
		s.Log.Info("notification tick finished",
			"due", report.Due,
			"auto_readings", report.AutoReadings,
			"reminders", report.Reminders,
			"skipped", report.Skipped,
			"failed", report.Failed)
	}
	return report, nil
}

func (s *Service) notifyUser(ctx context.Context, user *domain.User, now, dayStart, dayEnd time.Time) (outcome, error) {
	key := claimKey(user, dayStart)

	// claim живёт до конца дня: после доставки повторная отправка невозможна даже без записи в истории
	claimed, err := s.Locker.TryLock(ctx, key, dayEnd.Sub(now))
	if err != nil {
		return outcomeSkipped, fmt.Errorf("failed to claim notification: %w", err)
	}
	if !claimed {
		s.Log.Debug("notification already claimed", "user_id", user.ID)
		return outcomeSkipped, nil
	}

	sent, err := s.NotificationRepo.ExistsBetween(ctx, user.ID, dayStart, dayEnd)
	if err != nil {
		s.release(ctx, key)
		return outcomeSkipped, err
	}
	if sent {
		return outcomeSkipped, nil
	}

	if user.ReceiveDailyReading {
		if err := s.sendAutoReading(ctx, user, now); err != nil {
			s.release(ctx, key)
			metrics.NotificationsTotal.WithLabelValues(string(domain.NotificationAutoReading), "failed").Inc()
			return outcomeSkipped, err
		}
		metrics.NotificationsTotal.WithLabelValues(string(domain.NotificationAutoReading), "sent").Inc()
		s.publishSent(ctx, user, domain.NotificationAutoReading, now)
		return outcomeAutoReading, nil
	}

	if err := s.sendReminder(ctx, user, now); err != nil {
		s.release(ctx, key)
		metrics.NotificationsTotal.WithLabelValues(string(domain.NotificationDailyReminder), "failed").Inc()
		return outcomeSkipped, err
	}
	metrics.NotificationsTotal.WithLabelValues(string(domain.NotificationDailyReminder), "sent").Inc()
	s.publishSent(ctx, user, domain.NotificationDailyReminder, now)
	return outcomeReminder, nil
}

// sendAutoReading карта дня: вытянуть, сгенерировать, доставить, записать расклад и историю
func (s *Service) sendAutoReading(ctx context.Context, user *domain.User, now time.Time) error {
	chatID, err := user.ChatID()
	if err != nil {
		return err
	}

	lang := user.Lang()
	cards := domain.DrawCards(domain.SpreadDay, s.Rand)
	card := cards[0]

	text, err := s.generate(ctx, service.ReadingPrompt{
		Cards:      cards,
		SpreadType: domain.SpreadDay,
		Lang:       lang,
	})
	if err != nil {
		return err
	}

	header := fmt.Sprintf(texts.AutoReadingHeader(lang), cardLabel(card))
	message := header + "\n\n" + text
	if s.sendCardImage(ctx, chatID, card, header) {
		message = text
	}

	keyboard := domain.WebAppKeyboard(texts.OpenAppButton(lang), s.WebAppURL)
	if err := s.deliver(ctx, chatID, message, keyboard); err != nil {
		return fmt.Errorf("failed to deliver auto reading: %w", err)
	}

	reading := domain.NewReading(user.ID, domain.SpreadDay, cards, "", text, now)
	err = s.UserRepo.WithTransaction(ctx, func(ctx context.Context, tx persistence.Transaction) error {
		if _, err := s.Quota.CommitTx(ctx, tx, reading, now); err != nil {
			return err
		}
		return s.NotificationRepo.CreateTx(ctx, tx, domain.NewNotificationHistory(user.ID, domain.NotificationAutoReading, now))
	})
	if err != nil {
		// сообщение уже доставлено, повтор до конца дня блокирует claim
		s.Log.Error("failed to persist auto reading after delivery",
			"error", err,
			"user_id", user.ID,
			"card_id", card.ID)
		s.alert(ctx, fmt.Sprintf("auto reading not persisted: user_id=%s: %v", user.ID, err))
	}

	s.Log.Info("auto reading sent",
		"user_id", user.ID,
		"card_id", card.ID,
		"is_reversed", card.IsReversed)
	return nil
}

// sendReminder случайное напоминание с кнопкой Mini-App
func (s *Service) sendReminder(ctx context.Context, user *domain.User, now time.Time) error {
	chatID, err := user.ChatID()
	if err != nil {
		return err
	}

	lang := user.Lang()
	username := ""
	if user.Username != nil {
		username = *user.Username
	}

	message := texts.Reminder(lang, username, s.Rand)
	keyboard := domain.WebAppKeyboard(texts.OpenAppButton(lang), s.WebAppURL)
	if err := s.deliver(ctx, chatID, message, keyboard); err != nil {
		return fmt.Errorf("failed to deliver reminder: %w", err)
	}

	if err := s.NotificationRepo.Create(ctx, domain.NewNotificationHistory(user.ID, domain.NotificationDailyReminder, now)); err != nil {
		s.Log.Error("failed to record reminder after delivery",
			"error", err,
			"user_id", user.ID)
		s.alert(ctx, fmt.Sprintf("reminder history not persisted: user_id=%s: %v", user.ID, err))
	}

	s.Log.Debug("reminder sent", "user_id", user.ID)
	return nil
}

func (s *Service) generate(ctx context.Context, prompt service.ReadingPrompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.GenerationTimeout)
	defer cancel()

	started := time.Now()
	text, err := s.Generator.GenerateReading(ctx, prompt)
	if err == nil {
		text = tarot.Sanitize(text)
		if text == "" {
			err = errors.New("empty response")
		}
	}
	if err != nil {
		timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
		status := "error"
		if timeout {
			status = "timeout"
		}
		metrics.GenerationDuration.WithLabelValues("auto_reading", status).Observe(time.Since(started).Seconds())
		return "", &domain.GenerationError{Err: err, Timeout: timeout}
	}

	metrics.GenerationDuration.WithLabelValues("auto_reading", "ok").Observe(time.Since(started).Seconds())
	return text, nil
}

// sendCardImage картинка карты с подписью; false если картинку отправить не удалось
func (s *Service) sendCardImage(ctx context.Context, chatID int64, card domain.CardDraw, caption string) bool {
	if s.CardImages == nil {
		return false
	}

	image, err := s.CardImages.GetCardImage(ctx, card.ID)
	if err != nil {
		s.Log.Warn("card image unavailable, sending text only",
			"error", err,
			"card_id", card.ID)
		return false
	}

	if err := s.TelegramService.SendPhoto(ctx, chatID, image, card.ID+".png", caption); err != nil {
		s.Log.Warn("failed to send card image",
			"error", err,
			"card_id", card.ID,
			"chat_id", chatID)
		return false
	}
	return true
}

func (s *Service) deliver(ctx context.Context, chatID int64, text string, keyboard *domain.InlineKeyboardMarkup) error {
	if keyboard == nil {
		return s.TelegramService.SendMessage(ctx, chatID, text)
	}
	return s.TelegramService.SendMessageWithKeyboard(ctx, chatID, text, keyboard)
}

func (s *Service) release(ctx context.Context, key string) {
	if err := s.Locker.Unlock(ctx, key); err != nil {
		s.Log.Warn("failed to release notification claim", "error", err, "key", key)
	}
}

func (s *Service) publishSent(ctx context.Context, user *domain.User, messageType domain.NotificationType, now time.Time) {
	if s.Events == nil {
		return
	}
	event := domain.NewEvent(domain.EventNotificationSent, user, map[string]string{
		"message_type": string(messageType),
	}, now)
	if err := s.Events.Publish(ctx, event); err != nil {
		s.Log.Warn("failed to publish event",
			"error", err,
			"event_type", event.Type,
			"user_id", user.ID)
	}
}

func (s *Service) alert(ctx context.Context, message string) {
	if s.AlerterService == nil {
		return
	}
	if err := s.AlerterService.SendAlert(ctx, message); err != nil {
		s.Log.Warn("failed to send alert", "error", err)
	}
}

func claimKey(user *domain.User, dayStart time.Time) string {
	return fmt.Sprintf("tarot:notify:%s:%s", user.ID, dayStart.Format(time.DateOnly))
}

func cardLabel(card domain.CardDraw) string {
	if card.IsReversed {
		return card.Name + " (" + card.Orientation() + ")"
	}
	return card.Name
}
