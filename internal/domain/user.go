package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const DefaultNotificationTime = "09:00"

var notificationTimeRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type User struct {
	ID                   uuid.UUID  `json:"id" db:"id"`
	TelegramID           string     `json:"telegram_id" db:"telegram_id"`
	Username             *string    `json:"username,omitempty" db:"username"`
	FirstName            *string    `json:"first_name,omitempty" db:"first_name"`
	LanguageCode         Language   `json:"language_code" db:"language_code"`
	Tier                 Tier       `json:"subscription_tier" db:"tier"`
	DailyOneCardCount    int        `json:"daily_one_card_count" db:"daily_one_card_count"`
	DailyThreeCardCount  int        `json:"daily_three_card_count" db:"daily_three_card_count"`
	LastReadingDate      *time.Time `json:"last_reading_date,omitempty" db:"last_reading_date"`
	LastDailyReadingDate *time.Time `json:"last_daily_reading_date,omitempty" db:"last_daily_reading_date"`
	FreeReadingsOne      int        `json:"free_readings_one" db:"free_readings_one"`
	FreeReadingsThree    int        `json:"free_readings_three" db:"free_readings_three"`
	NotificationsEnabled bool       `json:"notifications_enabled" db:"notifications_enabled"`
	NotificationTime     string     `json:"notification_time" db:"notification_time"`
	ReceiveDailyReading  bool       `json:"receive_daily_reading" db:"receive_daily_reading"`
	Timezone             string     `json:"timezone" db:"timezone"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`
	LastSeenAt           *time.Time `json:"last_seen_at,omitempty" db:"last_seen_at"`
}

// NewUser пользователь с дефолтами: free, en, уведомления выключены
func NewUser(telegramID string, username, firstName *string, lang Language, now time.Time) *User {
	return &User{
		ID:               uuid.New(),
		TelegramID:       telegramID,
		Username:         username,
		FirstName:        firstName,
		LanguageCode:     lang,
		Tier:             TierFree,
		NotificationTime: DefaultNotificationTime,
		Timezone:         "UTC",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// ChatID для приватного чата chat_id совпадает с telegram user id
func (u *User) ChatID() (int64, error) {
	chatID, err := strconv.ParseInt(u.TelegramID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram id %q is not numeric: %w", u.TelegramID, err)
	}
	return chatID, nil
}

// DisplayName username, затем имя, затем заглушка
func (u *User) DisplayName() string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	if u.FirstName != nil && *u.FirstName != "" {
		return *u.FirstName
	}
	return "Traveler"
}

// Lang язык с дефолтом
func (u *User) Lang() Language {
	if u.LanguageCode == "" {
		return LanguageEN
	}
	return ParseLanguage(string(u.LanguageCode))
}

// NotificationSettings настройки уведомлений из Mini-App
type NotificationSettings struct {
	NotificationsEnabled bool
	NotificationTime     string
	ReceiveDailyReading  bool
}

// Validate проверяет формат HH:MM
func (s NotificationSettings) Validate() error {
	if !notificationTimeRe.MatchString(s.NotificationTime) {
		return fmt.Errorf("%w: %q", ErrInvalidTime, s.NotificationTime)
	}
	return nil
}
