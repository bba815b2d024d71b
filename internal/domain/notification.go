package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType тип отправленного уведомления
type NotificationType string

const (
	NotificationDailyReminder NotificationType = "daily_reminder"
	NotificationAutoReading   NotificationType = "auto_reading"
)

// NotificationHistory запись аудита отправки, append-only
type NotificationHistory struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	UserID      uuid.UUID        `json:"user_id" db:"user_id"`
	MessageType NotificationType `json:"message_type" db:"message_type"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}

func NewNotificationHistory(userID uuid.UUID, messageType NotificationType, now time.Time) *NotificationHistory {
	return &NotificationHistory{
		ID:          uuid.New(),
		UserID:      userID,
		MessageType: messageType,
		CreatedAt:   now,
	}
}

// DayBounds границы календарного дня UTC [start, end)
func DayBounds(now time.Time) (time.Time, time.Time) {
	y, m, d := now.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// ClockUTC HH:MM в UTC
func ClockUTC(now time.Time) string {
	return now.UTC().Format("15:04")
}
