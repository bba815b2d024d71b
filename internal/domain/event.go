package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType тип доменного события для внешних потребителей
type EventType string

const (
	EventReadingCreated   EventType = "reading.created"
	EventNotificationSent EventType = "notification.sent"
)

// Event доменное событие (Kafka)
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Type       EventType         `json:"type"`
	UserID     uuid.UUID         `json:"user_id"`
	TelegramID string            `json:"telegram_id"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func NewEvent(eventType EventType, user *User, attrs map[string]string, now time.Time) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		UserID:     user.ID,
		TelegramID: user.TelegramID,
		Attributes: attrs,
		OccurredAt: now,
	}
}

// TierChange внешнее изменение тарифа (биллинг)
type TierChange struct {
	TelegramID string `json:"telegram_id"`
	Tier       string `json:"tier"`
}
