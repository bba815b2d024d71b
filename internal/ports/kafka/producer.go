package kafka

import (
	"context"

	"github.com/Mel762/telegramTarorApp/internal/domain"
)

// IKafkaProducer интерфейс для отправки сообщений в Kafka
type IKafkaProducer interface {
	// Send отправляет произвольное сообщение
	Send(ctx context.Context, key string, value []byte) error
	// Close закрывает producer
	Close() error
}

// IEventPublisher публикация доменных событий
type IEventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
