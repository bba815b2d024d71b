package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/pkg/logger"
)

func TestProducer_Publish(t *testing.T) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	mock := mocks.NewSyncProducer(t, config)

	user := &domain.User{ID: uuid.New(), TelegramID: "42"}
	event := domain.NewEvent(domain.EventReadingCreated, user, map[string]string{"spread_type": "one"}, time.Now())

	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got domain.Event
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.ID != event.ID || got.Type != domain.EventReadingCreated {
			return errors.New("unexpected event payload")
		}
		return nil
	})
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	producer := NewProducerWith(mock, &Config{Topic: "tarot.events"}, logger.Discard())

	require.NoError(t, producer.Publish(context.Background(), event))

	err := producer.Send(context.Background(), "42", []byte("raw"))
	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	assert.Contains(t, err.Error(), "topic=tarot.events")

	require.NoError(t, producer.Close())
}
