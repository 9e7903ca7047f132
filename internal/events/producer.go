// events публикует доменные события учётных записей в Kafka.
//
// Публикация best-effort: сервис логирует ошибку доставки, но не проваливает
// бизнес-операцию. Продюсер опционален — при пустом списке брокеров сервис
// работает без него.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Типы публикуемых событий.
const (
	UserRegistered      = "user.registered"
	UserDeactivated     = "user.deactivated"
	UserPasswordChanged = "user.password_changed"
	UserDeleted         = "user.deleted"
)

// Event — конверт события; Key сообщения — user_id, чтобы события одного
// пользователя попадали в одну партицию.
type Event struct {
	Type       string    `json:"type"`
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Producer пишет события в один топик Kafka.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer создаёт продюсер для заданных брокеров и топика.
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Publish сериализует событие в JSON и отправляет в топик.
func (p *Producer) Publish(ctx context.Context, eventType string, userID uuid.UUID, email string) error {
	const op = "events.Publish"

	event := Event{
		Type:       eventType,
		UserID:     userID,
		Email:      email,
		OccurredAt: time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := kafka.Message{
		Key:   []byte(userID.String()),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close останавливает продюсер.
func (p *Producer) Close() error {
	return p.writer.Close()
}
