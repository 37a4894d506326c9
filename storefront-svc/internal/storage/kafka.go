package storage

import (
	"context"
	"encoding/json"

	"qr-storefront/storefront-svc/internal/domain"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	Writer MessageWriter
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{Writer: writer}
}

// PublishCartEvent keys the message by session so one session's events stay
// on one partition.
func (p *KafkaPublisher) PublishCartEvent(ctx context.Context, event domain.CartEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.SessionID),
		Value: payload,
	})
}

var _ MessageWriter = (*kafka.Writer)(nil)
