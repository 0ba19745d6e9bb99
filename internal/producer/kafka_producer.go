package producer

import (
	"context"
	"encoding/json"
	"time"

	"backoffice-service/internal/service"

	"github.com/segmentio/kafka-go"
)

// EventProducer реализует service.EventBus поверх Kafka.
type EventProducer struct {
	writer *kafka.Writer
}

func NewEventProducer(brokers []string, topic string) *EventProducer {
	return &EventProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

// envelope оборачивает событие типом, чтобы консьюмеры могли роутить по нему.
type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (p *EventProducer) publish(ctx context.Context, key, eventType string, payload any) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	value, err := json.Marshal(envelope{Type: eventType, Payload: payload})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
}

func (p *EventProducer) PublishOrderCreated(ctx context.Context, e service.OrderCreatedEvent) error {
	return p.publish(ctx, e.OrderID.String(), "order.created", e)
}

func (p *EventProducer) PublishOrderStatusChanged(ctx context.Context, e service.OrderStatusChangedEvent) error {
	return p.publish(ctx, e.OrderID.String(), "order.status_changed", e)
}

func (p *EventProducer) PublishBookingCreated(ctx context.Context, e service.BookingCreatedEvent) error {
	return p.publish(ctx, e.BookingID.String(), "booking.created", e)
}

func (p *EventProducer) Close() error {
	return p.writer.Close()
}
