// Package events publishes order lifecycle events for downstream consumers
// (fulfilment, notifications, reporting). Publishing is best effort after the
// local commit; failures are logged by callers, never surfaced to users.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"storefront/internal/domain"
)

const Topic = "order-events"

type EventType string

const (
	EventOrderPlaced        EventType = "ORDER_PLACED"
	EventOrderStatusChanged EventType = "ORDER_STATUS_CHANGED"
)

type OrderEvent struct {
	Type        EventType          `json:"type"`
	OrderID     string             `json:"order_id"`
	UserID      string             `json:"user_id"`
	Status      domain.OrderStatus `json:"status"`
	TotalAmount string             `json:"total_amount"`
	Currency    string             `json:"currency"`
	Items       []domain.OrderItem `json:"items"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

type Publisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// KafkaPublisher writes order events to the order-events topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write order event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards events; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderEvent(context.Context, OrderEvent) error {
	return nil
}

// NewOrderEvent fills the common fields from an order.
func NewOrderEvent(t EventType, o *domain.Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:        t,
		OrderID:     o.ID.String(),
		UserID:      o.UserID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount.String(),
		Currency:    o.Currency,
		Items:       o.Items,
		OccurredAt:  at,
	}
}
