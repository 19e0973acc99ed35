package service

import (
	"context"

	"github.com/prperemyshlev/grocery-store/internal/domain"
)

// MessagePublisher is satisfied by broker.RabbitMQ.
type MessagePublisher interface {
	Publish(ctx context.Context, queue string, payload any) error
}

// EventPublisher announces committed orders to downstream consumers.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event domain.OrderEvent) error
}

type queuePublisher struct {
	publisher MessagePublisher
	queue     string
}

func NewQueuePublisher(publisher MessagePublisher, queue string) EventPublisher {
	return &queuePublisher{publisher: publisher, queue: queue}
}

func (p *queuePublisher) PublishOrderPlaced(ctx context.Context, event domain.OrderEvent) error {
	return p.publisher.Publish(ctx, p.queue, event)
}

// NoopPublisher drops events; used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderPlaced(context.Context, domain.OrderEvent) error {
	return nil
}
