package events

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/course-seller/internal/lib/rabbitmq"
)

// AMQPPublisher публикует события в обменник RabbitMQ.
type AMQPPublisher struct {
	ch         rabbitmq.Channel
	exchange   string
	routingKey string
}

// NewAMQPPublisher создаёт публикатор поверх открытого канала.
func NewAMQPPublisher(ch rabbitmq.Channel, exchange, routingKey string) *AMQPPublisher {
	return &AMQPPublisher{ch: ch, exchange: exchange, routingKey: routingKey}
}

func (p *AMQPPublisher) Publish(_ context.Context, e Event) error {
	const op = "events.AMQPPublisher.Publish"
	if err := rabbitmq.PublishMessage(p.ch, p.exchange, p.routingKey, e); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
