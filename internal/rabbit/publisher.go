package rabbit

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

const Exchange = "cinema.events"

type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func Dial(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial rabbitmq")
	}

	publisher, err := NewPublisher(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return publisher, nil
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "open channel")
	}

	err = ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil)
	if err != nil {
		return nil, errors.Wrap(err, "declare exchange")
	}

	return &Publisher{conn: conn, ch: ch}, nil
}

// Publish sends a persistent JSON message routed by event type. The message
// ID lets consumers drop redeliveries.
func (p *Publisher) Publish(ctx context.Context, routingKey, messageID string, body []byte) error {
	msg := amqp.Publishing{
		MessageId:    messageID,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	}

	return p.ch.PublishWithContext(ctx, Exchange, routingKey, false, false, msg)
}

func (p *Publisher) Close() error {
	return errors.CombineErrors(p.ch.Close(), p.conn.Close())
}
