package queue

import (
	"context"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue names for the two lifecycle events that leave the system.
const (
	TrackingPending = "tracking.pending"
	TrackingPaid    = "tracking.paid"
)

// Broker wraps a RabbitMQ connection with the queues this service uses
// pre-declared. Queues are durable so events survive a broker restart.
type Broker struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func Connect(url string) (*Broker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	for _, name := range []string{TrackingPending, TrackingPaid} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, err
		}
	}
	return &Broker{conn: conn, ch: ch}, nil
}

func (b *Broker) Publish(ctx context.Context, queueName string, body []byte) error {
	return b.ch.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Consume feeds deliveries from queueName to handler until the channel
// closes. A handler error nacks the message back onto the queue.
func (b *Broker) Consume(queueName string, handler func([]byte) error) error {
	deliveries, err := b.ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return err
	}
	go func() {
		for d := range deliveries {
			if err := handler(d.Body); err != nil {
				log.Printf("queue %s: handler failed, requeueing: %v", queueName, err)
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}()
	return nil
}

func (b *Broker) Close() {
	if b == nil {
		return
	}
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		_ = b.conn.Close()
	}
}
