package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/isdelr/finance-tracker-be/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Queue publishes messages to a durable RabbitMQ queue and can consume them.
type Queue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
}

var _ Sender = (*Queue)(nil)

// NewQueue dials url and declares queueName.
func NewQueue(url, queueName string) (*Queue, error) {
	const op = "mail.NewQueue"

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Queue{conn: conn, channel: ch, queue: q}, nil
}

// Send publishes msg as a persistent JSON message.
func (q *Queue) Send(ctx context.Context, msg models.Message) error {
	const op = "mail.Queue.Send"

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = q.channel.PublishWithContext(ctx, "", q.queue.Name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DropFunc is called with a message the consumer gave up on.
type DropFunc func(ctx context.Context, msg models.Message)

// Consume delivers queued messages to sender until ctx is cancelled or the
// channel closes. Failed deliveries are requeued once, then dropped and
// handed to onDrop when it is not nil.
func (q *Queue) Consume(ctx context.Context, sender Sender, onDrop DropFunc) error {
	const op = "mail.Queue.Consume"

	if err := q.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	deliveries, err := q.channel.ConsumeWithContext(ctx, q.queue.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("%s: delivery channel closed", op)
			}
			handleDelivery(ctx, d, sender, onDrop)
		}
	}
}

func handleDelivery(ctx context.Context, d amqp.Delivery, sender Sender, onDrop DropFunc) {
	var msg models.Message
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		log.Error().Err(err).Msg("Dropping undecodable mail message")
		_ = d.Nack(false, false)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := sender.Send(sendCtx, msg); err != nil {
		log.Error().Err(err).Str("to", msg.To).Bool("redelivered", d.Redelivered).Msg("Failed to deliver mail")
		_ = d.Nack(false, !d.Redelivered)
		if d.Redelivered && onDrop != nil {
			onDrop(ctx, msg)
		}
		return
	}
	_ = d.Ack(false)
	log.Info().Str("to", msg.To).Msg("Mail delivered")
}

// Close releases the channel and connection.
func (q *Queue) Close() {
	_ = q.channel.Close()
	_ = q.conn.Close()
}
