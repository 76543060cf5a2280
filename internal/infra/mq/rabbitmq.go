package mq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/config"
)

// OrderSyncQueue carries order-queued notifications from the client to the
// sync worker. A message only says "there is pending work"; the worker
// always re-reads the queue from the local store, so lost or duplicated
// messages are harmless.
const OrderSyncQueue = "order_sync_queue"

// OrderQueuedMessage announces that an order was written to the local
// write-behind queue because the remote API was unreachable.
type OrderQueuedMessage struct {
	OrderID int64 `json:"order_id"`
}

// Dial opens a RabbitMQ connection.
func Dial(cfg *config.RabbitMQConfig) (*amqp.Connection, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	return conn, nil
}

// Publisher emits order-queued events. Best effort by design: if the
// broker is down the periodic reconciliation still picks the order up.
type Publisher struct {
	conn *amqp.Connection
}

// NewPublisher wraps an open connection.
func NewPublisher(conn *amqp.Connection) *Publisher {
	return &Publisher{conn: conn}
}

// OrderQueued publishes a notification for the given local order id.
func (p *Publisher) OrderQueued(ctx context.Context, orderID int64) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(OrderSyncQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	body, err := json.Marshal(&OrderQueuedMessage{OrderID: orderID})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		OrderSyncQueue,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Consume opens a manual-ack delivery stream on the sync queue.
func Consume(conn *amqp.Connection) (*amqp.Channel, <-chan amqp.Delivery, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(OrderSyncQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("declare queue: %w", err)
	}
	msgs, err := ch.Consume(OrderSyncQueue, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("consume: %w", err)
	}
	return ch, msgs, nil
}
