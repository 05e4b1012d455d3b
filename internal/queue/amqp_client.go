package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/streadway/amqp"
)

// RoutingKeyBatchCompleted is the routing key of batch-completed messages.
const RoutingKeyBatchCompleted = "batch.completed"

type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPClient publishes queue messages to a RabbitMQ topic exchange.
type AMQPClient struct {
	conn     *amqp.Connection
	exchange string
	channel  func() (amqpChannel, error)
}

// NewAMQPClient dials url and declares a durable topic exchange.
func NewAMQPClient(url, exchange string) (*AMQPClient, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("AMQP_URL is required")
	}
	if exchange == "" {
		return nil, fmt.Errorf("AMQP_EXCHANGE is required")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &AMQPClient{
		conn:     conn,
		exchange: exchange,
		channel: func() (amqpChannel, error) {
			return conn.Channel()
		},
	}, nil
}

// Send publishes msg on a short-lived channel.
func (a *AMQPClient) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode amqp message: %w", err)
	}

	ch, err := a.channel()
	if err != nil {
		return fmt.Errorf("open amqp channel: %w", err)
	}
	defer ch.Close()

	err = ch.Publish(a.exchange, RoutingKeyBatchCompleted, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.BatchID,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (a *AMQPClient) Close() error {
	if a.conn == nil {
		return nil
	}
	return a.conn.Close()
}

var _ Client = (*AMQPClient)(nil)
