package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

// AMQPTrigger publishes trigger requests to a durable RabbitMQ queue.
type AMQPTrigger struct {
	url         string
	queue       string
	dialTimeout time.Duration

	mu   sync.Mutex
	conn *amqp.Connection
}

// NewAMQPTrigger bounds connection setup by dialTimeout; zero means 10s.
func NewAMQPTrigger(url, queue string, dialTimeout time.Duration) *AMQPTrigger {
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}
	return &AMQPTrigger{url: url, queue: queue, dialTimeout: dialTimeout}
}

func (t *AMQPTrigger) connection(ctx context.Context) (*amqp.Connection, error) {
	if t.conn != nil && !t.conn.IsClosed() {
		return t.conn, nil
	}
	timeout := t.dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}
	conn, err := amqp.DialConfig(t.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to queue: %w", err)
	}
	t.conn = conn
	return conn, nil
}

func (t *AMQPTrigger) Trigger(ctx context.Context, req TriggerRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	conn, err := t.connection(ctx)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open queue channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		t.queue, // name
		true,    // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	return ch.Publish(
		"",
		q.Name,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func (t *AMQPTrigger) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil || t.conn.IsClosed() {
		return nil
	}
	return t.conn.Close()
}
