// Package broker publishes JSON messages to RabbitMQ queues.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// dialTimeout bounds the TCP connect and AMQP handshake when ctx has no sooner deadline.
const dialTimeout = 5 * time.Second

// RabbitMQ keeps one connection open and redials after the broker drops it.
// Any number of goroutines may call Publish. Dialing happens outside the lock.
type RabbitMQ struct {
	url string

	mu       sync.Mutex
	conn     *amqp.Connection
	declared map[string]bool
	closed   bool
}

func NewRabbitMQ(url string) *RabbitMQ {
	return &RabbitMQ{url: url, declared: make(map[string]bool)}
}

// Publish sends payload as a persistent JSON message to the durable queue.
func (r *RabbitMQ) Publish(ctx context.Context, queue string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ch, err := r.channel(ctx, queue)
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queue, err)
	}
	return nil
}

func (r *RabbitMQ) channel(ctx context.Context, queue string) (*amqp.Channel, error) {
	conn, err := r.connection(ctx)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	r.mu.Lock()
	declared := r.declared[queue]
	r.mu.Unlock()
	if declared {
		return ch, nil
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	r.mu.Lock()
	if r.conn == conn {
		r.declared[queue] = true
	}
	r.mu.Unlock()

	return ch, nil
}

// connection returns the open connection or dials a new one. When two callers
// dial at once the first to finish wins and the other connection is closed.
func (r *RabbitMQ) connection(ctx context.Context) (*amqp.Connection, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, errors.New("broker is closed")
	}
	if r.conn != nil && !r.conn.IsClosed() {
		conn := r.conn
		r.mu.Unlock()
		return conn, nil
	}
	r.mu.Unlock()

	conn, err := r.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		_ = conn.Close()
		return nil, errors.New("broker is closed")
	}
	if r.conn != nil && !r.conn.IsClosed() {
		_ = conn.Close()
		return r.conn, nil
	}
	r.conn = conn
	r.declared = make(map[string]bool)
	return conn, nil
}

// dial gives up by the ctx deadline or after dialTimeout, whichever comes first.
// The deadline covers the AMQP handshake, not only the TCP connect.
func (r *RabbitMQ) dial(ctx context.Context) (*amqp.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	return amqp.DialConfig(r.url, amqp.Config{
		Locale: "en_US",
		Dial:   amqp.DefaultDial(timeout),
	})
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	if r.conn == nil || r.conn.IsClosed() {
		return nil
	}
	return r.conn.Close()
}
