// Package events publishes generation lifecycle events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/gogpu/mockup"
)

// Routing keys.
const (
	GenerationCompleted = "generation.completed"
)

// GenerationEvent is the body of a generation.completed message.
type GenerationEvent struct {
	GenerationID string    `json:"generation_id"`
	UserID       string    `json:"user_id"`
	URL          string    `json:"url,omitempty"`
	Format       string    `json:"format"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Bytes        int       `json:"bytes"`
	LayerCount   int       `json:"layer_count"`
	Timestamp    time.Time `json:"timestamp"`
}

// Publisher sends JSON-encoded events.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body any) error
	Close()
}

// Nop is a Publisher that drops every event. It stands in when no broker
// is configured.
type Nop struct{}

// Publish logs the skipped event at debug level and returns nil.
func (Nop) Publish(_ context.Context, exchange, routingKey string, _ any) error {
	mockup.Logger().Debug("events: publish skipped, no broker",
		slog.String("exchange", exchange),
		slog.String("routing_key", routingKey))
	return nil
}

// Close does nothing.
func (Nop) Close() {}

// channel is the subset of *amqp091.Channel used by Producer.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Producer publishes onto durable topic exchanges over one AMQP channel.
type Producer struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  channel
	reopen   func() (channel, error)
	declared map[string]bool
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("events: AMQP URL scheme must be amqp:// or amqps://")
	}
	return clean, nil
}

// NewProducer dials the broker at amqpURL.
func NewProducer(amqpURL string) (*Producer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("events: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: open channel: %w", err)
	}

	p := newProducer(ch, func() (channel, error) { return conn.Channel() })
	p.conn = conn
	return p, nil
}

func newProducer(ch channel, reopen func() (channel, error)) *Producer {
	return &Producer{
		channel:  ch,
		reopen:   reopen,
		declared: make(map[string]bool),
	}
}

// Publish declares exchange (a durable topic exchange) on first use and
// sends body as JSON. A failed publish reopens the channel and is retried
// once.
func (p *Producer) Publish(ctx context.Context, exchange, routingKey string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("events: marshal %s: %w", routingKey, err)
	}
	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         payload,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.publish(ctx, exchange, routingKey, msg)
	if err == nil {
		return nil
	}
	mockup.Logger().Warn("events: publish failed, reopening channel",
		slog.String("exchange", exchange),
		slog.String("routing_key", routingKey),
		slog.Any("error", err))

	if p.reopen == nil {
		return err
	}
	ch, chErr := p.reopen()
	if chErr != nil {
		return errors.Join(err, chErr)
	}
	_ = p.channel.Close()
	p.channel = ch
	p.declared = make(map[string]bool)
	return p.publish(ctx, exchange, routingKey, msg)
}

func (p *Producer) publish(ctx context.Context, exchange, routingKey string, msg amqp091.Publishing) error {
	if !p.declared[exchange] {
		if err := p.channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
			return fmt.Errorf("events: declare exchange %s: %w", exchange, err)
		}
		p.declared[exchange] = true
	}
	if err := p.channel.PublishWithContext(ctx, exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("events: publish %s: %w", routingKey, err)
	}
	return nil
}

// Close closes the channel and the connection.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
