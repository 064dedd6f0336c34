// Package notify publishes render-completed events to an AMQP topic
// exchange. Downstream consumers (fleet dashboards, refresh schedulers) can
// follow what each device last rendered without polling the server. The
// publisher is optional; the pipeline works identically without it.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Config holds the AMQP wiring.
type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
}

// RenderedEvent describes one successful screen render.
type RenderedEvent struct {
	DeviceID   string    `json:"device_id"`
	Format     string    `json:"format"`
	Bytes      int       `json:"bytes"`
	RenderedAt time.Time `json:"rendered_at"`
}

// Publisher owns the AMQP connection and channel.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     Config
	logger  *zap.Logger
}

// New connects and declares the topic exchange.
func New(cfg Config, logger *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	logger.Info("Render event publisher connected",
		zap.String("exchange", cfg.Exchange),
		zap.String("routing_key", cfg.RoutingKey))
	return &Publisher{conn: conn, channel: ch, cfg: cfg, logger: logger}, nil
}

// PublishRendered emits one event. Publish failures are logged, not
// propagated: the device already has its image.
func (p *Publisher) PublishRendered(ctx context.Context, event RenderedEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to encode render event", zap.Error(err))
		return
	}
	err = p.channel.PublishWithContext(ctx,
		p.cfg.Exchange,
		p.cfg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   event.RenderedAt,
			Body:        body,
		})
	if err != nil {
		p.logger.Error("Failed to publish render event",
			zap.String("device_id", event.DeviceID),
			zap.Error(err))
		return
	}
	p.logger.Debug("Render event published",
		zap.String("device_id", event.DeviceID),
		zap.Int("bytes", event.Bytes))
}

// Close shuts the channel and connection down.
func (p *Publisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
