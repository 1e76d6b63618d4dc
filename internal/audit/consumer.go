package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/congo-pay/wallet_ledger/internal/notification"
)

const (
	// Queue receives every ledger and funding event.
	Queue       = "audit_queue"
	consumerTag = "audit_worker"
	saveTimeout = 5 * time.Second
)

// Bindings are the routing keys the audit queue subscribes to.
var Bindings = []string{"transaction.#", "funding.#"}

// ErrDeliveriesClosed is returned by Run when the broker closes the channel.
var ErrDeliveriesClosed = errors.New("audit: delivery channel closed")

// Subscribe declares the exchange, the durable audit queue and its bindings,
// and starts a manual-ack consumer with a prefetch of one.
func Subscribe(ch *amqp.Channel, exchange string) (<-chan amqp.Delivery, error) {
	if err := ch.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	q, err := ch.QueueDeclare(Queue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", Queue, err)
	}
	for _, key := range Bindings {
		if err := ch.QueueBind(q.Name, key, exchange, false, nil); err != nil {
			return nil, fmt.Errorf("bind %s to %s: %w", key, q.Name, err)
		}
	}
	msgs, err := ch.Consume(q.Name, consumerTag, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", q.Name, err)
	}
	return msgs, nil
}

// Consumer stores each delivered event and acknowledges it.
type Consumer struct {
	repo   Repository
	logger *slog.Logger
}

// NewConsumer builds a consumer writing to repo.
func NewConsumer(repo Repository, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{repo: repo, logger: logger.With("component", "audit")}
}

// Run handles deliveries until ctx is done or the channel closes.
func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	c.logger.Info("audit consumer started", slog.String("queue", Queue))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}
			c.Handle(ctx, d)
		}
	}
}

// Handle stores one delivery. Undecodable bodies are dropped; store
// failures are requeued.
func (c *Consumer) Handle(ctx context.Context, d amqp.Delivery) {
	var msg notification.Message
	if err := json.Unmarshal(d.Body, &msg); err != nil || msg.ID == "" {
		c.logger.Warn("dropping undecodable event",
			slog.String("routing_key", d.RoutingKey),
			slog.Any("error", err),
		)
		if err := d.Nack(false, false); err != nil {
			c.logger.Error("nack failed", slog.Any("error", err))
		}
		return
	}

	saveCtx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()
	err := c.repo.Save(saveCtx, Entry{
		ID:          msg.ID,
		Kind:        msg.Kind,
		Destination: msg.Destination,
		Body:        msg.Body,
		Attributes:  msg.Attributes,
		OccurredAt:  msg.OccurredAt,
	})
	if err != nil {
		c.logger.Error("store audit entry",
			slog.String("id", msg.ID),
			slog.String("kind", msg.Kind),
			slog.Any("error", err),
		)
		if err := d.Nack(false, true); err != nil {
			c.logger.Error("nack failed", slog.Any("error", err))
		}
		return
	}

	if err := d.Ack(false); err != nil {
		c.logger.Error("ack failed", slog.Any("error", err))
		return
	}
	c.logger.Debug("audit entry stored", slog.String("id", msg.ID), slog.String("kind", msg.Kind))
}
