package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// KindBatchCommitted is emitted after a ledger batch commits.
	KindBatchCommitted = "transaction.batch_committed"
	// KindTransferCompleted is emitted after a wallet-to-wallet transfer.
	KindTransferCompleted = "transaction.transfer_completed"
)

// FundingKind returns the event kind for a payout or recharge transition,
// e.g. funding.payout_pending.
func FundingKind(kind, status string) string {
	return "funding." + kind + "_" + status
}

// Message describes a ledger event.
type Message struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	Destination string         `json:"destination"`
	Body        string         `json:"body"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

// NewMessage stamps a message with an id and the current time.
func NewMessage(kind, destination, body string, attrs map[string]any) Message {
	return Message{
		ID:          uuid.NewString(),
		Kind:        kind,
		Destination: destination,
		Body:        body,
		Attributes:  attrs,
		OccurredAt:  time.Now().UTC(),
	}
}

// Notifier delivers messages to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes messages to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		slog.String("id", message.ID),
		slog.String("kind", message.Kind),
		slog.String("destination", message.Destination),
		slog.String("body", message.Body),
	)
	return nil
}

// Deliver sends message and logs a failure instead of returning it. Events
// describe writes that already committed, so delivery problems must not fail
// the request that produced them.
func Deliver(ctx context.Context, n Notifier, logger *slog.Logger, message Message) {
	if n == nil {
		return
	}
	if err := n.Send(ctx, message); err != nil && logger != nil {
		logger.Warn("notification delivery failed",
			slog.String("kind", message.Kind),
			slog.String("id", message.ID),
			slog.Any("error", err),
		)
	}
}
