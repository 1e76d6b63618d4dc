package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/congo-pay/wallet_ledger/internal/logging"
	"github.com/congo-pay/wallet_ledger/internal/notification"
)

type memoryRepository struct {
	entries []Entry
	err     error
}

func (r *memoryRepository) Save(_ context.Context, e Entry) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, e)
	return nil
}

type recordingAcker struct {
	acks    int
	nacks   int
	requeue bool
}

func (a *recordingAcker) Ack(uint64, bool) error {
	a.acks++
	return nil
}

func (a *recordingAcker) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacks++
	a.requeue = requeue
	return nil
}

func (a *recordingAcker) Reject(_ uint64, requeue bool) error {
	return a.Nack(0, false, requeue)
}

func delivery(t *testing.T, acker amqp.Acknowledger, body []byte) amqp.Delivery {
	t.Helper()
	return amqp.Delivery{Acknowledger: acker, Body: body, RoutingKey: notification.KindBatchCommitted}
}

func eventBody(t *testing.T) []byte {
	t.Helper()
	msg := notification.NewMessage(notification.KindBatchCommitted, "b1", "batch b1 committed 2 transactions",
		map[string]any{"batch_id": "b1"})
	body, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return body
}

func TestHandleStoresAndAcks(t *testing.T) {
	repo := &memoryRepository{}
	acker := &recordingAcker{}
	c := NewConsumer(repo, logging.Discard())

	c.Handle(context.Background(), delivery(t, acker, eventBody(t)))

	if acker.acks != 1 || acker.nacks != 0 {
		t.Fatalf("expected one ack, got %+v", acker)
	}
	if len(repo.entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(repo.entries))
	}
	e := repo.entries[0]
	if e.Kind != notification.KindBatchCommitted || e.Attributes["batch_id"] != "b1" || e.ID == "" {
		t.Fatalf("unexpected entry %+v", e)
	}
}

func TestHandleDropsUndecodable(t *testing.T) {
	repo := &memoryRepository{}
	acker := &recordingAcker{}
	c := NewConsumer(repo, logging.Discard())

	c.Handle(context.Background(), delivery(t, acker, []byte("not json")))

	if acker.nacks != 1 || acker.requeue {
		t.Fatalf("expected nack without requeue, got %+v", acker)
	}
	if len(repo.entries) != 0 {
		t.Fatal("nothing should be stored")
	}
}

func TestHandleRequeuesOnStoreError(t *testing.T) {
	repo := &memoryRepository{err: errors.New("mongo down")}
	acker := &recordingAcker{}
	c := NewConsumer(repo, logging.Discard())

	c.Handle(context.Background(), delivery(t, acker, eventBody(t)))

	if acker.nacks != 1 || !acker.requeue {
		t.Fatalf("expected nack with requeue, got %+v", acker)
	}
}

func TestRunStopsWhenChannelCloses(t *testing.T) {
	repo := &memoryRepository{}
	acker := &recordingAcker{}
	c := NewConsumer(repo, logging.Discard())

	deliveries := make(chan amqp.Delivery, 2)
	deliveries <- delivery(t, acker, eventBody(t))
	deliveries <- delivery(t, acker, eventBody(t))
	close(deliveries)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Run(ctx, deliveries); !errors.Is(err, ErrDeliveriesClosed) {
		t.Fatalf("expected closed channel error, got %v", err)
	}
	if len(repo.entries) != 2 || acker.acks != 2 {
		t.Fatalf("expected two stored events, got %d entries %d acks", len(repo.entries), acker.acks)
	}
}
