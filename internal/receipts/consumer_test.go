package receipts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	pkgerrors "github.com/ErnestKamau/EasyBuy-sub001/pkg/errors"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/money"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/outbox"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/outbox/payloads"
)

type fakeGenerator struct {
	calls []uuid.UUID
	err   error
}

func (f *fakeGenerator) Generate(_ context.Context, saleID uuid.UUID) (*ReceiptDTO, bool, error) {
	f.calls = append(f.calls, saleID)
	if f.err != nil {
		return nil, false, f.err
	}
	return &ReceiptDTO{SaleID: saleID, ReceiptNumber: "RCP-2026-001"}, true, nil
}

type fakeIdempotency struct {
	seen    map[uuid.UUID]bool
	deleted []uuid.UUID
}

func (f *fakeIdempotency) Process(ctx context.Context, _ string, eventID uuid.UUID, handle func(context.Context) error) (bool, error) {
	if f.seen == nil {
		f.seen = map[uuid.UUID]bool{}
	}
	if f.seen[eventID] {
		return true, nil
	}
	f.seen[eventID] = true
	if err := handle(ctx); err != nil {
		delete(f.seen, eventID)
		f.deleted = append(f.deleted, eventID)
		return false, err
	}
	return false, nil
}

type noopReceiver struct{}

func (noopReceiver) Receive(context.Context, func(context.Context, *pubsub.Message)) error { return nil }

func newTestConsumer(t *testing.T, gen *fakeGenerator) (*Consumer, *fakeIdempotency) {
	t.Helper()
	idem := &fakeIdempotency{}
	consumer, err := NewConsumer(ConsumerParams{
		Receipts:     gen,
		Subscription: noopReceiver{},
		Idempotency:  idem,
		Logger:       logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	return consumer, idem
}

func fullyPaidMessage(t *testing.T, eventID, saleID uuid.UUID) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(payloads.SaleFullyPaidEvent{
		SaleID:      saleID,
		SaleNumber:  "SALE-2026-001",
		OrderID:     uuid.New(),
		TotalAmount: money.MustAmount("1100"),
		TotalPaid:   money.MustAmount("1100"),
		PaidAt:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope, err := json.Marshal(outbox.PayloadEnvelope{Version: 1, EventID: eventID.String(), OccurredAt: time.Now().UTC(), Data: data})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &pubsub.Message{
		ID:         "msg-1",
		Data:       envelope,
		Attributes: map[string]string{"event_type": string(enums.EventSaleFullyPaid)},
	}
}

func TestConsumerGeneratesOncePerEvent(t *testing.T) {
	gen := &fakeGenerator{}
	consumer, _ := newTestConsumer(t, gen)
	saleID := uuid.New()
	msg := fullyPaidMessage(t, uuid.New(), saleID)

	if !consumer.process(context.Background(), msg) {
		t.Fatal("expected ack")
	}
	if !consumer.process(context.Background(), msg) {
		t.Fatal("expected redelivery to be acked")
	}
	if len(gen.calls) != 1 || gen.calls[0] != saleID {
		t.Fatalf("expected one generate for the sale, got %v", gen.calls)
	}
}

func TestConsumerIgnoresOtherSaleEvents(t *testing.T) {
	gen := &fakeGenerator{}
	consumer, _ := newTestConsumer(t, gen)
	msg := &pubsub.Message{ID: "m", Data: []byte(`{}`), Attributes: map[string]string{"event_type": string(enums.EventPaymentRecorded)}}
	if !consumer.process(context.Background(), msg) || len(gen.calls) != 0 {
		t.Fatal("expected unrelated events to be acked without work")
	}
}

func TestConsumerNacksDependencyFailures(t *testing.T) {
	gen := &fakeGenerator{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("db down"), "load sale")}
	consumer, idem := newTestConsumer(t, gen)
	eventID := uuid.New()

	if consumer.process(context.Background(), fullyPaidMessage(t, eventID, uuid.New())) {
		t.Fatal("expected nack")
	}
	if len(idem.deleted) != 1 || idem.deleted[0] != eventID {
		t.Fatal("expected idempotency marker to be cleared for redelivery")
	}
}

func TestConsumerAcksSalesThatNoLongerQualify(t *testing.T) {
	gen := &fakeGenerator{err: pkgerrors.New(pkgerrors.CodeStateConflict, "sale is not fully paid")}
	consumer, idem := newTestConsumer(t, gen)

	if !consumer.process(context.Background(), fullyPaidMessage(t, uuid.New(), uuid.New())) {
		t.Fatal("expected ack")
	}
	if len(idem.deleted) != 0 {
		t.Fatal("marker must stay when the sale no longer qualifies")
	}
}
