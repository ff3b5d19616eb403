package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/dbtest"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/outbox"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/outbox/payloads"
)

type fakeAdmins struct {
	admins []models.User
	err    error
}

func (f fakeAdmins) ListAdmins(context.Context) ([]models.User, error) {
	return f.admins, f.err
}

type fakeIdempotency struct {
	seen    map[uuid.UUID]bool
	deleted []uuid.UUID
	err     error
}

func (f *fakeIdempotency) Process(ctx context.Context, _ string, eventID uuid.UUID, handle func(context.Context) error) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
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

type recordingTransport struct {
	sent []Delivery
	err  error
}

func (r *recordingTransport) Send(_ context.Context, d Delivery) error {
	r.sent = append(r.sent, d)
	return r.err
}

type noopReceiver struct{}

func (noopReceiver) Receive(context.Context, func(context.Context, *pubsub.Message)) error { return nil }

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestConsumer(t *testing.T, admins fakeAdmins, transport Transport) (*Consumer, Repository, *fakeIdempotency) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	idem := &fakeIdempotency{}
	consumer, err := NewConsumer(ConsumerParams{
		Repo:         repo,
		Users:        admins,
		Transport:    transport,
		Subscription: noopReceiver{},
		Idempotency:  idem,
		Logger:       testLogger(),
	})
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	return consumer, repo, idem
}

func notificationMessage(t *testing.T, eventID uuid.UUID, payload payloads.NotificationRequestedEvent) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(payload)
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
		Attributes: map[string]string{"event_type": string(enums.EventNotificationRequested)},
	}
}

func TestConsumerDeliversToUserOnce(t *testing.T) {
	transport := &recordingTransport{}
	consumer, repo, _ := newTestConsumer(t, fakeAdmins{}, transport)
	userID := uuid.New()
	eventID := uuid.New()
	msg := notificationMessage(t, eventID, payloads.NotificationRequestedEvent{
		UserID:   &userID,
		Type:     enums.NotificationPickupReminder,
		Title:    "Pickup Reminder",
		Message:  "Your order ORD-2026-001 is ready for pickup at 7:30 PM.",
		Priority: enums.PriorityHigh,
		Channels: []enums.NotificationChannel{enums.ChannelInApp, enums.ChannelPush},
		Data:     map[string]any{"order_number": "ORD-2026-001"},
	})

	if res := consumer.process(context.Background(), msg); !res.ack {
		t.Fatalf("expected ack, got %+v", res)
	}
	if res := consumer.process(context.Background(), msg); !res.ack {
		t.Fatalf("expected redelivery to be acked, got %+v", res)
	}
	if len(transport.sent) != 1 {
		t.Fatalf("expected one delivery, got %d", len(transport.sent))
	}
	sent := transport.sent[0]
	if sent.Notification.UserID != userID || sent.Notification.Priority != enums.PriorityHigh || len(sent.Channels) != 2 {
		t.Fatalf("unexpected delivery %+v", sent)
	}

	result, _, err := repo.List(context.Background(), listNotificationsParams{UserID: userID, Limit: 10})
	if err != nil || len(result) != 1 {
		t.Fatalf("expected one stored notification, got %d err=%v", len(result), err)
	}
	if result[0].EventID != eventID || result[0].Title != "Pickup Reminder" {
		t.Fatalf("unexpected stored notification %+v", result[0])
	}
}

func TestConsumerFansOutToAdminsAndHonorsPreferences(t *testing.T) {
	transport := &recordingTransport{err: errors.New("push provider down")}
	adminA := models.User{ID: uuid.New(), Role: enums.RoleAdmin}
	adminB := models.User{ID: uuid.New(), Role: enums.RoleAdmin}
	consumer, repo, _ := newTestConsumer(t, fakeAdmins{admins: []models.User{adminA, adminB}}, transport)
	ctx := context.Background()

	if err := repo.UpsertPreferences(ctx, []models.NotificationPreference{{UserID: adminB.ID, Type: enums.NotificationNewOrder, Enabled: false}}); err != nil {
		t.Fatalf("upsert preference: %v", err)
	}

	err := consumer.Deliver(ctx, uuid.New(), payloads.NotificationRequestedEvent{
		Admins:  true,
		Type:    enums.NotificationNewOrder,
		Title:   "New Order",
		Message: "ORD-2026-004 was placed.",
	})
	if err != nil {
		t.Fatalf("transport failures must not fail delivery: %v", err)
	}
	if len(transport.sent) != 1 || transport.sent[0].Notification.UserID != adminA.ID {
		t.Fatalf("expected only adminA to be notified, got %+v", transport.sent)
	}
	if transport.sent[0].Notification.Priority != enums.PriorityMedium {
		t.Fatalf("expected default medium priority")
	}
}

func TestConsumerNacksAndForgetsOnRepositoryFailure(t *testing.T) {
	consumer, _, idem := newTestConsumer(t, fakeAdmins{err: errors.New("db down")}, &recordingTransport{})
	eventID := uuid.New()
	msg := notificationMessage(t, eventID, payloads.NotificationRequestedEvent{Admins: true, Type: enums.NotificationNewOrder, Title: "New Order"})

	res := consumer.process(context.Background(), msg)
	if !res.nack {
		t.Fatalf("expected nack, got %+v", res)
	}
	if len(idem.deleted) != 1 || idem.deleted[0] != eventID {
		t.Fatalf("expected idempotency marker to be cleared")
	}
}

func TestConsumerSkipsOtherEventsAndBadEnvelopes(t *testing.T) {
	consumer, _, idem := newTestConsumer(t, fakeAdmins{}, &recordingTransport{})
	ctx := context.Background()

	other := &pubsub.Message{ID: "m", Data: []byte(`{}`), Attributes: map[string]string{"event_type": string(enums.EventOrderPlaced)}}
	if res := consumer.process(ctx, other); !res.ack {
		t.Fatalf("expected ack for unrelated event")
	}
	garbage := &pubsub.Message{ID: "m", Data: []byte(`not json`), Attributes: map[string]string{"event_type": string(enums.EventNotificationRequested)}}
	if res := consumer.process(ctx, garbage); !res.ack {
		t.Fatalf("expected poison message to be acked")
	}
	if len(idem.seen) != 0 {
		t.Fatalf("no event should have been marked")
	}

	idem.err = errors.New("redis down")
	msg := notificationMessage(t, uuid.New(), payloads.NotificationRequestedEvent{UserID: ptr(uuid.New()), Type: enums.NotificationGeneral, Title: "Hi"})
	if res := consumer.process(ctx, msg); !res.nack {
		t.Fatalf("expected nack when idempotency store fails")
	}
}

func ptr[T any](v T) *T { return &v }
