package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/dbtest"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
)

func TestEmitWritesEnvelope(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)
	orderID := uuid.New()
	userID := uuid.New()

	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderReady,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &ActorRef{UserID: &userID, Role: "admin"},
			Data:          map[string]string{"order_number": "ORD-2026-004"},
		})
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	var rows []models.OutboxEvent
	if err := conn.Find(&rows).Error; err != nil {
		t.Fatalf("load rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 outbox row, got %d", len(rows))
	}
	if rows[0].AggregateID != orderID || rows[0].PublishedAt != nil {
		t.Fatalf("unexpected row %+v", rows[0])
	}

	var envelope PayloadEnvelope
	if err := json.Unmarshal(rows[0].Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Version != 1 || envelope.EventID == "" {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
	if envelope.Actor == nil || envelope.Actor.Role != "admin" {
		t.Fatalf("actor not carried: %+v", envelope.Actor)
	}
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	err := svc.Emit(context.Background(), nil, DomainEvent{
		EventType:     enums.EventOrderReady,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
	})
	if err == nil {
		t.Fatal("expected error without transaction")
	}
}

func TestEmitRejectsUnknownEventType(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)
	err := svc.Emit(context.Background(), conn, DomainEvent{
		EventType:     enums.OutboxEventType("order_teleported"),
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
	})
	if err == nil {
		t.Fatal("expected unknown event type to be rejected")
	}
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventSaleFullyPaid,
		AggregateType: enums.AggregateSale,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1}`),
	}
	if err := repo.Insert(conn, event); err != nil {
		t.Fatalf("insert: %v", err)
	}

	pending, err := repo.FetchUnpublishedForPublish(conn, 10, 3)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending row, got %d", len(pending))
	}

	if err := repo.MarkTerminalTx(conn, event.ID, context.DeadlineExceeded, 3); err != nil {
		t.Fatalf("mark terminal: %v", err)
	}
	pending, err = repo.FetchUnpublishedForPublish(conn, 10, 3)
	if err != nil {
		t.Fatalf("fetch after terminal: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("terminal row should not be fetched again")
	}

	if err := repo.MarkPublishedTx(conn, event.ID); err != nil {
		t.Fatalf("mark published: %v", err)
	}
	if err := conn.Model(&models.OutboxEvent{}).Where("id = ?", event.ID).
		Update("published_at", time.Now().UTC().Add(-10*24*time.Hour)).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}
	removed, err := repo.DeletePublishedBefore(ctx, nil, time.Now().UTC().Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("delete published: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 row removed, got %d", removed)
	}
}

func TestDeadLettersRecordAndPurge(t *testing.T) {
	conn := dbtest.Open(t)
	dead := NewDeadLetters(conn)
	ctx := context.Background()

	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1}`),
		AttemptCount:  9,
	}
	cause := errors.New(strings.Repeat("é", 700))
	entry, err := dead.RecordTx(conn, event, enums.OutboxDLQReasonMaxAttempts, cause, time.Now().Add(-40*24*time.Hour))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if entry.EventID != event.ID || entry.AttemptCount != 9 {
		t.Fatalf("entry does not mirror the event: %+v", entry)
	}
	if len(*entry.ErrorMessage) > maxDeadLetterMessage || !utf8.ValidString(*entry.ErrorMessage) {
		t.Fatalf("message not clipped on a rune boundary: %d bytes", len(*entry.ErrorMessage))
	}
	if _, err := dead.RecordTx(conn, event, enums.OutboxDLQErrorReason("bored"), cause, time.Now()); err == nil {
		t.Fatal("expected unknown reason to be rejected")
	}
	if _, err := dead.RecordTx(nil, event, enums.OutboxDLQReasonMaxAttempts, cause, time.Now()); err == nil {
		t.Fatal("expected missing transaction to fail")
	}

	removed, err := dead.DeleteBefore(ctx, nil, time.Now().UTC().Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 dead letter removed, got %d", removed)
	}
}

func TestDecodeEnvelope(t *testing.T) {
	id := uuid.New()
	env, got, err := DecodeEnvelope([]byte(`{"version":1,"eventId":"` + id.String() + `","data":{"a":1}}`))
	if err != nil || got != id || env.Version != 1 {
		t.Fatalf("unexpected decode %+v %s %v", env, got, err)
	}
	for name, raw := range map[string]string{
		"garbage": `{`,
		"bad id":  `{"eventId":"ord-1","data":{}}`,
		"null":    `{"eventId":"` + id.String() + `","data":null}`,
		"no data": `{"eventId":"` + id.String() + `"}`,
	} {
		if _, _, err := DecodeEnvelope([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestEmitStampsOccurredAt(t *testing.T) {
	fixed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc := &Service{repo: NewRepository(nil), now: func() time.Time { return fixed }}
	row, env, err := svc.buildRow(DomainEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Data:          map[string]int{"items": 2},
	})
	if err != nil {
		t.Fatalf("build row: %v", err)
	}
	if !env.OccurredAt.Equal(fixed) || env.Version != currentPayloadVersion {
		t.Fatalf("unexpected envelope %+v", env)
	}
	decoded, _, err := DecodeEnvelope(row.Payload)
	if err != nil || string(decoded.Data) != `{"items":2}` {
		t.Fatalf("payload round trip failed: %s %v", decoded.Data, err)
	}
}
