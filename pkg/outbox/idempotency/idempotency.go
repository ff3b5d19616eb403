// Package idempotency keeps Pub/Sub consumers from applying the same outbox
// event twice. Markers live in Redis under
// `eb:idempotency:evt:processed:<consumer>:<event_id>`.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/instance"
)

const processedScope = "evt:processed:"

// Store is the slice of the Redis client the manager needs.
type Store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// Manager claims events before a consumer handles them.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager keeps markers for ttl. A zero ttl keeps them forever.
func NewManager(store Store, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}, nil
}

// Process runs handle at most once per (consumer, eventID) while the marker
// lives. It reports duplicate=true without calling handle when another
// delivery already claimed the event. A failing handle releases the claim so
// the redelivery can retry.
func (m *Manager) Process(ctx context.Context, consumer string, eventID uuid.UUID, handle func(context.Context) error) (duplicate bool, err error) {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return false, err
	}
	claimed, err := m.store.SetNX(ctx, key, m.claimValue(), m.ttl)
	if err != nil {
		return false, fmt.Errorf("claim event %s: %w", eventID, err)
	}
	if !claimed {
		return true, nil
	}
	if err := handle(ctx); err != nil {
		if relErr := m.store.Del(context.WithoutCancel(ctx), key); relErr != nil {
			return false, errors.Join(err, fmt.Errorf("release event %s: %w", eventID, relErr))
		}
		return false, err
	}
	return false, nil
}

// claimValue records who claimed the event, for debugging stuck markers.
func (m *Manager) claimValue() string {
	return instance.ID() + "@" + m.now().UTC().Format(time.RFC3339)
}

func (m *Manager) key(consumer string, eventID uuid.UUID) (string, error) {
	switch {
	case consumer == "":
		return "", errors.New("consumer name is required")
	case eventID == uuid.Nil:
		return "", errors.New("event id is required")
	}
	return m.store.IdempotencyKey(processedScope+consumer, eventID.String()), nil
}
