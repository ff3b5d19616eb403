package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/outbox/payloads"
)

// PayloadDecoder turns an envelope's data block into a typed payload.
type PayloadDecoder func(data json.RawMessage) (any, error)

type schema struct {
	event   enums.OutboxEventType
	version int
}

func (s schema) String() string { return fmt.Sprintf("%s@v%d", s.event, s.version) }

// DecoderRegistry maps (event type, envelope version) to a payload decoder.
// It is safe for concurrent use by Pub/Sub receive callbacks.
type DecoderRegistry struct {
	mu       sync.RWMutex
	decoders map[schema]PayloadDecoder
}

func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{decoders: map[schema]PayloadDecoder{}}
}

// NewConsumerDecoders covers every payload the notification and receipt
// subscribers read.
func NewConsumerDecoders() *DecoderRegistry {
	reg := NewDecoderRegistry()
	reg.mustRegister(enums.EventNotificationRequested, 1, JSON[payloads.NotificationRequestedEvent]())
	reg.mustRegister(enums.EventSaleFullyPaid, 1, JSON[payloads.SaleFullyPaidEvent]())
	reg.mustRegister(enums.EventPaymentRefunded, 1, JSON[payloads.PaymentEvent]())
	return reg
}

// JSON decodes data into a fresh *T.
func JSON[T any]() PayloadDecoder {
	return func(data json.RawMessage) (any, error) {
		out := new(T)
		if err := json.Unmarshal(data, out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// Register fails when the schema already has a decoder.
func (r *DecoderRegistry) Register(event enums.OutboxEventType, version int, decode PayloadDecoder) error {
	key := schema{event: event, version: version}
	if decode == nil || version < 1 {
		return fmt.Errorf("invalid decoder for %s", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.decoders[key]; exists {
		return fmt.Errorf("decoder for %s already registered", key)
	}
	r.decoders[key] = decode
	return nil
}

func (r *DecoderRegistry) mustRegister(event enums.OutboxEventType, version int, decode PayloadDecoder) {
	if err := r.Register(event, version, decode); err != nil {
		panic(err)
	}
}

func (r *DecoderRegistry) Decode(event enums.OutboxEventType, version int, data json.RawMessage) (any, error) {
	key := schema{event: event, version: version}
	r.mu.RLock()
	decode, ok := r.decoders[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("decoder not registered for %s", key)
	}
	return decode(data)
}

// DecodeAs decodes and asserts the payload type in one step.
func DecodeAs[T any](r *DecoderRegistry, event enums.OutboxEventType, version int, data json.RawMessage) (*T, error) {
	decoded, err := r.Decode(event, version, data)
	if err != nil {
		return nil, err
	}
	typed, ok := decoded.(*T)
	if !ok {
		return nil, fmt.Errorf("%s decoded to %T", schema{event: event, version: version}, decoded)
	}
	return typed, nil
}
