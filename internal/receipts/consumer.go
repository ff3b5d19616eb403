package receipts

import (
	"context"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	pkgerrors "github.com/ErnestKamau/EasyBuy-sub001/pkg/errors"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/outbox"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/outbox/payloads"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/outbox/registry"
)

const receiptConsumerName = "receipt-worker"

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

type idempotencyChecker interface {
	Process(ctx context.Context, consumer string, eventID uuid.UUID, handle func(context.Context) error) (bool, error)
}

type generator interface {
	Generate(ctx context.Context, saleID uuid.UUID) (*ReceiptDTO, bool, error)
}

type ConsumerParams struct {
	Receipts     generator
	Subscription receiver
	Idempotency  idempotencyChecker
	Decoders     *registry.DecoderRegistry
	Logger       *logger.Logger
}

// Consumer issues receipts for sale_fully_paid events on the sales subscription.
type Consumer struct {
	receipts     generator
	subscription receiver
	idempotency  idempotencyChecker
	decoders     *registry.DecoderRegistry
	logg         *logger.Logger
}

func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Receipts == nil {
		return nil, fmt.Errorf("receipts service required")
	}
	if params.Subscription == nil {
		return nil, fmt.Errorf("sales subscription required")
	}
	if params.Idempotency == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	decoders := params.Decoders
	if decoders == nil {
		decoders = registry.NewConsumerDecoders()
	}
	return &Consumer{
		receipts:     params.Receipts,
		subscription: params.Subscription,
		idempotency:  params.Idempotency,
		decoders:     decoders,
		logg:         params.Logger,
	}, nil
}

func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// process reports whether the message should be acked.
func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) bool {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})
	if eventType != enums.EventSaleFullyPaid {
		return true
	}

	envelope, eventID, err := outbox.DecodeEnvelope(msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return true
	}
	payload, err := registry.DecodeAs[payloads.SaleFullyPaidEvent](c.decoders, eventType, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return true
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"event_id": eventID.String(),
		"sale_id":  payload.SaleID.String(),
	})
	duplicate, err := c.idempotency.Process(logCtx, receiptConsumerName, eventID, func(ctx context.Context) error {
		_, _, err := c.receipts.Generate(ctx, payload.SaleID)
		// A sale refunded after the event was queued no longer qualifies.
		if pkgerrors.Is(err, pkgerrors.CodeStateConflict) || pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			c.logg.Warn(ctx, "receipt skipped: "+err.Error())
			return nil
		}
		return err
	})
	if err != nil {
		c.logg.Error(logCtx, "receipt generation failed", err)
		return false
	}
	if duplicate {
		c.logg.Info(logCtx, "event already processed")
	}
	return true
}
