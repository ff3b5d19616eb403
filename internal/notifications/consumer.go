package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/outbox"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/outbox/payloads"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/outbox/registry"
)

const notificationConsumerName = "notification-worker"

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

type idempotencyChecker interface {
	Process(ctx context.Context, consumer string, eventID uuid.UUID, handle func(context.Context) error) (bool, error)
}

type adminLister interface {
	ListAdmins(ctx context.Context) ([]models.User, error)
}

// ConsumerParams wires the notification delivery consumer.
type ConsumerParams struct {
	Repo         Repository
	Users        adminLister
	Transport    Transport
	Subscription receiver
	Idempotency  idempotencyChecker
	Decoders     *registry.DecoderRegistry
	Logger       *logger.Logger
}

// Consumer turns notification_requested events into stored notifications and hands them to a transport.
type Consumer struct {
	repo         Repository
	users        adminLister
	transport    Transport
	subscription receiver
	idempotency  idempotencyChecker
	decoders     *registry.DecoderRegistry
	logg         *logger.Logger
}

// NewConsumer builds a notification consumer.
func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if params.Idempotency == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	transport := params.Transport
	if transport == nil {
		transport = NewLogTransport(params.Logger)
	}
	decoders := params.Decoders
	if decoders == nil {
		decoders = registry.NewConsumerDecoders()
	}
	return &Consumer{
		repo:         params.Repo,
		users:        params.Users,
		transport:    transport,
		subscription: params.Subscription,
		idempotency:  params.Idempotency,
		decoders:     decoders,
		logg:         params.Logger,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != enums.EventNotificationRequested {
		c.logg.Info(logCtx, "skipping non-notification event")
		return processResult{ack: true}
	}

	envelope, eventID, err := outbox.DecodeEnvelope(msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	payload, err := registry.DecodeAs[payloads.NotificationRequestedEvent](c.decoders, eventType, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"event_id":          eventID.String(),
		"notification_type": payload.Type,
	})
	duplicate, err := c.idempotency.Process(logCtx, notificationConsumerName, eventID, func(ctx context.Context) error {
		return c.Deliver(ctx, eventID, *payload)
	})
	if err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		return processResult{nack: true}
	}
	if duplicate {
		c.logg.Info(logCtx, "event already processed")
	}
	return processResult{ack: true}
}

// Deliver stores one notification per enabled recipient and sends each new row through the transport.
// Repository failures are returned; transport failures are only logged.
func (c *Consumer) Deliver(ctx context.Context, eventID uuid.UUID, payload payloads.NotificationRequestedEvent) error {
	recipients, err := c.recipients(ctx, payload)
	if err != nil {
		return err
	}

	var data json.RawMessage
	if len(payload.Data) > 0 {
		data, err = json.Marshal(payload.Data)
		if err != nil {
			return fmt.Errorf("encode notification data: %w", err)
		}
	}
	priority := payload.Priority
	if !priority.IsValid() {
		priority = enums.PriorityMedium
	}

	delivered := 0
	for _, userID := range recipients {
		enabled, err := c.repo.Enabled(ctx, userID, payload.Type)
		if err != nil {
			return fmt.Errorf("load preferences: %w", err)
		}
		if !enabled {
			continue
		}

		notification := models.Notification{
			UserID:   userID,
			EventID:  eventID,
			Type:     payload.Type,
			Priority: priority,
			Title:    payload.Title,
			Message:  payload.Message,
			Data:     data,
		}
		created, err := c.repo.Create(ctx, &notification)
		if err != nil {
			return fmt.Errorf("store notification: %w", err)
		}
		if !created {
			continue
		}
		delivered++

		if err := c.transport.Send(ctx, Delivery{Notification: notification, Channels: payload.Channels}); err != nil {
			c.logg.Warn(c.logg.WithField(ctx, "notification_id", notification.ID.String()), "notification transport failed: "+err.Error())
		}
	}

	c.logg.Info(c.logg.WithField(ctx, "delivered", delivered), "notification fan-out complete")
	return nil
}

func (c *Consumer) recipients(ctx context.Context, payload payloads.NotificationRequestedEvent) ([]uuid.UUID, error) {
	if !payload.Admins {
		if payload.UserID == nil || *payload.UserID == uuid.Nil {
			return nil, nil
		}
		return []uuid.UUID{*payload.UserID}, nil
	}
	admins, err := c.users.ListAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(admins))
	for _, admin := range admins {
		ids = append(ids, admin.ID)
	}
	return ids, nil
}
