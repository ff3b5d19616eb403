package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/outbox"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/outbox/payloads"
)

// Notifier queues a notification inside the caller's transaction.
type Notifier interface {
	Notify(ctx context.Context, tx *gorm.DB, req Request) error
}

// Recipient is either one user or every admin.
type Recipient struct {
	UserID *uuid.UUID
	Admins bool
}

func ToUser(id *uuid.UUID) Recipient { return Recipient{UserID: id} }

func ToAdmins() Recipient { return Recipient{Admins: true} }

// Request describes one notification. Priority defaults to medium and Channels to in-app.
type Request struct {
	Recipient Recipient
	Category  enums.NotificationType
	Title     string
	Body      string
	Data      map[string]any
	Priority  enums.NotificationPriority
	Channels  []enums.NotificationChannel
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Queue is the Notifier that writes a notification_requested outbox row. Delivery happens in the worker.
type Queue struct {
	outbox outboxPublisher
}

func NewQueue(publisher outboxPublisher) (*Queue, error) {
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Queue{outbox: publisher}, nil
}

func (q *Queue) Notify(ctx context.Context, tx *gorm.DB, req Request) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	userID := req.Recipient.UserID
	if userID != nil && *userID == uuid.Nil {
		userID = nil
	}
	if !req.Recipient.Admins && userID == nil {
		// guest orders have nobody to notify
		return nil
	}
	if !req.Category.IsValid() {
		return fmt.Errorf("invalid notification category %q", req.Category)
	}
	if strings.TrimSpace(req.Title) == "" {
		return errors.New("notification title required")
	}

	priority := req.Priority
	if priority == "" {
		priority = enums.PriorityMedium
	}
	channels := req.Channels
	if len(channels) == 0 {
		channels = []enums.NotificationChannel{enums.ChannelInApp}
	}

	payload := payloads.NotificationRequestedEvent{
		Type:     req.Category,
		Title:    req.Title,
		Message:  req.Body,
		Priority: priority,
		Channels: channels,
		Data:     req.Data,
	}
	if req.Recipient.Admins {
		payload.Admins = true
	} else {
		payload.UserID = userID
	}

	return q.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.AggregateNotification,
		AggregateID:   uuid.New(),
		Data:          payload,
	})
}
