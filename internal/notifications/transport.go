package notifications

import (
	"context"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
)

// Delivery is a stored notification plus the channels it was requested on.
type Delivery struct {
	Notification models.Notification
	Channels     []enums.NotificationChannel
}

// Transport hands a notification to push or email providers.
type Transport interface {
	Send(ctx context.Context, delivery Delivery) error
}

// LogTransport only logs deliveries.
type LogTransport struct {
	logg *logger.Logger
}

func NewLogTransport(logg *logger.Logger) *LogTransport {
	return &LogTransport{logg: logg}
}

func (t *LogTransport) Send(ctx context.Context, delivery Delivery) error {
	if t == nil || t.logg == nil {
		return nil
	}
	n := delivery.Notification
	logCtx := t.logg.WithFields(ctx, map[string]any{
		"notification_id": n.ID.String(),
		"user_id":         n.UserID.String(),
		"type":            n.Type,
		"priority":        n.Priority,
		"channels":        delivery.Channels,
	})
	t.logg.Info(logCtx, "notification delivered")
	return nil
}
