package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ErnestKamau/EasyBuy-sub001/internal/notifications"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	pkgerrors "github.com/ErnestKamau/EasyBuy-sub001/pkg/errors"
)

// ListMissedPickups returns ready orders whose pickup time passed more than the grace window ago.
func (s *service) ListMissedPickups(ctx context.Context, limit int) ([]models.Order, error) {
	rows, err := s.repo.ListMissedPickups(ctx, s.now().Add(-s.grace), limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list missed pickups")
	}
	return rows, nil
}

// AutoCancelMissed cancels one missed pickup as the system. It re-checks the predicate under
// the row lock and reports whether the order was cancelled.
func (s *service) AutoCancelMissed(ctx context.Context, orderID uuid.UUID) (bool, error) {
	input := CancelOrderInput{
		OrderID:        orderID,
		Reason:         MissedPickupReason,
		Actor:          enums.CancelActorSystem,
		RefundToWallet: true,
	}
	cancelled := false
	_, err := s.transition(ctx, orderID, func(tx *gorm.DB, repo Repository, order *models.Order) (bool, error) {
		cutoff := s.now().Add(-s.grace)
		if order.FulfillmentStatus != enums.FulfillmentReady || !order.PickupTime.Before(cutoff) {
			return true, nil
		}
		if err := s.cancelLocked(ctx, tx, repo, order, input); err != nil {
			return false, err
		}
		cancelled = true
		return false, nil
	})
	if err != nil {
		return false, err
	}
	return cancelled, nil
}

// ListReminderDue returns ready orders whose pickup falls within the lookahead window.
func (s *service) ListReminderDue(ctx context.Context, limit int) ([]models.Order, error) {
	now := s.now()
	rows, err := s.repo.ListReminderDue(ctx, now, now.Add(s.lookahead), limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pickup reminders")
	}
	return rows, nil
}

// SendPickupReminder sets the one-shot reminder flag and queues the reminder together.
func (s *service) SendPickupReminder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	sent := false
	_, err := s.transition(ctx, orderID, func(tx *gorm.DB, repo Repository, order *models.Order) (bool, error) {
		now := s.now().UTC()
		if order.FulfillmentStatus != enums.FulfillmentReady || order.ReminderSentAt != nil {
			return true, nil
		}
		if !order.PickupTime.After(now) || order.PickupTime.After(now.Add(s.lookahead)) {
			return true, nil
		}
		marked, err := repo.MarkReminderSent(ctx, order.ID, now)
		if err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark reminder sent")
		}
		if !marked {
			return true, nil
		}
		order.ReminderSentAt = &now
		minutes := int(order.PickupTime.Sub(now).Minutes())
		if err := s.notifier.Notify(ctx, tx, notifications.Request{
			Recipient: notifications.ToUser(order.UserID),
			Category:  enums.NotificationPickupReminder,
			Title:     "Pickup Reminder",
			Body: fmt.Sprintf("Your order %s is ready for pickup in about %d minutes. Your code is %s.",
				order.OrderNumber, minutes, order.PickupVerificationCode),
			Data:     orderData(order),
			Priority: enums.PriorityHigh,
			Channels: []enums.NotificationChannel{enums.ChannelInApp, enums.ChannelPush},
		}); err != nil {
			return false, err
		}
		sent = true
		return false, nil
	})
	if err != nil {
		return false, err
	}
	return sent, nil
}
