package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ErnestKamau/EasyBuy-sub001/internal/sales"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/outbox"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/outbox/payloads"
)

func adminActor(userID *uuid.UUID) *outbox.ActorRef {
	return &outbox.ActorRef{UserID: userID, Role: string(enums.RoleAdmin)}
}

func (s *service) emitPlaced(ctx context.Context, tx *gorm.DB, order *models.Order, sale *models.Sale) error {
	lines := make([]payloads.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, payloads.OrderLine{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		})
	}
	var actor *outbox.ActorRef
	if order.UserID != nil {
		actor = &outbox.ActorRef{UserID: order.UserID, Role: string(enums.RoleCustomer)}
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Data: payloads.OrderPlacedEvent{
			OrderID:      order.ID,
			OrderNumber:  order.OrderNumber,
			SaleID:       sale.ID,
			SaleNumber:   sale.SaleNumber,
			UserID:       order.UserID,
			PickupSlotID: order.PickupSlotID,
			PickupDate:   order.PickupDate.String(),
			PickupTime:   order.PickupTime,
			TotalAmount:  sale.TotalAmount,
			Items:        lines,
		},
	})
}

func (s *service) emitStatus(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, actorID *uuid.UUID, order *models.Order, at time.Time) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         adminActor(actorID),
		OccurredAt:    at,
		Data: payloads.OrderStatusEvent{
			OrderID:           order.ID,
			OrderNumber:       order.OrderNumber,
			UserID:            order.UserID,
			OrderStatus:       order.OrderStatus,
			FulfillmentStatus: order.FulfillmentStatus,
			ChangedAt:         at,
		},
	})
}

func (s *service) emitCancelled(ctx context.Context, tx *gorm.DB, input CancelOrderInput, order *models.Order, outcome *sales.CancelOutcome, at time.Time) error {
	actor := &outbox.ActorRef{UserID: input.ActorUserID, Role: string(input.Actor)}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCancelled,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		OccurredAt:    at,
		Data: payloads.OrderCancelledEvent{
			OrderID:          order.ID,
			OrderNumber:      order.OrderNumber,
			SaleID:           outcome.Sale.ID,
			UserID:           order.UserID,
			Reason:           input.Reason,
			Actor:            input.Actor,
			RefundedAmount:   outcome.RefundedAmount,
			RefundedToWallet: outcome.RefundedToWallet,
			WalletCredit:     outcome.WalletCredit,
			RefundOwed:       outcome.RefundOwed,
			CancelledAt:      at,
		},
	})
}

func orderData(order *models.Order) map[string]any {
	return map[string]any{
		"order_id":       order.ID.String(),
		"order_number":   order.OrderNumber,
		"pickup_slot_id": order.PickupSlotID,
		"pickup_date":    order.PickupDate.String(),
		"pickup_time":    order.PickupTime.UTC().Format(time.RFC3339),
	}
}
