package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/outbox"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/outbox/payloads"
)

func actorRef(userID *uuid.UUID, role enums.UserRole) *outbox.ActorRef {
	if userID == nil && role == "" {
		return nil
	}
	return &outbox.ActorRef{UserID: userID, Role: string(role)}
}

func (s *Service) emitPayment(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, actor *outbox.ActorRef, sale *models.Sale, payment *models.Payment, reason string) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregatePayment,
		AggregateID:   payment.ID,
		Actor:         actor,
		Data: payloads.PaymentEvent{
			PaymentID:         payment.ID,
			PaymentNumber:     payment.PaymentNumber,
			SaleID:            sale.ID,
			SaleNumber:        sale.SaleNumber,
			UserID:            sale.UserID,
			Amount:            payment.Amount,
			RefundAmount:      payment.RefundAmount,
			Method:            payment.Method,
			Status:            payment.Status,
			SaleBalance:       sale.Balance,
			SalePaymentStatus: sale.PaymentStatus,
			Reason:            reason,
		},
	})
}

func (s *Service) emitFullyPaid(ctx context.Context, tx *gorm.DB, sale *models.Sale, at time.Time) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventSaleFullyPaid,
		AggregateType: enums.AggregateSale,
		AggregateID:   sale.ID,
		Data: payloads.SaleFullyPaidEvent{
			SaleID:      sale.ID,
			SaleNumber:  sale.SaleNumber,
			OrderID:     sale.OrderID,
			UserID:      sale.UserID,
			TotalAmount: sale.TotalAmount,
			TotalPaid:   sale.TotalPaid,
			PaidAt:      at,
		},
	})
}

func paymentData(sale *models.Sale, payment *models.Payment) map[string]any {
	return map[string]any{
		"sale_id":        sale.ID.String(),
		"sale_number":    sale.SaleNumber,
		"payment_id":     payment.ID.String(),
		"payment_number": payment.PaymentNumber,
		"amount":         payment.Amount.String(),
		"balance":        sale.Balance.String(),
	}
}

func saleData(sale *models.Sale) map[string]any {
	data := map[string]any{
		"sale_id":     sale.ID.String(),
		"sale_number": sale.SaleNumber,
		"order_id":    sale.OrderID.String(),
		"balance":     sale.Balance.String(),
	}
	if sale.DueDate != nil {
		data["due_date"] = sale.DueDate.String()
	}
	return data
}
