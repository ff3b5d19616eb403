package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/ErnestKamau/EasyBuy-sub001/internal/sales"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	dbtypes "github.com/ErnestKamau/EasyBuy-sub001/pkg/db/types"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/money"
)

// PlaceOrderLine is one requested product. Duplicate products are merged.
type PlaceOrderLine struct {
	ProductID uuid.UUID
	Quantity  money.Quantity
}

type PlaceOrderInput struct {
	UserID     *uuid.UUID
	Items      []PlaceOrderLine
	SlotID     string
	PickupDate dbtypes.Date
	Notes      *string
}

// ConfirmOrderInput confirms a pending order. AllowDebt approves confirming with a balance.
type ConfirmOrderInput struct {
	OrderID     uuid.UUID
	AllowDebt   bool
	DueInDays   *int
	ActorUserID *uuid.UUID
}

type MarkReadyInput struct {
	OrderID     uuid.UUID
	ActorUserID *uuid.UUID
}

type CancelOrderInput struct {
	OrderID        uuid.UUID
	Reason         string
	Actor          enums.CancelActor
	RefundToWallet bool
	ActorUserID    *uuid.UUID
}

// CompletePickupInput hands the order over. Code is optional; when set it must match.
type CompletePickupInput struct {
	OrderID     uuid.UUID
	Code        string
	ActorUserID *uuid.UUID
}

// CommandResult is returned by the state transitions. AlreadyProcessed marks a repeated
// command that changed nothing.
type CommandResult struct {
	Order            OrderDTO `json:"order"`
	AlreadyProcessed bool     `json:"already_processed"`
}

type OrderItemDTO struct {
	ID          uuid.UUID      `json:"id"`
	ProductID   uuid.UUID      `json:"product_id"`
	ProductName string         `json:"product_name"`
	Quantity    money.Quantity `json:"quantity"`
	UnitPrice   money.Amount   `json:"unit_price"`
	Subtotal    money.Amount   `json:"subtotal"`
}

type OrderDTO struct {
	ID                     uuid.UUID               `json:"id"`
	OrderNumber            string                  `json:"order_number"`
	UserID                 *uuid.UUID              `json:"user_id,omitempty"`
	OrderStatus            enums.OrderStatus       `json:"order_status"`
	FulfillmentStatus      enums.FulfillmentStatus `json:"fulfillment_status"`
	PickupSlotID           string                  `json:"pickup_slot_id"`
	PickupDate             dbtypes.Date            `json:"pickup_date"`
	PickupTime             time.Time               `json:"pickup_time"`
	PickupVerificationCode string                  `json:"pickup_verification_code,omitempty"`
	Notes                  *string                 `json:"notes,omitempty"`
	CancellationReason     *string                 `json:"cancellation_reason,omitempty"`
	ConfirmedAt            *time.Time              `json:"confirmed_at,omitempty"`
	ReadyAt                *time.Time              `json:"ready_at,omitempty"`
	PickedUpAt             *time.Time              `json:"picked_up_at,omitempty"`
	CancelledAt            *time.Time              `json:"cancelled_at,omitempty"`
	Items                  []OrderItemDTO          `json:"items"`
	Sale                   *sales.SaleDTO          `json:"sale,omitempty"`
	CreatedAt              time.Time               `json:"created_at"`
}

// OrderList is one page of a customer's orders.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func FromModel(o models.Order) OrderDTO {
	dto := OrderDTO{
		ID:                     o.ID,
		OrderNumber:            o.OrderNumber,
		UserID:                 o.UserID,
		OrderStatus:            o.OrderStatus,
		FulfillmentStatus:      o.FulfillmentStatus,
		PickupSlotID:           o.PickupSlotID,
		PickupDate:             o.PickupDate,
		PickupTime:             o.PickupTime,
		PickupVerificationCode: o.PickupVerificationCode,
		Notes:                  o.Notes,
		CancellationReason:     o.CancellationReason,
		ConfirmedAt:            o.ConfirmedAt,
		ReadyAt:                o.ReadyAt,
		PickedUpAt:             o.PickedUpAt,
		CancelledAt:            o.CancelledAt,
		Items:                  make([]OrderItemDTO, 0, len(o.Items)),
		CreatedAt:              o.CreatedAt,
	}
	for _, item := range o.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		})
	}
	return dto
}

func withSale(o models.Order, sale *models.Sale) OrderDTO {
	dto := FromModel(o)
	if sale != nil {
		s := sales.SaleFromModel(*sale)
		dto.Sale = &s
	}
	return dto
}
