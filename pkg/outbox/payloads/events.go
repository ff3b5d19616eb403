package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/money"
)

type OrderLine struct {
	ProductID   uuid.UUID      `json:"product_id"`
	ProductName string         `json:"product_name"`
	Quantity    money.Quantity `json:"quantity"`
	UnitPrice   money.Amount   `json:"unit_price"`
	Subtotal    money.Amount   `json:"subtotal"`
}

type OrderPlacedEvent struct {
	OrderID      uuid.UUID    `json:"order_id"`
	OrderNumber  string       `json:"order_number"`
	SaleID       uuid.UUID    `json:"sale_id"`
	SaleNumber   string       `json:"sale_number"`
	UserID       *uuid.UUID   `json:"user_id,omitempty"`
	PickupSlotID string       `json:"pickup_slot_id"`
	PickupDate   string       `json:"pickup_date"`
	PickupTime   time.Time    `json:"pickup_time"`
	TotalAmount  money.Amount `json:"total_amount"`
	Items        []OrderLine  `json:"items"`
}

// OrderStatusEvent covers order_confirmed, order_ready and order_picked_up.
type OrderStatusEvent struct {
	OrderID           uuid.UUID               `json:"order_id"`
	OrderNumber       string                  `json:"order_number"`
	UserID            *uuid.UUID              `json:"user_id,omitempty"`
	OrderStatus       enums.OrderStatus       `json:"order_status"`
	FulfillmentStatus enums.FulfillmentStatus `json:"fulfillment_status"`
	ChangedAt         time.Time               `json:"changed_at"`
}

type OrderCancelledEvent struct {
	OrderID          uuid.UUID         `json:"order_id"`
	OrderNumber      string            `json:"order_number"`
	SaleID           uuid.UUID         `json:"sale_id"`
	UserID           *uuid.UUID        `json:"user_id,omitempty"`
	Reason           string            `json:"reason"`
	Actor            enums.CancelActor `json:"actor"`
	RefundedAmount   money.Amount      `json:"refunded_amount"`
	RefundedToWallet bool              `json:"refunded_to_wallet"`
	WalletCredit     money.Amount      `json:"wallet_credit"`
	RefundOwed       money.Amount      `json:"refund_owed"`
	CancelledAt      time.Time         `json:"cancelled_at"`
}

// PaymentEvent covers the payment lifecycle events. Sale fields are the values after the change.
type PaymentEvent struct {
	PaymentID         uuid.UUID               `json:"payment_id"`
	PaymentNumber     string                  `json:"payment_number"`
	SaleID            uuid.UUID               `json:"sale_id"`
	SaleNumber        string                  `json:"sale_number"`
	UserID            *uuid.UUID              `json:"user_id,omitempty"`
	Amount            money.Amount            `json:"amount"`
	RefundAmount      money.Amount            `json:"refund_amount"`
	Method            enums.PaymentMethod     `json:"method"`
	Status            enums.PaymentStatus     `json:"status"`
	SaleBalance       money.Amount            `json:"sale_balance"`
	SalePaymentStatus enums.SalePaymentStatus `json:"sale_payment_status"`
	Reason            string                  `json:"reason,omitempty"`
}

type SaleFullyPaidEvent struct {
	SaleID      uuid.UUID    `json:"sale_id"`
	SaleNumber  string       `json:"sale_number"`
	OrderID     uuid.UUID    `json:"order_id"`
	UserID      *uuid.UUID   `json:"user_id,omitempty"`
	TotalAmount money.Amount `json:"total_amount"`
	TotalPaid   money.Amount `json:"total_paid"`
	PaidAt      time.Time    `json:"paid_at"`
}

// NotificationRequestedEvent asks the notification worker to fan a message out.
// Exactly one of UserID or Admins is set.
type NotificationRequestedEvent struct {
	UserID   *uuid.UUID                  `json:"user_id,omitempty"`
	Admins   bool                        `json:"admins,omitempty"`
	Type     enums.NotificationType      `json:"type"`
	Title    string                      `json:"title"`
	Message  string                      `json:"message"`
	Priority enums.NotificationPriority  `json:"priority"`
	Channels []enums.NotificationChannel `json:"channels"`
	Data     map[string]any              `json:"data,omitempty"`
}
