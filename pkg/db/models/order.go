package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/ErnestKamau/EasyBuy-sub001/pkg/db/types"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/money"
)

// Order is a customer's pickup order. It is never deleted; cancellation is a state.
type Order struct {
	ID                     uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber            string                  `gorm:"column:order_number;not null;uniqueIndex"`
	UserID                 *uuid.UUID              `gorm:"column:user_id;type:uuid;index"`
	OrderStatus            enums.OrderStatus       `gorm:"column:order_status;type:text;not null"`
	FulfillmentStatus      enums.FulfillmentStatus `gorm:"column:fulfillment_status;type:text;not null;index"`
	PickupSlotID           string                  `gorm:"column:pickup_slot_id;not null"`
	PickupDate             dbtypes.Date            `gorm:"column:pickup_date;type:date;not null"`
	PickupTime             time.Time               `gorm:"column:pickup_time;not null;index"`
	PickupVerificationCode string                  `gorm:"column:pickup_verification_code;not null;index"`
	ReminderSentAt         *time.Time              `gorm:"column:reminder_sent_at"`
	Notes                  *string                 `gorm:"column:notes"`
	CancellationReason     *string                 `gorm:"column:cancellation_reason"`
	ConfirmedAt            *time.Time              `gorm:"column:confirmed_at"`
	ReadyAt                *time.Time              `gorm:"column:ready_at"`
	PickedUpAt             *time.Time              `gorm:"column:picked_up_at"`
	CancelledAt            *time.Time              `gorm:"column:cancelled_at"`
	Items                  []OrderItem             `gorm:"foreignKey:OrderID"`
	CreatedAt              time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem captures the product, quantity and prices at order time.
type OrderItem struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID      `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   uuid.UUID      `gorm:"column:product_id;type:uuid;not null"`
	ProductName string         `gorm:"column:product_name;not null"`
	Quantity    money.Quantity `gorm:"column:quantity;type:numeric(12,3);not null"`
	UnitPrice   money.Amount   `gorm:"column:unit_price;type:numeric(12,2);not null"`
	UnitCost    money.Amount   `gorm:"column:unit_cost;type:numeric(12,2);not null"`
	Subtotal    money.Amount   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
