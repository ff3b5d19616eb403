package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/ErnestKamau/EasyBuy-sub001/pkg/db/types"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/money"
)

// Sale is the financial record of an order: what is owed, what was paid, and when it is due.
type Sale struct {
	ID                    uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey"`
	SaleNumber            string                      `gorm:"column:sale_number;not null;uniqueIndex"`
	OrderID               uuid.UUID                   `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	UserID                *uuid.UUID                  `gorm:"column:user_id;type:uuid;index"`
	TotalAmount           money.Amount                `gorm:"column:total_amount;type:numeric(12,2);not null"`
	TotalPaid             money.Amount                `gorm:"column:total_paid;type:numeric(12,2);not null"`
	Balance               money.Amount                `gorm:"column:balance;type:numeric(12,2);not null"`
	CostAmount            money.Amount                `gorm:"column:cost_amount;type:numeric(12,2);not null"`
	ProfitAmount          money.Amount                `gorm:"column:profit_amount;type:numeric(12,2);not null"`
	PaymentStatus         enums.SalePaymentStatus     `gorm:"column:payment_status;type:text;not null;index"`
	FulfillmentStatus     enums.SaleFulfillmentStatus `gorm:"column:fulfillment_status;type:text;not null"`
	DueDate               *dbtypes.Date               `gorm:"column:due_date;type:date;index"`
	LastDebtWarningOn     *dbtypes.Date               `gorm:"column:last_debt_warning_on;type:date"`
	LastOverdueReminderOn *dbtypes.Date               `gorm:"column:last_overdue_reminder_on;type:date"`
	// RefundOwed is refunded money that was not credited to the wallet and is still to be paid out.
	RefundOwed            money.Amount                `gorm:"column:refund_owed;type:numeric(12,2);not null"`
	FulfilledAt           *time.Time                  `gorm:"column:fulfilled_at"`
	Payments              []Payment                   `gorm:"foreignKey:SaleID"`
	CreatedAt             time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Sale) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
