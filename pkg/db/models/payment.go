package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/money"
)

// Payment is one payment attempt against a sale.
type Payment struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	PaymentNumber string              `gorm:"column:payment_number;not null;uniqueIndex"`
	SaleID        uuid.UUID           `gorm:"column:sale_id;type:uuid;not null;index"`
	Amount        money.Amount        `gorm:"column:amount;type:numeric(12,2);not null"`
	Method        enums.PaymentMethod `gorm:"column:method;type:text;not null"`
	Status        enums.PaymentStatus `gorm:"column:status;type:text;not null"`
	RefundAmount  money.Amount        `gorm:"column:refund_amount;type:numeric(12,2);not null"`
	Reference     *string             `gorm:"column:reference"`
	Notes         *string             `gorm:"column:notes"`
	VerifiedAt    *time.Time          `gorm:"column:verified_at"`
	FailedAt      *time.Time          `gorm:"column:failed_at"`
	RefundedAt    *time.Time          `gorm:"column:refunded_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// NetPaid is the part of the payment that still counts toward the sale's total_paid.
func (p Payment) NetPaid() money.Amount {
	if !p.Status.CountsTowardPaid() {
		return money.Zero
	}
	return p.Amount.Sub(p.RefundAmount)
}

// Refundable is the amount that can still be refunded.
func (p Payment) Refundable() money.Amount {
	if p.Status != enums.PaymentStatusVerified {
		return money.Zero
	}
	return p.Amount.Sub(p.RefundAmount)
}
