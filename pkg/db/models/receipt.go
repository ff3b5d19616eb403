package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/money"
)

// Receipt is issued once per fully paid sale.
type Receipt struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ReceiptNumber string          `gorm:"column:receipt_number;not null;uniqueIndex"`
	SaleID        uuid.UUID       `gorm:"column:sale_id;type:uuid;not null;uniqueIndex:uq_receipts_sale_id"`
	OrderID       uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	UserID        *uuid.UUID      `gorm:"column:user_id;type:uuid"`
	TotalAmount   money.Amount    `gorm:"column:total_amount;type:numeric(12,2);not null"`
	TotalPaid     money.Amount    `gorm:"column:total_paid;type:numeric(12,2);not null"`
	Payload       json.RawMessage `gorm:"column:payload;type:jsonb;not null"`
	IssuedAt      time.Time       `gorm:"column:issued_at;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (r *Receipt) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
