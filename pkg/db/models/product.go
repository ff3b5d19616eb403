package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/money"
)

// Product is the sellable item whose stock is decremented on placement and restored on cancellation.
type Product struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Name      string            `gorm:"column:name;not null"`
	SKU       *string           `gorm:"column:sku;uniqueIndex"`
	Unit      enums.ProductUnit `gorm:"column:unit;type:text;not null"`
	SellPrice money.Amount      `gorm:"column:sell_price;type:numeric(12,2);not null"`
	CostPrice money.Amount      `gorm:"column:cost_price;type:numeric(12,2);not null"`
	Stock     money.Quantity    `gorm:"column:stock;type:numeric(12,3);not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
