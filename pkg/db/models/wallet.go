package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/money"
)

// WalletAccount is the per-user row locked while appending wallet entries.
type WalletAccount struct {
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	LastSequence int64     `gorm:"column:last_sequence;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// WalletTransaction is an immutable wallet ledger entry.
type WalletTransaction struct {
	ID           uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey"`
	UserID       uuid.UUID                   `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_wallet_tx_user_seq,priority:1"`
	Sequence     int64                       `gorm:"column:sequence;not null;uniqueIndex:uq_wallet_tx_user_seq,priority:2"`
	Direction    enums.WalletDirection       `gorm:"column:direction;type:text;not null"`
	Kind         enums.WalletTransactionKind `gorm:"column:kind;type:text;not null"`
	Amount       money.Amount                `gorm:"column:amount;type:numeric(12,2);not null"`
	BalanceAfter money.Amount                `gorm:"column:balance_after;type:numeric(12,2);not null"`
	Description  string                      `gorm:"column:description;not null"`
	OrderID      *uuid.UUID                  `gorm:"column:order_id;type:uuid"`
	SaleID       *uuid.UUID                  `gorm:"column:sale_id;type:uuid"`
	PaymentID    *uuid.UUID                  `gorm:"column:payment_id;type:uuid"`
	CreatedAt    time.Time                   `gorm:"column:created_at;autoCreateTime"`
}

func (w *WalletTransaction) BeforeCreate(*gorm.DB) error {
	ensureID(&w.ID)
	return nil
}

// SignedAmount is +amount for credits and -amount for debits.
func (w WalletTransaction) SignedAmount() money.Amount {
	if w.Direction == enums.WalletDebit {
		return w.Amount.Neg()
	}
	return w.Amount
}
