package wallet

import (
	"time"

	"github.com/google/uuid"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/money"
)

// Entry describes one wallet movement. Amount is always positive; the direction comes from the call.
type Entry struct {
	UserID      uuid.UUID
	Amount      money.Amount
	Kind        enums.WalletTransactionKind
	Description string
	OrderID     *uuid.UUID
	SaleID      *uuid.UUID
	PaymentID   *uuid.UUID
}

// AdjustInput is an admin correction to a customer's wallet.
type AdjustInput struct {
	UserID      uuid.UUID
	Direction   enums.WalletDirection
	Amount      money.Amount
	Reason      string
	ActorUserID uuid.UUID
}

// TransactionDTO is the transport shape of a wallet entry.
type TransactionDTO struct {
	ID           uuid.UUID                   `json:"id"`
	Sequence     int64                       `json:"sequence"`
	Direction    enums.WalletDirection       `json:"direction"`
	Kind         enums.WalletTransactionKind `json:"kind"`
	Amount       money.Amount                `json:"amount"`
	BalanceAfter money.Amount                `json:"balance_after"`
	Description  string                      `json:"description"`
	OrderID      *uuid.UUID                  `json:"order_id,omitempty"`
	SaleID       *uuid.UUID                  `json:"sale_id,omitempty"`
	PaymentID    *uuid.UUID                  `json:"payment_id,omitempty"`
	CreatedAt    time.Time                   `json:"created_at"`
}

type BalanceDTO struct {
	UserID  uuid.UUID    `json:"user_id"`
	Balance money.Amount `json:"balance"`
}

func FromModel(m models.WalletTransaction) TransactionDTO {
	return TransactionDTO{
		ID:           m.ID,
		Sequence:     m.Sequence,
		Direction:    m.Direction,
		Kind:         m.Kind,
		Amount:       m.Amount,
		BalanceAfter: m.BalanceAfter,
		Description:  m.Description,
		OrderID:      m.OrderID,
		SaleID:       m.SaleID,
		PaymentID:    m.PaymentID,
		CreatedAt:    m.CreatedAt,
	}
}
