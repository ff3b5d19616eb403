package sales

import (
	"time"

	"github.com/google/uuid"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	dbtypes "github.com/ErnestKamau/EasyBuy-sub001/pkg/db/types"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/money"
)

// RecordPaymentInput records a payment against a sale. OwnerID, when set, restricts the
// call to the sale's customer.
type RecordPaymentInput struct {
	SaleID      uuid.UUID
	Amount      money.Amount
	Method      enums.PaymentMethod
	Reference   *string
	Notes       *string
	OwnerID     *uuid.UUID
	ActorUserID *uuid.UUID
	ActorRole   enums.UserRole
}

type VerifyPaymentInput struct {
	PaymentID   uuid.UUID
	Reference   *string
	ActorUserID *uuid.UUID
}

type FailPaymentInput struct {
	PaymentID   uuid.UUID
	Reason      string
	ActorUserID *uuid.UUID
}

type RefundPaymentInput struct {
	PaymentID   uuid.UUID
	Amount      money.Amount
	Reason      string
	ActorUserID *uuid.UUID
}

type SetDueDateInput struct {
	SaleID  uuid.UUID
	DueDate dbtypes.Date
}

// PaymentResult is returned by the payment commands. AlreadyProcessed marks a repeated
// command that changed nothing.
type PaymentResult struct {
	Payment          PaymentDTO `json:"payment"`
	Sale             SaleDTO    `json:"sale"`
	AlreadyProcessed bool       `json:"already_processed"`
}

// CreateForOrderInput carries the priced lines of a freshly placed order.
type CreateForOrderInput struct {
	OrderID     uuid.UUID
	OrderNumber string
	UserID      *uuid.UUID
	Items       []models.OrderItem
}

// CancelForOrderInput reverses the money side of an order cancellation.
type CancelForOrderInput struct {
	OrderID        uuid.UUID
	OrderNumber    string
	Reason         string
	RefundToWallet bool
}

// CancelOutcome reports what the cancellation refunded. RefundedAmount is
// WalletCredit plus RefundOwed.
type CancelOutcome struct {
	Sale             *models.Sale
	RefundedAmount   money.Amount
	WalletCredit     money.Amount
	RefundOwed       money.Amount
	RefundedToWallet bool
}

// PaymentPolicy is the admin's decision when confirming an order that is not fully paid.
type PaymentPolicy struct {
	AllowDebt bool
	DueInDays *int
}

type PaymentDTO struct {
	ID            uuid.UUID           `json:"id"`
	PaymentNumber string              `json:"payment_number"`
	SaleID        uuid.UUID           `json:"sale_id"`
	Amount        money.Amount        `json:"amount"`
	RefundAmount  money.Amount        `json:"refund_amount"`
	Method        enums.PaymentMethod `json:"method"`
	Status        enums.PaymentStatus `json:"status"`
	Reference     *string             `json:"reference,omitempty"`
	Notes         *string             `json:"notes,omitempty"`
	VerifiedAt    *time.Time          `json:"verified_at,omitempty"`
	FailedAt      *time.Time          `json:"failed_at,omitempty"`
	RefundedAt    *time.Time          `json:"refunded_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

type SaleDTO struct {
	ID                uuid.UUID                   `json:"id"`
	SaleNumber        string                      `json:"sale_number"`
	OrderID           uuid.UUID                   `json:"order_id"`
	UserID            *uuid.UUID                  `json:"user_id,omitempty"`
	TotalAmount       money.Amount                `json:"total_amount"`
	TotalPaid         money.Amount                `json:"total_paid"`
	Balance           money.Amount                `json:"balance"`
	CostAmount        money.Amount                `json:"cost_amount"`
	ProfitAmount      money.Amount                `json:"profit_amount"`
	PaymentStatus     enums.SalePaymentStatus     `json:"payment_status"`
	FulfillmentStatus enums.SaleFulfillmentStatus `json:"fulfillment_status"`
	DueDate           *dbtypes.Date               `json:"due_date,omitempty"`
	RefundOwed        money.Amount                `json:"refund_owed"`
	FulfilledAt       *time.Time                  `json:"fulfilled_at,omitempty"`
	Payments          []PaymentDTO                `json:"payments,omitempty"`
	CreatedAt         time.Time                   `json:"created_at"`
}

func PaymentFromModel(p models.Payment) PaymentDTO {
	return PaymentDTO{
		ID:            p.ID,
		PaymentNumber: p.PaymentNumber,
		SaleID:        p.SaleID,
		Amount:        p.Amount,
		RefundAmount:  p.RefundAmount,
		Method:        p.Method,
		Status:        p.Status,
		Reference:     p.Reference,
		Notes:         p.Notes,
		VerifiedAt:    p.VerifiedAt,
		FailedAt:      p.FailedAt,
		RefundedAt:    p.RefundedAt,
		CreatedAt:     p.CreatedAt,
	}
}

func SaleFromModel(s models.Sale) SaleDTO {
	dto := SaleDTO{
		ID:                s.ID,
		SaleNumber:        s.SaleNumber,
		OrderID:           s.OrderID,
		UserID:            s.UserID,
		TotalAmount:       s.TotalAmount,
		TotalPaid:         s.TotalPaid,
		Balance:           s.Balance,
		CostAmount:        s.CostAmount,
		ProfitAmount:      s.ProfitAmount,
		PaymentStatus:     s.PaymentStatus,
		FulfillmentStatus: s.FulfillmentStatus,
		DueDate:           s.DueDate,
		RefundOwed:        s.RefundOwed,
		FulfilledAt:       s.FulfilledAt,
		CreatedAt:         s.CreatedAt,
	}
	for _, p := range s.Payments {
		dto.Payments = append(dto.Payments, PaymentFromModel(p))
	}
	return dto
}
