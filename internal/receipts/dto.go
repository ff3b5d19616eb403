package receipts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/money"
)

// Document is the snapshot stored in receipts.payload.
type Document struct {
	ReceiptNumber string         `json:"receipt_number"`
	SaleNumber    string         `json:"sale_number"`
	OrderNumber   string         `json:"order_number"`
	Currency      string         `json:"currency"`
	IssuedAt      time.Time      `json:"issued_at"`
	PickupDate    string         `json:"pickup_date"`
	Lines         []DocumentLine `json:"lines"`
	Payments      []DocumentPaid `json:"payments"`
	TotalAmount   money.Amount   `json:"total_amount"`
	TotalPaid     money.Amount   `json:"total_paid"`
}

type DocumentLine struct {
	ProductName string         `json:"product_name"`
	Quantity    money.Quantity `json:"quantity"`
	UnitPrice   money.Amount   `json:"unit_price"`
	Subtotal    money.Amount   `json:"subtotal"`
}

// DocumentPaid lists a payment that still counts toward the total paid.
type DocumentPaid struct {
	PaymentNumber string              `json:"payment_number"`
	Method        enums.PaymentMethod `json:"method"`
	Amount        money.Amount        `json:"amount"`
	Reference     *string             `json:"reference,omitempty"`
}

type ReceiptDTO struct {
	ID            uuid.UUID    `json:"id"`
	ReceiptNumber string       `json:"receipt_number"`
	SaleID        uuid.UUID    `json:"sale_id"`
	OrderID       uuid.UUID    `json:"order_id"`
	UserID        *uuid.UUID   `json:"user_id,omitempty"`
	TotalAmount   money.Amount `json:"total_amount"`
	TotalPaid     money.Amount `json:"total_paid"`
	IssuedAt      time.Time    `json:"issued_at"`
	Document      Document     `json:"document"`
}

func FromModel(r models.Receipt) (ReceiptDTO, error) {
	dto := ReceiptDTO{
		ID:            r.ID,
		ReceiptNumber: r.ReceiptNumber,
		SaleID:        r.SaleID,
		OrderID:       r.OrderID,
		UserID:        r.UserID,
		TotalAmount:   r.TotalAmount,
		TotalPaid:     r.TotalPaid,
		IssuedAt:      r.IssuedAt,
	}
	if len(r.Payload) > 0 {
		if err := json.Unmarshal(r.Payload, &dto.Document); err != nil {
			return ReceiptDTO{}, fmt.Errorf("decode receipt %s: %w", r.ReceiptNumber, err)
		}
	}
	return dto, nil
}

func buildDocument(number, currency string, issuedAt time.Time, sale *models.Sale, order *models.Order) Document {
	doc := Document{
		ReceiptNumber: number,
		SaleNumber:    sale.SaleNumber,
		OrderNumber:   order.OrderNumber,
		Currency:      currency,
		IssuedAt:      issuedAt,
		PickupDate:    order.PickupDate.String(),
		Lines:         make([]DocumentLine, 0, len(order.Items)),
		Payments:      make([]DocumentPaid, 0, len(sale.Payments)),
		TotalAmount:   sale.TotalAmount,
		TotalPaid:     sale.TotalPaid,
	}
	for _, item := range order.Items {
		doc.Lines = append(doc.Lines, DocumentLine{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		})
	}
	for _, p := range sale.Payments {
		net := p.NetPaid()
		if !net.IsPositive() {
			continue
		}
		doc.Payments = append(doc.Payments, DocumentPaid{
			PaymentNumber: p.PaymentNumber,
			Method:        p.Method,
			Amount:        net,
			Reference:     p.Reference,
		})
	}
	return doc
}
