package enums

import "fmt"

// SalePaymentStatus is the derived settlement state of a sale.
type SalePaymentStatus string

const (
	SaleNoPayment      SalePaymentStatus = "no-payment"
	SalePartialPayment SalePaymentStatus = "partial-payment"
	SaleFullyPaid      SalePaymentStatus = "fully-paid"
	SaleOverdue        SalePaymentStatus = "overdue"
)

var validSalePaymentStatuses = []SalePaymentStatus{
	SaleNoPayment,
	SalePartialPayment,
	SaleFullyPaid,
	SaleOverdue,
}

// String implements fmt.Stringer.
func (v SalePaymentStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known SalePaymentStatus.
func (v SalePaymentStatus) IsValid() bool {
	for _, candidate := range validSalePaymentStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseSalePaymentStatus converts raw input into a SalePaymentStatus.
func ParseSalePaymentStatus(value string) (SalePaymentStatus, error) {
	for _, candidate := range validSalePaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale payment status %q", value)
}

// SaleFulfillmentStatus mirrors whether the goods behind a sale were collected.
type SaleFulfillmentStatus string

const (
	SaleUnfulfilled SaleFulfillmentStatus = "unfulfilled"
	SaleFulfilled   SaleFulfillmentStatus = "fulfilled"
	SaleCancelled   SaleFulfillmentStatus = "cancelled"
)

var validSaleFulfillmentStatuses = []SaleFulfillmentStatus{
	SaleUnfulfilled,
	SaleFulfilled,
	SaleCancelled,
}

// String implements fmt.Stringer.
func (v SaleFulfillmentStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known SaleFulfillmentStatus.
func (v SaleFulfillmentStatus) IsValid() bool {
	for _, candidate := range validSaleFulfillmentStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseSaleFulfillmentStatus converts raw input into a SaleFulfillmentStatus.
func ParseSaleFulfillmentStatus(value string) (SaleFulfillmentStatus, error) {
	for _, candidate := range validSaleFulfillmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale fulfillment status %q", value)
}
