package sales

import (
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	dbtypes "github.com/ErnestKamau/EasyBuy-sub001/pkg/db/types"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/money"
)

// DerivePaymentStatus is the one definition of a sale's payment status.
// Precedence: fully-paid, overdue, partial-payment, no-payment.
func DerivePaymentStatus(total, paid money.Amount, due *dbtypes.Date, today dbtypes.Date) enums.SalePaymentStatus {
	if paid.Cmp(total) >= 0 {
		return enums.SaleFullyPaid
	}
	if due != nil && !due.IsZero() && today.After(*due) {
		return enums.SaleOverdue
	}
	if paid.IsPositive() {
		return enums.SalePartialPayment
	}
	return enums.SaleNoPayment
}

// TotalPaid sums what each payment still contributes after refunds.
func TotalPaid(payments []models.Payment) money.Amount {
	total := money.Zero
	for _, p := range payments {
		total = total.Add(p.NetPaid())
	}
	return total
}

// apply recomputes total_paid, balance and payment_status from the sale's payments.
func apply(sale *models.Sale, payments []models.Payment, today dbtypes.Date) {
	sale.TotalPaid = TotalPaid(payments)
	sale.Balance = sale.TotalAmount.Sub(sale.TotalPaid)
	sale.PaymentStatus = DerivePaymentStatus(sale.TotalAmount, sale.TotalPaid, sale.DueDate, today)
}

type debtStage int

const (
	debtNone debtStage = iota
	debtDueSoon
	debtPastDue
)

// classifyDebt decides which debt warning, if any, a sale is due for today.
func classifyDebt(sale models.Sale, today dbtypes.Date, warningDays int) (debtStage, int) {
	if sale.FulfillmentStatus == enums.SaleCancelled || !sale.Balance.IsPositive() || sale.DueDate == nil {
		return debtNone, 0
	}
	days := today.DaysUntil(*sale.DueDate)
	switch {
	case days < 0:
		return debtPastDue, days
	case days >= 1 && days <= warningDays:
		return debtDueSoon, days
	default:
		return debtNone, days
	}
}
