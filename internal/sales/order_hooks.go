package sales

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ErnestKamau/EasyBuy-sub001/internal/sequence"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/wallet"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	pkgerrors "github.com/ErnestKamau/EasyBuy-sub001/pkg/errors"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/money"
)

// CreateForOrder opens the sale of a freshly placed order inside the caller's transaction.
func (s *Service) CreateForOrder(ctx context.Context, tx *gorm.DB, input CreateForOrderInput) (*models.Sale, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale requires at least one item")
	}

	total, cost := money.Zero, money.Zero
	for _, item := range input.Items {
		total = total.Add(item.Subtotal)
		cost = cost.Add(item.UnitCost.Mul(item.Quantity))
	}

	number, err := s.numbers.Next(ctx, tx, sequence.ScopeSale)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate sale number")
	}
	today := s.Today()
	due := today.AddDays(s.debtTermDays)
	sale := &models.Sale{
		ID:                uuid.New(),
		SaleNumber:        number,
		OrderID:           input.OrderID,
		UserID:            input.UserID,
		TotalAmount:       total,
		CostAmount:        cost,
		ProfitAmount:      total.Sub(cost),
		FulfillmentStatus: enums.SaleUnfulfilled,
		DueDate:           &due,
	}
	apply(sale, nil, today)

	if err := s.repo.WithTx(tx).CreateSale(ctx, sale); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sale")
	}
	if sale.PaymentStatus == enums.SaleFullyPaid {
		if err := s.emitFullyPaid(ctx, tx, sale, s.now().UTC()); err != nil {
			return nil, err
		}
	}
	return sale, nil
}

// CancelForOrder reverses every payment of the order's sale and closes it. Verified
// payments are refunded in full, pending ones are failed. Wallet-funded payments always
// go back to the wallet; other methods do too when RefundToWallet is set. Whatever is
// not credited is recorded as refund_owed on the sale for the admin to settle.
func (s *Service) CancelForOrder(ctx context.Context, tx *gorm.DB, input CancelForOrderInput) (*CancelOutcome, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	repo := s.repo.WithTx(tx)
	sale, err := repo.LockSaleByOrder(ctx, input.OrderID)
	if err != nil {
		return nil, notFoundOr(err, "sale not found", "load sale")
	}
	if sale.FulfillmentStatus == enums.SaleCancelled {
		return &CancelOutcome{Sale: sale, RefundedAmount: money.Zero, WalletCredit: money.Zero, RefundOwed: sale.RefundOwed}, nil
	}
	payments, err := repo.LockPayments(ctx, sale.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock payments")
	}

	now := s.now().UTC()
	refunded, walletFunded := money.Zero, money.Zero
	for i := range payments {
		payment := &payments[i]
		var event enums.OutboxEventType
		switch payment.Status {
		case enums.PaymentStatusVerified:
			refunded = refunded.Add(payment.Refundable())
			if payment.Method == enums.PaymentMethodWallet {
				walletFunded = walletFunded.Add(payment.Refundable())
			}
			payment.RefundAmount = payment.Amount
			payment.Status = enums.PaymentStatusRefunded
			payment.RefundedAt = &now
			event = enums.EventPaymentRefunded
		case enums.PaymentStatusPending:
			payment.Status = enums.PaymentStatusFailed
			payment.FailedAt = &now
			event = enums.EventPaymentFailed
		default:
			continue
		}
		if err := repo.SavePayment(ctx, payment); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment")
		}
		if err := s.emitPayment(ctx, tx, event, nil, sale, payment, input.Reason); err != nil {
			return nil, err
		}
	}

	credit := walletFunded
	if input.RefundToWallet {
		credit = refunded
	}
	if sale.UserID == nil {
		credit = money.Zero
	}

	sale.FulfillmentStatus = enums.SaleCancelled
	sale.DueDate = nil
	sale.RefundOwed = refunded.Sub(credit)
	apply(sale, payments, s.Today())
	if err := repo.SaveSale(ctx, sale); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save sale")
	}
	sale.Payments = payments

	outcome := &CancelOutcome{Sale: sale, RefundedAmount: refunded, WalletCredit: credit, RefundOwed: sale.RefundOwed}
	if credit.IsPositive() {
		if _, err := s.wallet.Credit(ctx, tx, wallet.Entry{
			UserID:      *sale.UserID,
			Amount:      credit,
			Kind:        enums.WalletKindRefund,
			Description: "Refund for cancelled order " + input.OrderNumber,
			OrderID:     &sale.OrderID,
			SaleID:      &sale.ID,
		}); err != nil {
			return nil, err
		}
		outcome.RefundedToWallet = true
	}
	return outcome, nil
}

// FulfillForOrder marks the sale fulfilled once the goods are collected.
func (s *Service) FulfillForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, at time.Time) (*models.Sale, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	repo := s.repo.WithTx(tx)
	sale, err := repo.LockSaleByOrder(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "sale not found", "load sale")
	}
	if sale.FulfillmentStatus == enums.SaleCancelled {
		return nil, pkgerrors.InvalidTransition("sale", sale.ID, string(sale.FulfillmentStatus), string(enums.SaleFulfilled))
	}
	at = at.UTC()
	sale.FulfillmentStatus = enums.SaleFulfilled
	sale.FulfilledAt = &at
	if err := repo.SaveSale(ctx, sale); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save sale")
	}
	return sale, nil
}

// EnsurePaymentPolicy lets an order be confirmed when its sale is fully paid or the admin
// approves debt. An approved DueInDays moves the due date.
func (s *Service) EnsurePaymentPolicy(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, policy PaymentPolicy) (*models.Sale, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	repo := s.repo.WithTx(tx)
	sale, err := repo.LockSaleByOrder(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "sale not found", "load sale")
	}
	if sale.PaymentStatus == enums.SaleFullyPaid {
		return sale, nil
	}
	if !policy.AllowDebt {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not fully paid and debt was not approved").WithDetails(map[string]any{
			"reason":      "payment_policy_unsatisfied",
			"sale_number": sale.SaleNumber,
			"balance":     sale.Balance.String(),
		})
	}
	if policy.DueInDays != nil {
		if *policy.DueInDays < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "due_in_days must not be negative")
		}
		due := s.Today().AddDays(*policy.DueInDays)
		sale.DueDate = &due
		if err := s.recompute(ctx, repo, sale); err != nil {
			return nil, err
		}
	}
	return sale, nil
}
