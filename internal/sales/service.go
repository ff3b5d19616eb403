// Package sales owns the money side of an order: the sale, its payments and the derived
// payment status.
package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ErnestKamau/EasyBuy-sub001/internal/notifications"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/sequence"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/wallet"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	dbtypes "github.com/ErnestKamau/EasyBuy-sub001/pkg/db/types"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	pkgerrors "github.com/ErnestKamau/EasyBuy-sub001/pkg/errors"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/money"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type walletLedger interface {
	Credit(ctx context.Context, tx *gorm.DB, entry wallet.Entry) (*models.WalletTransaction, error)
	Debit(ctx context.Context, tx *gorm.DB, entry wallet.Entry) (*models.WalletTransaction, error)
}

type numberAllocator interface {
	Next(ctx context.Context, tx *gorm.DB, scope sequence.Scope) (string, error)
}

// ServiceParams wires the sales service.
type ServiceParams struct {
	Repo            *Repository
	Tx              txRunner
	Outbox          outboxPublisher
	Notifier        notifications.Notifier
	Wallet          walletLedger
	Numbers         numberAllocator
	Location        *time.Location
	DebtTermDays    int
	DebtWarningDays int
	Currency        string
	Logger          *logger.Logger
}

type Service struct {
	repo         *Repository
	tx           txRunner
	outbox       outboxPublisher
	notifier     notifications.Notifier
	wallet       walletLedger
	numbers      numberAllocator
	loc          *time.Location
	now          func() time.Time
	debtTermDays int
	warningDays  int
	currency     string
	logg         *logger.Logger
}

func NewService(p ServiceParams) (*Service, error) {
	switch {
	case p.Repo == nil:
		return nil, fmt.Errorf("sales repository required")
	case p.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case p.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case p.Notifier == nil:
		return nil, fmt.Errorf("notifier required")
	case p.Wallet == nil:
		return nil, fmt.Errorf("wallet ledger required")
	case p.Numbers == nil:
		return nil, fmt.Errorf("number allocator required")
	}
	if p.DebtTermDays <= 0 {
		return nil, fmt.Errorf("debt term must be positive")
	}
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	currency := strings.TrimSpace(p.Currency)
	if currency == "" {
		currency = "KES"
	}
	return &Service{
		repo:         p.Repo,
		tx:           p.Tx,
		outbox:       p.Outbox,
		notifier:     p.Notifier,
		wallet:       p.Wallet,
		numbers:      p.Numbers,
		loc:          loc,
		now:          time.Now,
		debtTermDays: p.DebtTermDays,
		warningDays:  p.DebtWarningDays,
		currency:     currency,
		logg:         p.Logger,
	}, nil
}

// Today is the business calendar day.
func (s *Service) Today() dbtypes.Date {
	return dbtypes.DateOf(s.now().In(s.loc))
}

// RecordPayment records a payment against the sale's balance. Cash and wallet payments are
// verified in the same transaction.
func (s *Service) RecordPayment(ctx context.Context, input RecordPaymentInput) (*PaymentResult, error) {
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	var result PaymentResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sale, err := repo.LockSale(ctx, input.SaleID)
		if err != nil {
			return notFoundOr(err, "sale not found", "load sale")
		}
		if input.OwnerID != nil && (sale.UserID == nil || *sale.UserID != *input.OwnerID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "sale does not belong to caller")
		}
		if sale.FulfillmentStatus == enums.SaleCancelled {
			return pkgerrors.InvalidTransition("sale", sale.ID, string(sale.FulfillmentStatus), "payment")
		}
		if input.Amount.GreaterThan(sale.Balance) {
			return pkgerrors.PaymentExceedsBalance(sale.SaleNumber, sale.Balance, input.Amount)
		}
		if input.Method == enums.PaymentMethodWallet && sale.UserID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "wallet payments require a customer account")
		}

		number, err := s.numbers.Next(ctx, tx, sequence.ScopePayment)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate payment number")
		}
		payment := &models.Payment{
			ID:            uuid.New(),
			PaymentNumber: number,
			SaleID:        sale.ID,
			Amount:        input.Amount,
			Method:        input.Method,
			Status:        enums.PaymentStatusPending,
			RefundAmount:  money.Zero,
			Reference:     trimmed(input.Reference),
			Notes:         trimmed(input.Notes),
		}
		if err := repo.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}

		if input.Method == enums.PaymentMethodWallet {
			_, err := s.wallet.Debit(ctx, tx, wallet.Entry{
				UserID:      *sale.UserID,
				Amount:      input.Amount,
				Kind:        enums.WalletKindOrderPayment,
				Description: "Payment for " + sale.SaleNumber,
				OrderID:     &sale.OrderID,
				SaleID:      &sale.ID,
				PaymentID:   &payment.ID,
			})
			if err != nil {
				return err
			}
		}

		actor := actorRef(input.ActorUserID, input.ActorRole)
		if err := s.emitPayment(ctx, tx, enums.EventPaymentRecorded, actor, sale, payment, ""); err != nil {
			return err
		}
		if input.Method.SettlesImmediately() {
			if err := s.verifyLocked(ctx, tx, repo, sale, payment, actor); err != nil {
				return err
			}
		}
		result = PaymentResult{Payment: PaymentFromModel(*payment), Sale: SaleFromModel(*sale)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logPayment(ctx, "payment recorded", result)
	return &result, nil
}

// VerifyPayment confirms a pending payment and settles it against the sale.
func (s *Service) VerifyPayment(ctx context.Context, input VerifyPaymentInput) (*PaymentResult, error) {
	var result PaymentResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sale, payment, err := lockPayment(ctx, repo, input.PaymentID)
		if err != nil {
			return err
		}
		switch payment.Status {
		case enums.PaymentStatusVerified:
			result = PaymentResult{Payment: PaymentFromModel(*payment), Sale: SaleFromModel(*sale), AlreadyProcessed: true}
			return nil
		case enums.PaymentStatusFailed, enums.PaymentStatusRefunded:
			return pkgerrors.InvalidTransition("payment", payment.ID, string(payment.Status), string(enums.PaymentStatusVerified))
		}
		if sale.FulfillmentStatus == enums.SaleCancelled {
			return pkgerrors.InvalidTransition("sale", sale.ID, string(sale.FulfillmentStatus), "payment")
		}
		if payment.Amount.GreaterThan(sale.Balance) {
			return pkgerrors.PaymentExceedsBalance(sale.SaleNumber, sale.Balance, payment.Amount)
		}
		if ref := trimmed(input.Reference); ref != nil {
			payment.Reference = ref
		}
		if err := s.verifyLocked(ctx, tx, repo, sale, payment, actorRef(input.ActorUserID, enums.RoleAdmin)); err != nil {
			return err
		}
		result = PaymentResult{Payment: PaymentFromModel(*payment), Sale: SaleFromModel(*sale)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !result.AlreadyProcessed {
		s.logPayment(ctx, "payment verified", result)
	}
	return &result, nil
}

func (s *Service) verifyLocked(ctx context.Context, tx *gorm.DB, repo *Repository, sale *models.Sale, payment *models.Payment, actor *outbox.ActorRef) error {
	now := s.now().UTC()
	payment.Status = enums.PaymentStatusVerified
	payment.VerifiedAt = &now
	if err := repo.SavePayment(ctx, payment); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment")
	}

	wasPaid := sale.PaymentStatus == enums.SaleFullyPaid
	if err := s.recompute(ctx, repo, sale); err != nil {
		return err
	}
	if err := s.emitPayment(ctx, tx, enums.EventPaymentVerified, actor, sale, payment, ""); err != nil {
		return err
	}

	if !wasPaid && sale.PaymentStatus == enums.SaleFullyPaid {
		if err := s.emitFullyPaid(ctx, tx, sale, now); err != nil {
			return err
		}
		return s.notifier.Notify(ctx, tx, notifications.Request{
			Recipient: notifications.ToUser(sale.UserID),
			Category:  enums.NotificationPayment,
			Title:     "Payment Complete",
			Body:      fmt.Sprintf("Sale %s is fully paid. Thank you!", sale.SaleNumber),
			Data:      paymentData(sale, payment),
			Priority:  enums.PriorityMedium,
		})
	}
	return s.notifier.Notify(ctx, tx, notifications.Request{
		Recipient: notifications.ToUser(sale.UserID),
		Category:  enums.NotificationPayment,
		Title:     "Payment Received",
		Body: fmt.Sprintf("We received %s for %s. Remaining balance: %s.",
			s.format(payment.Amount), sale.SaleNumber, s.format(sale.Balance)),
		Data: paymentData(sale, payment),
	})
}

// FailPayment marks a pending payment as failed. Failed is terminal.
func (s *Service) FailPayment(ctx context.Context, input FailPaymentInput) (*PaymentResult, error) {
	var result PaymentResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sale, payment, err := lockPayment(ctx, repo, input.PaymentID)
		if err != nil {
			return err
		}
		switch payment.Status {
		case enums.PaymentStatusFailed:
			result = PaymentResult{Payment: PaymentFromModel(*payment), Sale: SaleFromModel(*sale), AlreadyProcessed: true}
			return nil
		case enums.PaymentStatusVerified, enums.PaymentStatusRefunded:
			return pkgerrors.InvalidTransition("payment", payment.ID, string(payment.Status), string(enums.PaymentStatusFailed))
		}

		now := s.now().UTC()
		reason := strings.TrimSpace(input.Reason)
		payment.Status = enums.PaymentStatusFailed
		payment.FailedAt = &now
		if reason != "" {
			payment.Notes = appendNote(payment.Notes, "Failed: "+reason)
		}
		if err := repo.SavePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment")
		}
		if err := s.emitPayment(ctx, tx, enums.EventPaymentFailed, actorRef(input.ActorUserID, enums.RoleAdmin), sale, payment, reason); err != nil {
			return err
		}
		if err := s.notifier.Notify(ctx, tx, notifications.Request{
			Recipient: notifications.ToUser(sale.UserID),
			Category:  enums.NotificationPayment,
			Title:     "Payment Failed",
			Body:      fmt.Sprintf("Payment %s of %s could not be confirmed.", payment.PaymentNumber, s.format(payment.Amount)),
			Data:      paymentData(sale, payment),
			Priority:  enums.PriorityHigh,
		}); err != nil {
			return err
		}
		result = PaymentResult{Payment: PaymentFromModel(*payment), Sale: SaleFromModel(*sale)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !result.AlreadyProcessed {
		s.logPayment(ctx, "payment failed", result)
	}
	return &result, nil
}

// RefundPayment refunds part or all of a verified payment to the customer's wallet.
func (s *Service) RefundPayment(ctx context.Context, input RefundPaymentInput) (*PaymentResult, error) {
	if !input.Amount.IsPositive() {
		return nil, refundExceeds("", input.Amount, money.Zero)
	}

	var result PaymentResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sale, payment, err := lockPayment(ctx, repo, input.PaymentID)
		if err != nil {
			return err
		}
		if payment.Status != enums.PaymentStatusVerified {
			return pkgerrors.InvalidTransition("payment", payment.ID, string(payment.Status), string(enums.PaymentStatusRefunded))
		}
		if sale.UserID == nil {
			return pkgerrors.InvalidTransition("sale", sale.ID, "guest", "wallet_refund")
		}
		refundable := payment.Refundable()
		if input.Amount.GreaterThan(refundable) {
			return refundExceeds(payment.PaymentNumber, input.Amount, refundable)
		}

		now := s.now().UTC()
		payment.RefundAmount = payment.RefundAmount.Add(input.Amount)
		payment.RefundedAt = &now
		if payment.RefundAmount.Equal(payment.Amount) {
			payment.Status = enums.PaymentStatusRefunded
		}
		if err := repo.SavePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment")
		}
		if err := s.recompute(ctx, repo, sale); err != nil {
			return err
		}

		reason := strings.TrimSpace(input.Reason)
		description := "Refund for " + payment.PaymentNumber
		if reason != "" {
			description += ": " + reason
		}
		if _, err := s.wallet.Credit(ctx, tx, wallet.Entry{
			UserID:      *sale.UserID,
			Amount:      input.Amount,
			Kind:        enums.WalletKindRefund,
			Description: description,
			OrderID:     &sale.OrderID,
			SaleID:      &sale.ID,
			PaymentID:   &payment.ID,
		}); err != nil {
			return err
		}

		if err := s.emitPayment(ctx, tx, enums.EventPaymentRefunded, actorRef(input.ActorUserID, enums.RoleAdmin), sale, payment, reason); err != nil {
			return err
		}
		if err := s.notifier.Notify(ctx, tx, notifications.Request{
			Recipient: notifications.ToUser(sale.UserID),
			Category:  enums.NotificationPayment,
			Title:     "Refund Processed",
			Body:      fmt.Sprintf("%s from payment %s was refunded to your wallet.", s.format(input.Amount), payment.PaymentNumber),
			Data:      paymentData(sale, payment),
		}); err != nil {
			return err
		}
		result = PaymentResult{Payment: PaymentFromModel(*payment), Sale: SaleFromModel(*sale)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logPayment(ctx, "payment refunded", result)
	return &result, nil
}

// SetDueDate records the admin-approved debt term.
func (s *Service) SetDueDate(ctx context.Context, input SetDueDateInput) (*SaleDTO, error) {
	if input.DueDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "due date required")
	}
	var dto SaleDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sale, err := repo.LockSale(ctx, input.SaleID)
		if err != nil {
			return notFoundOr(err, "sale not found", "load sale")
		}
		if sale.FulfillmentStatus == enums.SaleCancelled {
			return pkgerrors.InvalidTransition("sale", sale.ID, string(sale.FulfillmentStatus), "due_date")
		}
		due := input.DueDate
		sale.DueDate = &due
		if err := s.recompute(ctx, repo, sale); err != nil {
			return err
		}
		dto = SaleFromModel(*sale)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// MarkOverdue is the overdue sweep. It is safe to rerun.
func (s *Service) MarkOverdue(ctx context.Context, today dbtypes.Date) (int64, error) {
	changed, err := s.repo.MarkOverdue(ctx, today, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark overdue sales")
	}
	return changed, nil
}

func (s *Service) Get(ctx context.Context, saleID uuid.UUID) (*SaleDTO, error) {
	sale, err := s.repo.FindSale(ctx, saleID)
	if err != nil {
		return nil, notFoundOr(err, "sale not found", "load sale")
	}
	dto := SaleFromModel(*sale)
	return &dto, nil
}

// FindByOrder returns the sale of an order with its payments.
func (s *Service) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Sale, error) {
	sale, err := s.repo.FindSaleByOrder(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "sale not found", "load sale")
	}
	return sale, nil
}

func (s *Service) ListDebtCandidates(ctx context.Context, today dbtypes.Date, limit int) ([]models.Sale, error) {
	rows, err := s.repo.ListDebtCandidates(ctx, today, today.AddDays(s.warningDays), limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list debt candidates")
	}
	return rows, nil
}

func (s *Service) ListOverdue(ctx context.Context, today dbtypes.Date, limit int) ([]models.Sale, error) {
	rows, err := s.repo.ListOverdue(ctx, today, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list overdue sales")
	}
	return rows, nil
}

// recompute reloads the payments and saves the derived totals on the sale.
func (s *Service) recompute(ctx context.Context, repo *Repository, sale *models.Sale) error {
	payments, err := repo.ListPayments(ctx, sale.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payments")
	}
	apply(sale, payments, s.Today())
	if err := repo.SaveSale(ctx, sale); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save sale")
	}
	sale.Payments = payments
	return nil
}

// lockPayment locks the sale before the payment so every writer takes locks in the same order.
func lockPayment(ctx context.Context, repo *Repository, paymentID uuid.UUID) (*models.Sale, *models.Payment, error) {
	found, err := repo.FindPayment(ctx, paymentID)
	if err != nil {
		return nil, nil, notFoundOr(err, "payment not found", "load payment")
	}
	sale, err := repo.LockSale(ctx, found.SaleID)
	if err != nil {
		return nil, nil, notFoundOr(err, "sale not found", "load sale")
	}
	payment, err := repo.LockPayment(ctx, paymentID)
	if err != nil {
		return nil, nil, notFoundOr(err, "payment not found", "load payment")
	}
	return sale, payment, nil
}

func (s *Service) format(amount money.Amount) string {
	return s.currency + " " + amount.String()
}

func (s *Service) logPayment(ctx context.Context, msg string, result PaymentResult) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"sale_id":        result.Sale.ID.String(),
		"payment_id":     result.Payment.ID.String(),
		"payment_status": result.Payment.Status,
		"sale_status":    result.Sale.PaymentStatus,
		"amount":         result.Payment.Amount.String(),
	})
	s.logg.Info(logCtx, msg)
}

func notFoundOr(err error, notFound, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func refundExceeds(paymentNumber string, attempted, refundable money.Amount) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "refund exceeds the refundable amount").WithDetails(map[string]any{
		"reason":         "refund_exceeds_payment",
		"payment_number": paymentNumber,
		"attempted":      attempted.String(),
		"refundable":     refundable.String(),
	})
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}

func appendNote(notes *string, line string) *string {
	if notes == nil || strings.TrimSpace(*notes) == "" {
		return &line
	}
	joined := *notes + "\n" + line
	return &joined
}
