package sales

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ErnestKamau/EasyBuy-sub001/internal/notifications"
	dbtypes "github.com/ErnestKamau/EasyBuy-sub001/pkg/db/types"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	pkgerrors "github.com/ErnestKamau/EasyBuy-sub001/pkg/errors"
)

// WarnDebt sends the due-soon or past-due warning for one sale, at most once per day.
// It reports whether anything was sent.
func (s *Service) WarnDebt(ctx context.Context, saleID uuid.UUID, today dbtypes.Date) (bool, error) {
	sent := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sale, err := repo.LockSale(ctx, saleID)
		if err != nil {
			return notFoundOr(err, "sale not found", "load sale")
		}
		if sale.LastDebtWarningOn != nil && sale.LastDebtWarningOn.Equal(today) {
			return nil
		}
		stage, days := classifyDebt(*sale, today, s.warningDays)

		var customer, admin notifications.Request
		switch stage {
		case debtDueSoon:
			customer = notifications.Request{
				Category: enums.NotificationDebtWarning,
				Title:    "Payment Due Soon",
				Body:     fmt.Sprintf("Your balance of %s for %s is due in %d day(s).", s.format(sale.Balance), sale.SaleNumber, days),
			}
			admin = notifications.Request{
				Category: enums.NotificationDebtWarningAdmin,
				Title:    "Customer Payment Due Soon",
				Body:     fmt.Sprintf("Sale %s has %s outstanding, due in %d day(s).", sale.SaleNumber, s.format(sale.Balance), days),
			}
		case debtPastDue:
			customer = notifications.Request{
				Category: enums.NotificationDebtOverdue,
				Title:    "Payment Overdue",
				Body:     fmt.Sprintf("Your balance of %s for %s is %d day(s) overdue.", s.format(sale.Balance), sale.SaleNumber, -days),
			}
			admin = notifications.Request{
				Category: enums.NotificationDebtOverdueAdmin,
				Title:    "Customer Payment Overdue",
				Body:     fmt.Sprintf("Sale %s has %s outstanding, %d day(s) past due.", sale.SaleNumber, s.format(sale.Balance), -days),
			}
		default:
			return nil
		}

		data := saleData(sale)
		data["days"] = days
		customer.Recipient = notifications.ToUser(sale.UserID)
		admin.Recipient = notifications.ToAdmins()
		for _, req := range []notifications.Request{customer, admin} {
			req.Priority = enums.PriorityHigh
			req.Data = data
			if err := s.notifier.Notify(ctx, tx, req); err != nil {
				return err
			}
		}

		marker := today
		sale.LastDebtWarningOn = &marker
		if err := repo.SaveSale(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save sale")
		}
		sent = true
		return nil
	})
	return sent, err
}

// RemindOverdue sends the daily email reminder for an overdue sale.
func (s *Service) RemindOverdue(ctx context.Context, saleID uuid.UUID, today dbtypes.Date) (bool, error) {
	sent := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sale, err := repo.LockSale(ctx, saleID)
		if err != nil {
			return notFoundOr(err, "sale not found", "load sale")
		}
		if sale.PaymentStatus != enums.SaleOverdue ||
			sale.FulfillmentStatus == enums.SaleCancelled ||
			!sale.Balance.IsPositive() {
			return nil
		}
		if sale.LastOverdueReminderOn != nil && sale.LastOverdueReminderOn.Equal(today) {
			return nil
		}

		channels := []enums.NotificationChannel{enums.ChannelInApp, enums.ChannelEmail}
		data := saleData(sale)
		reqs := []notifications.Request{
			{
				Recipient: notifications.ToUser(sale.UserID),
				Title:     "Overdue Payment Reminder",
				Body:      fmt.Sprintf("%s is still outstanding on %s. Please settle it at your next pickup.", s.format(sale.Balance), sale.SaleNumber),
			},
			{
				Recipient: notifications.ToAdmins(),
				Title:     "Overdue Sale Reminder",
				Body:      fmt.Sprintf("Sale %s remains overdue with %s outstanding.", sale.SaleNumber, s.format(sale.Balance)),
			},
		}
		for _, req := range reqs {
			req.Category = enums.NotificationOverdueReminder
			req.Priority = enums.PriorityHigh
			req.Channels = channels
			req.Data = data
			if err := s.notifier.Notify(ctx, tx, req); err != nil {
				return err
			}
		}

		marker := today
		sale.LastOverdueReminderOn = &marker
		if err := repo.SaveSale(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save sale")
		}
		sent = true
		return nil
	})
	return sent, err
}
