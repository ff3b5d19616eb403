package sales

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ErnestKamau/EasyBuy-sub001/internal/notifications"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/sequence"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/wallet"
	pkgdb "github.com/ErnestKamau/EasyBuy-sub001/pkg/db"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/dbtest"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	pkgerrors "github.com/ErnestKamau/EasyBuy-sub001/pkg/errors"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/money"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/outbox"
)

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	wallet *wallet.Service
	client *pkgdb.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := pkgdb.FromConn(dbtest.Open(t))
	conn := client.DB()

	ob := outbox.NewService(outbox.NewRepository(conn), nil)
	queue, err := notifications.NewQueue(ob)
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	ws, err := wallet.NewService(wallet.NewRepository(conn), client, nil)
	if err != nil {
		t.Fatalf("new wallet: %v", err)
	}
	svc, err := NewService(ServiceParams{
		Repo:            NewRepository(conn),
		Tx:              client,
		Outbox:          ob,
		Notifier:        queue,
		Wallet:          ws,
		Numbers:         sequence.NewAllocator(time.UTC),
		Location:        time.UTC,
		DebtTermDays:    7,
		DebtWarningDays: 2,
		Currency:        "KES",
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.now = func() time.Time { return fixedNow }
	return &fixture{svc: svc, wallet: ws, client: client}
}

func (f *fixture) openSale(t *testing.T, userID *uuid.UUID, total string) *models.Sale {
	t.Helper()
	amount := money.MustAmount(total)
	var sale *models.Sale
	err := f.client.WithTx(context.Background(), func(tx *gorm.DB) error {
		var err error
		sale, err = f.svc.CreateForOrder(context.Background(), tx, CreateForOrderInput{
			OrderID:     uuid.New(),
			OrderNumber: "ORD-2026-001",
			UserID:      userID,
			Items: []models.OrderItem{{
				ProductID:   uuid.New(),
				ProductName: "Sugar",
				Quantity:    money.QuantityFromInt(1),
				UnitPrice:   amount,
				UnitCost:    money.MustAmount("0.75"),
				Subtotal:    amount,
			}},
		})
		return err
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	return sale
}

func (f *fixture) countEvents(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var n int64
	if err := f.client.DB().Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&n).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	return n
}

func assertBalanceIdentity(t *testing.T, f *fixture, saleID uuid.UUID) *SaleDTO {
	t.Helper()
	sale, err := f.svc.Get(context.Background(), saleID)
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if !sale.Balance.Equal(sale.TotalAmount.Sub(sale.TotalPaid)) {
		t.Fatalf("balance %s != total %s - paid %s", sale.Balance, sale.TotalAmount, sale.TotalPaid)
	}
	if sale.Balance.IsNegative() {
		t.Fatalf("negative balance %s", sale.Balance)
	}
	net := money.Zero
	for _, p := range sale.Payments {
		if p.Status.CountsTowardPaid() {
			net = net.Add(p.Amount.Sub(p.RefundAmount))
		}
	}
	if !net.Equal(sale.TotalPaid) {
		t.Fatalf("total paid %s does not match payments %s", sale.TotalPaid, net)
	}
	if (sale.PaymentStatus == enums.SaleFullyPaid) != sale.Balance.IsZero() {
		t.Fatalf("status %s inconsistent with balance %s", sale.PaymentStatus, sale.Balance)
	}
	return sale
}

func ptr[T any](v T) *T { return &v }

func TestCreateForOrderDerivesTotals(t *testing.T) {
	f := newFixture(t)
	sale := f.openSale(t, ptr(uuid.New()), "1100")

	if sale.PaymentStatus != enums.SaleNoPayment {
		t.Fatalf("expected no-payment, got %s", sale.PaymentStatus)
	}
	if !sale.Balance.Equal(money.MustAmount("1100")) || !sale.ProfitAmount.Equal(money.MustAmount("1099.25")) {
		t.Fatalf("unexpected balance %s profit %s", sale.Balance, sale.ProfitAmount)
	}
	if sale.DueDate == nil || sale.DueDate.String() != "2026-03-09" {
		t.Fatalf("expected due date seven days out, got %v", sale.DueDate)
	}
	if f.countEvents(t, enums.EventSaleFullyPaid) != 0 {
		t.Fatal("unpaid sale must not emit sale_fully_paid")
	}
}

func TestZeroTotalSaleIsFullyPaid(t *testing.T) {
	f := newFixture(t)
	sale := f.openSale(t, nil, "0")
	if sale.PaymentStatus != enums.SaleFullyPaid {
		t.Fatalf("expected fully-paid, got %s", sale.PaymentStatus)
	}
	if f.countEvents(t, enums.EventSaleFullyPaid) != 1 {
		t.Fatal("expected sale_fully_paid for a zero total")
	}
}

func TestPartialThenFullPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := f.openSale(t, ptr(uuid.New()), "1100")

	cash, err := f.svc.RecordPayment(ctx, RecordPaymentInput{SaleID: sale.ID, Amount: money.MustAmount("400"), Method: enums.PaymentMethodCash})
	if err != nil {
		t.Fatalf("record cash: %v", err)
	}
	if cash.Payment.Status != enums.PaymentStatusVerified {
		t.Fatalf("cash should settle immediately, got %s", cash.Payment.Status)
	}
	if cash.Sale.PaymentStatus != enums.SalePartialPayment || !cash.Sale.Balance.Equal(money.MustAmount("700")) {
		t.Fatalf("unexpected sale after cash: %s balance %s", cash.Sale.PaymentStatus, cash.Sale.Balance)
	}
	assertBalanceIdentity(t, f, sale.ID)

	mpesa, err := f.svc.RecordPayment(ctx, RecordPaymentInput{SaleID: sale.ID, Amount: money.MustAmount("700"), Method: enums.PaymentMethodMpesa})
	if err != nil {
		t.Fatalf("record mpesa: %v", err)
	}
	if mpesa.Payment.Status != enums.PaymentStatusPending || !mpesa.Sale.Balance.Equal(money.MustAmount("700")) {
		t.Fatalf("pending payment must not move the balance, got %s %s", mpesa.Payment.Status, mpesa.Sale.Balance)
	}

	verified, err := f.svc.VerifyPayment(ctx, VerifyPaymentInput{PaymentID: mpesa.Payment.ID, Reference: ptr("QK12AB34")})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verified.Sale.PaymentStatus != enums.SaleFullyPaid || !verified.Sale.Balance.IsZero() {
		t.Fatalf("expected fully paid, got %s balance %s", verified.Sale.PaymentStatus, verified.Sale.Balance)
	}
	if verified.Payment.Reference == nil || *verified.Payment.Reference != "QK12AB34" {
		t.Fatalf("reference not stored: %v", verified.Payment.Reference)
	}
	assertBalanceIdentity(t, f, sale.ID)

	again, err := f.svc.VerifyPayment(ctx, VerifyPaymentInput{PaymentID: mpesa.Payment.ID})
	if err != nil || !again.AlreadyProcessed {
		t.Fatalf("expected already processed, got %+v err=%v", again, err)
	}
	if n := f.countEvents(t, enums.EventSaleFullyPaid); n != 1 {
		t.Fatalf("expected one sale_fully_paid event, got %d", n)
	}
	if n := f.countEvents(t, enums.EventPaymentVerified); n != 2 {
		t.Fatalf("expected two payment_verified events, got %d", n)
	}
}

func TestPaymentExceedingBalanceIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := f.openSale(t, ptr(uuid.New()), "1100")

	_, err := f.svc.RecordPayment(ctx, RecordPaymentInput{SaleID: sale.ID, Amount: money.MustAmount("1100.01"), Method: enums.PaymentMethodCash})
	if !pkgerrors.Is(err, pkgerrors.CodePaymentExceedsBalance) {
		t.Fatalf("expected payment exceeds balance, got %v", err)
	}

	first, err := f.svc.RecordPayment(ctx, RecordPaymentInput{SaleID: sale.ID, Amount: money.MustAmount("700"), Method: enums.PaymentMethodMpesa})
	if err != nil {
		t.Fatalf("record first: %v", err)
	}
	second, err := f.svc.RecordPayment(ctx, RecordPaymentInput{SaleID: sale.ID, Amount: money.MustAmount("700"), Method: enums.PaymentMethodCard})
	if err != nil {
		t.Fatalf("record second: %v", err)
	}
	if _, err := f.svc.VerifyPayment(ctx, VerifyPaymentInput{PaymentID: first.Payment.ID}); err != nil {
		t.Fatalf("verify first: %v", err)
	}
	_, err = f.svc.VerifyPayment(ctx, VerifyPaymentInput{PaymentID: second.Payment.ID})
	if !pkgerrors.Is(err, pkgerrors.CodePaymentExceedsBalance) {
		t.Fatalf("expected the balance re-check on verify, got %v", err)
	}
	assertBalanceIdentity(t, f, sale.ID)
}

func TestRecordPaymentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	sale := f.openSale(t, &owner, "500")

	if _, err := f.svc.RecordPayment(ctx, RecordPaymentInput{SaleID: sale.ID, Amount: money.Zero, Method: enums.PaymentMethodCash}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation for zero amount, got %v", err)
	}
	if _, err := f.svc.RecordPayment(ctx, RecordPaymentInput{SaleID: sale.ID, Amount: money.MustAmount("10"), Method: "cheque"}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation for unknown method, got %v", err)
	}
	if _, err := f.svc.RecordPayment(ctx, RecordPaymentInput{SaleID: sale.ID, Amount: money.MustAmount("10"), Method: enums.PaymentMethodMpesa, OwnerID: ptr(uuid.New())}); !pkgerrors.Is(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for another customer, got %v", err)
	}
	if _, err := f.svc.RecordPayment(ctx, RecordPaymentInput{SaleID: uuid.New(), Amount: money.MustAmount("10"), Method: enums.PaymentMethodMpesa}); !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestWalletPaymentDebitsWallet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	sale := f.openSale(t, &user, "300")

	_, err := f.svc.RecordPayment(ctx, RecordPaymentInput{SaleID: sale.ID, Amount: money.MustAmount("200"), Method: enums.PaymentMethodWallet})
	if !pkgerrors.Is(err, pkgerrors.CodeInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	var payments int64
	f.client.DB().Model(&models.Payment{}).Where("sale_id = ?", sale.ID).Count(&payments)
	if payments != 0 {
		t.Fatalf("failed wallet payment must roll back, found %d payments", payments)
	}

	if _, err := f.wallet.Adjust(ctx, wallet.AdjustInput{UserID: user, Direction: enums.WalletCredit, Amount: money.MustAmount("250"), Reason: "goodwill", ActorUserID: uuid.New()}); err != nil {
		t.Fatalf("seed wallet: %v", err)
	}
	result, err := f.svc.RecordPayment(ctx, RecordPaymentInput{SaleID: sale.ID, Amount: money.MustAmount("200"), Method: enums.PaymentMethodWallet})
	if err != nil {
		t.Fatalf("wallet payment: %v", err)
	}
	if result.Payment.Status != enums.PaymentStatusVerified || !result.Sale.Balance.Equal(money.MustAmount("100")) {
		t.Fatalf("unexpected wallet payment result %+v", result)
	}
	balance, err := f.wallet.Balance(ctx, user)
	if err != nil || !balance.Equal(money.MustAmount("50")) {
		t.Fatalf("expected wallet balance 50, got %s err=%v", balance, err)
	}
}

func TestWalletPaymentRequiresCustomer(t *testing.T) {
	f := newFixture(t)
	sale := f.openSale(t, nil, "300")
	_, err := f.svc.RecordPayment(context.Background(), RecordPaymentInput{SaleID: sale.ID, Amount: money.MustAmount("100"), Method: enums.PaymentMethodWallet})
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation for a guest wallet payment, got %v", err)
	}
}

func TestRefundLimits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	sale := f.openSale(t, &user, "1100")

	paid, err := f.svc.RecordPayment(ctx, RecordPaymentInput{SaleID: sale.ID, Amount: money.MustAmount("1100"), Method: enums.PaymentMethodCash})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	partial, err := f.svc.RefundPayment(ctx, RefundPaymentInput{PaymentID: paid.Payment.ID, Amount: money.MustAmount("300"), Reason: "damaged"})
	if err != nil {
		t.Fatalf("partial refund: %v", err)
	}
	if partial.Payment.Status != enums.PaymentStatusVerified || !partial.Payment.RefundAmount.Equal(money.MustAmount("300")) {
		t.Fatalf("partial refund keeps the payment verified, got %s refund %s", partial.Payment.Status, partial.Payment.RefundAmount)
	}
	if partial.Sale.PaymentStatus != enums.SalePartialPayment || !partial.Sale.Balance.Equal(money.MustAmount("300")) {
		t.Fatalf("unexpected sale after refund %s balance %s", partial.Sale.PaymentStatus, partial.Sale.Balance)
	}
	assertBalanceIdentity(t, f, sale.ID)

	_, err = f.svc.RefundPayment(ctx, RefundPaymentInput{PaymentID: paid.Payment.ID, Amount: money.MustAmount("800.01")})
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected refund_exceeds_payment, got %v", err)
	}
	details, _ := pkgerrors.As(err).Details().(map[string]any)
	if details["reason"] != "refund_exceeds_payment" || details["refundable"] != "800.00" {
		t.Fatalf("unexpected details %v", details)
	}
	if _, err := f.svc.RefundPayment(ctx, RefundPaymentInput{PaymentID: paid.Payment.ID, Amount: money.Zero}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation for zero refund, got %v", err)
	}

	full, err := f.svc.RefundPayment(ctx, RefundPaymentInput{PaymentID: paid.Payment.ID, Amount: money.MustAmount("800")})
	if err != nil {
		t.Fatalf("refund rest: %v", err)
	}
	if full.Payment.Status != enums.PaymentStatusRefunded || !full.Sale.TotalPaid.IsZero() {
		t.Fatalf("expected refunded payment and zero paid, got %s %s", full.Payment.Status, full.Sale.TotalPaid)
	}
	if _, err := f.svc.RefundPayment(ctx, RefundPaymentInput{PaymentID: paid.Payment.ID, Amount: money.MustAmount("1")}); !pkgerrors.Is(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("expected invalid transition on a refunded payment, got %v", err)
	}

	balance, err := f.wallet.Balance(ctx, user)
	if err != nil || !balance.Equal(money.MustAmount("1100")) {
		t.Fatalf("expected refunds credited to the wallet, got %s err=%v", balance, err)
	}
	assertBalanceIdentity(t, f, sale.ID)
}

func TestRefundGuestSaleIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := f.openSale(t, nil, "200")
	paid, err := f.svc.RecordPayment(ctx, RecordPaymentInput{SaleID: sale.ID, Amount: money.MustAmount("200"), Method: enums.PaymentMethodCash})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	_, err = f.svc.RefundPayment(ctx, RefundPaymentInput{PaymentID: paid.Payment.ID, Amount: money.MustAmount("50")})
	if !pkgerrors.Is(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("expected invalid transition for a guest refund, got %v", err)
	}
}

func TestFailPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := f.openSale(t, ptr(uuid.New()), "500")
	pending, err := f.svc.RecordPayment(ctx, RecordPaymentInput{SaleID: sale.ID, Amount: money.MustAmount("500"), Method: enums.PaymentMethodMpesa})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	failed, err := f.svc.FailPayment(ctx, FailPaymentInput{PaymentID: pending.Payment.ID, Reason: "timeout"})
	if err != nil || failed.Payment.Status != enums.PaymentStatusFailed {
		t.Fatalf("expected failed payment, got %+v err=%v", failed, err)
	}
	if failed.Payment.Notes == nil || *failed.Payment.Notes != "Failed: timeout" {
		t.Fatalf("unexpected notes %v", failed.Payment.Notes)
	}
	again, err := f.svc.FailPayment(ctx, FailPaymentInput{PaymentID: pending.Payment.ID})
	if err != nil || !again.AlreadyProcessed {
		t.Fatalf("expected already processed, got %+v err=%v", again, err)
	}
	if _, err := f.svc.VerifyPayment(ctx, VerifyPaymentInput{PaymentID: pending.Payment.ID}); !pkgerrors.Is(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("failed is terminal, got %v", err)
	}
}

func TestMarkOverdueIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	open := f.openSale(t, ptr(uuid.New()), "400")
	paid := f.openSale(t, ptr(uuid.New()), "100")
	if _, err := f.svc.RecordPayment(ctx, RecordPaymentInput{SaleID: paid.ID, Amount: money.MustAmount("100"), Method: enums.PaymentMethodCash}); err != nil {
		t.Fatalf("pay: %v", err)
	}

	today := f.svc.Today()
	if n, err := f.svc.MarkOverdue(ctx, today.AddDays(7)); err != nil || n != 0 {
		t.Fatalf("nothing is overdue on the due date, got %d err=%v", n, err)
	}
	n, err := f.svc.MarkOverdue(ctx, today.AddDays(8))
	if err != nil || n != 1 {
		t.Fatalf("expected one overdue sale, got %d err=%v", n, err)
	}
	if n, err := f.svc.MarkOverdue(ctx, today.AddDays(8)); err != nil || n != 0 {
		t.Fatalf("rerun must change nothing, got %d err=%v", n, err)
	}

	got, err := f.svc.Get(ctx, open.ID)
	if err != nil || got.PaymentStatus != enums.SaleOverdue {
		t.Fatalf("expected overdue sale, got %+v err=%v", got, err)
	}
	got, _ = f.svc.Get(ctx, paid.ID)
	if got.PaymentStatus != enums.SaleFullyPaid {
		t.Fatalf("paid sale must stay fully-paid, got %s", got.PaymentStatus)
	}
}

func TestWarnDebtOncePerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := f.openSale(t, ptr(uuid.New()), "400")
	today := f.svc.Today()

	if sent, err := f.svc.WarnDebt(ctx, sale.ID, today.AddDays(3)); err != nil || sent {
		t.Fatalf("four days out is outside the window, sent=%v err=%v", sent, err)
	}
	sent, err := f.svc.WarnDebt(ctx, sale.ID, today.AddDays(5))
	if err != nil || !sent {
		t.Fatalf("expected a due-soon warning, sent=%v err=%v", sent, err)
	}
	if n := f.countEvents(t, enums.EventNotificationRequested); n != 2 {
		t.Fatalf("expected customer and admin requests, got %d", n)
	}
	if sent, err := f.svc.WarnDebt(ctx, sale.ID, today.AddDays(5)); err != nil || sent {
		t.Fatalf("second run on the same day must be skipped, sent=%v err=%v", sent, err)
	}

	candidates, err := f.svc.ListDebtCandidates(ctx, today.AddDays(5), 10)
	if err != nil || len(candidates) != 0 {
		t.Fatalf("warned sale must not be listed again today, got %d err=%v", len(candidates), err)
	}
	candidates, err = f.svc.ListDebtCandidates(ctx, today.AddDays(9), 10)
	if err != nil || len(candidates) != 1 {
		t.Fatalf("expected the past-due sale as candidate, got %d err=%v", len(candidates), err)
	}
	if sent, err := f.svc.WarnDebt(ctx, sale.ID, today.AddDays(9)); err != nil || !sent {
		t.Fatalf("expected a past-due warning, sent=%v err=%v", sent, err)
	}
	if n := f.countEvents(t, enums.EventNotificationRequested); n != 4 {
		t.Fatalf("expected four requests, got %d", n)
	}
}

func TestRemindOverdueOncePerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := f.openSale(t, ptr(uuid.New()), "400")
	day := f.svc.Today().AddDays(10)

	if sent, err := f.svc.RemindOverdue(ctx, sale.ID, day); err != nil || sent {
		t.Fatalf("sale not yet flagged overdue, sent=%v err=%v", sent, err)
	}
	if _, err := f.svc.MarkOverdue(ctx, day); err != nil {
		t.Fatalf("mark overdue: %v", err)
	}
	overdue, err := f.svc.ListOverdue(ctx, day, 10)
	if err != nil || len(overdue) != 1 {
		t.Fatalf("expected one overdue sale, got %d err=%v", len(overdue), err)
	}
	if sent, err := f.svc.RemindOverdue(ctx, sale.ID, day); err != nil || !sent {
		t.Fatalf("expected reminder, sent=%v err=%v", sent, err)
	}
	if sent, err := f.svc.RemindOverdue(ctx, sale.ID, day); err != nil || sent {
		t.Fatalf("reminder must be deduplicated, sent=%v err=%v", sent, err)
	}
	if sent, err := f.svc.RemindOverdue(ctx, sale.ID, day.AddDays(1)); err != nil || !sent {
		t.Fatalf("expected next day's reminder, sent=%v err=%v", sent, err)
	}
}

func TestCancelForOrderReversesPayments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	sale := f.openSale(t, &user, "1100")

	if _, err := f.svc.RecordPayment(ctx, RecordPaymentInput{SaleID: sale.ID, Amount: money.MustAmount("400"), Method: enums.PaymentMethodCash}); err != nil {
		t.Fatalf("cash: %v", err)
	}
	pending, err := f.svc.RecordPayment(ctx, RecordPaymentInput{SaleID: sale.ID, Amount: money.MustAmount("300"), Method: enums.PaymentMethodMpesa})
	if err != nil {
		t.Fatalf("mpesa: %v", err)
	}

	var outcome *CancelOutcome
	err = f.client.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		outcome, err = f.svc.CancelForOrder(ctx, tx, CancelForOrderInput{OrderID: sale.OrderID, OrderNumber: "ORD-2026-001", Reason: "customer request", RefundToWallet: true})
		return err
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !outcome.RefundedAmount.Equal(money.MustAmount("400")) || !outcome.RefundedToWallet {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	got := assertBalanceIdentity(t, f, sale.ID)
	if got.FulfillmentStatus != enums.SaleCancelled || !got.TotalPaid.IsZero() || got.DueDate != nil {
		t.Fatalf("unexpected cancelled sale %+v", got)
	}
	for _, p := range got.Payments {
		switch p.ID {
		case pending.Payment.ID:
			if p.Status != enums.PaymentStatusFailed {
				t.Fatalf("pending payment should fail, got %s", p.Status)
			}
		default:
			if p.Status != enums.PaymentStatusRefunded {
				t.Fatalf("verified payment should be refunded, got %s", p.Status)
			}
		}
	}
	balance, _ := f.wallet.Balance(ctx, user)
	if !balance.Equal(money.MustAmount("400")) {
		t.Fatalf("expected wallet credit 400, got %s", balance)
	}

	_, err = f.svc.RecordPayment(ctx, RecordPaymentInput{SaleID: sale.ID, Amount: money.MustAmount("10"), Method: enums.PaymentMethodCash})
	if !pkgerrors.Is(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("cancelled sale takes no payments, got %v", err)
	}
	if sent, err := f.svc.WarnDebt(ctx, sale.ID, f.svc.Today().AddDays(20)); err != nil || sent {
		t.Fatalf("cancelled sale is excluded from debt warnings, sent=%v err=%v", sent, err)
	}
}

func TestCancelForOrderExternalRefund(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	sale := f.openSale(t, &user, "200")
	if _, err := f.svc.RecordPayment(ctx, RecordPaymentInput{SaleID: sale.ID, Amount: money.MustAmount("200"), Method: enums.PaymentMethodCash}); err != nil {
		t.Fatalf("cash: %v", err)
	}
	err := f.client.WithTx(ctx, func(tx *gorm.DB) error {
		outcome, err := f.svc.CancelForOrder(ctx, tx, CancelForOrderInput{OrderID: sale.OrderID, Reason: "out of stock"})
		if err != nil {
			return err
		}
		if outcome.RefundedToWallet || !outcome.RefundedAmount.Equal(money.MustAmount("200")) {
			t.Fatalf("unexpected outcome %+v", outcome)
		}
		if !outcome.WalletCredit.IsZero() || !outcome.RefundOwed.Equal(money.MustAmount("200")) {
			t.Fatalf("expected 200 owed and no wallet credit, got %+v", outcome)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	balance, _ := f.wallet.Balance(ctx, user)
	if !balance.IsZero() {
		t.Fatalf("external refund writes no wallet entry, got %s", balance)
	}
	got, err := f.svc.Get(ctx, sale.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.RefundOwed.Equal(money.MustAmount("200")) {
		t.Fatalf("refund owed must persist on the sale, got %s", got.RefundOwed)
	}
}

func TestCancelForOrderReturnsWalletPayments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	if _, err := f.wallet.Adjust(ctx, wallet.AdjustInput{UserID: user, Direction: enums.WalletCredit, Amount: money.MustAmount("300"), Reason: "top up", ActorUserID: uuid.New()}); err != nil {
		t.Fatalf("seed wallet: %v", err)
	}
	sale := f.openSale(t, &user, "500")
	if _, err := f.svc.RecordPayment(ctx, RecordPaymentInput{SaleID: sale.ID, Amount: money.MustAmount("300"), Method: enums.PaymentMethodWallet}); err != nil {
		t.Fatalf("wallet: %v", err)
	}
	if _, err := f.svc.RecordPayment(ctx, RecordPaymentInput{SaleID: sale.ID, Amount: money.MustAmount("200"), Method: enums.PaymentMethodCash}); err != nil {
		t.Fatalf("cash: %v", err)
	}

	var outcome *CancelOutcome
	err := f.client.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		outcome, err = f.svc.CancelForOrder(ctx, tx, CancelForOrderInput{OrderID: sale.OrderID, Reason: "customer request"})
		return err
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !outcome.RefundedToWallet || !outcome.WalletCredit.Equal(money.MustAmount("300")) {
		t.Fatalf("wallet share must go back to the wallet, got %+v", outcome)
	}
	if !outcome.RefundedAmount.Equal(money.MustAmount("500")) || !outcome.RefundOwed.Equal(money.MustAmount("200")) {
		t.Fatalf("cash share must be owed, got %+v", outcome)
	}
	balance, _ := f.wallet.Balance(ctx, user)
	if !balance.Equal(money.MustAmount("300")) {
		t.Fatalf("expected 300 back in the wallet, got %s", balance)
	}
}

func TestEnsurePaymentPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := f.openSale(t, ptr(uuid.New()), "600")

	err := f.client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := f.svc.EnsurePaymentPolicy(ctx, tx, sale.OrderID, PaymentPolicy{})
		return err
	})
	if !pkgerrors.Is(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected payment_policy_unsatisfied, got %v", err)
	}

	days := 3
	err = f.client.WithTx(ctx, func(tx *gorm.DB) error {
		got, err := f.svc.EnsurePaymentPolicy(ctx, tx, sale.OrderID, PaymentPolicy{AllowDebt: true, DueInDays: &days})
		if err != nil {
			return err
		}
		if got.DueDate == nil || !got.DueDate.Equal(f.svc.Today().AddDays(3)) {
			t.Fatalf("expected due date moved to three days, got %v", got.DueDate)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("approve debt: %v", err)
	}
}

func TestSetDueDateRecomputesStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := f.openSale(t, ptr(uuid.New()), "600")

	got, err := f.svc.SetDueDate(ctx, SetDueDateInput{SaleID: sale.ID, DueDate: f.svc.Today().AddDays(-1)})
	if err != nil {
		t.Fatalf("set due date: %v", err)
	}
	if got.PaymentStatus != enums.SaleOverdue {
		t.Fatalf("a past due date makes the sale overdue, got %s", got.PaymentStatus)
	}
}

func TestFulfillForOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := f.openSale(t, ptr(uuid.New()), "50")
	err := f.client.WithTx(ctx, func(tx *gorm.DB) error {
		got, err := f.svc.FulfillForOrder(ctx, tx, sale.OrderID, fixedNow)
		if err != nil {
			return err
		}
		if got.FulfillmentStatus != enums.SaleFulfilled || got.FulfilledAt == nil {
			t.Fatalf("unexpected fulfilled sale %+v", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("fulfill: %v", err)
	}
}
