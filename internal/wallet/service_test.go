package wallet

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/ErnestKamau/EasyBuy-sub001/pkg/db"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/dbtest"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	pkgerrors "github.com/ErnestKamau/EasyBuy-sub001/pkg/errors"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/money"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/pagination"
)

func newTestService(t *testing.T) (*Service, *pkgdb.Client) {
	t.Helper()
	client := pkgdb.FromConn(dbtest.Open(t))
	svc, err := NewService(NewRepository(client.DB()), client, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, client
}

func credit(t *testing.T, svc *Service, client *pkgdb.Client, user uuid.UUID, amount string) *models.WalletTransaction {
	t.Helper()
	var row *models.WalletTransaction
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		var err error
		row, err = svc.Credit(context.Background(), tx, Entry{
			UserID:      user,
			Amount:      money.MustAmount(amount),
			Kind:        enums.WalletKindRefund,
			Description: "refund",
		})
		return err
	})
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	return row
}

func TestCreditDebitBalance(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	balance, err := svc.Balance(ctx, user)
	if err != nil || !balance.IsZero() {
		t.Fatalf("expected empty wallet, got %s err=%v", balance, err)
	}

	first := credit(t, svc, client, user, "400")
	if first.Sequence != 1 || !first.BalanceAfter.Equal(money.MustAmount("400")) {
		t.Fatalf("unexpected first entry seq=%d balance=%s", first.Sequence, first.BalanceAfter)
	}

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		row, err := svc.Debit(ctx, tx, Entry{UserID: user, Amount: money.MustAmount("150.50"), Kind: enums.WalletKindOrderPayment})
		if err != nil {
			return err
		}
		if row.Sequence != 2 || !row.BalanceAfter.Equal(money.MustAmount("249.50")) {
			t.Fatalf("unexpected debit entry seq=%d balance=%s", row.Sequence, row.BalanceAfter)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("debit: %v", err)
	}

	balance, err = svc.Balance(ctx, user)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(money.MustAmount("249.50")) {
		t.Fatalf("expected 249.50, got %s", balance)
	}
}

func TestDebitNeverGoesNegative(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	credit(t, svc, client, user, "10")

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := svc.Debit(ctx, tx, Entry{UserID: user, Amount: money.MustAmount("10.01"), Kind: enums.WalletKindOrderPayment})
		return err
	})
	if !pkgerrors.Is(err, pkgerrors.CodeInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	balance, _ := svc.Balance(ctx, user)
	if !balance.Equal(money.MustAmount("10")) {
		t.Fatalf("balance changed after rejected debit: %s", balance)
	}
}

func TestAppendValidatesEntry(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	cases := []Entry{
		{UserID: uuid.New(), Amount: money.Zero, Kind: enums.WalletKindRefund},
		{UserID: uuid.New(), Amount: money.MustAmount("-5"), Kind: enums.WalletKindRefund},
		{UserID: uuid.Nil, Amount: money.MustAmount("5"), Kind: enums.WalletKindRefund},
		{UserID: uuid.New(), Amount: money.MustAmount("5"), Kind: "bonus"},
	}
	for _, entry := range cases {
		_, err := svc.Credit(ctx, client.DB(), entry)
		if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for %+v, got %v", entry, err)
		}
	}
	if _, err := svc.Credit(ctx, nil, cases[0]); err == nil {
		t.Fatalf("expected nil transaction to be rejected")
	}
}

func TestConcurrentCreditsKeepRunningBalanceChain(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- client.WithTx(ctx, func(tx *gorm.DB) error {
				_, err := svc.Credit(ctx, tx, Entry{UserID: user, Amount: money.MustAmount("5"), Kind: enums.WalletKindOverpayment})
				return err
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("credit: %v", err)
		}
	}

	var entries []models.WalletTransaction
	if err := client.DB().Where("user_id = ?", user).Order("sequence ASC").Find(&entries).Error; err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != workers {
		t.Fatalf("expected %d entries, got %d", workers, len(entries))
	}
	running := money.Zero
	for i, entry := range entries {
		running = running.Add(entry.SignedAmount())
		if entry.Sequence != int64(i+1) {
			t.Fatalf("expected sequence %d, got %d", i+1, entry.Sequence)
		}
		if !entry.BalanceAfter.Equal(running) {
			t.Fatalf("entry %d balance_after %s, running %s", i, entry.BalanceAfter, running)
		}
	}
}

func TestHistoryPagesNewestFirst(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	for _, amount := range []string{"1", "2", "3", "4", "5"} {
		credit(t, svc, client, user, amount)
	}

	page, err := svc.History(ctx, user, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(page.Items) != 2 || page.Items[0].Sequence != 5 || page.Items[1].Sequence != 4 {
		t.Fatalf("unexpected first page %+v", page.Items)
	}
	if page.NextCursor == "" {
		t.Fatalf("expected next cursor")
	}

	page, err = svc.History(ctx, user, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	if err != nil {
		t.Fatalf("history page 2: %v", err)
	}
	if len(page.Items) != 2 || page.Items[0].Sequence != 3 {
		t.Fatalf("unexpected second page %+v", page.Items)
	}

	page, err = svc.History(ctx, user, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	if err != nil {
		t.Fatalf("history page 3: %v", err)
	}
	if len(page.Items) != 1 || page.NextCursor != "" {
		t.Fatalf("expected final page of one, got %+v cursor=%q", page.Items, page.NextCursor)
	}

	if _, err := svc.History(ctx, user, pagination.Params{Cursor: "%%%"}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for bad cursor, got %v", err)
	}
}

func TestAdjust(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	row, err := svc.Adjust(ctx, AdjustInput{UserID: user, Direction: enums.WalletCredit, Amount: money.MustAmount("75"), Reason: "goodwill", ActorUserID: uuid.New()})
	if err != nil {
		t.Fatalf("adjust credit: %v", err)
	}
	if row.Kind != enums.WalletKindAdjustment || row.Description != "Adjustment: goodwill" {
		t.Fatalf("unexpected adjustment row %+v", row)
	}

	if _, err := svc.Adjust(ctx, AdjustInput{UserID: user, Direction: enums.WalletDebit, Amount: money.MustAmount("100"), Reason: "correction"}); !pkgerrors.Is(err, pkgerrors.CodeInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if _, err := svc.Adjust(ctx, AdjustInput{UserID: user, Direction: enums.WalletCredit, Amount: money.MustAmount("1")}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected reason to be required, got %v", err)
	}
}
