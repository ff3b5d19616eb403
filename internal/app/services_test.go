package app

import (
	"io"
	"testing"
	"time"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/config"
	pkgdb "github.com/ErnestKamau/EasyBuy-sub001/pkg/db"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/dbtest"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
)

func TestNewServicesWiresEveryService(t *testing.T) {
	cfg := &config.Config{
		Pickup: config.PickupConfig{
			Timezone:          "Africa/Nairobi",
			AutoCancelGrace:   12 * time.Hour,
			ReminderLookahead: time.Hour,
		},
		Sales: config.SalesConfig{DebtTermDays: 7, DebtWarningDays: 2, Currency: "KES"},
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	svcs, err := NewServices(cfg, logg, pkgdb.FromConn(dbtest.Open(t)))
	if err != nil {
		t.Fatalf("new services: %v", err)
	}
	if svcs.Orders == nil || svcs.Sales == nil || svcs.Wallet == nil || svcs.Pickup == nil || svcs.Receipts == nil || svcs.Notifications == nil {
		t.Fatalf("expected every service wired, got %+v", svcs)
	}
	if got := len(svcs.Pickup.Catalog().Slots()); got == 0 {
		t.Fatal("expected the default slot catalog")
	}
}

func TestNewServicesRejectsBadGrace(t *testing.T) {
	cfg := &config.Config{Pickup: config.PickupConfig{ReminderLookahead: time.Hour}}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	if _, err := NewServices(cfg, logg, pkgdb.FromConn(dbtest.Open(t))); err == nil {
		t.Fatal("expected zero auto-cancel grace to be rejected")
	}
}
