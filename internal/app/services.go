// Package app composes the ledger services shared by the api and cron-worker commands.
package app

import (
	"fmt"

	"github.com/ErnestKamau/EasyBuy-sub001/internal/inventory"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/notifications"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/orders"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/pickup"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/receipts"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/sales"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/sequence"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/wallet"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/config"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/outbox"
)

type Services struct {
	Outbox        *outbox.Service
	Notifier      *notifications.Queue
	Notifications notifications.Service
	NotifRepo     notifications.Repository
	Wallet        *wallet.Service
	Pickup        *pickup.Service
	Sales         *sales.Service
	Orders        orders.Service
	Receipts      *receipts.Service
}

// NewServices wires every domain service over one database client.
func NewServices(cfg *config.Config, logg *logger.Logger, client *db.Client) (*Services, error) {
	if cfg == nil || client == nil {
		return nil, fmt.Errorf("config and database client required")
	}
	gdb := client.DB()

	loc, err := cfg.Pickup.Location()
	if err != nil {
		return nil, err
	}
	numbers := sequence.NewAllocator(loc)
	outboxSvc := outbox.NewService(outbox.NewRepository(gdb), logg)

	notifier, err := notifications.NewQueue(outboxSvc)
	if err != nil {
		return nil, fmt.Errorf("notification queue: %w", err)
	}
	notifRepo := notifications.NewRepository(gdb)
	notifSvc, err := notifications.NewService(notifRepo)
	if err != nil {
		return nil, fmt.Errorf("notifications service: %w", err)
	}

	walletSvc, err := wallet.NewService(wallet.NewRepository(gdb), client, logg)
	if err != nil {
		return nil, fmt.Errorf("wallet service: %w", err)
	}

	catalog, err := pickup.NewCatalog(cfg.Pickup)
	if err != nil {
		return nil, fmt.Errorf("pickup catalog: %w", err)
	}
	pickupSvc, err := pickup.NewService(gdb, catalog)
	if err != nil {
		return nil, fmt.Errorf("pickup service: %w", err)
	}

	salesSvc, err := sales.NewService(sales.ServiceParams{
		Repo:            sales.NewRepository(gdb),
		Tx:              client,
		Outbox:          outboxSvc,
		Notifier:        notifier,
		Wallet:          walletSvc,
		Numbers:         numbers,
		Location:        loc,
		DebtTermDays:    cfg.Sales.DebtTermDays,
		DebtWarningDays: cfg.Sales.DebtWarningDays,
		Currency:        cfg.Sales.Currency,
		Logger:          logg,
	})
	if err != nil {
		return nil, fmt.Errorf("sales service: %w", err)
	}

	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repo:              orders.NewRepository(gdb),
		Tx:                client,
		Outbox:            outboxSvc,
		Notifier:          notifier,
		Inventory:         inventory.NewService(),
		Slots:             pickupSvc,
		Sales:             salesSvc,
		Numbers:           numbers,
		AutoCancelGrace:   cfg.Pickup.AutoCancelGrace,
		ReminderLookahead: cfg.Pickup.ReminderLookahead,
		Logger:            logg,
	})
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}

	receiptsSvc, err := receipts.NewService(receipts.ServiceParams{
		Repo:     receipts.NewRepository(gdb),
		Tx:       client,
		Notifier: notifier,
		Numbers:  numbers,
		Currency: cfg.Sales.Currency,
		Logger:   logg,
	})
	if err != nil {
		return nil, fmt.Errorf("receipts service: %w", err)
	}

	return &Services{
		Outbox:        outboxSvc,
		Notifier:      notifier,
		Notifications: notifSvc,
		NotifRepo:     notifRepo,
		Wallet:        walletSvc,
		Pickup:        pickupSvc,
		Sales:         salesSvc,
		Orders:        ordersSvc,
		Receipts:      receiptsSvc,
	}, nil
}
