package main

import (
	"context"
	"time"

	"github.com/ErnestKamau/EasyBuy-sub001/internal/app"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/cron"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/config"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/metrics"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/outbox"
)

type scheduledJob struct {
	build func() (cron.Job, error)
	every time.Duration
}

// buildRegistry registers every reconciliation and retention job at its configured cadence.
// A job whose cadence is zero or negative is disabled and left out of the registry.
func buildRegistry(cfg *config.Config, logg *logger.Logger, client *db.Client, svcs *app.Services, sweep *metrics.SweepMetrics) (*cron.Registry, error) {
	sched := cfg.Scheduler
	salesParams := cron.SalesJobParams{Logger: logg, Sales: svcs.Sales, Metrics: sweep, BatchSize: sched.BatchSize}
	pickupParams := cron.PickupJobParams{Logger: logg, Orders: svcs.Orders, Metrics: sweep, BatchSize: sched.BatchSize}

	jobs := []scheduledJob{
		{func() (cron.Job, error) { return cron.NewOverdueSalesJob(salesParams) }, sched.OverdueSalesEvery},
		{func() (cron.Job, error) { return cron.NewDebtWarningsJob(salesParams) }, sched.DebtWarningsEvery},
		{func() (cron.Job, error) { return cron.NewOverdueRemindersJob(salesParams) }, sched.OverdueRemindersEvery},
		{func() (cron.Job, error) { return cron.NewMissedPickupsJob(pickupParams) }, sched.MissedPickupsEvery},
		{func() (cron.Job, error) { return cron.NewPickupRemindersJob(pickupParams) }, sched.PickupRemindersEvery},
		{func() (cron.Job, error) {
			return cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
				Logger:     logg,
				DB:         client,
				Repository: svcs.NotifRepo,
				Retention:  sched.NotificationRetentionDays,
			})
		}, sched.NotificationCleanupEvery},
		{func() (cron.Job, error) {
			return cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
				Logger:          logg,
				DB:              client,
				Published:       outbox.NewRepository(client.DB()),
				DeadLetters:     outbox.NewDeadLetters(client.DB()),
				PublishedMaxAge: cfg.Outbox.PublishedMaxAge,
				DLQMaxAge:       cfg.Outbox.DeadLetterMaxAge,
			})
		}, sched.OutboxRetentionEvery},
	}

	registry := cron.NewRegistry()
	for _, j := range jobs {
		job, err := j.build()
		if err != nil {
			return nil, err
		}
		if j.every <= 0 {
			logg.Info(logg.WithJob(context.Background(), job.Name()), "cron job disabled")
			continue
		}
		if err := registry.Register(job, j.every); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
