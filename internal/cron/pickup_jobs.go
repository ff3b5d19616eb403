package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/metrics"
)

const (
	JobMissedPickups   = "missed-pickups"
	JobPickupReminders = "pickup-reminders"
)

type orderSweeper interface {
	ListMissedPickups(ctx context.Context, limit int) ([]models.Order, error)
	AutoCancelMissed(ctx context.Context, orderID uuid.UUID) (bool, error)
	ListReminderDue(ctx context.Context, limit int) ([]models.Order, error)
	SendPickupReminder(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// PickupJobParams configure the pickup jobs.
type PickupJobParams struct {
	Logger    *logger.Logger
	Orders    orderSweeper
	Metrics   *metrics.SweepMetrics
	BatchSize int
}

func (p PickupJobParams) validate() error {
	if p.Logger == nil {
		return fmt.Errorf("logger required")
	}
	if p.Orders == nil {
		return fmt.Errorf("orders service required")
	}
	return nil
}

type missedPickupsJob struct {
	logg    *logger.Logger
	orders  orderSweeper
	metrics *metrics.SweepMetrics
	batch   int
}

// NewMissedPickupsJob cancels ready orders nobody collected within the grace window.
func NewMissedPickupsJob(params PickupJobParams) (Job, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &missedPickupsJob{logg: params.Logger, orders: params.Orders, metrics: params.Metrics, batch: params.BatchSize}, nil
}

func (j *missedPickupsJob) Name() string { return JobMissedPickups }

func (j *missedPickupsJob) Run(ctx context.Context) error {
	_, err := sweep{
		job:     JobMissedPickups,
		entity:  "order",
		limit:   j.batch,
		logg:    j.logg,
		metrics: j.metrics,
		list: func(ctx context.Context, limit int) ([]uuid.UUID, error) {
			rows, err := j.orders.ListMissedPickups(ctx, limit)
			return orderIDs(rows), err
		},
		apply: j.orders.AutoCancelMissed,
	}.run(ctx)
	return err
}

type pickupRemindersJob struct {
	logg    *logger.Logger
	orders  orderSweeper
	metrics *metrics.SweepMetrics
	batch   int
}

// NewPickupRemindersJob sends the one-shot reminder for ready orders due within the lookahead.
func NewPickupRemindersJob(params PickupJobParams) (Job, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &pickupRemindersJob{logg: params.Logger, orders: params.Orders, metrics: params.Metrics, batch: params.BatchSize}, nil
}

func (j *pickupRemindersJob) Name() string { return JobPickupReminders }

func (j *pickupRemindersJob) Run(ctx context.Context) error {
	_, err := sweep{
		job:     JobPickupReminders,
		entity:  "order",
		limit:   j.batch,
		logg:    j.logg,
		metrics: j.metrics,
		list: func(ctx context.Context, limit int) ([]uuid.UUID, error) {
			rows, err := j.orders.ListReminderDue(ctx, limit)
			return orderIDs(rows), err
		},
		apply: j.orders.SendPickupReminder,
	}.run(ctx)
	return err
}

func orderIDs(rows []models.Order) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids
}
