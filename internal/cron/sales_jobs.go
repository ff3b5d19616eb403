package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	dbtypes "github.com/ErnestKamau/EasyBuy-sub001/pkg/db/types"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/metrics"
)

const (
	JobOverdueSales     = "overdue-sales"
	JobDebtWarnings     = "debt-warnings"
	JobOverdueReminders = "overdue-reminders"
)

type salesSweeper interface {
	Today() dbtypes.Date
	MarkOverdue(ctx context.Context, today dbtypes.Date) (int64, error)
	ListDebtCandidates(ctx context.Context, today dbtypes.Date, limit int) ([]models.Sale, error)
	WarnDebt(ctx context.Context, saleID uuid.UUID, today dbtypes.Date) (bool, error)
	ListOverdue(ctx context.Context, today dbtypes.Date, limit int) ([]models.Sale, error)
	RemindOverdue(ctx context.Context, saleID uuid.UUID, today dbtypes.Date) (bool, error)
}

// SalesJobParams configure the debt jobs.
type SalesJobParams struct {
	Logger    *logger.Logger
	Sales     salesSweeper
	Metrics   *metrics.SweepMetrics
	BatchSize int
}

func (p SalesJobParams) validate() error {
	if p.Logger == nil {
		return fmt.Errorf("logger required")
	}
	if p.Sales == nil {
		return fmt.Errorf("sales service required")
	}
	return nil
}

type overdueSalesJob struct {
	logg  *logger.Logger
	sales salesSweeper
}

// NewOverdueSalesJob flips past-due unpaid sales to overdue.
func NewOverdueSalesJob(params SalesJobParams) (Job, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &overdueSalesJob{logg: params.Logger, sales: params.Sales}, nil
}

func (j *overdueSalesJob) Name() string { return JobOverdueSales }

func (j *overdueSalesJob) Run(ctx context.Context) error {
	today := j.sales.Today()
	changed, err := j.sales.MarkOverdue(ctx, today)
	if err != nil {
		return fmt.Errorf("mark overdue: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"today":        today.String(),
		"rows_changed": changed,
	})
	j.logg.Info(logCtx, "overdue sweep complete")
	return nil
}

type debtWarningsJob struct {
	logg    *logger.Logger
	sales   salesSweeper
	metrics *metrics.SweepMetrics
	batch   int
}

// NewDebtWarningsJob warns customers and admins about sales due soon or past due.
func NewDebtWarningsJob(params SalesJobParams) (Job, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &debtWarningsJob{logg: params.Logger, sales: params.Sales, metrics: params.Metrics, batch: params.BatchSize}, nil
}

func (j *debtWarningsJob) Name() string { return JobDebtWarnings }

func (j *debtWarningsJob) Run(ctx context.Context) error {
	today := j.sales.Today()
	_, err := sweep{
		job:     JobDebtWarnings,
		entity:  "sale",
		limit:   j.batch,
		logg:    j.logg,
		metrics: j.metrics,
		list: func(ctx context.Context, limit int) ([]uuid.UUID, error) {
			rows, err := j.sales.ListDebtCandidates(ctx, today, limit)
			return saleIDs(rows), err
		},
		apply: func(ctx context.Context, id uuid.UUID) (bool, error) {
			return j.sales.WarnDebt(ctx, id, today)
		},
	}.run(ctx)
	return err
}

type overdueRemindersJob struct {
	logg    *logger.Logger
	sales   salesSweeper
	metrics *metrics.SweepMetrics
	batch   int
}

// NewOverdueRemindersJob sends the daily reminder for overdue sales.
func NewOverdueRemindersJob(params SalesJobParams) (Job, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &overdueRemindersJob{logg: params.Logger, sales: params.Sales, metrics: params.Metrics, batch: params.BatchSize}, nil
}

func (j *overdueRemindersJob) Name() string { return JobOverdueReminders }

func (j *overdueRemindersJob) Run(ctx context.Context) error {
	today := j.sales.Today()
	_, err := sweep{
		job:     JobOverdueReminders,
		entity:  "sale",
		limit:   j.batch,
		logg:    j.logg,
		metrics: j.metrics,
		list: func(ctx context.Context, limit int) ([]uuid.UUID, error) {
			rows, err := j.sales.ListOverdue(ctx, today, limit)
			return saleIDs(rows), err
		},
		apply: func(ctx context.Context, id uuid.UUID) (bool, error) {
			return j.sales.RemindOverdue(ctx, id, today)
		},
	}.run(ctx)
	return err
}

func saleIDs(rows []models.Sale) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids
}
