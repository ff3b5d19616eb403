package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
)

const (
	JobNotificationCleanup = "notification-cleanup"
	JobOutboxRetention     = "outbox-retention"

	notificationRetentionDays = 30
	defaultPublishedMaxAge    = 7 * 24 * time.Hour
	defaultDLQMaxAge          = 30 * 24 * time.Hour
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notificationsCleanupRepo interface {
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type publishedPurger interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type deadLetterPurger interface {
	DeleteBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type purgeFunc func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)

// purgeTarget is one table a retention job trims, in its own transaction.
type purgeTarget struct {
	name   string
	maxAge time.Duration
	purge  purgeFunc
}

type retentionJob struct {
	name    string
	logg    *logger.Logger
	db      txRunner
	targets []purgeTarget
	now     func() time.Time
}

type NotificationCleanupJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository notificationsCleanupRepo
	// Retention is in days.
	Retention  int
}

// NewNotificationCleanupJob purges read notifications older than the retention window.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	days := params.Retention
	if days <= 0 {
		days = notificationRetentionDays
	}
	return newRetentionJob(JobNotificationCleanup, params.Logger, params.DB,
		purgeTarget{name: "notifications", maxAge: time.Duration(days) * 24 * time.Hour, purge: params.Repository.DeleteOlderThan},
	)
}

type OutboxRetentionJobParams struct {
	Logger          *logger.Logger
	DB              txRunner
	Published       publishedPurger
	DeadLetters     deadLetterPurger
	PublishedMaxAge time.Duration
	DLQMaxAge       time.Duration
}

// NewOutboxRetentionJob purges published outbox rows and old dead letters.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Published == nil || params.DeadLetters == nil {
		return nil, fmt.Errorf("outbox and dead letter purgers required")
	}
	return newRetentionJob(JobOutboxRetention, params.Logger, params.DB,
		purgeTarget{name: "published", maxAge: orDefault(params.PublishedMaxAge, defaultPublishedMaxAge), purge: params.Published.DeletePublishedBefore},
		purgeTarget{name: "dlq", maxAge: orDefault(params.DLQMaxAge, defaultDLQMaxAge), purge: params.DeadLetters.DeleteBefore},
	)
}

func newRetentionJob(name string, logg *logger.Logger, db txRunner, targets ...purgeTarget) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if db == nil {
		return nil, fmt.Errorf("db runner required")
	}
	return &retentionJob{name: name, logg: logg, db: db, targets: targets, now: time.Now}, nil
}

func orDefault(v, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return v
}

func (j *retentionJob) Name() string { return j.name }

// Run trims every target and reports all failures together.
func (j *retentionJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	fields := make(map[string]any, 2*len(j.targets))
	var errs error
	for _, target := range j.targets {
		cutoff := now.Add(-target.maxAge)
		var purged int64
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			purged, err = target.purge(ctx, tx, cutoff)
			return err
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("purge %s: %w", target.name, err))
		}
		fields[target.name+"_cutoff"] = cutoff
		fields[target.name+"_purged"] = purged
	}
	j.logg.Info(j.logg.WithFields(ctx, fields), "retention cleanup complete")
	return errs
}
