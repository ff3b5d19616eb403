package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"
)

type fakePurger struct {
	cutoff time.Time
	rows   int64
	err    error
	calls  int
}

func (f *fakePurger) purge(_ context.Context, _ *gorm.DB, cutoff time.Time) (int64, error) {
	f.calls++
	f.cutoff = cutoff
	return f.rows, f.err
}

func (f *fakePurger) DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	return f.purge(ctx, tx, cutoff)
}

func (f *fakePurger) DeleteBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	return f.purge(ctx, tx, cutoff)
}

func (f *fakePurger) DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	return f.purge(ctx, tx, cutoff)
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func asRetention(t *testing.T, job Job, err error, now time.Time) *retentionJob {
	t.Helper()
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	rj, ok := job.(*retentionJob)
	if !ok {
		t.Fatalf("expected retentionJob, got %T", job)
	}
	rj.now = func() time.Time { return now }
	return rj
}

func TestNotificationCleanupUsesRetentionDays(t *testing.T) {
	now := time.Date(2026, 3, 31, 4, 0, 0, 0, time.UTC)
	for _, tc := range []struct {
		days int
		want time.Time
	}{
		{0, now.AddDate(0, 0, -notificationRetentionDays)},
		{7, time.Date(2026, 3, 24, 4, 0, 0, 0, time.UTC)},
	} {
		repo := &fakePurger{rows: 42}
		job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
			Logger: testLogger(), DB: fakeTxRunner{}, Repository: repo, Retention: tc.days,
		})
		rj := asRetention(t, job, err, now)
		if rj.Name() != JobNotificationCleanup {
			t.Fatalf("unexpected name %s", rj.Name())
		}
		if err := rj.Run(context.Background()); err != nil {
			t.Fatalf("run: %v", err)
		}
		if !repo.cutoff.Equal(tc.want) || repo.calls != 1 {
			t.Fatalf("days=%d: cutoff %s calls %d, want %s", tc.days, repo.cutoff, repo.calls, tc.want)
		}
	}
}

func TestOutboxRetentionUsesDefaultWindows(t *testing.T) {
	now := time.Date(2026, 3, 31, 2, 0, 0, 0, time.UTC)
	published, dead := &fakePurger{rows: 10}, &fakePurger{rows: 1}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger: testLogger(), DB: fakeTxRunner{}, Published: published, DeadLetters: dead,
	})
	rj := asRetention(t, job, err, now)

	if err := rj.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := now.Add(-defaultPublishedMaxAge); !published.cutoff.Equal(want) {
		t.Fatalf("published cutoff %s, want %s", published.cutoff, want)
	}
	if want := now.Add(-defaultDLQMaxAge); !dead.cutoff.Equal(want) {
		t.Fatalf("dlq cutoff %s, want %s", dead.cutoff, want)
	}
}

func TestRetentionReportsEveryFailure(t *testing.T) {
	now := time.Date(2026, 3, 31, 2, 0, 0, 0, time.UTC)
	published := &fakePurger{err: errors.New("statement timeout")}
	dead := &fakePurger{err: errors.New("relation missing")}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger: testLogger(), DB: fakeTxRunner{}, Published: published, DeadLetters: dead, DLQMaxAge: time.Hour,
	})
	rj := asRetention(t, job, err, now)

	err = rj.Run(context.Background())
	if n := len(multierr.Errors(err)); n != 2 {
		t.Fatalf("expected both failures reported, got %d (%v)", n, err)
	}
	if !dead.cutoff.Equal(now.Add(-time.Hour)) {
		t.Fatal("dead letters must be purged even when the published purge fails")
	}
}

func TestRetentionJobsValidate(t *testing.T) {
	if _, err := NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: testLogger(), DB: fakeTxRunner{}}); err == nil {
		t.Fatal("expected purgers to be required")
	}
	if _, err := NewNotificationCleanupJob(NotificationCleanupJobParams{DB: fakeTxRunner{}, Repository: &fakePurger{}}); err == nil {
		t.Fatal("expected logger to be required")
	}
	if _, err := NewNotificationCleanupJob(NotificationCleanupJobParams{Logger: testLogger(), Repository: &fakePurger{}}); err == nil {
		t.Fatal("expected db runner to be required")
	}
}
