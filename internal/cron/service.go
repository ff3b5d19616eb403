// Package cron runs the reconciliation jobs. A Redis lock serializes cycles across workers
// and a per-job gate keeps each job to one run per cadence.
package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/metrics"
)

const (
	defaultTick = time.Minute
	// releaseTimeout bounds the lock release that runs after shutdown starts.
	releaseTimeout = 5 * time.Second
)

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Gate     Gate
	Metrics  *metrics.CronJobMetrics
	// Tick is how often the worker tries the lock. Defaults to one minute.
	Tick time.Duration
	// JobTimeout caps a single job run. Zero uses the job's cadence.
	JobTimeout time.Duration
}

type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	gate       Gate
	metrics    *metrics.CronJobMetrics
	tick       time.Duration
	jobTimeout time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.Lock == nil:
		return nil, errors.New("lock required")
	case params.Gate == nil:
		return nil, errors.New("job gate required")
	}
	s := &Service{
		logg:       params.Logger,
		registry:   params.Registry,
		lock:       params.Lock,
		gate:       params.Gate,
		metrics:    params.Metrics,
		tick:       params.Tick,
		jobTimeout: params.JobTimeout,
	}
	if s.registry == nil {
		s.registry = NewRegistry()
	}
	if s.tick <= 0 {
		s.tick = defaultTick
	}
	return s, nil
}

// Run fires one cycle immediately and then once per tick until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		if err := s.runCycle(ctx); err != nil && ctx.Err() == nil {
			s.logg.Error(ctx, "scheduled run failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Debug(ctx, "another cron instance holds the lock; skipping this tick")
		return nil
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := s.lock.Release(releaseCtx); err != nil {
			s.logg.Error(ctx, "failed to release cron lock", err)
		}
	}()

	for _, scheduled := range s.registry.Jobs() {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.runScheduled(s.logg.WithJob(ctx, scheduled.Job.Name()), scheduled)
	}
	return nil
}

// runScheduled runs the job if its gate is open. A failed run reopens the gate
// so the next tick retries instead of waiting out the whole cadence.
func (s *Service) runScheduled(ctx context.Context, scheduled Scheduled) {
	name := scheduled.Job.Name()
	open, err := s.gate.Open(ctx, name, scheduled.Every)
	if err != nil {
		s.logg.Error(ctx, "job gate unavailable", err)
		return
	}
	if !open {
		s.metrics.Skipped(name)
		return
	}

	timeout := s.jobTimeout
	if timeout <= 0 {
		timeout = scheduled.Every
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logg.Info(ctx, "job start")
	start := time.Now()
	err = runGuarded(runCtx, scheduled.Job)
	elapsed := time.Since(start)
	s.metrics.ObserveRun(name, elapsed, err)

	ctx = s.logg.WithField(ctx, "duration_ms", elapsed.Milliseconds())
	if err == nil {
		s.logg.Info(ctx, "job completed")
		return
	}
	s.logg.Error(ctx, "job failed", err)
	if resetErr := s.gate.Reset(context.WithoutCancel(ctx), name); resetErr != nil {
		s.logg.Error(ctx, "failed to reset job gate", resetErr)
	}
}

// runGuarded reports a job panic as an error.
func runGuarded(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name(), r)
		}
	}()
	return job.Run(ctx)
}
