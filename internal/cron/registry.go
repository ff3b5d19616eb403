package cron

import (
	"context"
	"fmt"
	"time"
)

// Job is a unit of scheduled work. Name doubles as the gate, lock and metric
// label so it must be unique within a worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduled struct {
	Job   Job
	Every time.Duration
}

type Registry struct {
	jobs  []Scheduled
	names map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{names: map[string]struct{}{}}
}

// Register adds job on the given cadence.
func (r *Registry) Register(job Job, every time.Duration) error {
	if job == nil {
		return fmt.Errorf("cron job is required")
	}
	name := job.Name()
	if name == "" {
		return fmt.Errorf("cron job name is required")
	}
	if every <= 0 {
		return fmt.Errorf("cron job %s: cadence must be positive, got %s", name, every)
	}
	if _, dup := r.names[name]; dup {
		return fmt.Errorf("cron job %s registered twice", name)
	}
	r.names[name] = struct{}{}
	r.jobs = append(r.jobs, Scheduled{Job: job, Every: every})
	return nil
}

// Jobs returns a copy in registration order.
func (r *Registry) Jobs() []Scheduled {
	return append([]Scheduled(nil), r.jobs...)
}
