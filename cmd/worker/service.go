package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
)

type pinger interface {
	Ping(context.Context) error
}

type consumer interface {
	Run(ctx context.Context) error
}

type ServiceParams struct {
	Logger *logger.Logger
	// Dependencies are pinged by name before any consumer starts.
	Dependencies map[string]pinger
	Consumers    map[string]consumer
}

// Service runs the event consumers side by side until one fails or the context ends.
type Service struct {
	logg         *logger.Logger
	dependencies map[string]pinger
	consumers    map[string]consumer
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if len(params.Consumers) == 0 {
		return nil, errors.New("at least one consumer is required")
	}
	for name, c := range params.Consumers {
		if c == nil {
			return nil, fmt.Errorf("%s consumer is required", name)
		}
	}
	return &Service{
		logg:         params.Logger,
		dependencies: params.Dependencies,
		consumers:    params.Consumers,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for name, dep := range s.dependencies {
		if err := dep.Ping(ctx); err != nil {
			s.logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

// Run returns the combined consumer errors. A clean shutdown returns context.Canceled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		name string
		err  error
	}
	results := make(chan result, len(s.consumers))
	for name, c := range s.consumers {
		go func(name string, c consumer) {
			results <- result{name: name, err: c.Run(s.logg.WithField(ctx, "consumer", name))}
		}(name, c)
	}

	var errs error
	for range s.consumers {
		res := <-results
		if res.err != nil && !errors.Is(res.err, context.Canceled) {
			s.logg.Error(ctx, "consumer stopped unexpectedly", fmt.Errorf("%s: %w", res.name, res.err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", res.name, res.err))
		}
		// one consumer down stops the rest so the process restarts whole.
		cancel()
	}
	if errs != nil {
		return errs
	}
	return context.Canceled
}
