package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/metrics"
)

const defaultBatchSize = 200

// sweep visits candidate entities one transaction at a time. list returns at most limit ids;
// apply re-checks the entity under its row lock and reports whether it changed anything.
type sweep struct {
	job     string
	entity  string
	limit   int
	logg    *logger.Logger
	metrics *metrics.SweepMetrics
	list    func(ctx context.Context, limit int) ([]uuid.UUID, error)
	apply   func(ctx context.Context, id uuid.UUID) (bool, error)
}

type sweepResult struct {
	processed int
	skipped   int
	failed    int
}

// run pages through candidates until a page brings nothing new. Processed entities drop out of
// the candidate query; failed and unchanged ones stay, so each page asks for that many extra rows.
func (s sweep) run(ctx context.Context) (sweepResult, error) {
	limit := s.limit
	if limit <= 0 {
		limit = defaultBatchSize
	}
	var (
		result sweepResult
		errs   error
		seen   = map[uuid.UUID]bool{}
	)
	for {
		fetch := limit + len(seen)
		ids, err := s.list(ctx, fetch)
		if err != nil {
			return result, multierr.Append(errs, fmt.Errorf("list %s: %w", s.entity, err))
		}
		fresh := 0
		for _, id := range ids {
			if ctx.Err() != nil {
				return result, multierr.Append(errs, ctx.Err())
			}
			if seen[id] {
				continue
			}
			fresh++
			changed, err := s.apply(ctx, id)
			switch {
			case err != nil:
				seen[id] = true
				result.failed++
				s.metrics.Failed(s.job)
				entityCtx := s.logg.WithEntity(ctx, s.entity+"_id", id)
				s.logg.Error(entityCtx, s.entity+" sweep failed", err)
				errs = multierr.Append(errs, fmt.Errorf("%s %s: %w", s.entity, id, err))
			case changed:
				result.processed++
				s.metrics.Processed(s.job)
			default:
				seen[id] = true
				result.skipped++
				s.metrics.Skipped(s.job)
			}
		}
		if len(ids) < fetch || fresh == 0 {
			break
		}
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"processed": result.processed,
		"skipped":   result.skipped,
		"failed":    result.failed,
	})
	s.logg.Info(logCtx, s.job+" sweep complete")
	return result, errs
}
