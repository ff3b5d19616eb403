package main

import (
	"context"
	"math/rand"
	"time"
)

const (
	maxBackoff   = 10 * time.Second
	jitterWindow = 250 * time.Millisecond
)

// pollBackoff paces the drain loop: a full batch polls again immediately, an
// empty one waits the base interval, and failures double the wait up to max.
type pollBackoff struct {
	base    time.Duration
	max     time.Duration
	current time.Duration
	rnd     *rand.Rand
}

func newPollBackoff(base, max time.Duration) *pollBackoff {
	return &pollBackoff{
		base:    base,
		max:     max,
		current: base,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// next returns how long to wait after a batch.
func (b *pollBackoff) next(summary batchSummary, err error) time.Duration {
	switch {
	case err != nil:
		b.current = nextBackoff(b.current, b.base, b.max)
		return b.jitter(b.current)
	case summary.total() > 0:
		b.current = b.base
		return 0
	default:
		b.current = b.base
		return b.jitter(b.base)
	}
}

func (b *pollBackoff) jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(b.rnd.Int63n(int64(jitterWindow)))
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	if next := current * 2; next < max {
		return next
	}
	return max
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
