package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const defaultLockTTL = 10 * time.Minute

// Lock coordinates exclusive scheduler cycles across cron-worker instances.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Gate opens at most once per cadence for a job.
type Gate interface {
	Open(ctx context.Context, job string, cadence time.Duration) (bool, error)
	Reset(ctx context.Context, job string) error
}

// redisStore defines the operations used by the Redis lock and gate.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DeleteIfValue(ctx context.Context, key, value string) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock implements Lock using Redis SETNX + TTL.
type RedisLock struct {
	client redisStore
	key    string
	ttl    time.Duration
	owner  string
}

// NewRedisLock constructs a Redis-backed lock.
func NewRedisLock(client redisStore, key string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{client: client, key: key, ttl: ttl}, nil
}

// Acquire tries to own the lock for the configured TTL.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Release frees the lock only while this instance still owns it. A lock that
// expired and was taken by another instance is left alone.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	owner := l.owner
	l.owner = ""
	if _, err := l.client.DeleteIfValue(ctx, l.key, owner); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// RedisGate keeps one key per job that expires after the job's cadence.
type RedisGate struct {
	client redisStore
	keyFor func(job string) string
	now    func() time.Time
}

// NewRedisGate builds a job gate. keyFor maps a job name to its Redis key.
func NewRedisGate(client redisStore, keyFor func(job string) string) (*RedisGate, error) {
	if client == nil {
		return nil, errors.New("redis client required for job gate")
	}
	if keyFor == nil {
		keyFor = func(job string) string { return "cron:gate:" + job }
	}
	return &RedisGate{client: client, keyFor: keyFor, now: time.Now}, nil
}

// Open claims the job for one cadence. It reports false while an earlier claim is still live.
func (g *RedisGate) Open(ctx context.Context, job string, cadence time.Duration) (bool, error) {
	if cadence <= 0 {
		return false, fmt.Errorf("cadence for %s must be positive", job)
	}
	ok, err := g.client.SetNX(ctx, g.keyFor(job), g.now().UTC().Format(time.RFC3339), cadence)
	if err != nil {
		return false, fmt.Errorf("open gate %s: %w", job, err)
	}
	return ok, nil
}

// Reset closes the claim so the next tick retries the job.
func (g *RedisGate) Reset(ctx context.Context, job string) error {
	if err := g.client.Del(ctx, g.keyFor(job)); err != nil {
		return fmt.Errorf("reset gate %s: %w", job, err)
	}
	return nil
}
