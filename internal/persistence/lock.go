package persistence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockRetryInterval = 50 * time.Millisecond

// RedisRunLock serializes ingestion runs across processes using a Redis
// lease. Acquire blocks until the lock is held or ctx is done; the lease TTL
// bounds how long a crashed holder can keep others out.
type RedisRunLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRunLock builds a run lock over an existing client.
func NewRedisRunLock(r *Redis, ttl time.Duration) *RedisRunLock {
	return &RedisRunLock{client: r.Client, ttl: ttl}
}

// Acquire takes the named lock, returning a release func.
func (l *RedisRunLock) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	lockKey := "ingest:lock:" + key

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire run lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}

	release := func() {
		// Only delete the lease we own; an expired lease may have been
		// re-acquired by another run.
		val, err := l.client.Get(context.Background(), lockKey).Result()
		if err == nil && val == token {
			_ = l.client.Del(context.Background(), lockKey).Err()
		}
	}
	return release, nil
}

// LocalRunLock serializes ingestion runs within a single process. Used when
// Redis is not configured and by tests.
type LocalRunLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocalRunLock builds an in-process run lock.
func NewLocalRunLock() *LocalRunLock {
	return &LocalRunLock{locks: make(map[string]*sync.Mutex)}
}

// Acquire takes the named lock, returning a release func.
func (l *LocalRunLock) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}
