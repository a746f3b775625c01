package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/NDJ-create/backend-stockage-clean/internal/shared"
)

// LocalLocker serializes tenant writers inside a single process using one
// semaphore per tenant key.
type LocalLocker struct {
	mu      sync.Mutex
	sems    map[string]chan struct{}
	timeout time.Duration
}

// NewLocalLocker builds a LocalLocker. timeout bounds how long Acquire waits
// for a contended tenant before giving up.
func NewLocalLocker(timeout time.Duration) *LocalLocker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &LocalLocker{sems: make(map[string]chan struct{}), timeout: timeout}
}

func (l *LocalLocker) sem(tenantKey string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	sem, ok := l.sems[tenantKey]
	if !ok {
		sem = make(chan struct{}, 1)
		l.sems[tenantKey] = sem
	}
	return sem
}

// Acquire takes the tenant's write scope or fails with shared.ErrConcurrency.
func (l *LocalLocker) Acquire(ctx context.Context, tenantKey string) (func(), error) {
	sem := l.sem(tenantKey)
	timer := time.NewTimer(l.timeout)
	defer timer.Stop()
	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-timer.C:
		return nil, fmt.Errorf("ledger: lock %q: %w", tenantKey, shared.ErrConcurrency)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RedisLocker serializes tenant writers across processes with redislock.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	retry  redislock.RetryStrategy
}

// NewRedisLocker builds a RedisLocker on top of an existing redis client.
// ttl bounds how long a crashed holder can block the tenant.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		client: redislock.New(client),
		ttl:    ttl,
		retry:  redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 20),
	}
}

// LockKey builds the redis key for a tenant's write scope.
func LockKey(tenantKey string) string {
	return fmt.Sprintf("tenant:%s:ledger:lock", tenantKey)
}

// Acquire obtains the distributed lock or fails with shared.ErrConcurrency.
func (l *RedisLocker) Acquire(ctx context.Context, tenantKey string) (func(), error) {
	lock, err := l.client.Obtain(ctx, LockKey(tenantKey), l.ttl, &redislock.Options{RetryStrategy: l.retry})
	if err != nil {
		if err == redislock.ErrNotObtained {
			return nil, fmt.Errorf("ledger: lock %q: %w", tenantKey, shared.ErrConcurrency)
		}
		return nil, fmt.Errorf("ledger: obtain lock: %w", err)
	}
	return func() {
		// Release outlives the request context on purpose.
		_ = lock.Release(context.Background())
	}, nil
}
