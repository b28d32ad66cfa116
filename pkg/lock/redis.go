package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/tair/warehouse-erp/pkg/logger"
)

// RedisLocker is a Locker shared by every process using the same Redis.
// Keys expire after ttl so a crashed holder cannot block others forever.
type RedisLocker struct {
	client *redislock.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisLocker creates a new Redis backed locker
func NewRedisLocker(rdb redis.UniversalClient, prefix string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(rdb),
		prefix: prefix,
		ttl:    ttl,
		retry:  50 * time.Millisecond,
	}
}

func (l *RedisLocker) obtain(ctx context.Context, key string, opt *redislock.Options) (Release, error) {
	lk, err := l.client.Obtain(ctx, l.prefix+key, l.ttl, opt)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, ErrNotObtained
		}
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := lk.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				logger.Warn(ctx).Err(err).Str("key", key).Msg("Failed to release lock")
			}
		})
	}, nil
}

// Acquire implements Locker, retrying until ctx is done or the ttl elapses
func (l *RedisLocker) Acquire(ctx context.Context, keys ...string) (Release, error) {
	keys = sortedKeys(keys)
	held := make([]Release, 0, len(keys))
	for _, key := range keys {
		release, err := l.obtain(ctx, key, &redislock.Options{
			RetryStrategy: redislock.LinearBackoff(l.retry),
		})
		if err != nil {
			releaseAll(held)()
			return nil, err
		}
		held = append(held, release)
	}
	return releaseAll(held), nil
}

// TryAcquire implements Locker
func (l *RedisLocker) TryAcquire(ctx context.Context, key string) (Release, error) {
	return l.obtain(ctx, key, nil)
}
