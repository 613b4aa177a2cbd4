package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginThrottle tracks failed sign-in attempts per account key.
type LoginThrottle interface {
	Blocked(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// RedisLoginThrottle counts failures in Redis with a sliding expiry.
type RedisLoginThrottle struct {
	client      redis.Cmdable
	maxAttempts int64
	window      time.Duration
	prefix      string
}

// NewRedisLoginThrottle builds a throttle. A nil client disables throttling.
func NewRedisLoginThrottle(client redis.Cmdable, maxAttempts int, window time.Duration) *RedisLoginThrottle {
	return &RedisLoginThrottle{
		client:      client,
		maxAttempts: int64(maxAttempts),
		window:      window,
		prefix:      "taskflow:login-failures:",
	}
}

func (t *RedisLoginThrottle) key(account string) string {
	return t.prefix + strings.ToLower(strings.TrimSpace(account))
}

// Blocked reports whether the account reached the failure limit.
func (t *RedisLoginThrottle) Blocked(ctx context.Context, account string) (bool, error) {
	if t == nil || t.client == nil || t.maxAttempts <= 0 {
		return false, nil
	}
	count, err := t.client.Get(ctx, t.key(account)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return count >= t.maxAttempts, nil
}

// RecordFailure increments the failure counter and refreshes its window.
func (t *RedisLoginThrottle) RecordFailure(ctx context.Context, account string) error {
	if t == nil || t.client == nil || t.maxAttempts <= 0 {
		return nil
	}
	key := t.key(account)
	pipe := t.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, t.window)
	_, err := pipe.Exec(ctx)
	return err
}

// Reset clears the counter after a successful sign-in.
func (t *RedisLoginThrottle) Reset(ctx context.Context, account string) error {
	if t == nil || t.client == nil {
		return nil
	}
	return t.client.Del(ctx, t.key(account)).Err()
}
