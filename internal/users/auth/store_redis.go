// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/kkm-registry/internal/platform/constants"
)

// RedisLoginThrottle implements [LoginThrottle] with one expiring counter per email.
type RedisLoginThrottle struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewLoginThrottle creates a Redis-backed LoginThrottle.
func NewLoginThrottle(client *redis.Client, maxAttempts int, window time.Duration) *RedisLoginThrottle {
	return &RedisLoginThrottle{client: client, maxAttempts: maxAttempts, window: window}
}

func (throttle *RedisLoginThrottle) key(email string) string {
	return constants.RedisPrefixLoginAttempts + email
}

/*
Locked reports the remaining lockout for email.

Returns:
  - time.Duration: Zero while the attempt count is below the limit
  - error: Connectivity errors
*/
func (throttle *RedisLoginThrottle) Locked(ctx context.Context, email string) (time.Duration, error) {
	key := throttle.key(email)

	count, err := throttle.client.Get(ctx, key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis_login_throttle_get_failed: %w", err)
	}

	if count < throttle.maxAttempts {
		return 0, nil
	}

	remaining, err := throttle.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis_login_throttle_ttl_failed: %w", err)
	}

	// A counter without expiry should not exist; lock for a full window.
	if remaining <= 0 {
		return throttle.window, nil
	}

	return remaining, nil
}

// RecordFailure increments the counter and starts the window on the first failure.
func (throttle *RedisLoginThrottle) RecordFailure(ctx context.Context, email string) error {
	key := throttle.key(email)

	pipe := throttle.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, throttle.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis_login_throttle_incr_failed: %w", err)
	}

	return nil
}

// Reset deletes the counter after a successful login.
func (throttle *RedisLoginThrottle) Reset(ctx context.Context, email string) error {
	if err := throttle.client.Del(ctx, throttle.key(email)).Err(); err != nil {
		return fmt.Errorf("redis_login_throttle_reset_failed: %w", err)
	}
	return nil
}

// # Disabled Throttle

// NoopLoginThrottle never locks. It is used when no Redis URL is configured.
type NoopLoginThrottle struct{}

func (NoopLoginThrottle) Locked(context.Context, string) (time.Duration, error) { return 0, nil }

func (NoopLoginThrottle) RecordFailure(context.Context, string) error { return nil }

func (NoopLoginThrottle) Reset(context.Context, string) error { return nil }
