// Package ratelimit implements fixed-window attempt counters on the shared cache.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"assetdesk/utils"

	"github.com/go-redis/redis/v8"
)

// Policy is a named fixed window: at most Max attempts per identity per Window.
type Policy struct {
	Prefix string
	Max    int64
	Window time.Duration
}

var (
	// SendOTP gates passcode issuance per email.
	SendOTP = Policy{Prefix: "rate:otp:", Max: 5, Window: 300 * time.Second}
	// VerifyOTP gates passcode verification per email.
	VerifyOTP = Policy{Prefix: "rate:login:", Max: 10, Window: 600 * time.Second}
)

// Key returns the counter key for identity.
func (p Policy) Key(identity string) string {
	return p.Prefix + identity
}

// Limiter counts attempts in Redis.
type Limiter struct {
	client redis.Cmdable
}

func NewLimiter(client redis.Cmdable) *Limiter {
	return &Limiter{client: client}
}

// Allow applies p to identity.
func (l *Limiter) Allow(ctx context.Context, p Policy, identity string) error {
	return l.CheckAndIncrement(ctx, p.Key(identity), p.Max, p.Window)
}

// CheckAndIncrement rejects when the counter at key already reached limit.
// Otherwise it increments the counter and resets its expiry to window.
// Concurrent callers may both pass at limit-1; the window is best effort.
func (l *Limiter) CheckAndIncrement(ctx context.Context, key string, limit int64, window time.Duration) error {
	count, err := l.client.Get(ctx, key).Int64()
	switch {
	case err == redis.Nil:
	case err != nil:
		return fmt.Errorf("failed to read rate counter %s: %w", key, err)
	case count >= limit:
		return utils.RateLimited("too many attempts, try again later")
	}

	_, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, window)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to bump rate counter %s: %w", key, err)
	}
	return nil
}
