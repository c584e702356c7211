package ratelimit

import (
	"context"
	"fmt"
	"time"

	"touroperator-backend/clock"

	"github.com/redis/go-redis/v9"
)

// RedisCounter keeps fixed windows in Redis so budgets are shared across
// service instances. The key embeds the window start, so INCR on it is the
// whole reset-and-count discipline; EXPIRE bounds leftover keys. Errors
// propagate to the gateway, which fails closed.
type RedisCounter struct {
	client *redis.Client
	clk    clock.Clock
	prefix string
}

func NewRedisCounter(client *redis.Client, clk clock.Clock) *RedisCounter {
	return &RedisCounter{client: client, clk: clk, prefix: "ratelimit"}
}

func (c *RedisCounter) Track(ctx context.Context, subject string, limit int, window time.Duration) (Result, error) {
	winSecs := int64(window / time.Second)
	if winSecs < 1 {
		winSecs = 1
	}
	now := c.clk.Now().Unix()
	start := now - now%winSecs
	key := fmt.Sprintf("%s:%s:%d", c.prefix, subject, start)

	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("redis counter: %w", err)
	}

	count := int(incr.Val())
	resetAt := start + winSecs
	res := Result{
		Allowed: count <= limit,
		Limit:   limit,
		ResetAt: resetAt,
	}
	if remaining := limit - count; remaining > 0 {
		res.Remaining = remaining
	}
	if !res.Allowed {
		if after := int(resetAt - now); after > 0 {
			res.RetryAfter = after
		} else {
			res.RetryAfter = 1
		}
	}
	return res, nil
}
